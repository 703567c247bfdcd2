package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/nikhilbhutani/reviewinsight/internal/facet"
	"github.com/nikhilbhutani/reviewinsight/internal/filter"
)

// maxFacetBuckets matches the default bucket count of the hosted index.
const maxFacetBuckets = 10

var ErrVectorRequired = errors.New("pgvector search requires a query vector")

// filterColumns are the text columns that may appear in a filter or facet.
var filterColumns = map[string]bool{
	"product_name":  true,
	"product_group": true,
	"gender":        true,
	"age_group":     true,
}

// PgVectorIndex keeps reviews in a Postgres table with a pgvector column.
type PgVectorIndex struct {
	db    *pgxpool.Pool
	table string
}

func NewPgVectorIndex(db *pgxpool.Pool, table string) *PgVectorIndex {
	return &PgVectorIndex{db: db, table: table}
}

func (s *PgVectorIndex) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

func columnType(f Field) string {
	switch f.Type {
	case FieldDouble:
		return "DOUBLE PRECISION"
	case FieldVector:
		return fmt.Sprintf("vector(%d)", f.Dimensions)
	default:
		// created_at is kept as received, malformed values included.
		return "TEXT"
	}
}

func buildTableDDL(table string, schema Schema) string {
	cols := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		col := pgx.Identifier{f.Name}.Sanitize() + " " + columnType(f)
		if f.Key {
			col += " PRIMARY KEY"
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", pgx.Identifier{table}.Sanitize(), strings.Join(cols, ",\n\t"))
}

// EnsureIndex creates the extension, the review table and an HNSW index on
// the vector column.
func (s *PgVectorIndex) EnsureIndex(ctx context.Context, schema Schema) error {
	if _, err := s.db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	if _, err := s.db.Exec(ctx, buildTableDDL(s.table, schema)); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	for _, f := range schema.Fields {
		if f.Type != FieldVector {
			continue
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (%s vector_cosine_ops)",
			pgx.Identifier{s.table + "_" + f.Name + "_hnsw"}.Sanitize(), s.ident(), pgx.Identifier{f.Name}.Sanitize())
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create vector index: %w", err)
		}
	}
	return nil
}

// Upsert writes every document in one transaction. A failing row aborts the
// batch, so every document is reported with the same outcome.
func (s *PgVectorIndex) Upsert(ctx context.Context, docs []Document) ([]IndexingResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(
		`INSERT INTO %s (review_id, product_name, product_group, gender, age_group, rating, review_text, review_vector, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (review_id) DO UPDATE SET
		   product_name = $2, product_group = $3, gender = $4, age_group = $5,
		   rating = $6, review_text = $7, review_vector = $8, created_at = $9`, s.ident())

	for _, d := range docs {
		var vec any
		if len(d.ReviewVector) > 0 {
			vec = pgvector.NewVector(d.ReviewVector)
		}
		if _, err := tx.Exec(ctx, stmt,
			d.ReviewID, d.ProductName, d.ProductGroup, d.Gender, d.AgeGroup,
			d.Rating, d.ReviewText, vec, d.CreatedAt,
		); err != nil {
			return failAll(docs, err.Error()), nil
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return failAll(docs, err.Error()), nil
	}

	results := make([]IndexingResult, len(docs))
	for i, d := range docs {
		results[i] = IndexingResult{Key: d.ReviewID, Succeeded: true, StatusCode: 200}
	}
	return results, nil
}

func failAll(docs []Document, msg string) []IndexingResult {
	results := make([]IndexingResult, len(docs))
	for i, d := range docs {
		results[i] = IndexingResult{Key: d.ReviewID, ErrorMessage: msg, StatusCode: 500}
	}
	return results
}

// buildWhere renders the filter clauses as positional predicates starting at
// $next. It returns an empty string when the query is unconstrained.
func buildWhere(q filter.Query, next int) (string, []any, error) {
	var (
		preds []string
		args  []any
	)
	for _, c := range q.Clauses {
		if !filterColumns[c.Field] {
			return "", nil, fmt.Errorf("field %q is not filterable", c.Field)
		}
		if len(c.Values) == 0 {
			continue
		}
		preds = append(preds, fmt.Sprintf("%s = ANY($%d)", pgx.Identifier{c.Field}.Sanitize(), next))
		args = append(args, c.Values)
		next++
	}
	if len(preds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(preds, " AND "), args, nil
}

func (s *PgVectorIndex) Search(ctx context.Context, req Request) (*Result, error) {
	if len(req.Vector) == 0 {
		return nil, ErrVectorRequired
	}
	top := req.Top
	if top <= 0 {
		top = 5
	}

	where, args, err := buildWhere(req.Filter, 3)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT review_id, product_name, product_group, gender, age_group, rating, review_text, COALESCE(created_at, ''),
		        1 - (review_vector <=> $1) AS score
		 FROM %s%s
		 ORDER BY review_vector <=> $1
		 LIMIT $2`, s.ident(), where)

	rows, err := s.db.Query(ctx, query, append([]any{pgvector.NewVector(req.Vector), top}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	result := &Result{Facets: make(map[string][]facet.Bucket, len(req.Filter.Facets))}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ReviewID, &d.ProductName, &d.ProductGroup, &d.Gender, &d.AgeGroup,
			&d.Rating, &d.ReviewText, &d.CreatedAt, &d.Score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		result.Documents = append(result.Documents, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}

	for _, field := range req.Filter.Facets {
		buckets, err := s.facet(ctx, field, req.Filter)
		if err != nil {
			return nil, err
		}
		result.Facets[field] = buckets
	}
	return result, nil
}

// facet counts values of field over every row matching the filter, not only
// the ranked page.
func (s *PgVectorIndex) facet(ctx context.Context, field string, q filter.Query) ([]facet.Bucket, error) {
	if !filterColumns[field] {
		return nil, fmt.Errorf("field %q is not facetable", field)
	}
	where, args, err := buildWhere(q, 1)
	if err != nil {
		return nil, err
	}

	col := pgx.Identifier{field}.Sanitize()
	query := fmt.Sprintf(
		`SELECT COALESCE(%s, ''), count(*) FROM %s%s GROUP BY 1 ORDER BY 2 DESC, 1 LIMIT %d`,
		col, s.ident(), where, maxFacetBuckets)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("facet %s: %w", field, err)
	}
	defer rows.Close()

	var buckets []facet.Bucket
	for rows.Next() {
		var b facet.Bucket
		if err := rows.Scan(&b.Value, &b.Count); err != nil {
			return nil, fmt.Errorf("scan facet %s: %w", field, err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
