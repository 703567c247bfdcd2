// Package search talks to the review index: schema bootstrap, keyed document
// upserts and filtered, faceted semantic queries.
package search

import (
	"context"

	"github.com/nikhilbhutani/reviewinsight/internal/facet"
	"github.com/nikhilbhutani/reviewinsight/internal/filter"
)

// Document is one product review as stored in the index.
type Document struct {
	ReviewID     string    `json:"review_id"`
	ProductName  string    `json:"product_name"`
	ProductGroup string    `json:"product_group"`
	Gender       string    `json:"gender"`
	AgeGroup     string    `json:"age_group"`
	Rating       *float64  `json:"rating"`
	ReviewText   string    `json:"review_text"`
	ReviewVector []float32 `json:"review_vector,omitempty"`
	CreatedAt    string    `json:"created_at,omitempty"`

	Score float64 `json:"-"`
}

// Request is a single ranked retrieval.
type Request struct {
	Text           string
	Vector         []float32 // optional, adds a vector query on review_vector
	Filter         filter.Query
	Top            int
	Select         []string
	SemanticConfig string
}

// Result holds the ranked documents and the facet buckets for every facet
// requested through Request.Filter.Facets.
type Result struct {
	Documents []Document
	Facets    map[string][]facet.Bucket
}

// IndexingResult reports the outcome for one uploaded document.
type IndexingResult struct {
	Key          string
	Succeeded    bool
	ErrorMessage string
	StatusCode   int
}

type Index interface {
	EnsureIndex(ctx context.Context, schema Schema) error
	Upsert(ctx context.Context, docs []Document) ([]IndexingResult, error)
	Search(ctx context.Context, req Request) (*Result, error)
}

// DefaultSelect is the field set returned to the answer path.
var DefaultSelect = []string{"product_name", "product_group", "gender", "age_group", "rating", "review_text"}
