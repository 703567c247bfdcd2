package ingest

import (
	"context"
	"fmt"

	"github.com/nikhilbhutani/reviewinsight/internal/embedding"
	"github.com/nikhilbhutani/reviewinsight/internal/filter"
	"github.com/nikhilbhutani/reviewinsight/internal/search"
)

// ProbeFacets are the facets requested by the post-load sample query.
var ProbeFacets = []string{"product_group", "gender", "age_group"}

// Probe runs a pure vector query with facets against a freshly loaded index.
func Probe(ctx context.Context, index search.Index, embedder embedding.Embedder, query string) (*search.Result, error) {
	vec, err := embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed probe query: %w", err)
	}
	res, err := index.Search(ctx, search.Request{
		Vector: vec,
		Top:    5,
		Filter: filter.Query{Clauses: []filter.Clause{}, Facets: ProbeFacets},
	})
	if err != nil {
		return nil, fmt.Errorf("probe search: %w", err)
	}
	return res, nil
}
