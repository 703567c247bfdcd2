package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nikhilbhutani/reviewinsight/internal/apperr"
	"github.com/nikhilbhutani/reviewinsight/internal/facet"
)

const vectorProfile = "vp-hnsw"

// AzureIndex is an Azure AI Search index accessed over its REST API.
type AzureIndex struct {
	endpoint   string
	apiKey     string
	indexName  string
	apiVersion string
	httpClient *http.Client
}

func NewAzureIndex(endpoint, apiKey, indexName, apiVersion string) *AzureIndex {
	if apiVersion == "" {
		apiVersion = "2024-07-01"
	}
	return &AzureIndex{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		indexName:  indexName,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: time.Minute},
	}
}

type azureField struct {
	Name                string `json:"name"`
	Type                string `json:"type"`
	Key                 bool   `json:"key,omitempty"`
	Searchable          bool   `json:"searchable"`
	Filterable          bool   `json:"filterable"`
	Sortable            bool   `json:"sortable"`
	Facetable           bool   `json:"facetable"`
	Dimensions          int    `json:"dimensions,omitempty"`
	VectorSearchProfile string `json:"vectorSearchProfile,omitempty"`
}

type azureFieldName struct {
	FieldName string `json:"fieldName"`
}

type azureIndexDef struct {
	Name         string           `json:"name"`
	Fields       []azureField     `json:"fields"`
	VectorSearch map[string]any   `json:"vectorSearch,omitempty"`
	Semantic     map[string]any   `json:"semantic,omitempty"`
	Suggesters   []map[string]any `json:"suggesters,omitempty"`
}

func buildIndexDefinition(s Schema) azureIndexDef {
	def := azureIndexDef{Name: s.Name}

	hasVector := false
	for _, f := range s.Fields {
		af := azureField{
			Name:       f.Name,
			Type:       string(f.Type),
			Key:        f.Key,
			Searchable: f.Searchable,
			Filterable: f.Filterable,
			Sortable:   f.Sortable,
			Facetable:  f.Facetable,
		}
		if f.Type == FieldVector {
			hasVector = true
			af.Dimensions = f.Dimensions
			af.VectorSearchProfile = vectorProfile
			af.Filterable, af.Sortable, af.Facetable = false, false, false
		}
		def.Fields = append(def.Fields, af)
	}

	if hasVector {
		def.VectorSearch = map[string]any{
			"algorithms": []map[string]any{{"name": "algo-hnsw", "kind": "hnsw"}},
			"profiles":   []map[string]any{{"name": vectorProfile, "algorithm": "algo-hnsw"}},
		}
	}

	if s.SemanticConfig != "" {
		prioritized := map[string]any{}
		if s.TitleField != "" {
			prioritized["titleField"] = azureFieldName{FieldName: s.TitleField}
		}
		if len(s.ContentFields) > 0 {
			prioritized["prioritizedContentFields"] = fieldNames(s.ContentFields)
		}
		if len(s.KeywordFields) > 0 {
			prioritized["prioritizedKeywordsFields"] = fieldNames(s.KeywordFields)
		}
		def.Semantic = map[string]any{
			"configurations": []map[string]any{{"name": s.SemanticConfig, "prioritizedFields": prioritized}},
		}
	}

	if len(s.SuggesterFields) > 0 {
		def.Suggesters = []map[string]any{{
			"name":         "sg",
			"searchMode":   "analyzingInfixMatching",
			"sourceFields": s.SuggesterFields,
		}}
	}

	return def
}

func fieldNames(names []string) []azureFieldName {
	out := make([]azureFieldName, len(names))
	for i, n := range names {
		out[i] = azureFieldName{FieldName: n}
	}
	return out
}

// EnsureIndex creates or updates the index definition.
func (a *AzureIndex) EnsureIndex(ctx context.Context, schema Schema) error {
	if schema.Name == "" {
		schema.Name = a.indexName
	}
	path := "/indexes/" + url.PathEscape(schema.Name)
	if err := a.do(ctx, http.MethodPut, path, buildIndexDefinition(schema), nil); err != nil {
		return fmt.Errorf("create or update index %s: %w", schema.Name, err)
	}
	return nil
}

type azureUpload struct {
	Action string `json:"@search.action"`
	Document
}

type azureIndexingResponse struct {
	Value []struct {
		Key          string  `json:"key"`
		Status       bool    `json:"status"`
		ErrorMessage *string `json:"errorMessage"`
		StatusCode   int     `json:"statusCode"`
	} `json:"value"`
}

// Upsert merges or uploads docs keyed by review_id. Per-document failures are
// reported in the results, not as an error.
func (a *AzureIndex) Upsert(ctx context.Context, docs []Document) ([]IndexingResult, error) {
	batch := make([]azureUpload, len(docs))
	for i, d := range docs {
		batch[i] = azureUpload{Action: "mergeOrUpload", Document: d}
	}

	var resp azureIndexingResponse
	path := "/indexes/" + url.PathEscape(a.indexName) + "/docs/index"
	if err := a.do(ctx, http.MethodPost, path, map[string]any{"value": batch}, &resp); err != nil {
		return nil, fmt.Errorf("index documents: %w", err)
	}

	results := make([]IndexingResult, len(resp.Value))
	for i, v := range resp.Value {
		results[i] = IndexingResult{Key: v.Key, Succeeded: v.Status, StatusCode: v.StatusCode}
		if v.ErrorMessage != nil {
			results[i].ErrorMessage = *v.ErrorMessage
		}
	}
	return results, nil
}

type azureVectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

type azureSearchRequest struct {
	Search                string             `json:"search,omitempty"`
	QueryType             string             `json:"queryType,omitempty"`
	SemanticConfiguration string             `json:"semanticConfiguration,omitempty"`
	Top                   int                `json:"top,omitempty"`
	Select                string             `json:"select,omitempty"`
	Filter                string             `json:"filter,omitempty"`
	Facets                []string           `json:"facets,omitempty"`
	VectorQueries         []azureVectorQuery `json:"vectorQueries,omitempty"`
}

type azureHit struct {
	Document
	SearchScore float64 `json:"@search.score"`
}

type azureFacet struct {
	Value any   `json:"value"`
	Count int64 `json:"count"`
}

type azureSearchResponse struct {
	Value  []azureHit              `json:"value"`
	Facets map[string][]azureFacet `json:"@search.facets"`
}

func buildSearchRequest(req Request) azureSearchRequest {
	body := azureSearchRequest{
		Search: req.Text,
		Top:    req.Top,
		Select: strings.Join(req.Select, ","),
		Filter: req.Filter.Expression(),
		Facets: req.Filter.Facets,
	}
	if req.SemanticConfig != "" {
		body.QueryType = "semantic"
		body.SemanticConfiguration = req.SemanticConfig
	}
	if len(req.Vector) > 0 {
		k := req.Top
		if k <= 0 {
			k = 5
		}
		body.VectorQueries = []azureVectorQuery{{Kind: "vector", Vector: req.Vector, Fields: "review_vector", K: k}}
	}
	return body
}

func (a *AzureIndex) Search(ctx context.Context, req Request) (*Result, error) {
	var resp azureSearchResponse
	path := "/indexes/" + url.PathEscape(a.indexName) + "/docs/search"
	if err := a.do(ctx, http.MethodPost, path, buildSearchRequest(req), &resp); err != nil {
		return nil, fmt.Errorf("search %s: %w", a.indexName, err)
	}

	result := &Result{
		Documents: make([]Document, len(resp.Value)),
		Facets:    make(map[string][]facet.Bucket, len(resp.Facets)),
	}
	for i, hit := range resp.Value {
		doc := hit.Document
		doc.Score = hit.SearchScore
		result.Documents[i] = doc
	}
	for field, buckets := range resp.Facets {
		out := make([]facet.Bucket, 0, len(buckets))
		for _, b := range buckets {
			// Documents missing the field come back as a null bucket.
			if b.Value == nil {
				continue
			}
			out = append(out, facet.Bucket{Value: fmt.Sprint(b.Value), Count: b.Count})
		}
		result.Facets[field] = out
	}
	return result, nil
}

type azureError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *AzureIndex) do(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	u := a.endpoint + path + "?api-version=" + url.QueryEscape(a.apiVersion)
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		msg := strings.TrimSpace(string(raw))
		var ae azureError
		if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
			msg = ae.Error.Message
		}
		return apperr.NewStatusError("azure search", resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
