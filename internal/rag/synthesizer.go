// Package rag answers a question from the review index: filtered semantic
// retrieval, one grounded completion and a facet summary.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilbhutani/reviewinsight/internal/apperr"
	"github.com/nikhilbhutani/reviewinsight/internal/embedding"
	"github.com/nikhilbhutani/reviewinsight/internal/facet"
	"github.com/nikhilbhutani/reviewinsight/internal/filter"
	"github.com/nikhilbhutani/reviewinsight/internal/llm"
	"github.com/nikhilbhutani/reviewinsight/internal/metrics"
	"github.com/nikhilbhutani/reviewinsight/internal/prompt"
	"github.com/nikhilbhutani/reviewinsight/internal/search"
)

const (
	TopN = 5

	NoResultsMessage = "관련 정보를 찾지 못했습니다."
)

type AnswerRequest struct {
	Query  string
	Filter filter.Query
}

// Answer is always returned, failures included. ErrorClass is ClassNone on
// success and on the empty-result path.
type Answer struct {
	Text       string       `json:"answer"`
	Summary    []string     `json:"summary"`
	Documents  int          `json:"documents"`
	ErrorClass apperr.Class `json:"-"`
}

type Options struct {
	SemanticConfig string
	Provider       string
	Model          string
	Backend        string // metrics label
	// Embedder, when set, adds a vector query on review_vector.
	Embedder embedding.Embedder
}

type Synthesizer struct {
	index   search.Index
	gateway llm.Gateway
	labels  facet.Labeler
	opts    Options
}

func NewSynthesizer(index search.Index, gw llm.Gateway, labels facet.Labeler, opts Options) *Synthesizer {
	if opts.Backend == "" {
		opts.Backend = "azure"
	}
	return &Synthesizer{index: index, gateway: gw, labels: labels, opts: opts}
}

func (s *Synthesizer) Answer(ctx context.Context, req AnswerRequest) Answer {
	start := time.Now()
	ans := s.answer(ctx, req)

	outcome := "ok"
	switch {
	case ans.ErrorClass != apperr.ClassNone:
		outcome = ans.ErrorClass.String()
	case ans.Documents == 0:
		outcome = "empty"
	}
	metrics.AnswersTotal.WithLabelValues(outcome).Inc()
	metrics.AnswerDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return ans
}

func (s *Synthesizer) answer(ctx context.Context, req AnswerRequest) Answer {
	sreq := search.Request{
		Text:           req.Query,
		Filter:         req.Filter,
		Top:            TopN,
		Select:         search.DefaultSelect,
		SemanticConfig: s.opts.SemanticConfig,
	}
	if s.opts.Embedder != nil {
		vec, err := s.opts.Embedder.EmbedSingle(ctx, req.Query)
		if err != nil {
			return failure("embed query", err)
		}
		sreq.Vector = vec
	}

	metrics.FilterClauses.Observe(float64(len(req.Filter.Clauses)))
	searchStart := time.Now()
	res, err := s.index.Search(ctx, sreq)
	metrics.SearchDuration.WithLabelValues(s.opts.Backend).Observe(time.Since(searchStart).Seconds())
	if err != nil {
		return failure("search", err)
	}
	metrics.SearchResultsCount.Observe(float64(len(res.Documents)))

	if len(res.Documents) == 0 {
		return Answer{Text: NoResultsMessage}
	}

	content, err := prompt.Insight.Render(map[string]string{
		"query":   req.Query,
		"sources": Sources(res.Documents),
	})
	if err != nil {
		return failure("render prompt", err)
	}

	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Provider: s.opts.Provider,
		Model:    s.opts.Model,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: content}},
	})
	if err != nil {
		return failure("chat completion", err)
	}
	metrics.LLMTokensUsed.WithLabelValues(resp.Model, "input").Add(float64(resp.InputTokens))
	metrics.LLMTokensUsed.WithLabelValues(resp.Model, "output").Add(float64(resp.OutputTokens))
	metrics.LLMCost.WithLabelValues(resp.Model).Add(resp.CostUSD)

	ans := Answer{Text: resp.Content, Documents: len(res.Documents)}
	if len(req.Filter.Facets) > 0 {
		if lines := facet.Summarize(s.labels, res.Facets); len(lines) > 0 {
			ans.Summary = lines
		}
	}
	return ans
}

// Sources renders one line per document for the prompt.
func Sources(docs []search.Document) string {
	lines := make([]string, len(docs))
	for i, d := range docs {
		lines[i] = fmt.Sprintf("- %s (%s, %s, %s) : %s", d.ProductName, d.ProductGroup, d.Gender, d.AgeGroup, d.ReviewText)
	}
	return strings.Join(lines, "\n")
}

func failure(stage string, err error) Answer {
	class := apperr.Classify(err)
	slog.Error("answer failed", "stage", stage, "class", class.String(), "error", err)
	return Answer{Text: ErrorMessage(class, err), ErrorClass: class}
}

// ErrorMessage is the user-facing text for a failed answer.
func ErrorMessage(class apperr.Class, err error) string {
	switch class {
	case apperr.ClassAuthentication:
		return fmt.Sprintf("인증 오류가 발생했습니다. API 키와 엔드포인트를 확인하세요. %v", err)
	case apperr.ClassHTTP:
		return fmt.Sprintf("HTTP 응답 오류가 발생했습니다. %v", err)
	default:
		return fmt.Sprintf("알 수 없는 오류가 발생했습니다. %v", err)
	}
}
