package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnswerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_insight_answer_duration_seconds",
			Help:    "Answer synthesis duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"outcome"},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_insight_answers_total",
			Help: "Total answers by outcome",
		},
		[]string{"outcome"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_insight_search_duration_seconds",
			Help:    "Index search latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"backend"},
	)

	SearchResultsCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "review_insight_search_results_count",
			Help:    "Number of documents returned per search",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
		},
	)

	FilterClauses = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "review_insight_filter_clauses",
			Help:    "Pinned categories per question",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_insight_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	LLMCost = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_insight_llm_cost_usd",
			Help: "Estimated LLM API cost in USD",
		},
		[]string{"model"},
	)

	DocumentsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_insight_documents_ingested_total",
			Help: "Documents sent to the index by outcome",
		},
		[]string{"status"},
	)

	SessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_insight_sessions_created_total",
			Help: "Total chat sessions created",
		},
	)

	ChecklistReloads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_insight_checklist_reloads_total",
			Help: "Total checklist reloads",
		},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			AnswerDuration,
			AnswersTotal,
			SearchDuration,
			SearchResultsCount,
			FilterClauses,
			LLMTokensUsed,
			LLMCost,
			DocumentsIngested,
			SessionsCreated,
			ChecklistReloads,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
