// Package chat drives a session through its turns: create, pick filters,
// reload the checklist and ask questions.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/reviewinsight/internal/filter"
	"github.com/nikhilbhutani/reviewinsight/internal/metrics"
	"github.com/nikhilbhutani/reviewinsight/internal/rag"
	"github.com/nikhilbhutani/reviewinsight/internal/session"
)

// Answerer is satisfied by *rag.Synthesizer.
type Answerer interface {
	Answer(ctx context.Context, req rag.AnswerRequest) rag.Answer
}

// Reply is the outcome of one question.
type Reply struct {
	Message session.Message `json:"message"`
	Filter  string          `json:"filter"`
	Facets  []string        `json:"facets"`
}

type Service struct {
	store    session.Store
	catalog  *filter.Catalog
	sampler  *filter.Sampler
	answerer Answerer
	mode     filter.Mode
	now      func() time.Time
}

func NewService(store session.Store, catalog *filter.Catalog, sampler *filter.Sampler, answerer Answerer, mode filter.Mode) *Service {
	return &Service{
		store:    store,
		catalog:  catalog,
		sampler:  sampler,
		answerer: answerer,
		mode:     mode,
		now:      time.Now,
	}
}

func (s *Service) Catalog() *filter.Catalog {
	return s.catalog
}

func (s *Service) Create(ctx context.Context) (*session.Session, error) {
	sess := session.New(uuid.NewString(), s.mode, s.catalog, s.sampler, s.now())
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	metrics.SessionsCreated.Inc()
	slog.Info("session created", "session_id", sess.ID, "mode", sess.Mode)
	return sess, nil
}

// Get loads a session with stale selections already dropped.
func (s *Service) Get(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Sanitize(s.catalog)
	return sess, nil
}

func (s *Service) Select(ctx context.Context, id, category string, values []string) (*session.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetSelection(s.catalog, category, values, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) Reload(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Reload(s.catalog, s.sampler, s.now())
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	metrics.ChecklistReloads.Inc()
	return sess, nil
}

// Ask answers text under the session's current filters. Answer failures are
// part of the reply, only store errors are returned.
func (s *Service) Ask(ctx context.Context, id, text string) (*Reply, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	query := sess.Query(s.catalog)
	filters := sess.FilterSummary(s.catalog)
	if err := sess.BeginTurn(text, s.now()); err != nil {
		return nil, err
	}

	ans := s.answerer.Answer(ctx, rag.AnswerRequest{Query: text, Filter: query})
	msg := sess.CompleteTurn(ans.Text, filters, ans.Summary, s.now())

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save turn: %w", err)
	}

	slog.Info("question answered",
		"session_id", sess.ID,
		"filter", query.Expression(),
		"facets", len(query.Facets),
		"documents", ans.Documents,
		"error_class", ans.ErrorClass.String(),
	)
	return &Reply{Message: msg, Filter: query.Expression(), Facets: query.Facets}, nil
}
