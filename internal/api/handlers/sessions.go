package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/reviewinsight/internal/chat"
	"github.com/nikhilbhutani/reviewinsight/internal/filter"
	"github.com/nikhilbhutani/reviewinsight/internal/session"
)

type SessionHandler struct {
	chat *chat.Service
}

func NewSessionHandler(svc *chat.Service) *SessionHandler {
	return &SessionHandler{chat: svc}
}

type sessionView struct {
	*session.Session
	Greeting string   `json:"greeting"`
	Filters  string   `json:"filters"`
	Filter   string   `json:"filter_expression"`
	Facets   []string `json:"facets"`
}

func (h *SessionHandler) view(s *session.Session) sessionView {
	c := h.chat.Catalog()
	q := s.Query(c)
	return sessionView{
		Session:  s,
		Greeting: session.Greeting,
		Filters:  s.FilterSummary(c),
		Filter:   q.Expression(),
		Facets:   q.Facets,
	}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := h.chat.Create(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(s))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.chat.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(s))
}

type selectRequest struct {
	Values []string `json:"values" validate:"max=32,dive,max=200"`
}

func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.chat.Select(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "category"), req.Values)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(s))
}

func (h *SessionHandler) Reload(w http.ResponseWriter, r *http.Request) {
	s, err := h.chat.Reload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(s))
}

type askRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

func (h *SessionHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.chat.Ask(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type CategoryHandler struct {
	catalog *filter.Catalog
}

func NewCategoryHandler(c *filter.Catalog) *CategoryHandler {
	return &CategoryHandler{catalog: c}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": h.catalog.Categories()})
}
