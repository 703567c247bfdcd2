// Package session holds the per-conversation checklist state and the message
// history, as plain values with explicit transitions.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nikhilbhutani/reviewinsight/internal/filter"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// ControlsSystem means the checklist is attached to the greeting.
	ControlsSystem = "system"

	Greeting      = "안녕하세요! 아래 체크리스트에서 성별, 나이, 제품군 조건을 선택해주세요."
	ReloadMessage = "체크리스트를 새로 불러왔어요. 아래에서 조건을 다시 선택해 주세요."
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrUnknownCategory = errors.New("unknown category")
	ErrTooManyValues   = errors.New("single-select category accepts at most one value")
	ErrEmptyMessage    = errors.New("message text is empty")
)

type Message struct {
	Role                  string    `json:"role"`
	Content               string    `json:"content"`
	Filters               string    `json:"filters,omitempty"`
	Summary               []string  `json:"summary,omitempty"`
	ShowReloadButton      bool      `json:"show_reload_button"`
	ShowChecklistControls bool      `json:"show_checklist_controls"`
	CreatedAt             time.Time `json:"created_at"`
}

// Session is the state of one chat. ControlsContext names where the
// checklist is shown: ControlsSystem, "msg_<index>" or empty when hidden.
type Session struct {
	ID              string              `json:"id"`
	Mode            filter.Mode         `json:"mode"`
	Options         map[string][]string `json:"options"`
	Selections      map[string][]string `json:"selections"`
	Messages        []Message           `json:"messages"`
	ControlsContext string              `json:"controls_context"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// New starts a session with freshly sampled options and no selections.
func New(id string, mode filter.Mode, c *filter.Catalog, sampler *filter.Sampler, now time.Time) *Session {
	return &Session{
		ID:              id,
		Mode:            mode,
		Options:         sampler.SampleAll(c),
		Selections:      emptySelections(c),
		Messages:        []Message{},
		ControlsContext: ControlsSystem,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func emptySelections(c *filter.Catalog) map[string][]string {
	sel := make(map[string][]string, len(c.Keys()))
	for _, k := range c.Keys() {
		sel[k] = []string{}
	}
	return sel
}

// SetSelection replaces the selection of one category. Values outside the
// current option set are dropped. In single mode an empty list or the
// NoSelection sentinel clears the category.
func (s *Session) SetSelection(c *filter.Catalog, key string, values []string, now time.Time) error {
	if _, ok := c.Get(key); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, key)
	}
	opts := s.Options[key]

	switch s.Mode {
	case filter.ModeSingle:
		if len(values) > 1 {
			return ErrTooManyValues
		}
		chosen := filter.NoSelection
		if len(values) == 1 {
			chosen = filter.SanitizeSingle(values[0], opts)
		}
		if chosen == filter.NoSelection {
			s.Selections[key] = []string{}
		} else {
			s.Selections[key] = []string{chosen}
		}
	default:
		s.Selections[key] = filter.SanitizeMulti(values, opts)
	}

	s.UpdatedAt = now
	return nil
}

// Sanitize drops selections that are no longer in their option set.
func (s *Session) Sanitize(c *filter.Catalog) {
	if s.Selections == nil {
		s.Selections = emptySelections(c)
	}
	for _, k := range c.Keys() {
		s.Selections[k] = filter.SanitizeMulti(s.Selections[k], s.Options[k])
		if s.Mode == filter.ModeSingle && len(s.Selections[k]) > 1 {
			s.Selections[k] = s.Selections[k][:1]
		}
	}
}

// Reload resamples every option set, clears all selections and moves the
// checklist to a new assistant message.
func (s *Session) Reload(c *filter.Catalog, sampler *filter.Sampler, now time.Time) {
	s.Options = sampler.SampleAll(c)
	s.Selections = emptySelections(c)
	s.hideControls()
	s.Messages = append(s.Messages, Message{
		Role:                  RoleAssistant,
		Content:               ReloadMessage,
		ShowChecklistControls: true,
		CreatedAt:             now,
	})
	s.ControlsContext = fmt.Sprintf("msg_%d", len(s.Messages)-1)
	s.UpdatedAt = now
}

func (s *Session) ActiveFilters(c *filter.Catalog) []filter.Active {
	s.Sanitize(c)
	return filter.ActiveFilters(c, s.Options, s.Selections)
}

func (s *Session) Query(c *filter.Catalog) filter.Query {
	return filter.Translate(c, s.ActiveFilters(c))
}

// FilterSummary lists each category as "전체" when every option is active,
// the chosen values otherwise.
func (s *Session) FilterSummary(c *filter.Catalog) string {
	active := s.ActiveFilters(c)
	byKey := make(map[string]filter.Active, len(active))
	for _, a := range active {
		byKey[a.Key] = a
	}

	lines := make([]string, 0, len(active))
	for _, cat := range c.Categories() {
		opts := s.Options[cat.Key]
		a := byKey[cat.Key]
		switch {
		case len(opts) == 0:
			lines = append(lines, fmt.Sprintf("- **%s**: 선택 가능한 옵션이 없어요.", cat.Label))
		case len(a.Values) == len(opts):
			lines = append(lines, fmt.Sprintf("- **%s**: 전체", cat.Label))
		case len(a.Values) > 0:
			lines = append(lines, fmt.Sprintf("- **%s**: %s", cat.Label, strings.Join(a.Values, ", ")))
		default:
			lines = append(lines, fmt.Sprintf("- **%s**: 선택 없음", cat.Label))
		}
	}
	return strings.Join(lines, "\n")
}

// BeginTurn records the user's question and hides every control.
func (s *Session) BeginTurn(text string, now time.Time) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: text, CreatedAt: now})
	s.hideControls()
	s.ControlsContext = ""
	s.UpdatedAt = now
	return nil
}

// CompleteTurn appends the answer with a reload button.
func (s *Session) CompleteTurn(answer, filters string, summary []string, now time.Time) Message {
	msg := Message{
		Role:             RoleAssistant,
		Content:          answer,
		Filters:          filters,
		Summary:          summary,
		ShowReloadButton: true,
		CreatedAt:        now,
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = now
	return msg
}

func (s *Session) hideControls() {
	for i := range s.Messages {
		s.Messages[i].ShowReloadButton = false
		s.Messages[i].ShowChecklistControls = false
	}
}
