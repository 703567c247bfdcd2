package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/reviewinsight/internal/filter"
)

var now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func testCatalog(t *testing.T) *filter.Catalog {
	t.Helper()
	c, err := filter.NewCatalog([]filter.Category{
		{Key: "gender", Label: "성별", SampleSize: 3, Pool: []string{"여성", "남성", "미지정"}},
		{Key: "age_group", Label: "나이", SampleSize: 2, Pool: []string{"20대", "30대"}},
	})
	require.NoError(t, err)
	return c
}

func newSession(t *testing.T, mode filter.Mode) (*Session, *filter.Catalog) {
	c := testCatalog(t)
	return New("s1", mode, c, filter.NewSeededSampler(1, 2), now), c
}

func TestNewSession(t *testing.T) {
	s, _ := newSession(t, filter.ModeMulti)
	assert.Equal(t, ControlsSystem, s.ControlsContext)
	assert.ElementsMatch(t, []string{"여성", "남성", "미지정"}, s.Options["gender"])
	assert.Empty(t, s.Selections["gender"])
	assert.Empty(t, s.Messages)
}

func TestSetSelectionMulti(t *testing.T) {
	s, c := newSession(t, filter.ModeMulti)

	require.NoError(t, s.SetSelection(c, "gender", []string{"남성", "없음", "남성", "여성"}, now))
	assert.Equal(t, []string{"남성", "여성"}, s.Selections["gender"])

	err := s.SetSelection(c, "brand", []string{"x"}, now)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSetSelectionSingle(t *testing.T) {
	s, c := newSession(t, filter.ModeSingle)

	err := s.SetSelection(c, "gender", []string{"남성", "여성"}, now)
	assert.ErrorIs(t, err, ErrTooManyValues)

	require.NoError(t, s.SetSelection(c, "gender", []string{"남성"}, now))
	assert.Equal(t, []string{"남성"}, s.Selections["gender"])

	require.NoError(t, s.SetSelection(c, "gender", []string{filter.NoSelection}, now))
	assert.Empty(t, s.Selections["gender"])

	q := s.Query(c)
	assert.Empty(t, q.Clauses)
	assert.Equal(t, []string{"gender", "age_group"}, q.Facets)
}

func TestQueryPinsSelectedCategory(t *testing.T) {
	s, c := newSession(t, filter.ModeSingle)
	require.NoError(t, s.SetSelection(c, "gender", []string{"남성"}, now))

	q := s.Query(c)
	assert.Equal(t, "gender eq '남성'", q.Expression())
	assert.Equal(t, []string{"age_group"}, q.Facets)
}

func TestStaleSelectionsAreDropped(t *testing.T) {
	s, c := newSession(t, filter.ModeMulti)
	s.Selections["gender"] = []string{"남성"}
	s.Options["gender"] = []string{"여성"}

	active := s.ActiveFilters(c)
	assert.Equal(t, filter.Active{Key: "gender", Values: []string{"여성"}}, active[0])
	assert.Empty(t, s.Selections["gender"])
}

func TestReload(t *testing.T) {
	s, c := newSession(t, filter.ModeMulti)
	require.NoError(t, s.SetSelection(c, "gender", []string{"남성"}, now))
	require.NoError(t, s.BeginTurn("추천해줘", now))
	s.CompleteTurn("답변", "", nil, now)

	s.Reload(c, filter.NewSeededSampler(3, 4), now)

	assert.Empty(t, s.Selections["gender"])
	require.Len(t, s.Messages, 3)
	last := s.Messages[2]
	assert.Equal(t, ReloadMessage, last.Content)
	assert.True(t, last.ShowChecklistControls)
	assert.Equal(t, "msg_2", s.ControlsContext)
	assert.False(t, s.Messages[1].ShowReloadButton)
}

func TestTurn(t *testing.T) {
	s, c := newSession(t, filter.ModeMulti)

	assert.ErrorIs(t, s.BeginTurn("   ", now), ErrEmptyMessage)

	require.NoError(t, s.BeginTurn("보습 좋은 제품?", now))
	assert.Empty(t, s.ControlsContext)

	msg := s.CompleteTurn("답변", s.FilterSummary(c), []string{"요약"}, now)
	assert.True(t, msg.ShowReloadButton)
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Len(t, s.Messages, 2)
}

func TestFilterSummary(t *testing.T) {
	s, c := newSession(t, filter.ModeMulti)
	require.NoError(t, s.SetSelection(c, "gender", []string{"여성", "남성"}, now))

	assert.Equal(t, "- **성별**: 여성, 남성\n- **나이**: 전체", s.FilterSummary(c))

	s.Options["age_group"] = []string{}
	assert.Contains(t, s.FilterSummary(c), "- **나이**: 선택 가능한 옵션이 없어요.")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	s, _ := newSession(t, filter.ModeSingle)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, s))
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s.Options, got.Options)
	assert.Equal(t, filter.ModeSingle, got.Mode)

	got.Selections["gender"] = []string{"남성"}
	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, again.Selections["gender"])

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}
