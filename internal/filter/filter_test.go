package filter

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, []string{"gender", "age_group", "product_group"}, c.Keys())
	assert.Equal(t, "성별", c.Label("gender"))
	assert.Equal(t, "unknown_key", c.Label("unknown_key"))

	cat, ok := c.Get("age_group")
	require.True(t, ok)
	assert.Equal(t, 6, cat.SampleSize)
	assert.Len(t, cat.Pool, 6)
}

func TestNewCatalogRejectsBadInput(t *testing.T) {
	_, err := NewCatalog(nil)
	assert.Error(t, err)

	_, err = NewCatalog([]Category{{Key: "a"}, {Key: "a"}})
	assert.Error(t, err)

	_, err = NewCatalog([]Category{{Label: "x"}})
	assert.Error(t, err)
}

func TestNewCatalogRejectsNonPositiveSampleSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := NewCatalog([]Category{{Key: "gender", SampleSize: size, Pool: []string{"여성"}}})
		assert.ErrorContains(t, err, "sample_size must be positive")
	}

	_, err := ParseCatalog([]byte("categories:\n  - key: color\n    pool: [red]\n"))
	assert.ErrorContains(t, err, `category "color": sample_size must be positive`)
}

func TestParseCatalogDefaultsLabel(t *testing.T) {
	c, err := ParseCatalog([]byte("categories:\n  - key: color\n    sample_size: 1\n    pool: [red]\n"))
	require.NoError(t, err)
	assert.Equal(t, "color", c.Label("color"))
}

func TestSampleSizeAndMembership(t *testing.T) {
	s := NewSeededSampler(1, 2)
	pool := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name string
		size int
		want int
	}{
		{"smaller than pool", 3, 3},
		{"equal to pool", 5, 5},
		{"larger than pool", 9, 5},
		{"zero", 0, 0},
		{"negative", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 20 {
				got := s.Sample(pool, tt.size)
				assert.Len(t, got, tt.want)

				seen := map[string]bool{}
				for _, v := range got {
					assert.Contains(t, pool, v)
					assert.False(t, seen[v], "duplicate %q", v)
					seen[v] = true
				}
			}
		})
	}
}

func TestSampleEmptyPool(t *testing.T) {
	assert.Empty(t, NewSampler().Sample(nil, 4))
}

func TestSampleAll(t *testing.T) {
	c := DefaultCatalog()
	options := NewSeededSampler(7, 7).SampleAll(c)

	for _, cat := range c.Categories() {
		assert.Len(t, options[cat.Key], min(cat.SampleSize, len(cat.Pool)))
	}
}

func TestSanitizeMulti(t *testing.T) {
	options := []string{"여성", "남성", "미지정"}

	assert.Equal(t, []string{"남성", "여성"}, SanitizeMulti([]string{"남성", "기타", "여성", "남성"}, options))
	assert.Empty(t, SanitizeMulti([]string{"기타"}, options))
	assert.Empty(t, SanitizeMulti(nil, options))

	got := SanitizeMulti([]string{"미지정", "여성", "미지정"}, options)
	for _, v := range got {
		assert.True(t, slices.Contains(options, v))
	}
	assert.Equal(t, []string{"미지정", "여성"}, got)
}

func TestSanitizeSingle(t *testing.T) {
	options := []string{"30대", "40대"}

	assert.Equal(t, "30대", SanitizeSingle("30대", options))
	assert.Equal(t, NoSelection, SanitizeSingle("10대", options))
	assert.Equal(t, NoSelection, SanitizeSingle(NoSelection, options))
}

func TestActiveFiltersFallBackToOptions(t *testing.T) {
	c := DefaultCatalog()
	options := map[string][]string{
		"gender":        {"여성", "남성"},
		"age_group":     {"30대", "40대"},
		"product_group": {"향수"},
	}
	selections := map[string][]string{
		"gender":    {"남성"},
		"age_group": {"10대"}, // stale
	}

	active := ActiveFilters(c, options, selections)
	require.Len(t, active, 3)

	assert.Equal(t, Active{Key: "gender", Values: []string{"남성"}, Explicit: true}, active[0])
	assert.Equal(t, Active{Key: "age_group", Values: []string{"30대", "40대"}}, active[1])
	assert.Equal(t, Active{Key: "product_group", Values: []string{"향수"}}, active[2])
}

func TestTranslate(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name       string
		active     []Active
		wantExpr   string
		wantFacets []string
	}{
		{
			name: "one pinned category",
			active: []Active{
				{Key: "gender", Values: []string{"남성"}, Explicit: true},
				{Key: "age_group", Values: []string{"30대", "40대"}},
				{Key: "product_group", Values: []string{"향수"}},
			},
			wantExpr:   "gender eq '남성'",
			wantFacets: []string{"age_group", "product_group"},
		},
		{
			name: "all pinned",
			active: []Active{
				{Key: "product_group", Values: []string{"향수"}, Explicit: true},
				{Key: "gender", Values: []string{"여성"}, Explicit: true},
				{Key: "age_group", Values: []string{"30대"}, Explicit: true},
			},
			wantExpr:   "gender eq '여성' and age_group eq '30대' and product_group eq '향수'",
			wantFacets: []string{},
		},
		{
			name:       "nothing pinned",
			active:     nil,
			wantExpr:   "",
			wantFacets: []string{"gender", "age_group", "product_group"},
		},
		{
			name: "multi value",
			active: []Active{
				{Key: "age_group", Values: []string{"30대", "40대"}, Explicit: true},
				{Key: "gender", Values: []string{"여성"}, Explicit: true},
			},
			wantExpr:   "gender eq '여성' and (age_group eq '30대' or age_group eq '40대')",
			wantFacets: []string{"product_group"},
		},
		{
			name: "explicit but empty counts as unconstrained",
			active: []Active{
				{Key: "gender", Values: nil, Explicit: true},
			},
			wantExpr:   "",
			wantFacets: []string{"gender", "age_group", "product_group"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Translate(c, tt.active)
			assert.Equal(t, tt.wantExpr, q.Expression())
			assert.Equal(t, tt.wantFacets, q.Facets)

			for _, cl := range q.Clauses {
				assert.NotContains(t, q.Facets, cl.Field)
			}
		})
	}
}

func TestExpressionEscapesQuotes(t *testing.T) {
	q := Query{Clauses: []Clause{{Field: "product_group", Values: []string{"men's"}}}}
	assert.Equal(t, "product_group eq 'men''s'", q.Expression())
}
