package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/reviewinsight/internal/filter"
)

func TestSummarizeSingleCategory(t *testing.T) {
	lines := Summarize(filter.DefaultCatalog(), map[string][]Bucket{
		"gender": {{Value: "남성", Count: 7}, {Value: "여성", Count: 3}},
	})

	require.Len(t, lines, 1)
	assert.Equal(t, "성별: 총 10건 중 '남성'이(가) 7건으로 가장 많아요 (남성 7건, 여성 3건)", lines[0])
}

func TestSummarizeUsesCatalogOrder(t *testing.T) {
	lines := Summarize(filter.DefaultCatalog(), map[string][]Bucket{
		"product_group": {{Value: "향수", Count: 2}},
		"zeta":          {{Value: "z", Count: 1}},
		"age_group":     {{Value: "30대", Count: 4}},
		"alpha":         {{Value: "a", Count: 1}},
	})

	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "나이:")
	assert.Contains(t, lines[1], "제품군:")
	assert.Contains(t, lines[2], "alpha:")
	assert.Contains(t, lines[3], "zeta:")
}

func TestSummarizeTieKeepsFirstBucket(t *testing.T) {
	lines := Summarize(filter.DefaultCatalog(), map[string][]Bucket{
		"age_group": {{Value: "40대", Count: 5}, {Value: "30대", Count: 5}, {Value: "10대", Count: 1}},
	})

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "총 11건")
	assert.Contains(t, lines[0], "'40대'이(가) 5건")
}

func TestSummarizeEmptyBucketsIsNoop(t *testing.T) {
	c := filter.DefaultCatalog()
	q := filter.Translate(c, nil)

	facets := make(map[string][]Bucket)
	for _, key := range q.Facets {
		facets[key] = nil
	}

	assert.Empty(t, Summarize(c, facets))
	assert.Empty(t, Summarize(c, nil))
}
