// Package facet renders facet counts returned by the search index as short
// Korean statistics sentences.
package facet

import (
	"fmt"
	"sort"
	"strings"
)

// Bucket is one facet value and the number of matching documents.
type Bucket struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Labeler resolves display labels; *filter.Catalog satisfies it.
type Labeler interface {
	Keys() []string
	Label(key string) string
}

// Summarize produces one sentence per category with at least one bucket.
// Catalog categories come first in configured order, followed by unknown keys
// in lexical order labelled with the raw key. The top value is the first
// bucket with the highest count.
func Summarize(l Labeler, facets map[string][]Bucket) []string {
	var lines []string
	done := make(map[string]bool, len(facets))

	for _, key := range l.Keys() {
		done[key] = true
		if line, ok := sentence(l.Label(key), facets[key]); ok {
			lines = append(lines, line)
		}
	}

	var extra []string
	for key := range facets {
		if !done[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		if line, ok := sentence(l.Label(key), facets[key]); ok {
			lines = append(lines, line)
		}
	}

	return lines
}

func sentence(label string, buckets []Bucket) (string, bool) {
	if len(buckets) == 0 {
		return "", false
	}

	var total int64
	top := buckets[0]
	parts := make([]string, len(buckets))
	for i, b := range buckets {
		total += b.Count
		if b.Count > top.Count {
			top = b
		}
		parts[i] = fmt.Sprintf("%s %d건", b.Value, b.Count)
	}

	return fmt.Sprintf("%s: 총 %d건 중 '%s'이(가) %d건으로 가장 많아요 (%s)",
		label, total, top.Value, top.Count, strings.Join(parts, ", ")), true
}
