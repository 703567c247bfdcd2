package llm

import (
	"regexp"
	"strings"
)

// pricing is USD per 1K tokens: [input, output].
var pricing = map[string][2]float64{
	"gpt-4o":                 {0.0025, 0.01},
	"gpt-4o-mini":            {0.00015, 0.0006},
	"gpt-4.1":                {0.002, 0.008},
	"gpt-4.1-mini":           {0.0004, 0.0016},
	"gpt-35-turbo":           {0.0005, 0.0015},
	"gpt-3.5-turbo":          {0.0005, 0.0015},
	"text-embedding-ada-002": {0.0001, 0},
	"text-embedding-3-small": {0.00002, 0},
	"text-embedding-3-large": {0.00013, 0},

	"claude-3-5-haiku": {0.0008, 0.004},
	"claude-sonnet-4":  {0.003, 0.015},
	"claude-opus-4":    {0.015, 0.075},
}

// snapshotSuffix matches the version tail of a dated model name:
// "2024-07-18", "20250514" or "0613".
var snapshotSuffix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|\d{8}|\d{4})$`)

// CalculateCost returns the USD cost of a call, or 0 for unknown models.
// Dated snapshots ("gpt-4o-mini-2024-07-18") are priced by their longest
// known prefix.
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	prices, ok := lookupPrice(model)
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000.0*prices[0] + float64(outputTokens)/1000.0*prices[1]
}

func lookupPrice(model string) ([2]float64, bool) {
	if p, ok := pricing[model]; ok {
		return p, true
	}
	best := ""
	for name := range pricing {
		rest, ok := strings.CutPrefix(model, name+"-")
		if ok && snapshotSuffix.MatchString(rest) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return [2]float64{}, false
	}
	return pricing[best], true
}
