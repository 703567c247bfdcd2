package filter

import "slices"

// NoSelection is the single-select sentinel for "nothing chosen". It is a
// valid stored state and translates to an unconstrained category.
const NoSelection = ""

// Mode is the selection variant a session operates in.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

func (m Mode) Valid() bool {
	return m == ModeSingle || m == ModeMulti
}

// SanitizeMulti keeps the values present in options, dropping duplicates and
// preserving the order of first occurrence.
func SanitizeMulti(values, options []string) []string {
	seen := make([]string, 0, len(values))
	for _, v := range values {
		if slices.Contains(options, v) && !slices.Contains(seen, v) {
			seen = append(seen, v)
		}
	}
	return seen
}

// SanitizeSingle returns value when it is one of options, else NoSelection.
func SanitizeSingle(value string, options []string) string {
	if value != NoSelection && slices.Contains(options, value) {
		return value
	}
	return NoSelection
}

// Active is the derived filter for one category. When the user made no
// explicit choice, Values is the full current option set and Explicit is
// false.
type Active struct {
	Key      string   `json:"key"`
	Values   []string `json:"values"`
	Explicit bool     `json:"explicit"`
}

// ActiveFilters derives the active filter of every catalog category from the
// current option sets and (already sanitized) selections.
func ActiveFilters(c *Catalog, options, selections map[string][]string) []Active {
	active := make([]Active, 0, len(c.categories))
	for _, cat := range c.categories {
		opts := options[cat.Key]
		chosen := SanitizeMulti(selections[cat.Key], opts)
		if len(chosen) > 0 {
			active = append(active, Active{Key: cat.Key, Values: chosen, Explicit: true})
			continue
		}
		active = append(active, Active{Key: cat.Key, Values: append([]string(nil), opts...)})
	}
	return active
}
