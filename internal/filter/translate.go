package filter

import "strings"

// Clause constrains one field to any of Values.
type Clause struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// Query is the search-side view of the active filters: equality clauses for
// pinned categories and a facet request for the rest.
type Query struct {
	Clauses []Clause `json:"clauses"`
	Facets  []string `json:"facets"`
}

// Translate emits one clause per explicitly selected category and requests a
// facet for every category left unconstrained, both in catalog order.
// Categories absent from active are treated as unconstrained.
func Translate(c *Catalog, active []Active) Query {
	byKey := make(map[string]Active, len(active))
	for _, a := range active {
		byKey[a.Key] = a
	}

	q := Query{Clauses: []Clause{}, Facets: []string{}}
	for _, cat := range c.categories {
		a, ok := byKey[cat.Key]
		if ok && a.Explicit && len(a.Values) > 0 {
			q.Clauses = append(q.Clauses, Clause{Field: cat.Key, Values: append([]string(nil), a.Values...)})
			continue
		}
		q.Facets = append(q.Facets, cat.Key)
	}
	return q
}

// Expression renders the clauses as an OData filter, e.g.
// "gender eq '남성' and (age_group eq '30대' or age_group eq '40대')".
// An unconstrained query renders as the empty string.
func (q Query) Expression() string {
	parts := make([]string, 0, len(q.Clauses))
	for _, cl := range q.Clauses {
		switch len(cl.Values) {
		case 0:
			continue
		case 1:
			parts = append(parts, eq(cl.Field, cl.Values[0]))
		default:
			ors := make([]string, len(cl.Values))
			for i, v := range cl.Values {
				ors[i] = eq(cl.Field, v)
			}
			parts = append(parts, "("+strings.Join(ors, " or ")+")")
		}
	}
	return strings.Join(parts, " and ")
}

func eq(field, value string) string {
	return field + " eq '" + strings.ReplaceAll(value, "'", "''") + "'"
}
