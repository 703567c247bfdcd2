package prompt

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Template is a prompt with {{variable}} placeholders, parsed once.
type Template struct {
	Name string
	text string
	vars []string
}

func New(name, text string) *Template {
	return &Template{Name: name, text: text, vars: ExtractVariables(text)}
}

// Variables lists placeholder names in first-use order.
func (t *Template) Variables() []string {
	return slices.Clone(t.vars)
}

// Render substitutes every placeholder. Values are inserted verbatim, so a
// value containing "{{x}}" is not expanded again.
func (t *Template) Render(vars map[string]string) (string, error) {
	var missing []string
	for _, v := range t.vars {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("render %s: missing template variables: %s", t.Name, strings.Join(missing, ", "))
	}

	return variablePattern.ReplaceAllStringFunc(t.text, func(match string) string {
		return vars[match[2:len(match)-2]]
	}), nil
}

// ExtractVariables returns a list of variable names found in the template.
func ExtractVariables(text string) []string {
	var vars []string
	for _, m := range variablePattern.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(vars, m[1]) {
			vars = append(vars, m[1])
		}
	}
	return vars
}
