// Package filter turns the user's checklist into search constraints: it
// holds the category catalog, samples visible options, sanitizes selections
// and translates them into a filter expression plus a facet request.
package filter

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultCatalog []byte

// Category is one filterable field of the review index.
type Category struct {
	Key        string   `yaml:"key" json:"key"`
	Label      string   `yaml:"label" json:"label"`
	SampleSize int      `yaml:"sample_size" json:"sample_size"`
	Pool       []string `yaml:"pool" json:"pool"`
}

// Catalog is the ordered, immutable category configuration.
type Catalog struct {
	categories []Category
	index      map[string]int
}

type catalogFile struct {
	Categories []Category `yaml:"categories"`
}

// DefaultCatalog returns the built-in gender / age group / product group
// configuration.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalog from path, or returns the default catalog
// when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewCatalog(f.Categories)
}

// NewCatalog validates categories and freezes their order.
func NewCatalog(categories []Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("catalog has no categories")
	}

	c := &Catalog{index: make(map[string]int, len(categories))}
	for i, cat := range categories {
		if cat.Key == "" {
			return nil, fmt.Errorf("category %d: key required", i)
		}
		if _, dup := c.index[cat.Key]; dup {
			return nil, fmt.Errorf("category %q defined twice", cat.Key)
		}
		if cat.SampleSize <= 0 {
			return nil, fmt.Errorf("category %q: sample_size must be positive", cat.Key)
		}
		if cat.Label == "" {
			cat.Label = cat.Key
		}
		cat.Pool = append([]string(nil), cat.Pool...)
		c.index[cat.Key] = i
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

// Categories returns a copy of the categories in configured order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Keys returns the category keys in configured order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.categories))
	for i, cat := range c.categories {
		keys[i] = cat.Key
	}
	return keys
}

func (c *Catalog) Get(key string) (Category, bool) {
	i, ok := c.index[key]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

// Label returns the display label for key, falling back to the key itself.
func (c *Catalog) Label(key string) string {
	if cat, ok := c.Get(key); ok {
		return cat.Label
	}
	return key
}
