package templates

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed catalog.json
var catalogJSON []byte

//go:embed schema.json
var schemaJSON []byte

// ReferencePlaceholder is declared by every bundled template. Its value is
// used as reference text for style emulation rather than filled in.
const ReferencePlaceholder = "previous_post_reference"

// Template is a named, parameterized text pattern.
type Template struct {
	Category     string   `json:"category"`
	Name         string   `json:"name"`
	Text         string   `json:"template"`
	Placeholders []string `json:"placeholders"`
	Description  string   `json:"description,omitempty"`
	Example      string   `json:"example,omitempty"`
}

// Missing lists declared placeholders whose value is empty.
func (t Template) Missing(values map[string]string) []string {
	var missing []string
	for _, p := range t.Placeholders {
		if strings.TrimSpace(values[p]) == "" {
			missing = append(missing, p)
		}
	}
	return missing
}

// Catalog is the immutable template registry. Lookups never fail.
type Catalog struct {
	categories []string
	names      map[string][]string
	templates  map[string]map[string]Template
}

type catalogFile struct {
	Categories []struct {
		Name      string     `json:"name"`
		Templates []Template `json:"templates"`
	} `json:"categories"`
}

// Load parses the catalog bundled with the binary.
func Load() (*Catalog, error) {
	return Parse(catalogJSON)
}

// Parse validates data against the catalog schema and builds a Catalog.
func Parse(data []byte) (*Catalog, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("template catalog validation failed: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return nil, fmt.Errorf("template catalog is invalid: %s", strings.Join(errs, "; "))
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding template catalog: %w", err)
	}

	c := &Catalog{
		names:     make(map[string][]string),
		templates: make(map[string]map[string]Template),
	}
	for _, cat := range file.Categories {
		if _, dup := c.templates[cat.Name]; dup {
			return nil, fmt.Errorf("template catalog: duplicate category %q", cat.Name)
		}
		c.categories = append(c.categories, cat.Name)
		c.templates[cat.Name] = make(map[string]Template, len(cat.Templates))
		for _, t := range cat.Templates {
			if _, dup := c.templates[cat.Name][t.Name]; dup {
				return nil, fmt.Errorf("template catalog: duplicate template %q in %q", t.Name, cat.Name)
			}
			t.Category = cat.Name
			c.templates[cat.Name][t.Name] = t
			c.names[cat.Name] = append(c.names[cat.Name], t.Name)
		}
	}
	return c, nil
}

// Categories returns category names in catalog order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Names returns the template names of a category in catalog order.
func (c *Catalog) Names(category string) []string {
	return append([]string(nil), c.names[category]...)
}

// TemplatesIn returns the templates of a category keyed by name. Unknown
// categories yield an empty map.
func (c *Catalog) TemplatesIn(category string) map[string]Template {
	out := make(map[string]Template, len(c.templates[category]))
	for name, t := range c.templates[category] {
		out[name] = t
	}
	return out
}

// Get returns the template at (category, name), or the zero Template.
func (c *Catalog) Get(category, name string) Template {
	return c.templates[category][name]
}

// Lookup is Get with an existence flag.
func (c *Catalog) Lookup(category, name string) (Template, bool) {
	t, ok := c.templates[category][name]
	return t, ok
}
