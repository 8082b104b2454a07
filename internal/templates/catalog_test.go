package templates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFill(t *testing.T) {
	out, err := Fill("Hello {name}", map[string]string{"name": "World"})
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)
}

func TestFillMissingPlaceholder(t *testing.T) {
	_, err := Fill("Hello {name}", map[string]string{})

	var missing *MissingPlaceholderError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "name", missing.Key)
	assert.Contains(t, err.Error(), "name")
}

func TestFillEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		values map[string]string
		want   string
	}{
		{"repeated key", "{a}-{a}", map[string]string{"a": "x"}, "x-x"},
		{"escaped braces", "{{literal}} {a}", map[string]string{"a": "x"}, "{literal} x"},
		{"unused values ignored", "plain", map[string]string{"a": "x"}, "plain"},
		{"empty value allowed", "[{a}]", map[string]string{"a": ""}, "[]"},
		{"unterminated brace kept", "oops {a", map[string]string{}, "oops {a"},
		{"value with braces not re-expanded", "{a}", map[string]string{"a": "{b}"}, "{b}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fill(tt.text, tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReferenced(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Referenced("{a} {{skip}} {b} {a}"))
	assert.Empty(t, Referenced("no placeholders"))
}

func TestLoadBundledCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Marketing & Business",
		"Social Media",
		"Creative Writing",
		"Educational & Explanatory",
		"Professional",
		"Personal",
	}, c.Categories())

	for _, cat := range c.Categories() {
		names := c.Names(cat)
		assert.Len(t, names, 4, cat)
		for _, name := range names {
			tpl := c.Get(cat, name)
			assert.Equal(t, cat, tpl.Category)
			assert.Equal(t, name, tpl.Name)
			// every referenced placeholder must be declared
			for _, key := range Referenced(tpl.Text) {
				assert.Contains(t, tpl.Placeholders, key, "%s/%s", cat, name)
			}
		}
	}
}

func TestLookupsAreTotal(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Empty(t, c.TemplatesIn("No Such Category"))
	assert.Empty(t, c.Names("No Such Category"))
	assert.Equal(t, Template{}, c.Get("No Such Category", "Poem"))
	assert.Equal(t, Template{}, c.Get("Creative Writing", "No Such Template"))

	_, ok := c.Lookup("Creative Writing", "Poem")
	assert.True(t, ok)
	assert.Len(t, c.TemplatesIn("Creative Writing"), 4)
}

func TestCatalogIsImmutable(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	cats := c.Categories()
	cats[0] = "mutated"
	in := c.TemplatesIn("Personal")
	delete(in, "Poem")
	in["Love Letter"] = Template{}

	assert.Equal(t, "Marketing & Business", c.Categories()[0])
	assert.NotEmpty(t, c.Get("Personal", "Love Letter").Text)
}

func TestParseRejectsInvalidCatalog(t *testing.T) {
	_, err := Parse([]byte(`{"categories":[{"name":"x","templates":[{"name":"t"}]}]}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"categories":[{"name":"x","templates":[{"name":"t","template":"{bad key}","placeholders":["bad key"]}]}]}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"categories":[{"name":"x","templates":[]},{"name":"x","templates":[]}]}`))
	assert.ErrorContains(t, err, "duplicate category")
}

func TestTemplateMissing(t *testing.T) {
	tpl := Template{Placeholders: []string{"topic", "target_audience", ReferencePlaceholder}}

	assert.Equal(t, []string{"target_audience", ReferencePlaceholder},
		tpl.Missing(map[string]string{"topic": "Go", "target_audience": "  "}))
	assert.Empty(t, tpl.Missing(map[string]string{"topic": "a", "target_audience": "b", ReferencePlaceholder: "c"}))
}

func TestMultiline(t *testing.T) {
	assert.True(t, Multiline("product_description"))
	assert.True(t, Multiline(ReferencePlaceholder))
	assert.True(t, Multiline("Main_Content"))
	assert.False(t, Multiline("product_name"))
}
