package sky

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v2"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// CatalogObject is a named sky object with its catalog position.
type CatalogObject struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Kind    string   `yaml:"kind"`
	RA      float64  `yaml:"ra"`
	Dec     float64  `yaml:"dec"`
}

// Catalog resolves object names to catalog positions. It is read-only after
// construction.
type Catalog struct {
	objects []CatalogObject
	index   map[string]int
}

// NewCatalog builds a catalog from the embedded object list.
func NewCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog builds a catalog from the embedded list plus an operator YAML
// file. Entries in the file replace embedded entries with the same name.
func LoadCatalog(filename string) (*Catalog, error) {
	c, err := NewCatalog()
	if err != nil {
		return nil, err
	}
	if filename == "" {
		return c, nil
	}

	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("catalog read %s: %w", filename, err)
	}
	extra, err := ParseCatalog(contents)
	if err != nil {
		return nil, fmt.Errorf("catalog parse %s: %w", filename, err)
	}
	for _, obj := range extra.objects {
		c.add(obj)
	}
	return c, nil
}

// ParseCatalog reads a YAML document with a top-level `objects` list.
func ParseCatalog(contents []byte) (*Catalog, error) {
	var doc struct {
		Objects []CatalogObject `yaml:"objects"`
	}
	if err := yaml.Unmarshal(contents, &doc); err != nil {
		return nil, err
	}

	c := &Catalog{index: make(map[string]int)}
	for i, obj := range doc.Objects {
		if obj.Name == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
		if obj.Dec < -90 || obj.Dec > 90 {
			return nil, fmt.Errorf("catalog entry %q: declination %.4f out of range", obj.Name, obj.Dec)
		}
		c.add(obj)
	}
	return c, nil
}

func (c *Catalog) add(obj CatalogObject) {
	i, ok := c.index[normalizeName(obj.Name)]
	if ok {
		c.objects[i] = obj
	} else {
		i = len(c.objects)
		c.objects = append(c.objects, obj)
	}
	c.index[normalizeName(obj.Name)] = i
	for _, alias := range obj.Aliases {
		c.index[normalizeName(alias)] = i
	}
}

// Lookup finds an object by name or alias, ignoring case, spaces and
// punctuation.
func (c *Catalog) Lookup(name string) (CatalogObject, bool) {
	i, ok := c.index[normalizeName(name)]
	if !ok {
		return CatalogObject{}, false
	}
	return c.objects[i], true
}

// Len returns the number of distinct objects.
func (c *Catalog) Len() int { return len(c.objects) }

func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
