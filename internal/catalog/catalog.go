// Package catalog exposes the static hymn section catalog bundled with the binary.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"hymnbook/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed sections.yaml
var sectionsYAML []byte

type document struct {
	Sections []models.Section `yaml:"sections"`
}

// Catalog is an immutable, id indexed set of hymn sections.
type Catalog struct {
	sections []models.Section
	byID     map[int]models.Section
}

var (
	loadOnce    sync.Once
	embedded    *Catalog
	embeddedErr error
)

// Default returns the catalog decoded from the embedded sections.yaml.
func Default() (*Catalog, error) {
	loadOnce.Do(func() {
		embedded, embeddedErr = Parse(sectionsYAML)
	})
	return embedded, embeddedErr
}

// MustDefault is Default for process start up, where a broken bundle is fatal.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode section catalog: %w", err)
	}
	return New(doc.Sections)
}

// New builds a catalog from sections, rejecting duplicate ids and unknown languages.
func New(sections []models.Section) (*Catalog, error) {
	c := &Catalog{byID: make(map[int]models.Section, len(sections))}
	for _, s := range sections {
		if s.ID <= 0 {
			return nil, fmt.Errorf("section %q: id must be positive", s.Name)
		}
		if !s.Language.Valid() {
			return nil, fmt.Errorf("section %d: unsupported language %q", s.ID, s.Language)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("section %d: duplicate id", s.ID)
		}
		c.byID[s.ID] = s
		c.sections = append(c.sections, s)
	}
	sort.Slice(c.sections, func(i, j int) bool { return c.sections[i].ID < c.sections[j].ID })
	return c, nil
}

// Lookup returns the section with id.
func (c *Catalog) Lookup(id int) (models.Section, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Sections returns all sections ordered by id. The slice is a copy.
func (c *Catalog) Sections() []models.Section {
	out := make([]models.Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// ByLanguage returns the sections written in lang.
func (c *Catalog) ByLanguage(lang models.Language) []models.Section {
	var out []models.Section
	for _, s := range c.sections {
		if s.Language == lang {
			out = append(out, s)
		}
	}
	return out
}
