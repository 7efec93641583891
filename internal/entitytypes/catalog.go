// Package entitytypes loads the authoritative enumeration of entity-type
// identifiers the extraction service recognizes. The catalog is the
// reference the coverage aggregator measures the pattern library against:
// a type present here but absent from the library is uncovered.
package entitytypes

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/patternd/internal/library"
)

// Errors for catalog loading.
var (
	ErrEmptyCatalog  = errors.New("entity type catalog is empty")
	ErrInvalidName   = errors.New("invalid entity type name")
	ErrDuplicateName = errors.New("duplicate entity type name")
)

// EntityType is one categorical label assigned to extracted text spans.
type EntityType struct {
	Name        string `yaml:"name" json:"name"`
	Category    string `yaml:"category,omitempty" json:"category,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Catalog is the ordered, validated enumeration of known entity types.
type Catalog struct {
	types  []EntityType
	byName map[string]EntityType
}

// Parse decodes a catalog document:
//
//	entity_types:
//	  - name: STATUTE
//	    category: citation
//	  - name: JUDGE
//	    category: actor
func Parse(data []byte) (*Catalog, error) {
	var raw struct {
		EntityTypes []EntityType `yaml:"entity_types"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse entity type catalog: %w", err)
	}
	if len(raw.EntityTypes) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{byName: make(map[string]EntityType, len(raw.EntityTypes))}
	for _, et := range raw.EntityTypes {
		if !library.ValidEntityType(et.Name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, et.Name)
		}
		if _, dup := c.byName[et.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, et.Name)
		}
		c.byName[et.Name] = et
		c.types = append(c.types, et)
	}
	return c, nil
}

// Load reads and decodes a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity type catalog: %w", err)
	}
	return Parse(data)
}

// Names returns all type names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.types))
	for i, et := range c.types {
		names[i] = et.Name
	}
	return names
}

// Contains reports whether the catalog defines the given type.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Get returns the full entry for a type name.
func (c *Catalog) Get(name string) (EntityType, bool) {
	et, ok := c.byName[name]
	return et, ok
}

// Len returns the number of defined types.
func (c *Catalog) Len() int {
	return len(c.types)
}
