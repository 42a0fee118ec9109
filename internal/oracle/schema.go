package oracle

import (
	"fmt"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema is a named JSON Schema that oracle responses must satisfy. The
// definition is resolved once on construction.
type Schema struct {
	Name        string
	Description string

	def      *jsonschema.Schema
	resolved *jsonschema.Resolved
}

// NewSchema resolves def and wraps it as a Schema. def must describe a JSON
// object.
func NewSchema(name, description string, def *jsonschema.Schema) (*Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("oracle: schema name must not be empty")
	}
	if def == nil {
		return nil, fmt.Errorf("oracle: schema %q: definition must not be nil", name)
	}
	if def.Type != "object" {
		return nil, fmt.Errorf("oracle: schema %q: root type must be object, got %q", name, def.Type)
	}
	resolved, err := def.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("oracle: schema %q: %w", name, err)
	}
	return &Schema{Name: name, Description: description, def: def, resolved: resolved}, nil
}

// MustSchema is like [NewSchema] but panics on error.
func MustSchema(name, description string, def *jsonschema.Schema) *Schema {
	s, err := NewSchema(name, description, def)
	if err != nil {
		panic(err)
	}
	return s
}

// Definition returns the underlying JSON Schema. Callers must not modify it.
func (s *Schema) Definition() *jsonschema.Schema { return s.def }

// Validate checks a decoded JSON object against the schema.
func (s *Schema) Validate(obj map[string]any) error {
	return s.resolved.Validate(obj)
}

// StringList returns an array-of-strings definition with at least minItems
// entries. A non-empty pattern constrains every entry.
func StringList(description string, minItems int, pattern string) *jsonschema.Schema {
	items := &jsonschema.Schema{Type: "string", Pattern: pattern}
	s := &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       items,
	}
	if minItems > 0 {
		s.MinItems = jsonschema.Ptr(minItems)
	}
	return s
}

// Object returns an object definition in which every property is required.
func Object(properties map[string]*jsonschema.Schema) *jsonschema.Schema {
	required := make([]string, 0, len(properties))
	for name := range properties {
		required = append(required, name)
	}
	slices.Sort(required)
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
