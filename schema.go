package oaskema

import "regexp"

// Schema is one node in a resolved schema graph. A node is built once by the
// resolver (or by hand, for programmatic use) and is read-only afterwards:
// any number of validations may run against the same graph concurrently.
//
// Type selects which constraint group applies; combinators and the
// discriminator are orthogonal to it. An empty Type means the node is matched
// through combinators only. Node identity is pointer identity: every $ref to
// one location shares the same *Schema, which is what lets a graph contain
// cycles.
type Schema struct {
	Type   string // "", "string", "number", "integer", "boolean", "array", "object"
	Format string // refines Type: "date", "date-time", "byte", "binary", "uuid", "int32", "int64", ...

	// Numeric constraints. The exclusivity flags modify the corresponding
	// bound; they are never bounds of their own.
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64

	// String constraints. Lengths count runes for plain strings and bytes
	// for byte/binary values.
	MinLength *int
	MaxLength *int
	Pattern   *regexp.Regexp

	// Array constraints.
	MinItems    *int
	MaxItems    *int
	UniqueItems bool
	Items       *Schema

	// Object constraints. Required and Properties keep declaration order.
	MinProperties *int
	MaxProperties *int
	Required      []string
	Properties    *Properties

	// Enum holds allowed values in native form (format-qualified entries are
	// coerced when the node is built). Empty means unconstrained.
	Enum []any

	AllOf []*Schema
	AnyOf []*Schema
	OneOf []*Schema

	Discriminator *Discriminator

	// Nullable admits an explicit null regardless of Type.
	Nullable bool

	// reg is the named-schema table of the enclosing document, installed at
	// construction so discriminator dispatch never walks upward.
	reg *registry
}

// Discriminator selects a concrete schema by the runtime value of one of the
// object's properties.
type Discriminator struct {
	PropertyName string
	// Mapping routes discriminator values to schemas explicitly. Values
	// absent from the mapping fall back to a named-schema lookup in the
	// enclosing document.
	Mapping map[string]*Schema
}

// Properties is an insertion-ordered mapping from property name to schema.
// Declaration order drives per-property validation order and must therefore
// survive decoding.
type Properties struct {
	names []string
	nodes map[string]*Schema
}

// NewProperties returns an empty ordered property set.
func NewProperties() *Properties {
	return &Properties{nodes: map[string]*Schema{}}
}

// Set adds or replaces a property, keeping first-insertion order. Not safe
// once the owning schema is being validated against.
func (p *Properties) Set(name string, s *Schema) {
	if p.nodes == nil {
		p.nodes = map[string]*Schema{}
	}
	if _, ok := p.nodes[name]; !ok {
		p.names = append(p.names, name)
	}
	p.nodes[name] = s
}

// Get returns the schema for name.
func (p *Properties) Get(name string) (*Schema, bool) {
	if p == nil || p.nodes == nil {
		return nil, false
	}
	s, ok := p.nodes[name]
	return s, ok
}

// Names returns property names in declaration order.
func (p *Properties) Names() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.names...)
}

// Len returns the number of properties.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}
