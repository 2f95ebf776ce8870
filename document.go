package oaskema

import (
	"context"
	"fmt"

	j "github.com/goccy/go-json"

	"github.com/reoring/oaskema/internal/docscan"
)

// Loader fetches the raw bytes of an external reference target. The core is
// transport-agnostic: retry, timeout and cancellation policy belong to the
// loader and the caller's context.
type Loader interface {
	Load(ctx context.Context, location string) ([]byte, error)
}

// ResolveOpt tweaks document resolution. Later values win per field.
type ResolveOpt struct {
	// Loader fetches external reference documents. Only required when the
	// document actually reaches outside itself.
	Loader Loader
	// Location names the root document; relative external references are
	// resolved against it.
	Location string
}

// Diag carries non-fatal warnings produced during resolution.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct{ ws []string }

func (d *simpleDiag) HasWarnings() bool        { return len(d.ws) > 0 }
func (d *simpleDiag) Warnings() []string       { return append([]string(nil), d.ws...) }
func (d *simpleDiag) warnf(f string, a ...any) { d.ws = append(d.ws, fmt.Sprintf(f, a...)) }

// registry is the named-schema table of one document. Discriminator values
// that miss the mapping are looked up here by name.
type registry struct {
	names   []string
	schemas map[string]*Schema
}

func newRegistry() *registry {
	return &registry{schemas: map[string]*Schema{}}
}

func (r *registry) add(name string, s *Schema) {
	if _, ok := r.schemas[name]; !ok {
		r.names = append(r.names, name)
	}
	r.schemas[name] = s
}

func (r *registry) lookup(name string) (*Schema, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.schemas[name]
	return s, ok
}

// Document is a resolved schema document: an optional root schema plus the
// named-schema registry (`definitions` in Swagger 2.0, `components/schemas`
// in OpenAPI 3.x; documents carrying both are tolerated).
type Document struct {
	root *Schema
	reg  *registry
	diag Diag
}

// Root returns the document's own schema graph, or nil when the document has
// no root-level schema shape (an API document whose schemas all live in the
// registry).
func (d *Document) Root() *Schema { return d.root }

// Schema returns the named schema from the registry.
func (d *Document) Schema(name string) (*Schema, bool) {
	return d.reg.lookup(name)
}

// Names returns registry schema names in declaration order.
func (d *Document) Names() []string {
	if d.reg == nil {
		return nil
	}
	return append([]string(nil), d.reg.names...)
}

// Warnings returns non-fatal diagnostics collected while resolving.
func (d *Document) Warnings() []string {
	if d.diag == nil {
		return nil
	}
	return d.diag.Warnings()
}

// ParseDocument resolves a schema document into a Document. doc may be:
//
//   - []byte: JSON or YAML document text
//   - string: a location fetched through the configured Loader
//   - map[string]any or *Schema: already-decoded input
//   - anything else JSON-marshalable, as a last resort
//
// Every $ref inside is expanded into shared nodes; failures are fatal and
// reported as wrapped ErrUnresolvableReference / ErrInvalidSchema errors.
func ParseDocument(ctx context.Context, doc any, opts ...ResolveOpt) (*Document, error) {
	var opt ResolveOpt
	for _, o := range opts {
		if o.Loader != nil {
			opt.Loader = o.Loader
		}
		if o.Location != "" {
			opt.Location = o.Location
		}
	}

	if s, ok := doc.(*Schema); ok {
		return &Document{root: s, reg: s.reg, diag: &simpleDiag{}}, nil
	}

	r := newResolver(opt)
	raw, loc, err := r.intake(ctx, doc)
	if err != nil {
		return nil, err
	}
	return r.document(ctx, raw, loc)
}

// Dereference resolves doc like ParseDocument and returns the root schema
// graph. It fails with ErrNoRootSchema when the document is registry-only.
func Dereference(ctx context.Context, doc any, opts ...ResolveOpt) (*Schema, error) {
	d, err := ParseDocument(ctx, doc, opts...)
	if err != nil {
		return nil, err
	}
	if d.root == nil {
		return nil, ErrNoRootSchema
	}
	return d.root, nil
}

// intake turns the accepted input forms into a decoded document tree plus
// its location.
func (r *resolver) intake(ctx context.Context, doc any) (any, string, error) {
	loc := r.opt.Location
	switch t := doc.(type) {
	case []byte:
		raw, dups, err := docscan.DecodeDocument(t)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
		r.warnDuplicates(loc, dups)
		return raw, loc, nil
	case string:
		if r.loader == nil {
			return nil, "", fmt.Errorf("%w: cannot load %q", ErrNoLoader, t)
		}
		if loc == "" {
			loc = t
		}
		data, err := r.loader.Load(ctx, t)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %q: %v", ErrUnresolvableReference, t, err)
		}
		raw, dups, err := docscan.DecodeDocument(data)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %q: %v", ErrInvalidSchema, t, err)
		}
		r.warnDuplicates(loc, dups)
		return raw, loc, nil
	case *docscan.Map:
		return t, loc, nil
	case map[string]any:
		return normalizeDoc(t), loc, nil
	default:
		data, err := j.Marshal(doc)
		if err != nil {
			return nil, "", fmt.Errorf("%w: unsupported document input %T", ErrInvalidSchema, doc)
		}
		raw, err := docscan.DecodeJSON(data)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
		return raw, loc, nil
	}
}
