package oaskema

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/oaskema/internal/docscan"
)

// resolver expands one document (and everything it references) into a shared
// schema graph. Nodes live in an arena keyed by "location#pointer"; a node is
// installed before it is populated, which is what lets an in-progress cycle
// finish by handing out the pointer instead of re-entering resolution.
type resolver struct {
	opt     ResolveOpt
	loader  Loader
	diag    *simpleDiag
	docs    map[string]*docEntry
	arena   map[string]*Schema
	chasing map[string]bool // $ref aliases being chased, for cycle detection
}

type docEntry struct {
	raw any
	reg *registry
}

func newResolver(opt ResolveOpt) *resolver {
	return &resolver{
		opt:     opt,
		loader:  opt.Loader,
		diag:    &simpleDiag{},
		docs:    map[string]*docEntry{},
		arena:   map[string]*Schema{},
		chasing: map[string]bool{},
	}
}

func (r *resolver) document(ctx context.Context, raw any, loc string) (*Document, error) {
	entry, err := r.seedDoc(ctx, loc, raw)
	if err != nil {
		return nil, err
	}
	var root *Schema
	if m, ok := raw.(*docscan.Map); ok && schemaLike(m) {
		root, err = r.resolveRef(ctx, loc, "")
		if err != nil {
			return nil, err
		}
	}
	return &Document{root: root, reg: entry.reg, diag: r.diag}, nil
}

// seedDoc registers a decoded document and eagerly resolves its named
// schemas so discriminator lookups always hit finished registry entries.
func (r *resolver) seedDoc(ctx context.Context, loc string, raw any) (*docEntry, error) {
	e := &docEntry{raw: raw, reg: newRegistry()}
	r.docs[loc] = e
	if m, ok := raw.(*docscan.Map); ok {
		if err := r.resolveNamed(ctx, loc, m, e.reg); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (r *resolver) ensureDoc(ctx context.Context, loc string) (*docEntry, error) {
	if e, ok := r.docs[loc]; ok {
		return e, nil
	}
	if r.loader == nil {
		return nil, fmt.Errorf("%w: cannot load %q", ErrNoLoader, loc)
	}
	data, err := r.loader.Load(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnresolvableReference, loc, err)
	}
	raw, dups, err := docscan.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchema, loc, err)
	}
	r.warnDuplicates(loc, dups)
	return r.seedDoc(ctx, loc, raw)
}

// warnDuplicates surfaces repeated object keys in a document. The ordered
// decoder keeps the last value, which is rarely what the author meant.
func (r *resolver) warnDuplicates(loc string, dups []string) {
	for _, p := range dups {
		if loc == "" {
			r.diag.warnf("duplicate key %s; the last value wins", p)
		} else {
			r.diag.warnf("%s: duplicate key %s; the last value wins", loc, p)
		}
	}
}

func (r *resolver) resolveNamed(ctx context.Context, loc string, m *docscan.Map, reg *registry) error {
	type table struct {
		prefix string
		m      *docscan.Map
	}
	var tables []table
	if dm, ok := mapField(m, "definitions"); ok {
		tables = append(tables, table{"/definitions/", dm})
	}
	if cm, ok := mapField(m, "components"); ok {
		if sm, ok := mapField(cm, "schemas"); ok {
			tables = append(tables, table{"/components/schemas/", sm})
		}
	}
	for _, tb := range tables {
		for _, name := range tb.m.Keys() {
			node, err := r.resolveRef(ctx, loc, tb.prefix+escapeSegment(name))
			if err != nil {
				return err
			}
			if _, dup := reg.lookup(name); dup {
				r.diag.warnf("schema %q appears in both definitions and components/schemas; the latter wins", name)
			}
			reg.add(name, node)
		}
	}
	return nil
}

// resolveRef returns the shared node for a pointer into a document, building
// it on first use.
func (r *resolver) resolveRef(ctx context.Context, loc, ptr string) (*Schema, error) {
	key := loc + "#" + ptr
	if n, ok := r.arena[key]; ok {
		return n, nil
	}
	entry, err := r.ensureDoc(ctx, loc)
	if err != nil {
		return nil, err
	}
	raw, ok := evalPointer(entry.raw, ptr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvableReference, refName(loc, ptr))
	}
	return r.resolveNode(ctx, raw, loc, ptr)
}

// resolveNode builds (or reuses) the node for a schema value sitting at a
// known location. Inline children register under their pointer too, so a
// deep $ref into an inline position still shares identity. A $ref node is
// an alias: its arena entry points at the target node itself, which is what
// keeps cycles intact even when the target is still mid-construction.
func (r *resolver) resolveNode(ctx context.Context, raw any, loc, at string) (*Schema, error) {
	key := loc + "#" + at
	if n, ok := r.arena[key]; ok {
		return n, nil
	}
	m, ok := raw.(*docscan.Map)
	if !ok {
		return nil, fmt.Errorf("%w: %s: not a schema object", ErrInvalidSchema, refName(loc, at))
	}
	if rv, ok := m.Get("$ref"); ok {
		rs, ok := rv.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s: $ref must be a string", ErrInvalidSchema, refName(loc, at))
		}
		if m.Len() > 1 {
			r.diag.warnf("%s: ignoring fields alongside $ref", refName(loc, at))
		}
		if r.chasing[key] {
			return nil, fmt.Errorf("%w: circular $ref chain through %s", ErrUnresolvableReference, refName(loc, at))
		}
		r.chasing[key] = true
		target, err := r.resolveRefString(ctx, loc, rs)
		delete(r.chasing, key)
		if err != nil {
			return nil, err
		}
		r.arena[key] = target
		return target, nil
	}
	n := &Schema{}
	r.arena[key] = n
	if err := r.buildSchema(ctx, n, m, loc, at); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *resolver) resolveRefString(ctx context.Context, curLoc, ref string) (*Schema, error) {
	var extLoc, ptr string
	if i := strings.Index(ref, "#"); i >= 0 {
		extLoc, ptr = ref[:i], ref[i+1:]
	} else {
		extLoc = ref
	}
	if ptr != "" && !strings.HasPrefix(ptr, "/") {
		return nil, fmt.Errorf("%w: unsupported fragment in %q", ErrUnresolvableReference, ref)
	}
	loc := curLoc
	if extLoc != "" {
		loc = joinLocation(curLoc, extLoc)
	}
	return r.resolveRef(ctx, loc, ptr)
}

// ---- schema construction ----

func (r *resolver) buildSchema(ctx context.Context, dst *Schema, m *docscan.Map, loc, at string) error {
	ref := refName(loc, at)
	dst.reg = r.docs[loc].reg

	if v, ok := m.Get("type"); ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: %s: \"type\" must be a string", ErrInvalidSchema, ref)
		}
		switch s {
		case "string", "number", "integer", "boolean", "array", "object":
		default:
			r.diag.warnf("%s: unknown type %q", ref, s)
		}
		dst.Type = s
	}
	if s, ok, err := strField(m, "format", ref); err != nil {
		return err
	} else if ok {
		dst.Format = s
	}
	if b, ok, err := boolField(m, "nullable", ref); err != nil {
		return err
	} else if ok {
		dst.Nullable = b
	}

	// Numeric constraints.
	var err error
	if dst.Minimum, err = floatField(m, "minimum", ref); err != nil {
		return err
	}
	if dst.Maximum, err = floatField(m, "maximum", ref); err != nil {
		return err
	}
	if err := r.exclusiveField(m, "exclusiveMinimum", ref, &dst.Minimum, &dst.ExclusiveMinimum); err != nil {
		return err
	}
	if err := r.exclusiveField(m, "exclusiveMaximum", ref, &dst.Maximum, &dst.ExclusiveMaximum); err != nil {
		return err
	}
	if dst.MultipleOf, err = floatField(m, "multipleOf", ref); err != nil {
		return err
	}
	if dst.MultipleOf != nil && *dst.MultipleOf <= 0 {
		return fmt.Errorf("%w: %s: \"multipleOf\" must be greater than zero", ErrInvalidSchema, ref)
	}

	// String constraints.
	if dst.MinLength, err = intField(m, "minLength", ref); err != nil {
		return err
	}
	if dst.MaxLength, err = intField(m, "maxLength", ref); err != nil {
		return err
	}
	if v, ok := m.Get("pattern"); ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: %s: \"pattern\" must be a string", ErrInvalidSchema, ref)
		}
		re, perr := regexp.Compile(s)
		if perr != nil {
			return fmt.Errorf("%w: %s: invalid pattern: %v", ErrInvalidSchema, ref, perr)
		}
		dst.Pattern = re
	}

	// Array constraints.
	if dst.MinItems, err = intField(m, "minItems", ref); err != nil {
		return err
	}
	if dst.MaxItems, err = intField(m, "maxItems", ref); err != nil {
		return err
	}
	if b, ok, err := boolField(m, "uniqueItems", ref); err != nil {
		return err
	} else if ok {
		dst.UniqueItems = b
	}
	if v, ok := m.Get("items"); ok {
		child, cerr := r.resolveNode(ctx, v, loc, at+"/items")
		if cerr != nil {
			return cerr
		}
		dst.Items = child
	}

	// Object constraints.
	if dst.MinProperties, err = intField(m, "minProperties", ref); err != nil {
		return err
	}
	if dst.MaxProperties, err = intField(m, "maxProperties", ref); err != nil {
		return err
	}
	if v, ok := m.Get("required"); ok {
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%w: %s: \"required\" must be an array", ErrInvalidSchema, ref)
		}
		for _, e := range arr {
			name, ok := e.(string)
			if !ok {
				return fmt.Errorf("%w: %s: \"required\" entries must be strings", ErrInvalidSchema, ref)
			}
			dst.Required = append(dst.Required, name)
		}
	}
	if v, ok := m.Get("properties"); ok {
		pm, ok := v.(*docscan.Map)
		if !ok {
			return fmt.Errorf("%w: %s: \"properties\" must be an object", ErrInvalidSchema, ref)
		}
		props := NewProperties()
		for _, name := range pm.Keys() {
			raw, _ := pm.Get(name)
			child, cerr := r.resolveNode(ctx, raw, loc, at+"/properties/"+escapeSegment(name))
			if cerr != nil {
				return cerr
			}
			props.Set(name, child)
		}
		dst.Properties = props
	}

	// Enum.
	if v, ok := m.Get("enum"); ok {
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%w: %s: \"enum\" must be an array", ErrInvalidSchema, ref)
		}
		if err := buildEnum(dst, arr, ref); err != nil {
			return err
		}
	}

	// Combinators.
	if err := r.combField(ctx, m, "allOf", &dst.AllOf, loc, at); err != nil {
		return err
	}
	if err := r.combField(ctx, m, "anyOf", &dst.AnyOf, loc, at); err != nil {
		return err
	}
	if err := r.combField(ctx, m, "oneOf", &dst.OneOf, loc, at); err != nil {
		return err
	}

	// Discriminator: Swagger 2.0 uses a bare property name, OpenAPI 3.x an
	// object with propertyName and an optional mapping. Both normalize here.
	if v, ok := m.Get("discriminator"); ok {
		switch t := v.(type) {
		case string:
			if t == "" {
				return fmt.Errorf("%w: %s: discriminator property name is empty", ErrInvalidSchema, ref)
			}
			dst.Discriminator = &Discriminator{PropertyName: t}
		case *docscan.Map:
			pn, _ := t.Get("propertyName")
			name, ok := pn.(string)
			if !ok || name == "" {
				return fmt.Errorf("%w: %s: discriminator needs a propertyName", ErrInvalidSchema, ref)
			}
			d := &Discriminator{PropertyName: name}
			if mv, ok := t.Get("mapping"); ok {
				mm, ok := mv.(*docscan.Map)
				if !ok {
					return fmt.Errorf("%w: %s: discriminator mapping must be an object", ErrInvalidSchema, ref)
				}
				d.Mapping = map[string]*Schema{}
				for _, k := range mm.Keys() {
					rv, _ := mm.Get(k)
					rs, ok := rv.(string)
					if !ok {
						return fmt.Errorf("%w: %s: discriminator mapping values must be strings", ErrInvalidSchema, ref)
					}
					target, merr := r.resolveMappingTarget(ctx, loc, rs)
					if merr != nil {
						return merr
					}
					d.Mapping[k] = target
				}
			}
			dst.Discriminator = d
		default:
			return fmt.Errorf("%w: %s: discriminator must be a string or object", ErrInvalidSchema, ref)
		}
	}
	return nil
}

func (r *resolver) combField(ctx context.Context, m *docscan.Map, key string, dst *[]*Schema, loc, at string) error {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return fmt.Errorf("%w: %s: %q must be an array", ErrInvalidSchema, refName(loc, at), key)
	}
	for i, e := range arr {
		child, err := r.resolveNode(ctx, e, loc, at+"/"+key+"/"+strconv.Itoa(i))
		if err != nil {
			return err
		}
		*dst = append(*dst, child)
	}
	return nil
}

// exclusiveField handles the boolean-modifier form and tolerates the numeric
// form some 3.1 documents carry by treating it as an exclusive bound.
func (r *resolver) exclusiveField(m *docscan.Map, key, ref string, bound **float64, flag *bool) error {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	if b, ok := v.(bool); ok {
		*flag = b
		return nil
	}
	if f, ok := numAsFloat(v); ok {
		r.diag.warnf("%s: numeric %s treated as an exclusive bound", ref, key)
		*bound = &f
		*flag = true
		return nil
	}
	return fmt.Errorf("%w: %s: %q must be a boolean", ErrInvalidSchema, ref, key)
}

// resolveMappingTarget follows the OpenAPI rule for mapping values: a bare
// schema name when the current document declares one, a reference otherwise.
func (r *resolver) resolveMappingTarget(ctx context.Context, loc, val string) (*Schema, error) {
	if ptr, ok := r.namedPointer(loc, val); ok {
		return r.resolveRef(ctx, loc, ptr)
	}
	return r.resolveRefString(ctx, loc, val)
}

func (r *resolver) namedPointer(loc, name string) (string, bool) {
	e := r.docs[loc]
	if e == nil {
		return "", false
	}
	m, ok := e.raw.(*docscan.Map)
	if !ok {
		return "", false
	}
	if cm, ok := mapField(m, "components"); ok {
		if sm, ok := mapField(cm, "schemas"); ok {
			if _, ok := sm.Get(name); ok {
				return "/components/schemas/" + escapeSegment(name), true
			}
		}
	}
	if dm, ok := mapField(m, "definitions"); ok {
		if _, ok := dm.Get(name); ok {
			return "/definitions/" + escapeSegment(name), true
		}
	}
	return "", false
}

// ---- field helpers ----

func mapField(m *docscan.Map, key string) (*docscan.Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	mm, ok := v.(*docscan.Map)
	return mm, ok
}

func strField(m *docscan.Map, key, ref string) (string, bool, error) {
	v, ok := m.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: %s: %q must be a string", ErrInvalidSchema, ref, key)
	}
	return s, true, nil
}

func boolField(m *docscan.Map, key, ref string) (bool, bool, error) {
	v, ok := m.Get(key)
	if !ok {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, false, fmt.Errorf("%w: %s: %q must be a boolean", ErrInvalidSchema, ref, key)
	}
	return b, true, nil
}

func floatField(m *docscan.Map, key, ref string) (*float64, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, nil
	}
	f, ok := numAsFloat(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %q must be a number", ErrInvalidSchema, ref, key)
	}
	return &f, nil
}

func intField(m *docscan.Map, key, ref string) (*int, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, nil
	}
	f, ok := numAsFloat(v)
	if !ok || f != float64(int(f)) || f < 0 {
		return nil, fmt.Errorf("%w: %s: %q must be a non-negative integer", ErrInvalidSchema, ref, key)
	}
	n := int(f)
	return &n, nil
}

func buildEnum(dst *Schema, raw []any, ref string) error {
	if dst.Type == "string" && formatCoercible(dst.Format) {
		out := make([]any, 0, len(raw))
		for _, e := range raw {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("%w: %s: enum value for format %q must be a string", ErrInvalidSchema, ref, dst.Format)
			}
			n, err := parseFormatted(dst.Format, s)
			if err != nil {
				return fmt.Errorf("%w: %s: enum value %q is not a valid %s", ErrInvalidSchema, ref, s, dst.Format)
			}
			out = append(out, n)
		}
		dst.Enum = out
		return nil
	}
	dst.Enum = append([]any(nil), raw...)
	return nil
}

// ---- locations & pointers ----

func schemaLike(m *docscan.Map) bool {
	for _, k := range []string{
		"type", "format", "properties", "items",
		"allOf", "anyOf", "oneOf", "enum", "$ref", "discriminator",
	} {
		if _, ok := m.Get(k); ok {
			return true
		}
	}
	return false
}

func refName(loc, ptr string) string {
	if loc == "" {
		return "#" + ptr
	}
	return loc + "#" + ptr
}

// joinLocation resolves a reference location against the current document's
// location: URL resolution when either side carries a scheme, lexical path
// joining otherwise. The loader owns whatever semantics the result has.
func joinLocation(base, ref string) string {
	if strings.Contains(ref, "://") {
		return ref
	}
	if strings.Contains(base, "://") {
		bu, err := url.Parse(base)
		if err != nil {
			return ref
		}
		ru, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return bu.ResolveReference(ru).String()
	}
	if base == "" || strings.HasPrefix(ref, "/") {
		return ref
	}
	return path.Join(path.Dir(base), ref)
}

func evalPointer(root any, ptr string) (any, bool) {
	if ptr == "" {
		return root, true
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, false
	}
	cur := root
	for _, seg := range strings.Split(ptr[1:], "/") {
		seg = unescapeSegment(seg)
		switch t := cur.(type) {
		case *docscan.Map:
			v, ok := t.Get(seg)
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func escapeSegment(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

func unescapeSegment(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}

// normalizeDoc converts plain decoded maps into ordered maps with sorted
// keys, so pre-decoded inputs stay deterministic even though their original
// order is gone.
func normalizeDoc(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := docscan.NewMap()
		for _, k := range keys {
			m.Set(k, normalizeDoc(t[k]))
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalizeDoc(t[i])
		}
		return out
	default:
		return v
	}
}
