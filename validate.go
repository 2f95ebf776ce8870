package oaskema

import (
	"context"
	"math"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	j "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/reoring/oaskema/internal/docscan"
)

// Errors validates v against s and returns every finding rendered as
// "path: message", in emission order. nil means the value conforms.
func Errors(ctx context.Context, s *Schema, v any) []string {
	return check(ctx, s, v).Messages()
}

// Validate returns nil when v conforms to s; otherwise one *Exception
// aggregating the complete set of findings for the call.
func Validate(ctx context.Context, s *Schema, v any) error {
	if ex := check(ctx, s, v); ex.HasErrors() {
		return ex
	}
	return nil
}

func check(ctx context.Context, s *Schema, v any) *Exception {
	st := newWalkState()
	ex := &Exception{}
	st.walk(ctx, s, v, ex)
	return ex
}

// ---- walk state ----

type visitKey struct {
	s   *Schema
	vid uintptr
}

// walkState is the per-call bookkeeping that bounds work on cyclic schemas
// and cyclic data: direct checks run once per (node, container value), and a
// discriminator dispatches once per (node, container value). Scalars and
// empty containers are not guarded; they cannot recurse.
type walkState struct {
	seen       map[visitKey]struct{}
	dispatched map[visitKey]struct{}
}

func newWalkState() *walkState {
	return &walkState{
		seen:       map[visitKey]struct{}{},
		dispatched: map[visitKey]struct{}{},
	}
}

func (st *walkState) walk(ctx context.Context, s *Schema, v any, ex *Exception) {
	if s == nil {
		return
	}
	if v == nil && s.Nullable {
		return
	}

	vid, guarded := valueID(v)

	if s.Discriminator != nil {
		if m, ok := asObject(v); ok {
			run := true
			if guarded {
				k := visitKey{s, vid}
				if _, done := st.dispatched[k]; done {
					run = false
				} else {
					st.dispatched[k] = struct{}{}
				}
			}
			if run && st.dispatch(ctx, s, m, v, vid, ex) {
				return
			}
		}
	}

	if guarded {
		k := visitKey{s, vid}
		if _, ok := st.seen[k]; ok {
			return
		}
		st.seen[k] = struct{}{}
	}

	st.direct(ctx, s, v, ex)
}

// direct runs the node's own checks: type first (one leaf and nothing else
// from this group on mismatch), then the constraint group for the declared
// type, then enum. Combinators run regardless; they are their own nodes.
func (st *walkState) direct(ctx context.Context, s *Schema, v any, ex *Exception) {
	native, typeOK := v, true
	if s.Type != "" {
		native, typeOK = typeCheck(s, v, ex)
	}
	if typeOK {
		st.constraints(ctx, s, native, ex)
		if len(s.Enum) > 0 {
			enumCheck(s, native, ex)
		}
	}
	st.combinators(ctx, s, v, ex)
}

// ---- type checks ----

// typeCheck verifies the runtime kind of v against the declared type and
// format, returning the native form the constraint checks run on. On
// mismatch it emits exactly one leaf.
func typeCheck(s *Schema, v any, ex *Exception) (any, bool) {
	switch s.Type {
	case "boolean":
		if b, ok := v.(bool); ok {
			return b, true
		}
		ex.add(CodeInvalidType, map[string]string{"expected": "a boolean"})
		return nil, false
	case "integer":
		info, ok := numValue(v)
		if !ok || !info.isInt {
			ex.add(CodeInvalidType, map[string]string{"expected": "an integer"})
			return nil, false
		}
		switch s.Format {
		case "int32":
			if !info.fits || info.i < math.MinInt32 || info.i > math.MaxInt32 {
				ex.add(CodeInvalidType, map[string]string{"expected": "an int32"})
				return nil, false
			}
		case "int64":
			if !info.fits {
				ex.add(CodeInvalidType, map[string]string{"expected": "an int64"})
				return nil, false
			}
		}
		if info.fits {
			return info.i, true
		}
		return info.f, true
	case "number":
		info, ok := numValue(v)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": "a number"})
			return nil, false
		}
		return info.f, true
	case "string":
		n, ok := stringNative(s, v)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": expectedString(s.Format)})
			return nil, false
		}
		return n, true
	case "array":
		if arr, ok := asSlice(v); ok {
			return arr, true
		}
		ex.add(CodeInvalidType, map[string]string{"expected": "an array"})
		return nil, false
	case "object":
		if m, ok := asObject(v); ok {
			return m, true
		}
		ex.add(CodeInvalidType, map[string]string{"expected": "an object"})
		return nil, false
	default:
		// Unknown declared type: tolerated at resolution with a warning,
		// matched here by anything.
		return v, true
	}
}

func expectedString(format string) string {
	switch format {
	case "byte":
		return "a base64 string"
	case "binary":
		return "a binary string"
	case "date":
		return "a date"
	case "date-time":
		return "a date-time"
	case "uuid":
		return "a uuid"
	default:
		return "a string"
	}
}

// ---- constraint groups ----

func (st *walkState) constraints(ctx context.Context, s *Schema, native any, ex *Exception) {
	switch s.Type {
	case "number", "integer":
		numericConstraints(s, native, ex)
	case "string":
		stringConstraints(s, native, ex)
	case "array":
		st.arrayConstraints(ctx, s, native.([]any), ex)
	case "object":
		st.objectConstraints(ctx, s, native.(map[string]any), ex)
	}
}

func numericConstraints(s *Schema, native any, ex *Exception) {
	var f float64
	switch t := native.(type) {
	case int64:
		f = float64(t)
	case float64:
		f = t
	default:
		return
	}
	what := "a number"
	if s.Type == "integer" {
		what = "an integer"
	}
	if s.Minimum != nil {
		if s.ExclusiveMinimum && f <= *s.Minimum {
			ex.add(CodeTooSmall, map[string]string{"what": what, "bound": fmtFloat(*s.Minimum), "exclusive": "1"})
		} else if !s.ExclusiveMinimum && f < *s.Minimum {
			ex.add(CodeTooSmall, map[string]string{"what": what, "bound": fmtFloat(*s.Minimum)})
		}
	}
	if s.Maximum != nil {
		if s.ExclusiveMaximum && f >= *s.Maximum {
			ex.add(CodeTooBig, map[string]string{"what": what, "bound": fmtFloat(*s.Maximum), "exclusive": "1"})
		} else if !s.ExclusiveMaximum && f > *s.Maximum {
			ex.add(CodeTooBig, map[string]string{"what": what, "bound": fmtFloat(*s.Maximum)})
		}
	}
	if s.MultipleOf != nil && !isMultipleOf(f, *s.MultipleOf) {
		ex.add(CodeMultipleOf, map[string]string{"bound": fmtFloat(*s.MultipleOf)})
	}
}

func stringConstraints(s *Schema, native any, ex *Exception) {
	switch t := native.(type) {
	case string:
		n := utf8.RuneCountInString(t)
		if s.MinLength != nil && n < *s.MinLength {
			ex.add(CodeTooShort, map[string]string{"what": "string", "bound": strconv.Itoa(*s.MinLength)})
		}
		if s.MaxLength != nil && n > *s.MaxLength {
			ex.add(CodeTooLong, map[string]string{"what": "string", "bound": strconv.Itoa(*s.MaxLength)})
		}
		if s.Pattern != nil && !s.Pattern.MatchString(t) {
			ex.add(CodePattern, map[string]string{"pattern": s.Pattern.String()})
		}
	case []byte:
		n := len(t)
		if s.MinLength != nil && n < *s.MinLength {
			ex.add(CodeTooShort, map[string]string{"what": "byte", "bound": strconv.Itoa(*s.MinLength)})
		}
		if s.MaxLength != nil && n > *s.MaxLength {
			ex.add(CodeTooLong, map[string]string{"what": "byte", "bound": strconv.Itoa(*s.MaxLength)})
		}
	}
	// Timestamp and UUID natives have no length to bound.
}

func (st *walkState) arrayConstraints(ctx context.Context, s *Schema, arr []any, ex *Exception) {
	n := len(arr)
	if s.MinItems != nil && n < *s.MinItems {
		ex.add(CodeTooShort, map[string]string{"what": "array", "bound": strconv.Itoa(*s.MinItems)})
	}
	if s.MaxItems != nil && n > *s.MaxItems {
		ex.add(CodeTooLong, map[string]string{"what": "array", "bound": strconv.Itoa(*s.MaxItems)})
	}
	if s.UniqueItems && n > 1 {
		seen := make(map[string]struct{}, n)
		for _, el := range arr {
			c, err := canonicalBytes(el)
			if err != nil {
				continue
			}
			if _, dup := seen[string(c)]; dup {
				ex.add(CodeUniqueItems, nil)
				break
			}
			seen[string(c)] = struct{}{}
		}
	}
	if s.Items != nil {
		for i, el := range arr {
			child := &Exception{}
			st.walk(ctx, s.Items, el, child)
			ex.attachIndex(i, child)
		}
	}
}

func (st *walkState) objectConstraints(ctx context.Context, s *Schema, m map[string]any, ex *Exception) {
	n := len(m)
	if s.MinProperties != nil && n < *s.MinProperties {
		ex.add(CodeTooFewProperties, map[string]string{"bound": strconv.Itoa(*s.MinProperties)})
	}
	if s.MaxProperties != nil && n > *s.MaxProperties {
		ex.add(CodeTooManyProperties, map[string]string{"bound": strconv.Itoa(*s.MaxProperties)})
	}
	for _, name := range s.Required {
		if _, ok := m[name]; !ok {
			ex.add(CodeRequired, map[string]string{"name": name})
		}
	}
	if s.Properties != nil {
		for _, name := range s.Properties.names {
			pv, ok := m[name]
			if !ok {
				continue
			}
			ps := s.Properties.nodes[name]
			child := &Exception{}
			st.walk(ctx, ps, pv, child)
			ex.attachField(name, child)
		}
	}
}

func enumCheck(s *Schema, native any, ex *Exception) {
	for _, allowed := range s.Enum {
		if deepEqual(native, allowed) {
			return
		}
	}
	ex.add(CodeInvalidEnum, nil)
}

// ---- value plumbing ----

// numInfo describes one numeric value: its float form, its exact int64 form
// when representable, and whether it is mathematically whole.
type numInfo struct {
	f     float64
	i     int64
	isInt bool
	fits  bool
}

func numValue(v any) (numInfo, bool) {
	switch t := v.(type) {
	case j.Number:
		if i, err := t.Int64(); err == nil {
			return numInfo{f: float64(i), i: i, isInt: true, fits: true}, true
		}
		f, err := t.Float64()
		if err != nil || !isFinite(f) {
			return numInfo{}, false
		}
		return floatInfo(f), true
	case float64:
		if !isFinite(t) {
			return numInfo{}, false
		}
		return floatInfo(t), true
	case float32:
		if !isFinite(float64(t)) {
			return numInfo{}, false
		}
		return floatInfo(float64(t)), true
	case int:
		return intInfo(int64(t)), true
	case int8:
		return intInfo(int64(t)), true
	case int16:
		return intInfo(int64(t)), true
	case int32:
		return intInfo(int64(t)), true
	case int64:
		return intInfo(t), true
	case uint:
		return uintInfo(uint64(t)), true
	case uint8:
		return uintInfo(uint64(t)), true
	case uint16:
		return uintInfo(uint64(t)), true
	case uint32:
		return uintInfo(uint64(t)), true
	case uint64:
		return uintInfo(t), true
	default:
		return numInfo{}, false
	}
}

func intInfo(i int64) numInfo {
	return numInfo{f: float64(i), i: i, isInt: true, fits: true}
}

func uintInfo(u uint64) numInfo {
	if u <= math.MaxInt64 {
		return intInfo(int64(u))
	}
	return numInfo{f: float64(u), isInt: true}
}

// floatInfo assumes a finite f; numValue rejects NaN and infinities first.
func floatInfo(f float64) numInfo {
	info := numInfo{f: f, isInt: f == math.Trunc(f)}
	if info.isInt && f >= math.MinInt64 && f < math.MaxInt64 {
		info.i = int64(f)
		info.fits = true
	}
	return info
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func numAsFloat(v any) (float64, bool) {
	info, ok := numValue(v)
	if !ok {
		return 0, false
	}
	return info.f, true
}

func isMultipleOf(f, m float64) bool {
	q := f / m
	r := math.Abs(q - math.Round(q))
	return r <= 1e-9
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func asSlice(v any) ([]any, bool) {
	if arr, ok := v.([]any); ok {
		return arr, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if _, isBytes := v.([]byte); isBytes {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asObject(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if om, ok := v.(*docscan.Map); ok {
		out := make(map[string]any, om.Len())
		for _, k := range om.Keys() {
			out[k], _ = om.Get(k)
		}
		return out, true
	}
	switch v.(type) {
	case nil, time.Time, uuid.UUID:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// valueID returns a per-call identity for container values. Scalars and
// empty containers report no identity: they cannot recurse, and empty slices
// may share a backing pointer.
func valueID(v any) (uintptr, bool) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return 0, false
		}
		return reflect.ValueOf(v).Pointer(), true
	case []any:
		if len(t) == 0 {
			return 0, false
		}
		return reflect.ValueOf(v).Pointer(), true
	case nil, string, bool, j.Number, float64, int, int64, time.Time, uuid.UUID:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.Len() == 0 {
			return 0, false
		}
		return rv.Pointer(), true
	case reflect.Pointer:
		return rv.Pointer(), true
	default:
		return 0, false
	}
}
