package oaskema

import (
	"strconv"
	"time"

	j "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/reoring/oaskema/internal/wire"
)

// ToNative converts wire-shaped data into native Go values under s: base64
// text becomes []byte, date and date-time text become time.Time, uuid text
// becomes uuid.UUID, and numbers take their exact Go form. Arrays and object
// properties are rebuilt recursively; keys the schema does not know pass
// through untouched. Kind mismatches are collected into the returned error
// with the same paths validation reports.
func ToNative(s *Schema, v any) (any, error) {
	ex := &Exception{}
	n := toNative(s, v, ex, nil)
	if ex.HasErrors() {
		return nil, ex
	}
	return n, nil
}

// ToWire converts native Go values into their wire form under s: []byte
// becomes base64 text (or raw text for format binary), time.Time becomes its
// RFC 3339 rendering, uuid.UUID its canonical text, and numbers their JSON
// literal. The result round-trips through ToNative.
func ToWire(s *Schema, v any) (any, error) {
	ex := &Exception{}
	w := toWire(s, v, ex, nil)
	if ex.HasErrors() {
		return nil, ex
	}
	return w, nil
}

// chain guards allOf composition against schema cycles: it tracks the nodes
// already applied to the value at hand and resets at every descent into
// items or properties, where the value strictly shrinks.
func toNative(s *Schema, v any, ex *Exception, chain map[*Schema]struct{}) any {
	if s == nil || v == nil {
		return v
	}
	if _, looping := chain[s]; looping {
		return v
	}
	switch s.Type {
	case "string":
		n, ok := stringNative(s, v)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": expectedString(s.Format)})
			return nil
		}
		v = n
	case "integer":
		info, ok := numValue(v)
		if !ok || !info.isInt {
			ex.add(CodeInvalidType, map[string]string{"expected": "an integer"})
			return nil
		}
		if info.fits {
			v = info.i
		} else {
			v = info.f
		}
	case "number":
		info, ok := numValue(v)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": "a number"})
			return nil
		}
		v = info.f
	case "boolean":
		b, ok := v.(bool)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": "a boolean"})
			return nil
		}
		v = b
	case "array":
		arr, ok := asSlice(v)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": "an array"})
			return nil
		}
		out := make([]any, len(arr))
		for i, el := range arr {
			child := &Exception{}
			out[i] = toNative(s.Items, el, child, nil)
			ex.attachIndex(i, child)
		}
		v = out
	case "object":
		m, ok := asObject(v)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": "an object"})
			return nil
		}
		out := make(map[string]any, len(m))
		for k, pv := range m {
			out[k] = pv
		}
		if s.Properties != nil {
			for _, name := range s.Properties.names {
				pv, ok := m[name]
				if !ok {
					continue
				}
				child := &Exception{}
				out[name] = toNative(s.Properties.nodes[name], pv, child, nil)
				ex.attachField(name, child)
			}
		}
		v = out
	}
	if len(s.AllOf) > 0 {
		if chain == nil {
			chain = map[*Schema]struct{}{}
		}
		chain[s] = struct{}{}
		for _, member := range s.AllOf {
			v = toNative(member, v, ex, chain)
		}
	}
	return v
}

func toWire(s *Schema, v any, ex *Exception, chain map[*Schema]struct{}) any {
	if s == nil || v == nil {
		return v
	}
	if _, looping := chain[s]; looping {
		return v
	}
	switch s.Type {
	case "string":
		w, ok := wireString(s, v)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": wireExpected(s.Format)})
			return nil
		}
		v = w
	case "integer":
		info, ok := numValue(v)
		if !ok || !info.isInt {
			ex.add(CodeInvalidType, map[string]string{"expected": "an integer"})
			return nil
		}
		if info.fits {
			v = j.Number(strconv.FormatInt(info.i, 10))
		} else {
			v = j.Number(fmtFloat(info.f))
		}
	case "number":
		info, ok := numValue(v)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": "a number"})
			return nil
		}
		v = j.Number(fmtFloat(info.f))
	case "boolean":
		b, ok := v.(bool)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": "a boolean"})
			return nil
		}
		v = b
	case "array":
		arr, ok := asSlice(v)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": "an array"})
			return nil
		}
		out := make([]any, len(arr))
		for i, el := range arr {
			child := &Exception{}
			out[i] = toWire(s.Items, el, child, nil)
			ex.attachIndex(i, child)
		}
		v = out
	case "object":
		m, ok := asObject(v)
		if !ok {
			ex.add(CodeInvalidType, map[string]string{"expected": "an object"})
			return nil
		}
		out := make(map[string]any, len(m))
		for k, pv := range m {
			out[k] = pv
		}
		if s.Properties != nil {
			for _, name := range s.Properties.names {
				pv, ok := m[name]
				if !ok {
					continue
				}
				child := &Exception{}
				out[name] = toWire(s.Properties.nodes[name], pv, child, nil)
				ex.attachField(name, child)
			}
		}
		v = out
	}
	if len(s.AllOf) > 0 {
		if chain == nil {
			chain = map[*Schema]struct{}{}
		}
		chain[s] = struct{}{}
		for _, member := range s.AllOf {
			v = toWire(member, v, ex, chain)
		}
	}
	return v
}

// stringNative reduces a string-typed value to its native form per the
// schema's format. Values already native (a []byte for byte, a time.Time for
// the timestamp formats) pass through, so coercion is idempotent.
func stringNative(s *Schema, v any) (any, bool) {
	switch s.Format {
	case "byte":
		switch t := v.(type) {
		case []byte:
			return t, true
		case string:
			b, err := wire.ParseBase64(t)
			if err != nil {
				return nil, false
			}
			return b, true
		}
	case "binary":
		switch t := v.(type) {
		case []byte:
			return t, true
		case string:
			return wire.ParseBinary(t), true
		}
	case "date":
		switch t := v.(type) {
		case time.Time:
			return t, true
		case string:
			ts, err := wire.ParseDate(t)
			if err != nil {
				return nil, false
			}
			return ts, true
		}
	case "date-time":
		switch t := v.(type) {
		case time.Time:
			return t, true
		case string:
			ts, err := wire.ParseDateTime(t)
			if err != nil {
				return nil, false
			}
			return ts, true
		}
	case "uuid":
		switch t := v.(type) {
		case uuid.UUID:
			return t, true
		case string:
			id, err := wire.ParseUUID(t)
			if err != nil {
				return nil, false
			}
			return id, true
		}
	default:
		if t, ok := v.(string); ok {
			return t, true
		}
	}
	return nil, false
}

// wireString renders a native string-typed value to wire text. Unlike
// stringNative it insists on the native kind: encoding is the direction
// where the caller owns the values.
func wireString(s *Schema, v any) (string, bool) {
	switch s.Format {
	case "byte":
		if b, ok := v.([]byte); ok {
			return wire.FormatBase64(b), true
		}
	case "binary":
		if b, ok := v.([]byte); ok {
			return wire.FormatBinary(b), true
		}
	case "date":
		if t, ok := v.(time.Time); ok {
			return wire.FormatDate(t), true
		}
	case "date-time":
		if t, ok := v.(time.Time); ok {
			return wire.FormatDateTime(t), true
		}
	case "uuid":
		if id, ok := v.(uuid.UUID); ok {
			return wire.FormatUUID(id), true
		}
	default:
		if t, ok := v.(string); ok {
			return t, true
		}
	}
	return "", false
}

func wireExpected(format string) string {
	switch format {
	case "byte", "binary":
		return "a byte slice"
	case "date", "date-time":
		return "a time value"
	case "uuid":
		return "a uuid value"
	default:
		return "a string"
	}
}

// formatCoercible reports whether the format carries a wire-to-native
// conversion. Resolution uses it to decide which enum literals to parse.
func formatCoercible(format string) bool {
	switch format {
	case "byte", "binary", "date", "date-time", "uuid":
		return true
	}
	return false
}

// parseFormatted converts one format-qualified wire string to native form.
func parseFormatted(format, s string) (any, error) {
	switch format {
	case "byte":
		b, err := wire.ParseBase64(s)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "binary":
		return wire.ParseBinary(s), nil
	case "date":
		t, err := wire.ParseDate(s)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "date-time":
		t, err := wire.ParseDateTime(s)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "uuid":
		id, err := wire.ParseUUID(s)
		if err != nil {
			return nil, err
		}
		return id, nil
	}
	return s, nil
}
