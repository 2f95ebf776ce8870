package oaskema

import (
	"bytes"
	"fmt"
	"time"

	j "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/reoring/oaskema/internal/docscan"
	"github.com/reoring/oaskema/internal/wire"
)

// deepEqual compares two values with kind-appropriate equality: numbers by
// numeric value regardless of representation, byte sequences by content,
// timestamps by instant, structured values recursively by keys/elements.
// Values that cannot be canonicalized compare unequal.
func deepEqual(a, b any) bool {
	ca, err := canonicalBytes(a)
	if err != nil {
		return false
	}
	cb, err := canonicalBytes(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

// canonicalBytes reduces v to a canonical JSON encoding: numbers normalize
// to float64, timestamps to canonical UTC RFC3339, byte sequences to base64,
// and object keys sort during marshal.
func canonicalBytes(v any) ([]byte, error) {
	n, err := canonicalize(v)
	if err != nil {
		return nil, err
	}
	return j.Marshal(n)
}

func canonicalize(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case string:
		return t, nil
	case j.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int8:
		return float64(t), nil
	case int16:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint:
		return float64(t), nil
	case uint8:
		return float64(t), nil
	case uint16:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case time.Time:
		return wire.FormatDateTime(t), nil
	case []byte:
		return wire.FormatBase64(t), nil
	case uuid.UUID:
		return wire.FormatUUID(t), nil
	case []any:
		out := make([]any, len(t))
		for i := range t {
			c, err := canonicalize(t[i])
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			c, err := canonicalize(vv)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case *docscan.Map:
		out := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			vv, _ := t.Get(k)
			c, err := canonicalize(vv)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	default:
		return nil, fmt.Errorf("oaskema: cannot canonicalize %T", v)
	}
}
