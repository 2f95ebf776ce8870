// Package docscan decodes JSON and YAML schema documents into generic value
// trees that keep object key order. Property declaration order is part of a
// schema's meaning (it drives validation order), so the usual map[string]any
// round trip is not enough here.
package docscan

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	j "github.com/goccy/go-json"
)

// Map is a JSON object that remembers key order.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{vals: map[string]any{}}
}

// Set adds or replaces a key, keeping first-insertion order.
func (m *Map) Set(k string, v any) {
	if m.vals == nil {
		m.vals = map[string]any{}
	}
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// Get returns the value stored under k.
func (m *Map) Get(k string) (any, bool) {
	if m == nil || m.vals == nil {
		return nil, false
	}
	v, ok := m.vals[k]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// dupList collects the dotted paths of object keys that appeared more than
// once in one document. The decoded tree keeps the last value; callers decide
// whether repetition is worth a warning.
type dupList []string

func (d *dupList) note(prefix, key string) {
	if d == nil {
		return
	}
	*d = append(*d, childPath(prefix, key))
}

func childPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func indexPath(prefix string, i int) string {
	return prefix + "[" + strconv.Itoa(i) + "]"
}

// ---- ordered JSON decoding ----

// DecodeJSON decodes data into *Map / []any / string / json.Number / bool /
// nil, preserving object key order.
func DecodeJSON(data []byte) (any, error) {
	v, _, err := decodeJSONDoc(data, false)
	return v, err
}

func decodeJSONDoc(data []byte, trackDups bool) (any, []string, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var dups *dupList
	if trackDups {
		dups = &dupList{}
	}
	v, err := decodeValue(dec, "", dups)
	if err != nil {
		return nil, nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, fmt.Errorf("docscan: trailing data after JSON document")
	}
	if dups == nil {
		return v, nil, nil
	}
	return v, []string(*dups), nil
}

func decodeValue(dec *j.Decoder, path string, dups *dupList) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case j.Delim:
		switch t {
		case '{':
			return decodeObject(dec, path, dups)
		case '[':
			return decodeArray(dec, path, dups)
		}
		return nil, fmt.Errorf("docscan: unexpected delimiter %q", t.String())
	default:
		// string, json.Number, bool or nil.
		return tok, nil
	}
}

func decodeObject(dec *j.Decoder, path string, dups *dupList) (*Map, error) {
	m := NewMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("docscan: object key is not a string")
		}
		if _, seen := m.Get(key); seen {
			dups.note(path, key)
		}
		v, err := decodeValue(dec, childPath(path, key), dups)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return nil, err
	}
	return m, nil
}

func decodeArray(dec *j.Decoder, path string, dups *dupList) ([]any, error) {
	arr := []any{}
	for dec.More() {
		v, err := decodeValue(dec, indexPath(path, len(arr)), dups)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return nil, err
	}
	return arr, nil
}

// ---- payload decoding ----

// DecodeValue decodes a payload with plain maps; key order is irrelevant for
// values under validation. Numbers decode as json.Number so integer checks
// stay exact.
func DecodeValue(data []byte) (any, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeDocument decodes schema document bytes, accepting JSON first and
// falling back to YAML. The second result lists the dotted paths of object
// keys that appeared more than once; the tree keeps the last value.
func DecodeDocument(data []byte) (any, []string, error) {
	v, dups, jerr := decodeJSONDoc(data, true)
	if jerr == nil {
		return v, dups, nil
	}
	v, dups, yerr := decodeYAMLDoc(data, true)
	if yerr == nil {
		return v, dups, nil
	}
	return nil, nil, fmt.Errorf("docscan: neither JSON (%v) nor YAML (%v)", jerr, yerr)
}
