package oaskema_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	j "github.com/goccy/go-json"
	"github.com/google/uuid"

	oaskema "github.com/reoring/oaskema"
)

func TestToNative_FormatConversions(t *testing.T) {
	sb := mustSchema(t, `{"type":"string","format":"byte"}`)
	n, err := oaskema.ToNative(sb, "aGVsbG8=")
	if err != nil {
		t.Fatalf("byte err: %v", err)
	}
	if !bytes.Equal(n.([]byte), []byte("hello")) {
		t.Fatalf("unexpected bytes: %v", n)
	}

	sd := mustSchema(t, `{"type":"string","format":"date-time"}`)
	n, err = oaskema.ToNative(sd, "2025-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("date-time err: %v", err)
	}
	if !n.(time.Time).Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", n)
	}

	su := mustSchema(t, `{"type":"string","format":"uuid"}`)
	n, err = oaskema.ToNative(su, "123e4567-e89b-12d3-a456-426614174000")
	if err != nil {
		t.Fatalf("uuid err: %v", err)
	}
	if n.(uuid.UUID).String() != "123e4567-e89b-12d3-a456-426614174000" {
		t.Fatalf("unexpected uuid: %v", n)
	}

	si := mustSchema(t, `{"type":"integer"}`)
	n, err = oaskema.ToNative(si, j.Number("5"))
	if err != nil {
		t.Fatalf("integer err: %v", err)
	}
	if n.(int64) != 5 {
		t.Fatalf("unexpected integer: %v", n)
	}
}

func TestToNative_IsIdempotent(t *testing.T) {
	s := mustSchema(t, `{"type":"string","format":"date"}`)
	n1, err := oaskema.ToNative(s, "2020-02-29")
	if err != nil {
		t.Fatalf("first err: %v", err)
	}
	n2, err := oaskema.ToNative(s, n1)
	if err != nil {
		t.Fatalf("second err: %v", err)
	}
	if !n1.(time.Time).Equal(n2.(time.Time)) {
		t.Fatalf("idempotence broken: %v vs %v", n1, n2)
	}
}

func TestToNative_RecursesWithPaths(t *testing.T) {
	s := mustSchema(t, `{"type":"object","properties":{"at":{"type":"string","format":"date-time"}}}`)
	_, err := oaskema.ToNative(s, map[string]any{"at": "nope"})
	if err == nil {
		t.Fatalf("expected error")
	}
	ex, ok := oaskema.AsException(err)
	if !ok {
		t.Fatalf("expected *Exception, got %T", err)
	}
	msgs := ex.Messages()
	if len(msgs) != 1 || msgs[0] != "at: expected a date-time" {
		t.Fatalf("unexpected messages: %v", msgs)
	}
}

func TestToNative_ArrayItems(t *testing.T) {
	s := mustSchema(t, `{"type":"array","items":{"type":"string","format":"date"}}`)
	n, err := oaskema.ToNative(s, []any{"2020-01-01", "2020-01-02"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	arr := n.([]any)
	if len(arr) != 2 {
		t.Fatalf("unexpected length: %d", len(arr))
	}
	if arr[0].(time.Time).Day() != 1 || arr[1].(time.Time).Day() != 2 {
		t.Fatalf("unexpected elements: %v", arr)
	}

	_, err = oaskema.ToNative(s, []any{"2020-01-01", "x"})
	ex, ok := oaskema.AsException(err)
	if !ok {
		t.Fatalf("expected *Exception, got %T", err)
	}
	msgs := ex.Messages()
	if len(msgs) != 1 || msgs[0] != "[1]: expected a date" {
		t.Fatalf("unexpected messages: %v", msgs)
	}
}

func TestToNative_AllOfCoercesEveryMember(t *testing.T) {
	s := mustSchema(t, `{"allOf":[
		{"type":"object","properties":{"at":{"type":"string","format":"date-time"}}},
		{"type":"object","properties":{"id":{"type":"string","format":"uuid"}}}
	]}`)
	v := map[string]any{
		"at":    "2025-01-01T00:00:00Z",
		"id":    "123e4567-e89b-12d3-a456-426614174000",
		"extra": "keep",
	}
	n, err := oaskema.ToNative(s, v)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	m := n.(map[string]any)
	if _, ok := m["at"].(time.Time); !ok {
		t.Fatalf("at not coerced: %T", m["at"])
	}
	if _, ok := m["id"].(uuid.UUID); !ok {
		t.Fatalf("id not coerced: %T", m["id"])
	}
	if m["extra"] != "keep" {
		t.Fatalf("unknown key not preserved: %v", m["extra"])
	}
}

func TestToNative_SelfReferentialSchemaDescends(t *testing.T) {
	doc := `{"definitions":{"Node":{
		"type":"object",
		"properties":{"id":{"type":"integer"},"next":{"$ref":"#/definitions/Node"}}
	}}}`
	d, err := oaskema.ParseDocument(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	node, _ := d.Schema("Node")

	n, err := oaskema.ToNative(node, map[string]any{
		"id":   j.Number("1"),
		"next": map[string]any{"id": j.Number("2")},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	inner := n.(map[string]any)["next"].(map[string]any)
	if inner["id"].(int64) != 2 {
		t.Fatalf("nested id not coerced: %v (%T)", inner["id"], inner["id"])
	}
}

func TestToWire_FormatsAndNumbers(t *testing.T) {
	sb := mustSchema(t, `{"type":"string","format":"byte"}`)
	w, err := oaskema.ToWire(sb, []byte("hello"))
	if err != nil {
		t.Fatalf("byte err: %v", err)
	}
	if w != "aGVsbG8=" {
		t.Fatalf("unexpected base64: %v", w)
	}

	sd := mustSchema(t, `{"type":"string","format":"date-time"}`)
	loc := time.FixedZone("JST", 9*3600)
	w, err = oaskema.ToWire(sd, time.Date(2025, 1, 1, 9, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("date-time err: %v", err)
	}
	if w != "2025-01-01T00:00:00Z" {
		t.Fatalf("unexpected rendering: %v", w)
	}

	si := mustSchema(t, `{"type":"integer"}`)
	w, err = oaskema.ToWire(si, int64(5))
	if err != nil {
		t.Fatalf("integer err: %v", err)
	}
	if w.(j.Number) != j.Number("5") {
		t.Fatalf("unexpected number: %v (%T)", w, w)
	}

	sn := mustSchema(t, `{"type":"number"}`)
	w, err = oaskema.ToWire(sn, 2.5)
	if err != nil {
		t.Fatalf("number err: %v", err)
	}
	if w.(j.Number) != j.Number("2.5") {
		t.Fatalf("unexpected number: %v (%T)", w, w)
	}
}

func TestToWire_RejectsWrongNativeKind(t *testing.T) {
	s := mustSchema(t, `{"type":"string","format":"byte"}`)
	_, err := oaskema.ToWire(s, "aGVsbG8=")
	if err == nil {
		t.Fatalf("expected error: encoding insists on the native kind")
	}
	ex, _ := oaskema.AsException(err)
	msgs := ex.Messages()
	if len(msgs) != 1 || msgs[0] != "expected a byte slice" {
		t.Fatalf("unexpected messages: %v", msgs)
	}
}

func TestToWire_RoundTripsToNativeOutput(t *testing.T) {
	cases := []struct {
		schema string
		wire   any
	}{
		{`{"type":"string","format":"byte"}`, "aGVsbG8="},
		{`{"type":"string","format":"date"}`, "2020-02-29"},
		{`{"type":"string","format":"date-time"}`, "2025-06-15T12:34:56.789Z"},
		{`{"type":"string","format":"uuid"}`, "123e4567-e89b-12d3-a456-426614174000"},
	}
	for _, tc := range cases {
		s := mustSchema(t, tc.schema)
		n, err := oaskema.ToNative(s, tc.wire)
		if err != nil {
			t.Fatalf("%s: decode err: %v", tc.schema, err)
		}
		w, err := oaskema.ToWire(s, n)
		if err != nil {
			t.Fatalf("%s: encode err: %v", tc.schema, err)
		}
		if w != tc.wire {
			t.Fatalf("%s: roundtrip mismatch: %v != %v", tc.schema, w, tc.wire)
		}
	}
}
