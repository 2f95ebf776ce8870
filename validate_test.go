package oaskema_test

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	oaskema "github.com/reoring/oaskema"
	"github.com/reoring/oaskema/internal/docscan"
)

func mustSchema(t *testing.T, doc string) *oaskema.Schema {
	t.Helper()
	s, err := oaskema.Dereference(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("dereference err: %v", err)
	}
	return s
}

func wantMessages(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d findings %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("finding[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestErrors_NumberBelowMinimumAndNotMultiple(t *testing.T) {
	s := mustSchema(t, `{"type":"number","minimum":10,"multipleOf":5}`)
	got := oaskema.Errors(context.Background(), s, 8)
	wantMessages(t, got,
		"expected a number greater than or equal to 10",
		"expected a multiple of 5",
	)
}

func TestErrors_TypeMismatchEmitsSingleLeaf(t *testing.T) {
	s := mustSchema(t, `{"type":"number","minimum":10,"multipleOf":5,"enum":[10,15]}`)
	got := oaskema.Errors(context.Background(), s, "8")
	wantMessages(t, got, "expected a number")
}

func TestErrors_ExclusiveMinimumBoundary(t *testing.T) {
	s := mustSchema(t, `{"type":"number","minimum":2,"exclusiveMinimum":true}`)
	ctx := context.Background()
	wantMessages(t, oaskema.Errors(ctx, s, 2), "expected a number greater than 2")
	if got := oaskema.Errors(ctx, s, 2.5); got != nil {
		t.Fatalf("expected no findings, got %v", got)
	}
}

func TestErrors_InclusiveBoundariesPass(t *testing.T) {
	s := mustSchema(t, `{"type":"number","minimum":2,"maximum":4}`)
	ctx := context.Background()
	for _, v := range []any{2, 3.5, 4} {
		if got := oaskema.Errors(ctx, s, v); got != nil {
			t.Fatalf("value %v: expected no findings, got %v", v, got)
		}
	}
	wantMessages(t, oaskema.Errors(ctx, s, 5), "expected a number less than or equal to 4")
}

func TestErrors_ArrayLengthBounds(t *testing.T) {
	s := mustSchema(t, `{"type":"array","minItems":2,"maxItems":3}`)
	ctx := context.Background()
	wantMessages(t, oaskema.Errors(ctx, s, []any{1}), "array length below minimum of 2")
	wantMessages(t, oaskema.Errors(ctx, s, []any{1, 2, 3, 4}), "array length above maximum of 3")
	if got := oaskema.Errors(ctx, s, []any{1, 2}); got != nil {
		t.Fatalf("expected no findings, got %v", got)
	}
}

func TestErrors_NestedPathRendering(t *testing.T) {
	s := mustSchema(t, `{
		"type":"object",
		"properties":{
			"a":{"type":"object","properties":{"b":{"type":"array","items":{"type":"number"}}}}
		}
	}`)
	v := map[string]any{"a": map[string]any{"b": []any{1, "x"}}}
	got := oaskema.Errors(context.Background(), s, v)
	wantMessages(t, got, "a.b[1]: expected a number")
}

func TestErrors_RequiredReportedAtObjectPath(t *testing.T) {
	s := mustSchema(t, `{"type":"object","required":["id","name"],"properties":{"id":{"type":"integer"}}}`)
	got := oaskema.Errors(context.Background(), s, map[string]any{})
	wantMessages(t, got,
		"missing required property: id",
		"missing required property: name",
	)
}

func TestErrors_RequiredNestedPath(t *testing.T) {
	s := mustSchema(t, `{
		"type":"object",
		"properties":{"owner":{"type":"object","required":["id"]}}
	}`)
	v := map[string]any{"owner": map[string]any{}}
	got := oaskema.Errors(context.Background(), s, v)
	wantMessages(t, got, "owner: missing required property: id")
}

func TestErrors_StringLengthCountsRunes(t *testing.T) {
	s := mustSchema(t, `{"type":"string","minLength":3,"maxLength":5}`)
	ctx := context.Background()
	if got := oaskema.Errors(ctx, s, "héllo"); got != nil {
		t.Fatalf("expected no findings, got %v", got)
	}
	wantMessages(t, oaskema.Errors(ctx, s, "ab"), "string length below minimum of 3")
	wantMessages(t, oaskema.Errors(ctx, s, "abcdef"), "string length above maximum of 5")
}

func TestErrors_PatternAfterLength(t *testing.T) {
	s := mustSchema(t, `{"type":"string","maxLength":5,"pattern":"^[a-z]+$"}`)
	got := oaskema.Errors(context.Background(), s, "abc123")
	wantMessages(t, got,
		"string length above maximum of 5",
		"string does not match pattern: ^[a-z]+$",
	)
}

func TestErrors_UniqueItems(t *testing.T) {
	s := mustSchema(t, `{"type":"array","uniqueItems":true,"items":{"type":"integer"}}`)
	ctx := context.Background()
	wantMessages(t, oaskema.Errors(ctx, s, []any{1, 2, 1}), "array items are not unique")
	if got := oaskema.Errors(ctx, s, []any{1, 2, 3}); got != nil {
		t.Fatalf("expected no findings, got %v", got)
	}
}

func TestErrors_UniqueItemsComparesNumericValue(t *testing.T) {
	// 1 and 1.0 are the same JSON number, whatever Go type carries them.
	s := mustSchema(t, `{"type":"array","uniqueItems":true}`)
	got := oaskema.Errors(context.Background(), s, []any{1, 1.0})
	wantMessages(t, got, "array items are not unique")
}

func TestErrors_ObjectPropertyCountBounds(t *testing.T) {
	s := mustSchema(t, `{"type":"object","minProperties":1,"maxProperties":2}`)
	ctx := context.Background()
	wantMessages(t, oaskema.Errors(ctx, s, map[string]any{}),
		"object property count below minimum of 1")
	wantMessages(t, oaskema.Errors(ctx, s, map[string]any{"a": 1, "b": 2, "c": 3}),
		"object property count above maximum of 2")
}

func TestErrors_IntegerRejectsFractionsAndOverflow(t *testing.T) {
	ctx := context.Background()

	s := mustSchema(t, `{"type":"integer"}`)
	wantMessages(t, oaskema.Errors(ctx, s, 1.5), "expected an integer")
	if got := oaskema.Errors(ctx, s, 3.0); got != nil {
		t.Fatalf("whole float: expected no findings, got %v", got)
	}

	s32 := mustSchema(t, `{"type":"integer","format":"int32"}`)
	wantMessages(t, oaskema.Errors(ctx, s32, int64(math.MaxInt32)+1), "expected an int32")
	if got := oaskema.Errors(ctx, s32, int64(math.MaxInt32)); got != nil {
		t.Fatalf("max int32: expected no findings, got %v", got)
	}

	s64 := mustSchema(t, `{"type":"integer","format":"int64"}`)
	wantMessages(t, oaskema.Errors(ctx, s64, math.Pow(2, 63)), "expected an int64")
}

func TestErrors_NumberRejectsNonFinite(t *testing.T) {
	s := mustSchema(t, `{"type":"number"}`)
	ctx := context.Background()
	wantMessages(t, oaskema.Errors(ctx, s, math.NaN()), "expected a number")
	wantMessages(t, oaskema.Errors(ctx, s, math.Inf(1)), "expected a number")
}

func TestErrors_FormattedStringKinds(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		schema string
		value  any
		want   string
	}{
		{`{"type":"string","format":"byte"}`, 42, "expected a base64 string"},
		{`{"type":"string","format":"byte"}`, "!not base64!", "expected a base64 string"},
		{`{"type":"string","format":"date"}`, "2020-13-40", "expected a date"},
		{`{"type":"string","format":"date"}`, 7, "expected a date"},
		{`{"type":"string","format":"date-time"}`, "2020-01-02", "expected a date-time"},
		{`{"type":"string","format":"uuid"}`, "not-a-uuid", "expected a uuid"},
		{`{"type":"string","format":"email"}`, 42, "expected a string"},
	}
	for _, tc := range cases {
		s := mustSchema(t, tc.schema)
		wantMessages(t, oaskema.Errors(ctx, s, tc.value), tc.want)
	}
}

func TestErrors_FormattedStringAcceptsWireAndNative(t *testing.T) {
	ctx := context.Background()

	sb := mustSchema(t, `{"type":"string","format":"byte"}`)
	for _, v := range []any{"aGVsbG8=", []byte("hello")} {
		if got := oaskema.Errors(ctx, sb, v); got != nil {
			t.Fatalf("byte value %v: expected no findings, got %v", v, got)
		}
	}

	sd := mustSchema(t, `{"type":"string","format":"date-time"}`)
	for _, v := range []any{"2025-01-01T00:00:00Z", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)} {
		if got := oaskema.Errors(ctx, sd, v); got != nil {
			t.Fatalf("date-time value %v: expected no findings, got %v", v, got)
		}
	}

	su := mustSchema(t, `{"type":"string","format":"uuid"}`)
	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	for _, v := range []any{"123e4567-e89b-12d3-a456-426614174000", id} {
		if got := oaskema.Errors(ctx, su, v); got != nil {
			t.Fatalf("uuid value %v: expected no findings, got %v", v, got)
		}
	}
}

func TestErrors_ByteLengthBoundsUseDecodedBytes(t *testing.T) {
	// "aGVsbG8=" decodes to 5 bytes.
	s := mustSchema(t, `{"type":"string","format":"byte","maxLength":4}`)
	got := oaskema.Errors(context.Background(), s, "aGVsbG8=")
	wantMessages(t, got, "byte length above maximum of 4")
}

func TestErrors_EnumComparesNativeForms(t *testing.T) {
	s := mustSchema(t, `{"type":"string","format":"date","enum":["2020-01-01","2020-06-15"]}`)
	ctx := context.Background()
	if got := oaskema.Errors(ctx, s, "2020-06-15"); got != nil {
		t.Fatalf("wire form: expected no findings, got %v", got)
	}
	if got := oaskema.Errors(ctx, s, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)); got != nil {
		t.Fatalf("native form: expected no findings, got %v", got)
	}
	wantMessages(t, oaskema.Errors(ctx, s, "2021-01-01"), "not one of the allowed values")
}

func TestErrors_EnumOnUntypedSchema(t *testing.T) {
	s := mustSchema(t, `{"enum":["a",1,true]}`)
	ctx := context.Background()
	for _, v := range []any{"a", 1, true} {
		if got := oaskema.Errors(ctx, s, v); got != nil {
			t.Fatalf("value %v: expected no findings, got %v", v, got)
		}
	}
	wantMessages(t, oaskema.Errors(ctx, s, "b"), "not one of the allowed values")
}

func TestErrors_NullableAdmitsNull(t *testing.T) {
	ctx := context.Background()
	s := mustSchema(t, `{"type":"string","nullable":true}`)
	if got := oaskema.Errors(ctx, s, nil); got != nil {
		t.Fatalf("expected no findings, got %v", got)
	}
	strict := mustSchema(t, `{"type":"string"}`)
	wantMessages(t, oaskema.Errors(ctx, strict, nil), "expected a string")
}

func TestValidate_AggregatesUnderSummaryLine(t *testing.T) {
	s := mustSchema(t, `{"type":"number","minimum":10,"multipleOf":5}`)
	err := oaskema.Validate(context.Background(), s, 8)
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "one or more errors found") {
		t.Fatalf("missing summary line: %q", msg)
	}
	if !strings.Contains(msg, "\n  expected a number greater than or equal to 10") ||
		!strings.Contains(msg, "\n  expected a multiple of 5") {
		t.Fatalf("missing detail lines: %q", msg)
	}

	ex, ok := oaskema.AsException(err)
	if !ok {
		t.Fatalf("expected *Exception, got %T", err)
	}
	iss := ex.Issues()
	if len(iss) != 2 || iss[0].Code != oaskema.CodeTooSmall || iss[1].Code != oaskema.CodeMultipleOf {
		t.Fatalf("unexpected issues: %+v", iss)
	}
	if iss[0].Path != "" {
		t.Fatalf("root finding should carry an empty path, got %q", iss[0].Path)
	}
}

func TestValidate_NilOnConformingValue(t *testing.T) {
	s := mustSchema(t, `{"type":"number","minimum":10,"multipleOf":5}`)
	if err := oaskema.Validate(context.Background(), s, 15); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestErrors_SelfReferentialSchema(t *testing.T) {
	doc := `{"definitions":{"Node":{
		"type":"object",
		"required":["id"],
		"properties":{"id":{"type":"integer"},"next":{"$ref":"#/definitions/Node"}}
	}}}`
	d, err := oaskema.ParseDocument(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	node, ok := d.Schema("Node")
	if !ok {
		t.Fatalf("Node not registered")
	}

	ctx := context.Background()
	valid := map[string]any{"id": 1, "next": map[string]any{"id": 2}}
	if got := oaskema.Errors(ctx, node, valid); got != nil {
		t.Fatalf("expected no findings, got %v", got)
	}

	badLeaf := map[string]any{"id": 1, "next": map[string]any{"id": "x"}}
	wantMessages(t, oaskema.Errors(ctx, node, badLeaf), "next.id: expected an integer")

	missingDeep := map[string]any{"id": 1, "next": map[string]any{}}
	wantMessages(t, oaskema.Errors(ctx, node, missingDeep), "next: missing required property: id")
}

func TestErrors_CyclicValueTerminates(t *testing.T) {
	doc := `{"definitions":{"Node":{
		"type":"object",
		"required":["id"],
		"properties":{"id":{"type":"integer"},"next":{"$ref":"#/definitions/Node"}}
	}}}`
	d, err := oaskema.ParseDocument(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	node, _ := d.Schema("Node")

	m := map[string]any{"id": 1}
	m["next"] = m
	if got := oaskema.Errors(context.Background(), node, m); got != nil {
		t.Fatalf("expected no findings on cyclic value, got %v", got)
	}
}

func TestErrors_UnknownDeclaredTypeMatchesAnything(t *testing.T) {
	s := mustSchema(t, `{"type":"file"}`)
	if got := oaskema.Errors(context.Background(), s, map[string]any{"x": 1}); got != nil {
		t.Fatalf("expected no findings, got %v", got)
	}
}

func TestErrors_AcceptsDocumentDecodedValues(t *testing.T) {
	s := mustSchema(t, `{
		"type":"object",
		"required":["name"],
		"properties":{
			"name":{"type":"string","minLength":2},
			"tags":{"type":"array","items":{"type":"string"}}
		}
	}`)

	v, err := docscan.DecodeYAML([]byte("name: milo\ntags:\n  - small\n  - brown\n"))
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	ctx := context.Background()
	if got := oaskema.Errors(ctx, s, v); got != nil {
		t.Fatalf("expected no findings, got %v", got)
	}

	v, err = docscan.DecodeYAML([]byte("name: m\ntags: [ok, 3]\n"))
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	wantMessages(t, oaskema.Errors(ctx, s, v),
		"name: string length below minimum of 2",
		"tags[1]: expected a string",
	)
}
