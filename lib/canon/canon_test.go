package canon

import (
	"errors"
	"testing"

	"github.com/sindri-systems/jsonreg/lib/errs"
)

func mustBytes(t *testing.T, raw string) string {
	t.Helper()
	b, err := Bytes([]byte(raw))
	if err != nil {
		t.Fatalf("Bytes(%q) returned error: %v", raw, err)
	}
	return string(b)
}

func TestKeyOrderingIsSorted(t *testing.T) {
	got := mustBytes(t, `{"b":2,"a":1}`)
	if want := `{"a":1,"b":2}`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEquivalentKeyOrdersMatch(t *testing.T) {
	a := mustBytes(t, `{"name":"Alice","age":30}`)
	b := mustBytes(t, `{"age":30,"name":"Alice"}`)
	if a != b {
		t.Errorf("expected equal canonical forms, got %q and %q", a, b)
	}
}

func TestNestedObjectSorting(t *testing.T) {
	got := mustBytes(t, `{"outer":{"b":2,"a":1}}`)
	if want := `{"outer":{"a":1,"b":2}}`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestArrayOrderPreserved(t *testing.T) {
	got := mustBytes(t, `{"items":[3,1,2]}`)
	if want := `{"items":[3,1,2]}`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestArrayOfObjectsKeysSorted(t *testing.T) {
	got := mustBytes(t, `{"users":[{"name":"Bob","age":25},{"name":"Alice","age":30}]}`)
	if want := `{"users":[{"age":25,"name":"Bob"},{"age":30,"name":"Alice"}]}`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrimitives(t *testing.T) {
	cases := map[string]string{
		`"hello"`: `"hello"`,
		`42`:      `42`,
		`3.14`:    `3.14`,
		`true`:    `true`,
		`false`:   `false`,
		`null`:    `null`,
	}
	for in, want := range cases {
		if got := mustBytes(t, in); got != want {
			t.Errorf("Bytes(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmptyStructures(t *testing.T) {
	if got := mustBytes(t, `{}`); got != `{}` {
		t.Errorf("got %q, want {}", got)
	}
	if got := mustBytes(t, `[]`); got != `[]` {
		t.Errorf("got %q, want []", got)
	}
}

// TestIntegerRepresentableFloatsCollapseToInteger checks that any value
// representable as a 64-bit signed integer without loss emits as -?[0-9]+
// with no trailing ".0", because Postgres's jsonb type normalises 3.0 and
// 3 to the same stored numeric value. Emitting "3.0" for one submission
// and "3" for another would fragment the cache without ever being wrong,
// so canonicalisation picks the single integer form up front.
func TestIntegerRepresentableFloatsCollapseToInteger(t *testing.T) {
	cases := map[string]string{
		`42`:   `42`,
		`0`:    `0`,
		`-10`:  `-10`,
		`3.0`:  `3`,
		`0.0`:  `0`,
		`1e10`: `10000000000`,
		`-2.5`: `-2.5`,
		`3.14`: `3.14`,
	}
	for in, want := range cases {
		if got := mustBytes(t, in); got != want {
			t.Errorf("Bytes(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRejectsOverflowNumbers(t *testing.T) {
	_, err := Bytes([]byte(`1e400`))
	if err == nil {
		t.Fatal("expected an error for a number overflowing float64")
	}
}

func TestUnicodePassesThroughRaw(t *testing.T) {
	got := mustBytes(t, `{"emoji":"🎉"}`)
	if want := `{"emoji":"🎉"}`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSpecialCharacterEscaping(t *testing.T) {
	got := mustBytes(t, `{"quote":"He said \"hello\""}`)
	if want := `{"quote":"He said \"hello\""}`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got = mustBytes(t, `{"newline":"line1\nline2"}`)
	if want := `{"newline":"line1\u000aline2"}`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMixedTypes(t *testing.T) {
	got := mustBytes(t, `{
		"string":"hello","number":42,"float":3.14,"bool":true,
		"null":null,"array":[1,"two",3.0],"object":{"nested":"value"}
	}`)
	want := `{"array":[1,"two",3],"bool":true,"float":3.14,"null":null,"number":42,"object":{"nested":"value"},"string":"hello"}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDuplicateKeyIsRejected(t *testing.T) {
	_, err := Bytes([]byte(`{"a":1,"a":2}`))
	if err == nil {
		t.Fatal("expected an error for a duplicate object key")
	}
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.InvalidJson {
		t.Errorf("expected InvalidJson, got %v", err)
	}
}

func TestDuplicateKeyOnlyCheckedPerObject(t *testing.T) {
	// The same key name at different nesting levels is not a duplicate.
	got := mustBytes(t, `{"a":{"a":1}}`)
	if want := `{"a":{"a":1}}`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInvalidJsonRejected(t *testing.T) {
	cases := []string{`{`, `[1,2`, `not json`, `{"a":}`, ``}
	for _, in := range cases {
		if _, err := Bytes([]byte(in)); err == nil {
			t.Errorf("Bytes(%q) expected error, got none", in)
		}
	}
}

func TestTrailingDataRejected(t *testing.T) {
	_, err := Bytes([]byte(`{"a":1} garbage`))
	if err == nil {
		t.Fatal("expected error for trailing data after JSON value")
	}
}

func TestDeterminismAcrossWhitespaceKeyOrderAndNumericForm(t *testing.T) {
	a := mustBytes(t, `{ "a" : 1.0 , "b" : 2 }`)
	b := mustBytes(t, `{"b":2,"a":1}`)
	if a != b {
		t.Errorf("expected equivalent inputs to canonicalise identically, got %q and %q", a, b)
	}
}
