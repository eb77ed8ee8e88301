package schema_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/wirefmt/untagged/schema"
)

const personYAML = `
structs:
  - name: Person
    fields:
      - id: 0
        name: name
        type: {kind: string}
      - id: 1
        name: age
        type: {kind: int32}
      - id: 2
        name: nicknames
        type:
          kind: list
          element: {kind: string}
root: {kind: struct, struct: 0}
`

func TestParseYAML(t *testing.T) {
	def, err := schema.ParseYAML([]byte(personYAML))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	n, err := def.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if n.Name() != "Person" {
		t.Fatalf("Name = %q", n.Name())
	}
	fields := n.Fields()
	if len(fields) != 3 {
		t.Fatalf("fields = %d", len(fields))
	}
	if fields[1].Type.Kind() != schema.KindInt32 {
		t.Fatalf("age kind = %s", fields[1].Type.Kind())
	}
	if !fields[2].Type.IsContainer() || fields[2].Type.Element().Kind() != schema.KindString {
		t.Fatalf("nicknames type = %v", fields[2].Type)
	}
}

func TestParseYAML_UnknownKind(t *testing.T) {
	_, err := schema.ParseYAML([]byte(`root: {kind: quaternion}`))
	if err == nil {
		t.Fatalf("unknown kind accepted")
	}
	if !errors.Is(err, schema.ErrInvalid) {
		t.Fatalf("error does not wrap ErrInvalid: %v", err)
	}
}

func TestReadYAML(t *testing.T) {
	def, err := schema.ReadYAML(strings.NewReader(personYAML))
	if err != nil {
		t.Fatalf("ReadYAML: %v", err)
	}
	if def.MustResolve().Name() != "Person" {
		t.Fatalf("unexpected root")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	def, err := schema.ParseYAML([]byte(personYAML))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	data, err := def.EncodeJSON()
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	// Kinds travel by name in the text formats.
	if !bytes.Contains(data, []byte(`"kind":"int32"`)) {
		t.Fatalf("JSON lacks named kind: %s", data)
	}
	back, err := schema.ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if !back.MustResolve().Equal(def.MustResolve()) {
		t.Fatalf("JSON round trip changed the schema")
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	_, err := schema.ParseJSON([]byte(`{"root":`))
	if err == nil {
		t.Fatalf("truncated JSON accepted")
	}
	if !errors.Is(err, schema.ErrInvalid) {
		t.Fatalf("error does not wrap ErrInvalid: %v", err)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	def, err := schema.ParseYAML([]byte(personYAML))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	data, err := def.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var back schema.Def
	if err := back.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if !back.MustResolve().Equal(def.MustResolve()) {
		t.Fatalf("binary round trip changed the schema")
	}

	// Canonical encoding is deterministic.
	again, err := back.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Fatalf("re-encoding is not byte identical")
	}
}

func TestUnmarshalBinary_Invalid(t *testing.T) {
	var def schema.Def
	err := def.UnmarshalBinary([]byte{0xff, 0x00})
	if err == nil {
		t.Fatalf("garbage CBOR accepted")
	}
	if !errors.Is(err, schema.ErrInvalid) {
		t.Fatalf("error does not wrap ErrInvalid: %v", err)
	}
}

func TestKindText(t *testing.T) {
	for _, name := range []string{"bool", "int32", "string", "blob", "list", "map", "struct"} {
		k, err := schema.ParseKind(name)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", name, err)
		}
		if k.String() != name {
			t.Fatalf("%q round trips to %q", name, k.String())
		}
	}
	if _, err := schema.ParseKind("void"); !errors.Is(err, schema.ErrInvalid) {
		t.Fatalf("ParseKind(void): %v", err)
	}
	if _, err := schema.Kind(200).MarshalText(); err == nil {
		t.Fatalf("MarshalText accepted an unknown kind")
	}
}
