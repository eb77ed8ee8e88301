package untagged_test

import (
	"fmt"
	"strings"
	"testing"

	untagged "github.com/wirefmt/untagged"
	"github.com/wirefmt/untagged/dsl"
	"github.com/wirefmt/untagged/schema"
	"github.com/wirefmt/untagged/source/simple"
)

// personDef is the canonical two-field struct used across the root tests.
func personDef() *schema.Def {
	return &schema.Def{
		Structs: []schema.StructDef{{
			Name: "Person",
			Fields: []schema.FieldDef{
				{ID: 0, Name: "name", Type: schema.Scalar(schema.KindString)},
				{ID: 1, Name: "age", Type: schema.Scalar(schema.KindInt32)},
			},
		}},
		Root: schema.StructRef(0),
	}
}

func scalarField(sink func(untagged.Scalar)) dsl.PresentFunc {
	return func(field *untagged.Builder) (untagged.Fragment, error) {
		return field.Scalar(func(v untagged.Scalar) error {
			sink(v)
			return nil
		}), nil
	}
}

func TestCompile_PersonDecodeSomeSkipRest(t *testing.T) {
	node := personDef().MustResolve()

	var name string
	plan, err := untagged.Compile(node, dsl.Struct().
		Field(0, scalarField(func(v untagged.Scalar) { name = v.String })).
		Transform())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	w := simple.NewWriter()
	w.FieldPresent()
	w.WriteString("Ann")
	w.FieldPresent()
	w.WriteInt(untagged.KindInt32, 30)

	r := simple.NewBytes(w.Bytes())
	if err := plan.Execute(r); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if name != "Ann" {
		t.Fatalf("name handler got %q, want %q", name, "Ann")
	}
	if r.Remaining() != 0 {
		t.Fatalf("age was not skipped: %d bytes left", r.Remaining())
	}
}

// traceReader records the operation order a plan performs.
type traceReader struct {
	untagged.Reader
	ops *[]string
}

func (tr traceReader) ReadScalar(k untagged.WireKind) (untagged.Scalar, error) {
	*tr.ops = append(*tr.ops, "read "+k.String())
	return tr.Reader.ReadScalar(k)
}

func (tr traceReader) SkipScalar(k untagged.WireKind) error {
	*tr.ops = append(*tr.ops, "skip "+k.String())
	return tr.Reader.SkipScalar(k)
}

func TestCompile_DispatchFollowsSchemaOrder(t *testing.T) {
	def := &schema.Def{
		Structs: []schema.StructDef{{
			Name: "Triple",
			Fields: []schema.FieldDef{
				{ID: 0, Name: "a", Type: schema.Scalar(schema.KindInt32)},
				{ID: 1, Name: "b", Type: schema.Scalar(schema.KindString)},
				{ID: 2, Name: "c", Type: schema.Scalar(schema.KindBool)},
			},
		}},
		Root: schema.StructRef(0),
	}
	node := def.MustResolve()

	// Registration order intentionally disagrees with schema order: only b is
	// claimed, and an unrelated id is registered before it.
	plan, err := untagged.Compile(node, dsl.Struct().
		Field(9, scalarField(func(untagged.Scalar) {})).
		Field(1, scalarField(func(untagged.Scalar) {})).
		Transform())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	w := simple.NewWriter()
	w.FieldPresent()
	w.WriteInt(untagged.KindInt32, 7)
	w.FieldPresent()
	w.WriteString("mid")
	w.FieldPresent()
	w.WriteBool(true)

	var ops []string
	if err := plan.Execute(traceReader{Reader: simple.NewBytes(w.Bytes()), ops: &ops}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{"skip int32", "read string", "skip bool"}
	if fmt.Sprint(ops) != fmt.Sprint(want) {
		t.Fatalf("operation order %v, want %v", ops, want)
	}
}

func TestCompile_OmittedFields(t *testing.T) {
	node := personDef().MustResolve()

	var gotName, sawOmittedAge bool
	plan, err := untagged.Compile(node, dsl.Struct().
		Field(0, scalarField(func(untagged.Scalar) { gotName = true })).
		FieldOmitted(1, func(untagged.Reader) error {
			sawOmittedAge = true
			return nil
		}).
		Transform())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	w := simple.NewWriter()
	w.FieldOmitted() // name
	w.FieldOmitted() // age

	r := simple.NewBytes(w.Bytes())
	if err := plan.Execute(r); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotName {
		t.Fatalf("present handler ran for an omitted field")
	}
	if !sawOmittedAge {
		t.Fatalf("omitted handler did not run")
	}
	if r.Remaining() != 0 {
		t.Fatalf("%d bytes left", r.Remaining())
	}
}

func TestCompile_BeginEndHooks(t *testing.T) {
	node := personDef().MustResolve()

	var order []string
	mark := func(s string) untagged.Fragment {
		return func(untagged.Reader) error {
			order = append(order, s)
			return nil
		}
	}
	plan, err := untagged.Compile(node, dsl.Struct().
		Begin(mark("begin")).
		Field(0, scalarField(func(untagged.Scalar) { order = append(order, "name") })).
		End(mark("end")).
		Transform())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	w := simple.NewWriter()
	w.FieldPresent()
	w.WriteString("x")
	w.FieldOmitted()

	if err := plan.Execute(simple.NewBytes(w.Bytes())); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fmt.Sprint(order) != fmt.Sprint([]string{"begin", "name", "end"}) {
		t.Fatalf("hook order %v", order)
	}
}

func derivedDef() *schema.Def {
	return &schema.Def{
		Structs: []schema.StructDef{
			{
				Name: "Creature",
				Fields: []schema.FieldDef{
					{ID: 0, Name: "legs", Type: schema.Scalar(schema.KindInt32)},
				},
			},
			{
				Name: "Dog",
				Base: &schema.TypeRef{Kind: schema.KindStruct, Struct: 0},
				Fields: []schema.FieldDef{
					{ID: 0, Name: "breed", Type: schema.Scalar(schema.KindString)},
				},
			},
		},
		Root: schema.StructRef(1),
	}
}

func writeDog(legs int64, breed string) []byte {
	w := simple.NewWriter()
	w.FieldPresent()
	w.WriteInt(untagged.KindInt32, legs)
	w.FieldPresent()
	w.WriteString(breed)
	return w.Bytes()
}

func TestCompile_BaseSkippedByDefault(t *testing.T) {
	node := derivedDef().MustResolve()
	if node.HierarchyDepth() != 1 {
		t.Fatalf("HierarchyDepth = %d, want 1", node.HierarchyDepth())
	}

	var breed string
	plan, err := untagged.Compile(node, dsl.Struct().
		Field(0, scalarField(func(v untagged.Scalar) { breed = v.String })).
		Transform())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	r := simple.NewBytes(writeDog(4, "corgi"))
	if err := plan.Execute(r); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if breed != "corgi" {
		t.Fatalf("breed = %q; base fields must be consumed before derived ones", breed)
	}
	if r.Remaining() != 0 {
		t.Fatalf("%d bytes left", r.Remaining())
	}
}

func TestCompile_BaseDelegation(t *testing.T) {
	node := derivedDef().MustResolve()

	var legs int64
	plan, err := untagged.Compile(node, dsl.Struct().
		OnBase(func(base *untagged.Builder) (untagged.Fragment, error) {
			return base.Struct(dsl.Struct().
				Field(0, scalarField(func(v untagged.Scalar) { legs = v.Int })).
				Transform())
		}).
		Transform())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	r := simple.NewBytes(writeDog(4, "corgi"))
	if err := plan.Execute(r); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if legs != 4 {
		t.Fatalf("legs = %d, want 4", legs)
	}
	if r.Remaining() != 0 {
		t.Fatalf("%d bytes left", r.Remaining())
	}
}

func TestCompile_ArgumentErrors(t *testing.T) {
	if _, err := untagged.Compile(schema.Node{}, dsl.SkipAll()); err == nil {
		t.Fatalf("expected error for zero schema node")
	}
	def := &schema.Def{Root: schema.Scalar(schema.KindInt32)}
	node := def.MustResolve()
	_, err := untagged.Compile(node, dsl.SkipAll())
	if err == nil {
		t.Fatalf("expected error for non-struct root")
	}
	iss, ok := untagged.AsIssues(err)
	if !ok || iss[0].Code != untagged.CodeSchemaInvalid {
		t.Fatalf("want %s issue, got %v", untagged.CodeSchemaInvalid, err)
	}
	if _, err := untagged.Compile(personDef().MustResolve(), nil); err == nil {
		t.Fatalf("expected error for nil transform")
	}
}

func TestCompile_StructOnNonStructPanics(t *testing.T) {
	node := personDef().MustResolve()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic")
		}
		if !strings.Contains(fmt.Sprint(r), "Struct called on") {
			t.Fatalf("unexpected panic value: %v", r)
		}
	}()
	_, _ = untagged.Compile(node, dsl.Struct().
		Field(0, func(field *untagged.Builder) (untagged.Fragment, error) {
			// Field 0 is a string; treating it as a struct is a contract breach.
			return field.Struct(dsl.SkipAll())
		}).
		Transform())
}

func TestCompile_ReaderErrorsPropagateUnmodified(t *testing.T) {
	node := personDef().MustResolve()
	plan, err := untagged.Compile(node, dsl.SkipAll())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	err = plan.Execute(simple.NewBytes(nil))
	iss, ok := untagged.AsIssues(err)
	if !ok {
		t.Fatalf("expected Issues, got %v", err)
	}
	if iss[0].Code != untagged.CodeTruncated {
		t.Fatalf("code = %s, want %s", iss[0].Code, untagged.CodeTruncated)
	}
}
