package untagged

import (
	"io"
	"testing"

	"github.com/wirefmt/untagged/schema"
)

// skipAll is the minimal empty policy; the dsl package cannot be imported
// from an in-package test.
type skipAll struct{}

func (skipAll) Begin() Fragment                 { return nil }
func (skipAll) End() Fragment                   { return nil }
func (skipAll) Base(*Builder) (Fragment, error) { return nil, nil }
func (skipAll) Fields() []FieldHandler          { return nil }

// scriptReader serves scripted presence flags and container counts; scalar
// reads and skips succeed without consuming anything else.
type scriptReader struct {
	presence []bool
	counts   []uint32
}

func (s *scriptReader) ReadFieldOmitted() (bool, error) {
	if len(s.presence) == 0 {
		return false, io.ErrUnexpectedEOF
	}
	v := s.presence[0]
	s.presence = s.presence[1:]
	return v, nil
}

func (s *scriptReader) BeginContainer() (uint32, error) {
	if len(s.counts) == 0 {
		return 0, io.ErrUnexpectedEOF
	}
	v := s.counts[0]
	s.counts = s.counts[1:]
	return v, nil
}

func (s *scriptReader) EndContainer() error                   { return nil }
func (s *scriptReader) ReadScalar(k WireKind) (Scalar, error) { return Scalar{Kind: k}, nil }
func (s *scriptReader) SkipScalar(WireKind) error             { return nil }
func (s *scriptReader) ReadBytes(n uint32) ([]byte, error)    { return make([]byte, n), nil }
func (s *scriptReader) SkipBytes(uint32) error                { return nil }
func (s *scriptReader) ReadMarshaledBonded() ([]byte, error)  { return nil, nil }
func (s *scriptReader) Location() int64                       { return -1 }

// nodeDef returns the canonical self-referential shape:
// Node{value: int32(id=0), children: list<Node>(id=1)}.
func nodeDef() *schema.Def {
	return &schema.Def{
		Structs: []schema.StructDef{{
			Name: "Node",
			Fields: []schema.FieldDef{
				{ID: 0, Name: "value", Type: schema.Scalar(schema.KindInt32)},
				{ID: 1, Name: "children", Type: schema.List(schema.StructRef(0))},
			},
		}},
		Root: schema.StructRef(0),
	}
}

func TestSkip_CyclicSchemaCompilesOneRoutine(t *testing.T) {
	plan, err := Compile(nodeDef().MustResolve(), skipAll{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := plan.skips.len(); got != 1 {
		t.Fatalf("skip registry holds %d routines, want 1", got)
	}

	// Node{value=1, children=[Node{value=2, children=[]}]}.
	r := &scriptReader{
		presence: []bool{false, false, false, false},
		counts:   []uint32{1, 0},
	}
	if err := plan.Execute(r); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(r.presence) != 0 || len(r.counts) != 0 {
		t.Fatalf("plan left input unconsumed: %d flags, %d counts", len(r.presence), len(r.counts))
	}
}

func TestSkip_AcyclicReuseIsNotCached(t *testing.T) {
	// Diamond: Pair{left: Leaf, right: Leaf}; Leaf is reached twice but never
	// through itself, so no cache entry is mandatory.
	def := &schema.Def{
		Structs: []schema.StructDef{
			{Name: "Pair", Fields: []schema.FieldDef{
				{ID: 0, Name: "left", Type: schema.StructRef(1)},
				{ID: 1, Name: "right", Type: schema.StructRef(1)},
			}},
			{Name: "Leaf", Fields: []schema.FieldDef{
				{ID: 0, Name: "v", Type: schema.Scalar(schema.KindBool)},
			}},
		},
		Root: schema.StructRef(0),
	}
	plan, err := Compile(def.MustResolve(), skipAll{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := plan.skips.len(); got != 0 {
		t.Fatalf("skip registry holds %d routines, want 0 for acyclic reuse", got)
	}
}

func TestSkip_EqualShapesShareOneSlot(t *testing.T) {
	// Two structurally identical self-referential structs at different table
	// indices: distinct schema objects, one skip cache entry.
	tree := func(self int) schema.StructDef {
		return schema.StructDef{
			Name: "Tree",
			Fields: []schema.FieldDef{
				{ID: 0, Name: "kids", Type: schema.List(schema.StructRef(self))},
			},
		}
	}
	def := &schema.Def{
		Structs: []schema.StructDef{
			tree(0),
			tree(1),
			{Name: "Holder", Fields: []schema.FieldDef{
				{ID: 0, Name: "a", Type: schema.StructRef(0)},
				{ID: 1, Name: "b", Type: schema.StructRef(1)},
			}},
		},
		Root: schema.StructRef(2),
	}
	plan, err := Compile(def.MustResolve(), skipAll{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := plan.skips.len(); got != 1 {
		t.Fatalf("skip registry holds %d routines, want 1 shared slot", got)
	}
}

func TestSkip_MutualRecursion(t *testing.T) {
	// A -> list<B>, B -> list<A>: both shapes are on the in-progress stack
	// when the cycle closes.
	def := &schema.Def{
		Structs: []schema.StructDef{
			{Name: "A", Fields: []schema.FieldDef{
				{ID: 0, Name: "bs", Type: schema.List(schema.StructRef(1))},
			}},
			{Name: "B", Fields: []schema.FieldDef{
				{ID: 0, Name: "as", Type: schema.List(schema.StructRef(0))},
			}},
		},
		Root: schema.StructRef(0),
	}
	plan, err := Compile(def.MustResolve(), skipAll{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	// A{bs:[B{as:[]}]}
	r := &scriptReader{
		presence: []bool{false, false},
		counts:   []uint32{1, 0},
	}
	if err := plan.Execute(r); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(r.presence) != 0 || len(r.counts) != 0 {
		t.Fatalf("plan left input unconsumed")
	}
}
