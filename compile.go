package untagged

import (
	"fmt"

	"github.com/wirefmt/untagged/schema"
)

// Plan is the finalized decode/skip routine built from a schema node and a
// Transform. It is immutable and re-executable: one Plan may run against any
// number of independent byte streams, concurrently if the Transform's
// handlers allow it.
type Plan struct {
	root  Fragment
	node  schema.Node
	skips *skipRegistry
}

// Schema returns the root node the plan was compiled for.
func (p *Plan) Schema() schema.Node { return p.node }

// Execute runs the plan against a live reader. Decode errors surfaced by the
// reader propagate unmodified.
func (p *Plan) Execute(r Reader) error {
	if r == nil {
		return compileIssue("", CodeParseError, "nil reader")
	}
	return p.root(r)
}

// Compile builds a Plan for the struct node n driven by the transform t.
// Construction is synchronous, single-threaded recursion: it runs to
// completion before returning, and the per-invocation skip cache is not
// shared across concurrent Compile calls. A zero node or a non-struct root is
// rejected with a descriptive error; contract breaches deeper in the build
// (struct-only operations invoked on non-struct child builders) panic.
func Compile(n schema.Node, t Transform) (*Plan, error) {
	if !n.Valid() {
		return nil, compileIssue("", CodeSchemaInvalid, "compile requires a resolved schema node")
	}
	if t == nil {
		return nil, compileIssue("", CodeSchemaInvalid, "compile requires a transform")
	}
	if !n.IsStruct() {
		return nil, compileIssue("/"+n.Kind().String(), CodeSchemaInvalid,
			fmt.Sprintf("root schema node must be a struct, got %s", n.Kind()))
	}
	sess := newSession()
	b := &Builder{node: n, kind: KindStruct, sess: sess}
	root, err := b.Struct(t)
	if err != nil {
		return nil, toIssues(CodeSchemaInvalid, err)
	}
	// The identity-keyed maps die with the session; only the finalized skip
	// routines travel on inside the Plan.
	return &Plan{root: root, node: n, skips: sess.reg}, nil
}

// Builder composes plan fragments for one schema node. Builders are created
// by Compile and handed to Transform hooks scoped to the node the hook is
// deciding about; they are valid only for the duration of the Compile call.
type Builder struct {
	node schema.Node
	kind WireKind
	sess *session
}

// Node returns the schema node this builder is scoped to.
func (b *Builder) Node() schema.Node { return b.node }

// Kind returns the declared wire kind of the node.
func (b *Builder) Kind() WireKind { return b.kind }

func (b *Builder) child(n schema.Node) *Builder {
	return &Builder{node: n, kind: n.Kind(), sess: b.sess}
}

// Struct emits the fragment for a struct value: the transform's begin hook,
// the base chain, every declared field in order, then the end hook. Calling
// Struct on a non-struct node is a caller defect and panics.
func (b *Builder) Struct(t Transform) (Fragment, error) {
	if !b.node.IsStruct() {
		panic(fmt.Sprintf("untagged: Struct called on %s schema node", b.node.Kind()))
	}
	var frags []Fragment
	if f := t.Begin(); f != nil {
		frags = append(frags, f)
	}
	if b.node.HasBase() {
		base := b.node.Base()
		bf, err := t.Base(b.child(base))
		if err != nil {
			return nil, err
		}
		if bf == nil {
			bf, err = b.sess.skipStructFields(base)
			if err != nil {
				return nil, err
			}
		}
		if bf != nil {
			frags = append(frags, bf)
		}
	}
	ff, err := b.fieldDispatch(t)
	if err != nil {
		return nil, err
	}
	frags = append(frags, ff...)
	if f := t.End(); f != nil {
		frags = append(frags, f)
	}
	return seq(frags), nil
}

// fieldDispatch performs the ordered left-outer join of the schema's field
// list against the transform's handlers. The schema is the driving side:
// every declared field yields a fragment, in declaration order, regardless of
// handler registration order.
func (b *Builder) fieldDispatch(t Transform) ([]Fragment, error) {
	handlers := make(map[uint16]FieldHandler)
	for _, h := range t.Fields() {
		handlers[h.ID] = h
	}
	unknown, hasUnknown := t.(UnknownFieldTransform)

	fields := b.node.Fields()
	frags := make([]Fragment, 0, len(fields))
	for _, fd := range fields {
		fb := b.child(fd.Type)
		h, claimed := handlers[fd.ID]

		var present Fragment
		var err error
		switch {
		case claimed && h.Present != nil:
			present, err = h.Present(fb)
		case hasUnknown:
			var handled bool
			present, handled, err = unknown.UnknownField(fb, fb.kind, fd.ID)
			if err == nil && !handled {
				present = nil
			}
		}
		if err != nil {
			return nil, err
		}
		if present == nil {
			present, err = fb.Skip()
			if err != nil {
				return nil, err
			}
		}

		var omitted Fragment
		if claimed {
			omitted = h.Omitted
		}
		frags = append(frags, fieldFragment(present, omitted))
	}
	return frags, nil
}

// fieldFragment wraps a field body in the runtime presence conditional: the
// wire carries one omitted flag per field, positional in declaration order.
func fieldFragment(present, omitted Fragment) Fragment {
	return func(r Reader) error {
		om, err := r.ReadFieldOmitted()
		if err != nil {
			return err
		}
		if om {
			if omitted != nil {
				return omitted(r)
			}
			return nil
		}
		return present(r)
	}
}

var nop Fragment = func(Reader) error { return nil }

func seq(frags []Fragment) Fragment {
	switch len(frags) {
	case 0:
		return nop
	case 1:
		return frags[0]
	}
	return func(r Reader) error {
		for _, f := range frags {
			if err := f(r); err != nil {
				return err
			}
		}
		return nil
	}
}
