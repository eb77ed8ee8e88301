package untagged

import (
	"fmt"

	"github.com/wirefmt/untagged/schema"
)

// Bonded is a deferred value handle. It arrives in one of two forms:
//
//   - pre-marshaled: the wire carried a self-describing payload, exposed via
//     Marshaled; this core does not parse it.
//   - deferred: the wire carried the struct inline and the handle captured an
//     independent reader cursor positioned at the value, so Decode can walk
//     it on demand after the main stream has moved past.
type Bonded struct {
	node      schema.Node
	reader    Reader
	marshaled []byte
}

// Node returns the schema node of the deferred value.
func (bv Bonded) Node() schema.Node { return bv.node }

// Marshaled returns the pre-marshaled payload, or nil for deferred handles.
func (bv Bonded) Marshaled() []byte { return bv.marshaled }

// CanDecode reports whether Decode can run: true for deferred handles whose
// reader supported forking at capture time.
func (bv Bonded) CanDecode() bool { return bv.reader != nil }

// Decode compiles a plan for the deferred value and executes it against the
// captured cursor. Each call re-forks when the capability is available, so
// Decode may run more than once.
func (bv Bonded) Decode(t Transform) error {
	if bv.reader == nil {
		if bv.marshaled != nil {
			return compileIssue("", CodeBondedUnsupported,
				"pre-marshaled bonded payloads are opaque at this layer; use Marshaled")
		}
		return compileIssue("", CodeBondedUnsupported,
			"deferred decode requires a reader with fork support")
	}
	p, err := Compile(bv.node, t)
	if err != nil {
		return err
	}
	r := bv.reader
	if f, ok := r.(Forker); ok {
		r = f.Fork()
	}
	return p.Execute(r)
}

// Bonded emits the deferred-value dispatch for this builder's node, handing a
// handle to h. When the node is itself a bonded wrapper the wire value is a
// pre-marshaled payload and is read directly, with no follow-up skip. For a
// plain struct node the fragment captures a deferred handle and then
// unconditionally skips the struct's inline bytes, so the stream cursor stays
// in sync whether or not the caller ever dereferences the handle.
func (b *Builder) Bonded(h func(bv Bonded) error) (Fragment, error) {
	if !b.node.IsStruct() {
		panic(fmt.Sprintf("untagged: Bonded called on %s schema node", b.node.Kind()))
	}
	node := b.node
	if node.IsBonded() {
		return func(r Reader) error {
			data, err := r.ReadMarshaledBonded()
			if err != nil {
				return err
			}
			return h(Bonded{node: node, marshaled: data})
		}, nil
	}
	skip, err := b.sess.skipStruct(node)
	if err != nil {
		return nil, err
	}
	return func(r Reader) error {
		bv := Bonded{node: node}
		if f, ok := r.(Forker); ok {
			// Middleware readers may implement Forker yet fail to fork their
			// inner reader; a nil fork leaves the handle undecodable.
			bv.reader = f.Fork()
		}
		if err := h(bv); err != nil {
			return err
		}
		return skip(r)
	}, nil
}
