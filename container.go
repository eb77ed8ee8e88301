package untagged

import (
	"fmt"
)

// Loop carries the live iteration state of one container traversal. It is
// allocated per execution, so a Plan holding container fragments stays safe
// for concurrent use.
type Loop struct {
	remaining uint32
}

// Continue reports whether elements remain.
func (l *Loop) Continue() bool { return l.remaining > 0 }

// Remaining returns the number of elements not yet consumed, the current one
// included.
func (l *Loop) Remaining() uint32 { return l.remaining }

func (l *Loop) advance() { l.remaining-- }

// ElementFunc processes one container element (for maps, one key/value pair)
// at execution time. Most element bodies ignore the loop; it is available for
// callers that branch on position or remaining count.
type ElementFunc func(r Reader, loop *Loop) error

// ContainerHandler builds the per-element logic for a list or set. It runs at
// compile time and receives a child Builder scoped to the element node.
type ContainerHandler func(elem *Builder, kind WireKind) (ElementFunc, error)

// MapHandler builds the per-pair logic for a map: the key must be consumed
// before the value on every iteration.
type MapHandler func(key, value *Builder, keyKind, valueKind WireKind) (ElementFunc, error)

// Container emits a count-driven traversal of a list or set: begin-container
// yielding the element count, the element body once per remaining element,
// then end-container. Calling Container on a non-container node panics.
func (b *Builder) Container(h ContainerHandler) (Fragment, error) {
	if !b.node.IsContainer() {
		panic(fmt.Sprintf("untagged: Container called on %s schema node", b.node.Kind()))
	}
	eb := b.child(b.node.Element())
	ef, err := h(eb, eb.kind)
	if err != nil {
		return nil, err
	}
	return loopFragment(ef), nil
}

// Map is the map-shaped counterpart of Container. The handler receives child
// Builders for both the key and the value node.
func (b *Builder) Map(h MapHandler) (Fragment, error) {
	if !b.node.IsMap() {
		panic(fmt.Sprintf("untagged: Map called on %s schema node", b.node.Kind()))
	}
	kb := b.child(b.node.Key())
	vb := b.child(b.node.Element())
	ef, err := h(kb, vb, kb.kind, vb.kind)
	if err != nil {
		return nil, err
	}
	return loopFragment(ef), nil
}

func loopFragment(ef ElementFunc) Fragment {
	return func(r Reader) error {
		n, err := r.BeginContainer()
		if err != nil {
			return err
		}
		loop := Loop{remaining: n}
		for loop.Continue() {
			if err := ef(r, &loop); err != nil {
				return err
			}
			loop.advance()
		}
		return r.EndContainer()
	}
}

// Scalar emits a leaf read of this node's statically-known scalar kind,
// handing the decoded value to h. Pure pass-through, no branching.
func (b *Builder) Scalar(h func(v Scalar) error) Fragment {
	if !b.kind.IsScalar() {
		panic(fmt.Sprintf("untagged: Scalar called on %s schema node", b.node.Kind()))
	}
	k := b.kind
	return func(r Reader) error {
		v, err := r.ReadScalar(k)
		if err != nil {
			return err
		}
		return h(v)
	}
}

// Blob emits a leaf read of an opaque byte blob: the byte length comes from
// the container header.
func (b *Builder) Blob(h func(data []byte) error) Fragment {
	if !b.node.IsBlob() {
		panic(fmt.Sprintf("untagged: Blob called on %s schema node", b.node.Kind()))
	}
	return func(r Reader) error {
		n, err := r.BeginContainer()
		if err != nil {
			return err
		}
		data, err := r.ReadBytes(n)
		if err != nil {
			return err
		}
		if err := h(data); err != nil {
			return err
		}
		return r.EndContainer()
	}
}
