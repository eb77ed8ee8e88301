package untagged

import (
	"fmt"

	"github.com/wirefmt/untagged/schema"
)

// Structural skip: consume and discard a value of a given wire kind without
// materializing it. Struct skip is the hard case: a struct reachable from one
// of its own fields would recurse forever at compile time,
// so in-progress shapes are compiled once into a registry slot and referenced
// through an indirect call instead of being inlined again.

// Skip emits a fragment that structurally skips one value of this builder's
// node. Unclaimed fields route here; Transforms can also call it directly
// (the bonded deferral path does).
func (b *Builder) Skip() (Fragment, error) {
	return b.sess.skip(b.node)
}

// session is the per-Compile build state: the skip registry that will outlive
// the build inside the Plan, the identity-keyed slot map, and the in-progress
// set used to detect structural cycles. It is never shared across builds.
type session struct {
	reg      *skipRegistry
	slots    *identMap
	inflight *identMap
}

func newSession() *session {
	return &session{
		reg:      &skipRegistry{},
		slots:    newIdentMap(),
		inflight: newIdentMap(),
	}
}

func (s *session) skip(n schema.Node) (Fragment, error) {
	switch k := n.Kind(); {
	case k.IsScalar():
		return func(r Reader) error { return r.SkipScalar(k) }, nil
	case k == KindBlob:
		return skipBlob, nil
	case k.IsContainer():
		ef, err := s.skip(n.Element())
		if err != nil {
			return nil, err
		}
		return loopFragment(func(r Reader, _ *Loop) error { return ef(r) }), nil
	case k == KindMap:
		kf, err := s.skip(n.Key())
		if err != nil {
			return nil, err
		}
		vf, err := s.skip(n.Element())
		if err != nil {
			return nil, err
		}
		return loopFragment(func(r Reader, _ *Loop) error {
			if err := kf(r); err != nil {
				return err
			}
			return vf(r)
		}), nil
	case k == KindStruct:
		if n.IsBonded() {
			// A bonded wrapper's wire form is a pre-marshaled payload; skipping
			// it means consuming that payload, not walking struct fields.
			return skipMarshaledBonded, nil
		}
		return s.skipStruct(n)
	default:
		return nil, compileIssue("", CodeInvalidWireKind, fmt.Sprintf("cannot skip kind %s", k))
	}
}

// skipStruct compiles a skip of one struct shape. Shapes not currently being
// expanded are inlined; a shape that is its own ancestor on the compile stack
// is a structural cycle and is routed through the registry: reserve a slot
// (addressable before its body exists, since the body under construction may
// itself call it), compile the standalone routine once, install it, and emit
// an indirect call. Identity is structural, so independently-built nodes for
// the same type share one slot.
func (s *session) skipStruct(n schema.Node) (Fragment, error) {
	if s.inflight.has(n) {
		idx, ok := s.slots.get(n)
		if !ok {
			idx = s.reg.reserve()
			s.slots.put(n, idx)
			body, err := s.skipStructFields(n)
			if err != nil {
				return nil, err
			}
			s.reg.install(idx, body)
		}
		return s.reg.indirect(idx), nil
	}
	s.inflight.put(n, 0)
	frag, err := s.skipStructFields(n)
	s.inflight.remove(n)
	return frag, err
}

// skipStructFields compiles the all-fields skip of a struct: base chain
// first, then every declared field behind its presence flag, in order.
func (s *session) skipStructFields(n schema.Node) (Fragment, error) {
	var frags []Fragment
	if n.HasBase() {
		bf, err := s.skipStructFields(n.Base())
		if err != nil {
			return nil, err
		}
		frags = append(frags, bf)
	}
	for _, fd := range n.Fields() {
		sf, err := s.skip(fd.Type)
		if err != nil {
			return nil, err
		}
		frags = append(frags, fieldFragment(sf, nil))
	}
	return seq(frags), nil
}

func skipBlob(r Reader) error {
	n, err := r.BeginContainer()
	if err != nil {
		return err
	}
	if err := r.SkipBytes(n); err != nil {
		return err
	}
	return r.EndContainer()
}

func skipMarshaledBonded(r Reader) error {
	_, err := r.ReadMarshaledBonded()
	return err
}

// skipRegistry is the arena of finalized skip routines. Indirect fragments
// hold the registry pointer and a slot index rather than a direct closure, so
// a routine can call itself (or a mutually-recursive sibling) before its body
// is installed. The registry is append-only during Compile and immutable
// afterwards.
type skipRegistry struct {
	routines []Fragment
}

func (g *skipRegistry) reserve() int {
	g.routines = append(g.routines, nil)
	return len(g.routines) - 1
}

func (g *skipRegistry) install(idx int, f Fragment) { g.routines[idx] = f }

func (g *skipRegistry) indirect(idx int) Fragment {
	return func(r Reader) error { return g.routines[idx](r) }
}

func (g *skipRegistry) len() int { return len(g.routines) }

// identMap keys values by structural node identity: bucketed on Hash with an
// Equal check to stay correct under hash collisions.
type identMap struct {
	buckets map[uint64][]identEntry
}

type identEntry struct {
	node schema.Node
	idx  int
}

func newIdentMap() *identMap { return &identMap{buckets: make(map[uint64][]identEntry)} }

func (m *identMap) get(n schema.Node) (int, bool) {
	for _, e := range m.buckets[n.Hash()] {
		if e.node.Equal(n) {
			return e.idx, true
		}
	}
	return 0, false
}

func (m *identMap) has(n schema.Node) bool {
	_, ok := m.get(n)
	return ok
}

func (m *identMap) put(n schema.Node, idx int) {
	h := n.Hash()
	for i, e := range m.buckets[h] {
		if e.node.Equal(n) {
			m.buckets[h][i].idx = idx
			return
		}
	}
	m.buckets[h] = append(m.buckets[h], identEntry{node: n, idx: idx})
}

func (m *identMap) remove(n schema.Node) {
	h := n.Hash()
	bucket := m.buckets[h]
	for i, e := range bucket {
		if e.node.Equal(n) {
			m.buckets[h] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}
