package schema

import (
	"encoding/binary"
	"hash/fnv"
)

// Structural identity for nodes. Two nodes describing the same type
// definition must compare and hash equal even when they were built from
// independently constructed Defs; the skip cache and in-progress set in the
// plan builder key on this. Cycles are cut with a visit-stack position
// marker, which is itself structural: identical definitions walk in identical
// order and emit identical markers.

// Hash returns a deterministic structural hash of the node: kind, bonded
// flag, and for structs the name, base link and ordered field ids, names and
// types.
func (n Node) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeStr := func(s string) {
		writeU64(uint64(len(s)))
		h.Write([]byte(s))
	}
	var walk func(d *Def, t *TypeRef, stack []*StructDef)
	walk = func(d *Def, t *TypeRef, stack []*StructDef) {
		h.Write([]byte{byte(t.Kind), boolByte(t.Bonded)})
		switch {
		case t.Kind == KindStruct:
			sd := &d.Structs[t.Struct]
			for i, s := range stack {
				if s == sd {
					// Back reference onto the current walk stack.
					h.Write([]byte{0xff})
					writeU64(uint64(i))
					return
				}
			}
			stack = append(stack, sd)
			writeStr(sd.Name)
			if sd.Base != nil {
				h.Write([]byte{1})
				walk(d, sd.Base, stack)
			} else {
				h.Write([]byte{0})
			}
			writeU64(uint64(len(sd.Fields)))
			for i := range sd.Fields {
				fd := &sd.Fields[i]
				writeU64(uint64(fd.ID))
				writeStr(fd.Name)
				walk(d, &fd.Type, stack)
			}
		case t.Kind == KindMap:
			walk(d, t.Key, stack)
			walk(d, t.Element, stack)
		case t.Element != nil:
			walk(d, t.Element, stack)
		}
	}
	walk(n.def, n.t, nil)
	return h.Sum64()
}

// Equal reports structural equality with o. Recursive shapes are compared
// coinductively: a pair of structs already assumed equal on the current walk
// terminates the recursion.
func (n Node) Equal(o Node) bool {
	if !n.Valid() || !o.Valid() {
		return n.Valid() == o.Valid()
	}
	type pair struct{ a, b *StructDef }
	assumed := make(map[pair]bool)
	var eq func(ad *Def, a *TypeRef, bd *Def, b *TypeRef) bool
	eq = func(ad *Def, a *TypeRef, bd *Def, b *TypeRef) bool {
		if a.Kind != b.Kind || a.Bonded != b.Bonded {
			return false
		}
		switch {
		case a.Kind == KindStruct:
			as, bs := &ad.Structs[a.Struct], &bd.Structs[b.Struct]
			p := pair{as, bs}
			if assumed[p] {
				return true
			}
			assumed[p] = true
			if as.Name != bs.Name || len(as.Fields) != len(bs.Fields) {
				return false
			}
			if (as.Base == nil) != (bs.Base == nil) {
				return false
			}
			if as.Base != nil && !eq(ad, as.Base, bd, bs.Base) {
				return false
			}
			for i := range as.Fields {
				af, bf := &as.Fields[i], &bs.Fields[i]
				if af.ID != bf.ID || af.Name != bf.Name {
					return false
				}
				if !eq(ad, &af.Type, bd, &bf.Type) {
					return false
				}
			}
			return true
		case a.Kind == KindMap:
			return eq(ad, a.Key, bd, b.Key) && eq(ad, a.Element, bd, b.Element)
		case a.Element != nil:
			return b.Element != nil && eq(ad, a.Element, bd, b.Element)
		default:
			return true
		}
	}
	return eq(n.def, n.t, o.def, o.t)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
