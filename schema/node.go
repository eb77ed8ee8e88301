package schema

import (
	"fmt"
)

// Node is the resolved, immutable view of one type in a schema. The zero Node
// is invalid. Nodes are cheap values (two words plus a depth table pointer)
// and are compared structurally, never by identity: see Equal and Hash in
// identity.go.
type Node struct {
	def    *Def
	t      *TypeRef
	depths []int // hierarchy depth per struct index, computed by Resolve
}

// Field is one resolved struct field: stable id, declared name and the node
// describing the field's value type.
type Field struct {
	ID   uint16
	Name string
	Type Node
}

// Resolve validates the definition and returns the root node. It rejects
// dangling struct indices, missing element/key references, non-scalar map
// keys, duplicate field ids, bonded wrappers on non-struct types and cyclic
// base chains. The returned node and every node reachable from it stay valid
// for as long as the Def is not mutated.
func (d *Def) Resolve() (Node, error) {
	depths := make([]int, len(d.Structs))
	for i := range depths {
		depths[i] = -1
	}
	for i := range d.Structs {
		if err := d.resolveStruct(i, depths); err != nil {
			return Node{}, err
		}
	}
	if err := d.checkRef(&d.Root, "/root"); err != nil {
		return Node{}, err
	}
	return Node{def: d, t: &d.Root, depths: depths}, nil
}

// MustResolve is Resolve for statically-known definitions in tests and
// examples; it panics on error.
func (d *Def) MustResolve() Node {
	n, err := d.Resolve()
	if err != nil {
		panic(err)
	}
	return n
}

func (d *Def) resolveStruct(i int, depths []int) error {
	sd := &d.Structs[i]
	path := fmt.Sprintf("/structs/%d", i)
	seen := make(map[uint16]struct{}, len(sd.Fields))
	for j := range sd.Fields {
		fd := &sd.Fields[j]
		if _, dup := seen[fd.ID]; dup {
			return fmt.Errorf("%w: %s/fields/%d: duplicate field id %d", ErrInvalid, path, j, fd.ID)
		}
		seen[fd.ID] = struct{}{}
		if err := d.checkRef(&fd.Type, fmt.Sprintf("%s/fields/%d", path, j)); err != nil {
			return err
		}
	}
	if sd.Base != nil {
		if sd.Base.Kind != KindStruct || sd.Base.Bonded {
			return fmt.Errorf("%w: %s/base: base must be a plain struct reference", ErrInvalid, path)
		}
		if err := d.checkRef(sd.Base, path+"/base"); err != nil {
			return err
		}
	}
	_, err := d.structDepth(i, depths, nil)
	return err
}

// structDepth computes the distance of struct i from the root of its
// inheritance chain, memoized in depths. The stack guards against base cycles.
func (d *Def) structDepth(i int, depths []int, stack []int) (int, error) {
	if depths[i] >= 0 {
		return depths[i], nil
	}
	for _, s := range stack {
		if s == i {
			return 0, fmt.Errorf("%w: /structs/%d: cyclic base chain", ErrInvalid, i)
		}
	}
	sd := &d.Structs[i]
	depth := 0
	if sd.Base != nil {
		if sd.Base.Struct < 0 || sd.Base.Struct >= len(d.Structs) {
			return 0, fmt.Errorf("%w: /structs/%d/base: struct index %d out of range", ErrInvalid, i, sd.Base.Struct)
		}
		bd, err := d.structDepth(sd.Base.Struct, depths, append(stack, i))
		if err != nil {
			return 0, err
		}
		depth = bd + 1
	}
	depths[i] = depth
	return depth, nil
}

// checkRef validates a single TypeRef subtree (struct bodies are validated
// once each from the struct table, so struct references only need an index
// check here).
func (d *Def) checkRef(t *TypeRef, path string) error {
	switch {
	case t.Kind.IsScalar() || t.Kind == KindBlob:
		if t.Element != nil || t.Key != nil {
			return fmt.Errorf("%w: %s: %s carries no element or key type", ErrInvalid, path, t.Kind)
		}
		if t.Bonded {
			return fmt.Errorf("%w: %s: bonded wrapper requires a struct type", ErrInvalid, path)
		}
	case t.Kind.IsContainer():
		if t.Element == nil {
			return fmt.Errorf("%w: %s: %s requires an element type", ErrInvalid, path, t.Kind)
		}
		if t.Bonded {
			return fmt.Errorf("%w: %s: bonded wrapper requires a struct type", ErrInvalid, path)
		}
		return d.checkRef(t.Element, path+"/element")
	case t.Kind == KindMap:
		if t.Key == nil || t.Element == nil {
			return fmt.Errorf("%w: %s: map requires key and element types", ErrInvalid, path)
		}
		if t.Bonded {
			return fmt.Errorf("%w: %s: bonded wrapper requires a struct type", ErrInvalid, path)
		}
		if !t.Key.Kind.IsScalar() {
			return fmt.Errorf("%w: %s/key: map keys must be scalar, got %s", ErrInvalid, path, t.Key.Kind)
		}
		if err := d.checkRef(t.Key, path+"/key"); err != nil {
			return err
		}
		return d.checkRef(t.Element, path+"/element")
	case t.Kind == KindStruct:
		if t.Struct < 0 || t.Struct >= len(d.Structs) {
			return fmt.Errorf("%w: %s: struct index %d out of range", ErrInvalid, path, t.Struct)
		}
	default:
		return fmt.Errorf("%w: %s: unusable kind %s", ErrInvalid, path, t.Kind)
	}
	return nil
}

// Valid reports whether the node was produced by Resolve.
func (n Node) Valid() bool { return n.def != nil && n.t != nil }

// Kind returns the wire kind of the node.
func (n Node) Kind() Kind { return n.t.Kind }

// IsStruct reports whether the node denotes a struct shape (bonded wrappers
// included; see IsBonded).
func (n Node) IsStruct() bool { return n.t.Kind == KindStruct }

// IsContainer reports whether the node is a list or set.
func (n Node) IsContainer() bool { return n.t.Kind.IsContainer() }

// IsMap reports whether the node is a map.
func (n Node) IsMap() bool { return n.t.Kind == KindMap }

// IsBlob reports whether the node is an opaque byte blob.
func (n Node) IsBlob() bool { return n.t.Kind == KindBlob }

// IsBonded reports whether the node is itself a bonded wrapper: its wire
// representation is a pre-marshaled payload rather than inline struct fields.
func (n Node) IsBonded() bool { return n.t.Bonded }

// Name returns the declared struct name, or "" for non-struct nodes.
func (n Node) Name() string {
	if !n.IsStruct() {
		return ""
	}
	return n.def.Structs[n.t.Struct].Name
}

// HasBase reports whether the struct node has a base type.
func (n Node) HasBase() bool {
	return n.IsStruct() && n.def.Structs[n.t.Struct].Base != nil
}

// Base returns the node for the struct's base type. It panics when the node
// is not a struct or has no base; callers gate on HasBase.
func (n Node) Base() Node {
	n.mustStruct("Base")
	b := n.def.Structs[n.t.Struct].Base
	if b == nil {
		panic("untagged/schema: Base called on struct without a base type")
	}
	return Node{def: n.def, t: b, depths: n.depths}
}

// Fields returns the struct's own fields in declared order. Base fields are
// not included; they are reached through Base.
func (n Node) Fields() []Field {
	n.mustStruct("Fields")
	sd := &n.def.Structs[n.t.Struct]
	out := make([]Field, len(sd.Fields))
	for i := range sd.Fields {
		fd := &sd.Fields[i]
		out[i] = Field{ID: fd.ID, Name: fd.Name, Type: Node{def: n.def, t: &fd.Type, depths: n.depths}}
	}
	return out
}

// Element returns the element node of a list or set, or the value node of a
// map. It panics for other kinds.
func (n Node) Element() Node {
	if n.t.Element == nil {
		panic(fmt.Sprintf("untagged/schema: Element called on %s node", n.t.Kind))
	}
	return Node{def: n.def, t: n.t.Element, depths: n.depths}
}

// Key returns the key node of a map. It panics for other kinds.
func (n Node) Key() Node {
	if n.t.Key == nil {
		panic(fmt.Sprintf("untagged/schema: Key called on %s node", n.t.Kind))
	}
	return Node{def: n.def, t: n.t.Key, depths: n.depths}
}

// HierarchyDepth returns the struct's distance from the root of its
// inheritance chain: 0 for a struct without a base.
func (n Node) HierarchyDepth() int {
	n.mustStruct("HierarchyDepth")
	return n.depths[n.t.Struct]
}

func (n Node) mustStruct(op string) {
	if !n.IsStruct() {
		panic(fmt.Sprintf("untagged/schema: %s called on %s node", op, n.t.Kind))
	}
}

func (n Node) String() string {
	if !n.Valid() {
		return "<invalid schema node>"
	}
	if n.IsStruct() {
		if n.IsBonded() {
			return "bonded<" + n.Name() + ">"
		}
		return n.Name()
	}
	return n.t.Kind.String()
}
