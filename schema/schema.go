package schema

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every error produced while parsing or resolving a
// schema definition. Callers can branch with errors.Is.
var ErrInvalid = errors.New("schema: invalid definition")

// Kind identifies the wire shape of a value in the untagged format.
type Kind uint8

const (
	KindNone    Kind = 0
	KindBool    Kind = 1
	KindInt8    Kind = 2
	KindInt16   Kind = 3
	KindInt32   Kind = 4
	KindInt64   Kind = 5
	KindUint8   Kind = 6
	KindUint16  Kind = 7
	KindUint32  Kind = 8
	KindUint64  Kind = 9
	KindFloat32 Kind = 10
	KindFloat64 Kind = 11
	KindString  Kind = 12
	KindBlob    Kind = 13
	KindList    Kind = 14
	KindSet     Kind = 15
	KindMap     Kind = 16
	KindStruct  Kind = 17
)

// IsScalar reports whether the kind is read with a single scalar operation.
// Strings count as scalars: they are length-prefixed leaf values.
func (k Kind) IsScalar() bool { return k >= KindBool && k <= KindString }

// IsContainer reports whether the kind is a count-driven sequence container.
func (k Kind) IsContainer() bool { return k == KindList || k == KindSet }

var kindNames = map[Kind]string{
	KindNone:    "none",
	KindBool:    "bool",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindString:  "string",
	KindBlob:    "blob",
	KindList:    "list",
	KindSet:     "set",
	KindMap:     "map",
	KindStruct:  "struct",
}

var kindValues = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a kind name ("int32", "list", ...) back to its Kind.
func ParseKind(name string) (Kind, error) {
	k, ok := kindValues[name]
	if !ok {
		return KindNone, fmt.Errorf("%w: unknown kind %q", ErrInvalid, name)
	}
	return k, nil
}

// MarshalText renders the kind by name so JSON and YAML definitions stay
// readable. CBOR interchange bypasses this and stores the numeric value.
func (k Kind) MarshalText() ([]byte, error) {
	n, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalid, uint8(k))
	}
	return []byte(n), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Def is the serializable form of a schema: a flat table of struct
// definitions plus a root type reference. Struct references are expressed as
// indices into Structs, so directly and mutually recursive shapes have a
// finite representation.
type Def struct {
	Structs []StructDef `json:"structs" yaml:"structs" cbor:"1,keyasint"`
	Root    TypeRef     `json:"root" yaml:"root" cbor:"2,keyasint"`
}

// StructDef declares one struct shape: an optional base reference and an
// ordered field list. Field order is load-bearing; presence flags on the wire
// are positional relative to it.
type StructDef struct {
	Name   string     `json:"name" yaml:"name" cbor:"1,keyasint"`
	Base   *TypeRef   `json:"base,omitempty" yaml:"base,omitempty" cbor:"2,keyasint,omitempty"`
	Fields []FieldDef `json:"fields" yaml:"fields" cbor:"3,keyasint"`
}

// FieldDef declares one field of a struct.
type FieldDef struct {
	ID   uint16  `json:"id" yaml:"id" cbor:"1,keyasint"`
	Name string  `json:"name" yaml:"name" cbor:"2,keyasint"`
	Type TypeRef `json:"type" yaml:"type" cbor:"3,keyasint"`
}

// TypeRef describes the type of a value. Element carries the list/set element
// or map value type, Key the map key type, and Struct indexes Def.Structs
// when Kind is KindStruct. Bonded marks a deferred-decode wrapper around a
// struct type.
type TypeRef struct {
	Kind    Kind     `json:"kind" yaml:"kind" cbor:"1,keyasint"`
	Element *TypeRef `json:"element,omitempty" yaml:"element,omitempty" cbor:"2,keyasint,omitempty"`
	Key     *TypeRef `json:"key,omitempty" yaml:"key,omitempty" cbor:"3,keyasint,omitempty"`
	Struct  int      `json:"struct,omitempty" yaml:"struct,omitempty" cbor:"4,keyasint,omitempty"`
	Bonded  bool     `json:"bonded,omitempty" yaml:"bonded,omitempty" cbor:"5,keyasint,omitempty"`
}

// Helper constructors used by tests and programmatic schema building.

// Scalar returns a TypeRef for a scalar kind.
func Scalar(k Kind) TypeRef { return TypeRef{Kind: k} }

// List returns a TypeRef for a list of elem.
func List(elem TypeRef) TypeRef { return TypeRef{Kind: KindList, Element: &elem} }

// Set returns a TypeRef for a set of elem.
func Set(elem TypeRef) TypeRef { return TypeRef{Kind: KindSet, Element: &elem} }

// MapOf returns a TypeRef for a map from key to value.
func MapOf(key, value TypeRef) TypeRef { return TypeRef{Kind: KindMap, Key: &key, Element: &value} }

// Blob returns a TypeRef for an opaque byte blob.
func Blob() TypeRef { return TypeRef{Kind: KindBlob} }

// StructRef returns a TypeRef for the struct at index i.
func StructRef(i int) TypeRef { return TypeRef{Kind: KindStruct, Struct: i} }

// BondedRef returns a TypeRef for a bonded wrapper around the struct at index i.
func BondedRef(i int) TypeRef { return TypeRef{Kind: KindStruct, Struct: i, Bonded: true} }
