package untagged

import (
	"github.com/wirefmt/untagged/schema"
)

// WireKind identifies the wire shape of a value. It aliases schema.Kind so
// Transforms and Readers can branch on kinds without importing the schema
// package. NOTE: handler code may branch on values such as untagged.KindInt32.
type WireKind = schema.Kind

const (
	KindNone    WireKind = schema.KindNone
	KindBool    WireKind = schema.KindBool
	KindInt8    WireKind = schema.KindInt8
	KindInt16   WireKind = schema.KindInt16
	KindInt32   WireKind = schema.KindInt32
	KindInt64   WireKind = schema.KindInt64
	KindUint8   WireKind = schema.KindUint8
	KindUint16  WireKind = schema.KindUint16
	KindUint32  WireKind = schema.KindUint32
	KindUint64  WireKind = schema.KindUint64
	KindFloat32 WireKind = schema.KindFloat32
	KindFloat64 WireKind = schema.KindFloat64
	KindString  WireKind = schema.KindString
	KindBlob    WireKind = schema.KindBlob
	KindList    WireKind = schema.KindList
	KindSet     WireKind = schema.KindSet
	KindMap     WireKind = schema.KindMap
	KindStruct  WireKind = schema.KindStruct
)

// Scalar carries one decoded scalar value. Kind selects the populated field:
// Bool for KindBool, Int for the signed integer kinds, Uint for the unsigned
// ones, Float for KindFloat32/KindFloat64 and String for KindString.
type Scalar struct {
	Kind   WireKind
	Bool   bool
	Int    int64
	Uint   uint64
	Float  float64
	String string
}

// Any returns the scalar as its natural Go value.
func (s Scalar) Any() any {
	switch s.Kind {
	case KindBool:
		return s.Bool
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return s.Int
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return s.Uint
	case KindFloat32, KindFloat64:
		return s.Float
	case KindString:
		return s.String
	default:
		return nil
	}
}
