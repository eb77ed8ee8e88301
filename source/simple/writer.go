package simple

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	untagged "github.com/wirefmt/untagged"
)

// Writer emits the simple untagged layout. It mirrors Reader operation for
// operation; the schema dictates call order, exactly as on the read side.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the encoded stream.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) uvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

// FieldPresent writes the presence flag for a field that carries a value.
func (w *Writer) FieldPresent() { w.buf.WriteByte(0) }

// FieldOmitted writes the presence flag for an omitted field.
func (w *Writer) FieldOmitted() { w.buf.WriteByte(1) }

// BeginContainer writes the element count header.
func (w *Writer) BeginContainer(n uint32) { w.uvarint(uint64(n)) }

// EndContainer is a no-op; the layout has no container trailer.
func (w *Writer) EndContainer() {}

// WriteBool writes a bool scalar.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// WriteInt writes a signed scalar of kind k.
func (w *Writer) WriteInt(k untagged.WireKind, v int64) { w.fixed(k, uint64(v)) }

// WriteUint writes an unsigned scalar of kind k.
func (w *Writer) WriteUint(k untagged.WireKind, v uint64) { w.fixed(k, v) }

// WriteFloat writes a float32 or float64 scalar.
func (w *Writer) WriteFloat(k untagged.WireKind, v float64) {
	if k == untagged.KindFloat32 {
		w.fixed(k, uint64(math.Float32bits(float32(v))))
		return
	}
	w.fixed(k, math.Float64bits(v))
}

// WriteString writes a length-prefixed string scalar.
func (w *Writer) WriteString(s string) {
	w.uvarint(uint64(len(s)))
	w.buf.WriteString(s)
}

// WriteBytes writes raw bytes with no prefix; pair with BeginContainer for
// blob values.
func (w *Writer) WriteBytes(b []byte) { w.buf.Write(b) }

// WriteBlob writes a complete blob value: count header plus raw bytes.
func (w *Writer) WriteBlob(b []byte) {
	w.BeginContainer(uint32(len(b)))
	w.buf.Write(b)
}

// WriteMarshaledBonded writes a length-prefixed bonded payload.
func (w *Writer) WriteMarshaledBonded(b []byte) {
	w.uvarint(uint64(len(b)))
	w.buf.Write(b)
}

// WriteScalar dispatches on v.Kind; it panics on non-scalar kinds, mirroring
// the read-side contract.
func (w *Writer) WriteScalar(v untagged.Scalar) {
	switch v.Kind {
	case untagged.KindBool:
		w.WriteBool(v.Bool)
	case untagged.KindInt8, untagged.KindInt16, untagged.KindInt32, untagged.KindInt64:
		w.WriteInt(v.Kind, v.Int)
	case untagged.KindUint8, untagged.KindUint16, untagged.KindUint32, untagged.KindUint64:
		w.WriteUint(v.Kind, v.Uint)
	case untagged.KindFloat32, untagged.KindFloat64:
		w.WriteFloat(v.Kind, v.Float)
	case untagged.KindString:
		w.WriteString(v.String)
	default:
		panic(fmt.Sprintf("simple: WriteScalar called with %s", v.Kind))
	}
}

func (w *Writer) fixed(k untagged.WireKind, u uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], u)
	width := scalarWidth(k)
	if width < 0 {
		panic(fmt.Sprintf("simple: fixed-width write of %s", k))
	}
	w.buf.Write(tmp[:width])
}
