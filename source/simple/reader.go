// Package simple implements the reference byte-level driver for the untagged
// wire format: one-byte presence flags, little-endian fixed-width scalars,
// varint container counts and string/blob lengths, and length-prefixed
// marshaled-bonded payloads. The Reader satisfies untagged.Reader and the
// optional Forker capability; Writer emits the same layout so tests, examples
// and the CLI can build streams.
package simple

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	untagged "github.com/wirefmt/untagged"
)

// Reader decodes the simple untagged layout from an in-memory buffer.
type Reader struct {
	buf []byte
	off int
}

var (
	_ untagged.Reader = (*Reader)(nil)
	_ untagged.Forker = (*Reader)(nil)
)

// NewBytes wraps a byte slice. The reader does not copy or mutate it.
func NewBytes(b []byte) *Reader { return &Reader{buf: b} }

// NewReader drains r into memory and wraps the result. The format's forkable
// cursors want random access, so streaming input is buffered up front.
func NewReader(r io.Reader) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, untagged.Issues{{Code: untagged.CodeParseError, Message: err.Error(), Cause: err, Offset: -1}}
	}
	return NewBytes(data), nil
}

// Fork returns an independent cursor at the current position.
func (r *Reader) Fork() untagged.Reader { return &Reader{buf: r.buf, off: r.off} }

// Location returns the current byte offset.
func (r *Reader) Location() int64 { return int64(r.off) }

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) truncated(want int) error {
	return untagged.Issues{{
		Code:    untagged.CodeTruncated,
		Message: fmt.Sprintf("need %d bytes, have %d", want, len(r.buf)-r.off),
		Offset:  int64(r.off),
	}}
}

func (r *Reader) take(n int) ([]byte, error) {
	if len(r.buf)-r.off < n {
		return nil, r.truncated(n)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// length validates a varint-decoded byte length against the unread buffer
// before it is narrowed to int. Narrowing first would let a length beyond
// 2^63 turn negative and slip past take's bounds check.
func (r *Reader) length(n uint64) (int, error) {
	if n > uint64(len(r.buf)-r.off) {
		return 0, untagged.Issues{{
			Code:    untagged.CodeTruncated,
			Message: fmt.Sprintf("need %d bytes, have %d", n, len(r.buf)-r.off),
			Offset:  int64(r.off),
		}}
	}
	return int(n), nil
}

func (r *Reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		return 0, untagged.Issues{{
			Code:    untagged.CodeTruncated,
			Message: "bad varint",
			Offset:  int64(r.off),
		}}
	}
	r.off += n
	return v, nil
}

// ReadFieldOmitted consumes the one-byte presence flag.
func (r *Reader) ReadFieldOmitted() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, untagged.Issues{{
			Code:    untagged.CodeParseError,
			Message: fmt.Sprintf("invalid presence flag 0x%02x", b[0]),
			Offset:  int64(r.off - 1),
		}}
	}
}

// BeginContainer consumes the varint element count.
func (r *Reader) BeginContainer() (uint32, error) {
	v, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, untagged.Issues{{
			Code:    untagged.CodeParseError,
			Message: fmt.Sprintf("container count %d overflows uint32", v),
			Offset:  int64(r.off),
		}}
	}
	return uint32(v), nil
}

// EndContainer is a no-op; the layout has no container trailer.
func (r *Reader) EndContainer() error { return nil }

func scalarWidth(k untagged.WireKind) int {
	switch k {
	case untagged.KindBool, untagged.KindInt8, untagged.KindUint8:
		return 1
	case untagged.KindInt16, untagged.KindUint16:
		return 2
	case untagged.KindInt32, untagged.KindUint32, untagged.KindFloat32:
		return 4
	case untagged.KindInt64, untagged.KindUint64, untagged.KindFloat64:
		return 8
	default:
		return -1 // string, or not a scalar
	}
}

// ReadScalar decodes one scalar of kind k.
func (r *Reader) ReadScalar(k untagged.WireKind) (untagged.Scalar, error) {
	s := untagged.Scalar{Kind: k}
	if k == untagged.KindString {
		n, err := r.uvarint()
		if err != nil {
			return s, err
		}
		m, err := r.length(n)
		if err != nil {
			return s, err
		}
		b, err := r.take(m)
		if err != nil {
			return s, err
		}
		s.String = string(b)
		return s, nil
	}
	w := scalarWidth(k)
	if w < 0 {
		return s, untagged.Issues{{
			Code:    untagged.CodeInvalidWireKind,
			Message: fmt.Sprintf("%s is not a scalar kind", k),
			Offset:  int64(r.off),
		}}
	}
	b, err := r.take(w)
	if err != nil {
		return s, err
	}
	var u uint64
	switch w {
	case 1:
		u = uint64(b[0])
	case 2:
		u = uint64(binary.LittleEndian.Uint16(b))
	case 4:
		u = uint64(binary.LittleEndian.Uint32(b))
	case 8:
		u = binary.LittleEndian.Uint64(b)
	}
	switch k {
	case untagged.KindBool:
		s.Bool = u != 0
	case untagged.KindInt8:
		s.Int = int64(int8(u))
	case untagged.KindInt16:
		s.Int = int64(int16(u))
	case untagged.KindInt32:
		s.Int = int64(int32(u))
	case untagged.KindInt64:
		s.Int = int64(u)
	case untagged.KindUint8, untagged.KindUint16, untagged.KindUint32, untagged.KindUint64:
		s.Uint = u
	case untagged.KindFloat32:
		s.Float = float64(math.Float32frombits(uint32(u)))
	case untagged.KindFloat64:
		s.Float = math.Float64frombits(u)
	}
	return s, nil
}

// SkipScalar discards one scalar of kind k.
func (r *Reader) SkipScalar(k untagged.WireKind) error {
	if k == untagged.KindString {
		n, err := r.uvarint()
		if err != nil {
			return err
		}
		m, err := r.length(n)
		if err != nil {
			return err
		}
		_, err = r.take(m)
		return err
	}
	w := scalarWidth(k)
	if w < 0 {
		return untagged.Issues{{
			Code:    untagged.CodeInvalidWireKind,
			Message: fmt.Sprintf("%s is not a scalar kind", k),
			Offset:  int64(r.off),
		}}
	}
	_, err := r.take(w)
	return err
}

// ReadBytes returns the next n raw bytes.
func (r *Reader) ReadBytes(n uint32) ([]byte, error) {
	return r.take(int(n))
}

// SkipBytes discards the next n raw bytes.
func (r *Reader) SkipBytes(n uint32) error {
	_, err := r.take(int(n))
	return err
}

// ReadMarshaledBonded consumes a length-prefixed bonded payload.
func (r *Reader) ReadMarshaledBonded() ([]byte, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	m, err := r.length(n)
	if err != nil {
		return nil, err
	}
	return r.take(m)
}
