package untagged

// Reader is the primitive byte-level capability a Plan executes against. The
// core composes these operations into decode and skip logic; it never
// interprets bytes itself. Every operation may fail with a decode error
// (malformed or truncated stream), which the core propagates unmodified.
type Reader interface {
	// ReadFieldOmitted consumes the presence flag preceding a field value and
	// reports whether the field was omitted on the wire.
	ReadFieldOmitted() (bool, error)
	// BeginContainer consumes a container header and returns the element
	// count (for blobs, the byte length).
	BeginContainer() (uint32, error)
	// EndContainer consumes the container trailer, if the format has one.
	EndContainer() error
	// ReadScalar decodes one scalar of the given kind.
	ReadScalar(k WireKind) (Scalar, error)
	// SkipScalar discards one scalar of the given kind.
	SkipScalar(k WireKind) error
	// ReadBytes returns the next n raw bytes.
	ReadBytes(n uint32) ([]byte, error)
	// SkipBytes discards the next n raw bytes.
	SkipBytes(n uint32) error
	// ReadMarshaledBonded consumes a pre-marshaled bonded payload and returns
	// its bytes. The payload is self-describing and independently parseable;
	// this core treats it as opaque.
	ReadMarshaledBonded() ([]byte, error)
	// Location returns the current byte offset, or -1 when unknown.
	Location() int64
}

// Forker is an optional Reader capability: an independent cursor over the
// same underlying bytes, positioned where the parent currently is. Deferred
// bonded handles capture a fork so the main stream can be skipped past the
// value while the handle still decodes it later.
type Forker interface {
	Fork() Reader
}
