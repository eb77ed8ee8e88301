package untagged

// Fragment is one executable step of a Plan: it consumes exactly the wire
// bytes it was compiled for. Fragments are closed over build-time state only
// and are safe to run concurrently against independent readers.
type Fragment func(r Reader) error

// FieldHandler binds a field id to its handlers. Present builds the fragment
// run when the field carries a value; it receives a child Builder scoped to
// the field's schema node. Omitted, when non-nil, runs when the wire marks
// the field omitted. A nil Present leaves the field unclaimed: it falls
// through to the Transform's unknown-field hook or to structural skip.
type FieldHandler struct {
	ID      uint16
	Present func(field *Builder) (Fragment, error)
	Omitted Fragment
}

// Transform is the caller-supplied policy merged with the schema's field list
// during Compile. The schema drives: every schema field is dispatched in
// declared order, matched against Fields by id; handlers registered for ids
// the schema does not declare are ignored.
type Transform interface {
	// Begin returns a fragment run before any field of the struct, or nil.
	Begin() Fragment
	// End returns a fragment run after the last field, or nil.
	End() Fragment
	// Base builds the fragment for the struct's base chain. A nil fragment
	// (with nil error) asks the builder to structurally skip the base fields.
	Base(base *Builder) (Fragment, error)
	// Fields lists the handlers this policy claims, looked up by field id.
	Fields() []FieldHandler
}

// UnknownFieldTransform is an optional Transform capability consulted for
// schema fields no FieldHandler claims. Returning handled=false declines the
// field, routing it to structural skip; an absent hook routes there too.
type UnknownFieldTransform interface {
	UnknownField(field *Builder, k WireKind, id uint16) (Fragment, bool, error)
}
