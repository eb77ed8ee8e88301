// Package dsl provides fluent construction of untagged.Transform values:
// which fields to decode, hooks around struct boundaries, and handling for
// fields the policy does not claim. Registration order never matters;
// dispatch always follows the schema's declared field order.
package dsl

import (
	untagged "github.com/wirefmt/untagged"
)

// PresentFunc builds the fragment for a claimed field carrying a value.
type PresentFunc func(field *untagged.Builder) (untagged.Fragment, error)

// BaseFunc builds the fragment for a struct's base chain.
type BaseFunc func(base *untagged.Builder) (untagged.Fragment, error)

// UnknownFunc handles fields no registration claims; handled=false declines,
// routing the field to structural skip.
type UnknownFunc func(field *untagged.Builder, k untagged.WireKind, id uint16) (untagged.Fragment, bool, error)

// StructBuilder accumulates a struct transform. The zero value is unusable;
// start from Struct().
type StructBuilder struct {
	begin, end untagged.Fragment
	order      []uint16
	fields     map[uint16]untagged.FieldHandler
	base       BaseFunc
	unknown    UnknownFunc
}

// Struct creates a new transform builder with safe defaults: no hooks, no
// claimed fields, base and unclaimed fields structurally skipped.
func Struct() *StructBuilder {
	return &StructBuilder{fields: map[uint16]untagged.FieldHandler{}}
}

// Field claims a field id with its present-handler.
func (b *StructBuilder) Field(id uint16, present PresentFunc) *StructBuilder {
	h := b.handler(id)
	h.Present = present
	b.fields[id] = h
	return b
}

// FieldOmitted registers a fragment run when the field is omitted on the
// wire. It may be combined with Field or stand alone.
func (b *StructBuilder) FieldOmitted(id uint16, omitted untagged.Fragment) *StructBuilder {
	h := b.handler(id)
	h.Omitted = omitted
	b.fields[id] = h
	return b
}

// Begin registers a fragment run before any field of the struct.
func (b *StructBuilder) Begin(f untagged.Fragment) *StructBuilder {
	b.begin = f
	return b
}

// End registers a fragment run after the last field.
func (b *StructBuilder) End(f untagged.Fragment) *StructBuilder {
	b.end = f
	return b
}

// OnBase overrides base-chain handling; without it the base fields are
// structurally skipped.
func (b *StructBuilder) OnBase(f BaseFunc) *StructBuilder {
	b.base = f
	return b
}

// OnUnknown installs the unknown-field hook.
func (b *StructBuilder) OnUnknown(f UnknownFunc) *StructBuilder {
	b.unknown = f
	return b
}

func (b *StructBuilder) handler(id uint16) untagged.FieldHandler {
	if h, ok := b.fields[id]; ok {
		return h
	}
	b.order = append(b.order, id)
	return untagged.FieldHandler{ID: id}
}

// Transform snapshots the builder into an immutable Transform. The builder
// may keep accumulating afterwards without affecting earlier snapshots.
func (b *StructBuilder) Transform() untagged.Transform {
	t := &structTransform{begin: b.begin, end: b.end, base: b.base, unknown: b.unknown}
	t.fields = make([]untagged.FieldHandler, 0, len(b.order))
	for _, id := range b.order {
		t.fields = append(t.fields, b.fields[id])
	}
	return t
}

// SkipAll returns the canonical empty policy: no hooks, no claimed fields,
// every field structurally skipped. Compile with it to structurally validate
// a payload without decoding anything.
func SkipAll() untagged.Transform { return &structTransform{} }

type structTransform struct {
	begin, end untagged.Fragment
	fields     []untagged.FieldHandler
	base       BaseFunc
	unknown    UnknownFunc
}

var (
	_ untagged.Transform             = (*structTransform)(nil)
	_ untagged.UnknownFieldTransform = (*structTransform)(nil)
)

func (t *structTransform) Begin() untagged.Fragment { return t.begin }
func (t *structTransform) End() untagged.Fragment   { return t.end }

func (t *structTransform) Base(base *untagged.Builder) (untagged.Fragment, error) {
	if t.base == nil {
		return nil, nil
	}
	return t.base(base)
}

func (t *structTransform) Fields() []untagged.FieldHandler { return t.fields }

func (t *structTransform) UnknownField(field *untagged.Builder, k untagged.WireKind, id uint16) (untagged.Fragment, bool, error) {
	if t.unknown == nil {
		return nil, false, nil
	}
	return t.unknown(field, k, id)
}
