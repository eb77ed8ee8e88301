// Package codec provides built-in value codecs on top of the plan builder.
// Tree decoding materializes a struct instance into generic Go values:
// scalars via Scalar.Any, blobs as copied []byte, lists and sets as []any,
// maps as map[any]any, nested structs as *Struct and bonded wrappers as
// untagged.Bonded handles.
package codec

import (
	"fmt"

	untagged "github.com/wirefmt/untagged"
	"github.com/wirefmt/untagged/dsl"
	"github.com/wirefmt/untagged/schema"
)

// Struct is one decoded struct instance. Field ids are scoped per struct, so
// base-chain values live in their own Struct rather than being flattened.
type Struct struct {
	Name   string
	Base   *Struct
	Fields map[uint16]any
}

// DecodeStruct reads one instance of the struct shape n from r. Plans here
// are single-use: nested struct values compile their own plan per instance,
// which keeps decoding of self-referential schemas proportional to the actual
// data depth.
func DecodeStruct(n schema.Node, r untagged.Reader) (*Struct, error) {
	if !n.Valid() || !n.IsStruct() {
		return nil, untagged.Issues{{
			Code:    untagged.CodeSchemaInvalid,
			Message: "tree decode requires a struct schema node",
			Offset:  -1,
		}}
	}
	if n.IsBonded() {
		return nil, untagged.Issues{{
			Code:    untagged.CodeBondedUnsupported,
			Message: "tree decode of a pre-marshaled bonded payload is not supported",
			Offset:  -1,
		}}
	}
	out := &Struct{Name: n.Name(), Fields: map[uint16]any{}}
	t := dsl.Struct().
		OnBase(func(base *untagged.Builder) (untagged.Fragment, error) {
			baseNode := base.Node()
			return func(r untagged.Reader) error {
				bs, err := DecodeStruct(baseNode, r)
				if err != nil {
					return err
				}
				out.Base = bs
				return nil
			}, nil
		}).
		OnUnknown(func(field *untagged.Builder, k untagged.WireKind, id uint16) (untagged.Fragment, bool, error) {
			f, err := decodeValue(field, func(v any) { out.Fields[id] = v })
			return f, true, err
		}).
		Transform()
	plan, err := untagged.Compile(n, t)
	if err != nil {
		return nil, err
	}
	if err := plan.Execute(r); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeValue builds the fragment decoding one value of the field builder's
// shape, delivering the result through assign. Struct-shaped values recurse
// through DecodeStruct at execution time.
func decodeValue(b *untagged.Builder, assign func(any)) (untagged.Fragment, error) {
	node := b.Node()
	switch k := b.Kind(); {
	case k.IsScalar():
		return b.Scalar(func(v untagged.Scalar) error {
			assign(v.Any())
			return nil
		}), nil
	case k == untagged.KindBlob:
		return b.Blob(func(data []byte) error {
			assign(append([]byte(nil), data...))
			return nil
		}), nil
	case k.IsContainer():
		vals := new([]any)
		frag, err := b.Container(func(elem *untagged.Builder, _ untagged.WireKind) (untagged.ElementFunc, error) {
			ef, err := decodeValue(elem, func(v any) { *vals = append(*vals, v) })
			if err != nil {
				return nil, err
			}
			return func(r untagged.Reader, _ *untagged.Loop) error { return ef(r) }, nil
		})
		if err != nil {
			return nil, err
		}
		// The accumulator is reset on entry; the same fragment runs once per
		// enclosing element when the value sits inside another container.
		return func(r untagged.Reader) error {
			*vals = nil
			if err := frag(r); err != nil {
				return err
			}
			assign(*vals)
			return nil
		}, nil
	case k == untagged.KindMap:
		m := new(map[any]any)
		frag, err := b.Map(func(key, value *untagged.Builder, _, _ untagged.WireKind) (untagged.ElementFunc, error) {
			var cur any
			kf := key.Scalar(func(v untagged.Scalar) error {
				cur = v.Any()
				return nil
			})
			vf, err := decodeValue(value, func(v any) { (*m)[cur] = v })
			if err != nil {
				return nil, err
			}
			return func(r untagged.Reader, _ *untagged.Loop) error {
				if err := kf(r); err != nil {
					return err
				}
				return vf(r)
			}, nil
		})
		if err != nil {
			return nil, err
		}
		return func(r untagged.Reader) error {
			*m = map[any]any{}
			if err := frag(r); err != nil {
				return err
			}
			assign(*m)
			return nil
		}, nil
	case k == untagged.KindStruct && node.IsBonded():
		return b.Bonded(func(bv untagged.Bonded) error {
			assign(bv)
			return nil
		})
	case k == untagged.KindStruct:
		return func(r untagged.Reader) error {
			sv, err := DecodeStruct(node, r)
			if err != nil {
				return err
			}
			assign(sv)
			return nil
		}, nil
	default:
		return nil, untagged.Issues{{
			Code:    untagged.CodeInvalidWireKind,
			Message: fmt.Sprintf("cannot decode kind %s", k),
			Offset:  -1,
		}}
	}
}

