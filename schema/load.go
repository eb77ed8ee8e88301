package schema

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Interchange for schema definitions. YAML is the authoring format, JSON the
// tooling format, and canonical CBOR the compact binary form used when a
// schema travels next to the payload it describes.

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("schema: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ParseYAML decodes a schema definition from YAML.
func ParseYAML(data []byte) (*Def, error) {
	var d Def
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", ErrInvalid, err)
	}
	return &d, nil
}

// ReadYAML decodes a schema definition from a YAML stream.
func ReadYAML(r io.Reader) (*Def, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", ErrInvalid, err)
	}
	return ParseYAML(data)
}

// ParseJSON decodes a schema definition from JSON.
func ParseJSON(data []byte) (*Def, error) {
	var d Def
	if err := gojson.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrInvalid, err)
	}
	return &d, nil
}

// EncodeJSON renders the definition as JSON.
func (d *Def) EncodeJSON() ([]byte, error) {
	return gojson.Marshal(d)
}

// defWire strips Def's BinaryMarshaler methods so the CBOR codec encodes the
// struct itself instead of recursing into MarshalBinary.
type defWire Def

// MarshalBinary renders the definition as canonical CBOR. The encoding is
// deterministic: equal definitions produce identical bytes.
func (d *Def) MarshalBinary() ([]byte, error) {
	return cborEncMode.Marshal((*defWire)(d))
}

// UnmarshalBinary decodes a definition previously produced by MarshalBinary.
func (d *Def) UnmarshalBinary(data []byte) error {
	if err := cbor.Unmarshal(data, (*defWire)(d)); err != nil {
		return fmt.Errorf("%w: cbor: %v", ErrInvalid, err)
	}
	return nil
}

// UnmarshalYAML accepts kind names in YAML definitions. yaml.v3 does not
// consult encoding.TextUnmarshaler on decode, so this is spelled out.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return k.UnmarshalText([]byte(s))
}
