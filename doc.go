// Package untagged builds decode/skip plans for an untagged binary wire
// format: an encoding whose field layout is implied entirely by a
// separately-carried schema, never by per-value type tags.
//
// The package provides:
//
//   - Compile: composes a reusable Plan from a resolved schema node and a
//     caller-supplied Transform (which fields to decode, hooks around struct
//     boundaries); everything the Transform does not claim is structurally
//     skipped, including arbitrarily nested and self-referential shapes.
//   - A stable error model via Issues (path, code, byte offset).
//   - Reader, the primitive byte-level capability a Plan executes against;
//     source/simple supplies the reference driver.
//   - Bonded handles for values whose decode is deferred while their wire
//     bytes are still fully consumed.
//
// Design policy:
//
//   - Keep only public APIs in the root package; put detailed implementations
//     under internal/.
//   - Place the Transform DSL under dsl/, value codecs under codec/, schema
//     resolution and interchange under schema/, concrete stream drivers under
//     source/, and the CLI under cmd/untagged.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	node := def.MustResolve()
//	plan, err := untagged.Compile(node, dsl.SkipAll())
//	err = plan.Execute(simple.NewBytes(payload))
//
// A Plan is immutable after Compile and may be executed concurrently against
// independent readers, provided the Transform's handlers tolerate it.
package untagged
