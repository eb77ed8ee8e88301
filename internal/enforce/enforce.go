// Package enforce wraps an untagged.Reader with runtime limits for untrusted
// streams: maximum container element count, maximum container nesting depth,
// and maximum consumed bytes. Limits guard against hostile data, not hostile
// schemas; schema depth is bounded by the schema itself.
package enforce

import (
	"fmt"

	untagged "github.com/wirefmt/untagged"
)

// Options controls runtime enforcement behavior. Zero values disable the
// corresponding limit.
type Options struct {
	MaxCount uint32 // per-container element count cap
	MaxDepth int    // container nesting cap
	MaxBytes int64  // total consumed bytes cap
	// IssueSink is an optional callback receiving each limit violation before
	// it is returned as an error.
	IssueSink func(untagged.Issue)
}

// Wrap returns a Reader enforcing opt over inner. When all limits are
// disabled, inner is returned unchanged.
func Wrap(inner untagged.Reader, opt Options) untagged.Reader {
	if opt.MaxCount == 0 && opt.MaxDepth == 0 && opt.MaxBytes == 0 {
		return inner
	}
	return &guarded{inner: inner, opt: opt, start: inner.Location()}
}

type guarded struct {
	inner untagged.Reader
	opt   Options
	depth int
	start int64
}

func (g *guarded) violation(code, msg string) error {
	iss := untagged.Issue{Code: code, Message: msg, Offset: g.inner.Location()}
	if g.opt.IssueSink != nil {
		g.opt.IssueSink(iss)
	}
	return untagged.Issues{iss}
}

func (g *guarded) checkBytes() error {
	if g.opt.MaxBytes > 0 && g.inner.Location()-g.start > g.opt.MaxBytes {
		return g.violation(untagged.CodeLimitExceeded, "max bytes exceeded")
	}
	return nil
}

func (g *guarded) ReadFieldOmitted() (bool, error) {
	v, err := g.inner.ReadFieldOmitted()
	if err != nil {
		return v, err
	}
	return v, g.checkBytes()
}

func (g *guarded) BeginContainer() (uint32, error) {
	n, err := g.inner.BeginContainer()
	if err != nil {
		return 0, err
	}
	if g.opt.MaxCount > 0 && n > g.opt.MaxCount {
		return 0, g.violation(untagged.CodeLimitExceeded,
			fmt.Sprintf("container count %d exceeds limit %d", n, g.opt.MaxCount))
	}
	g.depth++
	if g.opt.MaxDepth > 0 && g.depth > g.opt.MaxDepth {
		return 0, g.violation(untagged.CodeLimitExceeded, "max depth exceeded")
	}
	return n, g.checkBytes()
}

func (g *guarded) EndContainer() error {
	if g.depth > 0 {
		g.depth--
	}
	return g.inner.EndContainer()
}

func (g *guarded) ReadScalar(k untagged.WireKind) (untagged.Scalar, error) {
	v, err := g.inner.ReadScalar(k)
	if err != nil {
		return v, err
	}
	return v, g.checkBytes()
}

func (g *guarded) SkipScalar(k untagged.WireKind) error {
	if err := g.inner.SkipScalar(k); err != nil {
		return err
	}
	return g.checkBytes()
}

func (g *guarded) ReadBytes(n uint32) ([]byte, error) {
	b, err := g.inner.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return b, g.checkBytes()
}

func (g *guarded) SkipBytes(n uint32) error {
	if err := g.inner.SkipBytes(n); err != nil {
		return err
	}
	return g.checkBytes()
}

func (g *guarded) ReadMarshaledBonded() ([]byte, error) {
	b, err := g.inner.ReadMarshaledBonded()
	if err != nil {
		return nil, err
	}
	return b, g.checkBytes()
}

func (g *guarded) Location() int64 { return g.inner.Location() }

// Fork preserves the capability when the inner reader supports it; the fork
// carries the same limits with depth and byte accounting reset to the fork
// point.
func (g *guarded) Fork() untagged.Reader {
	f, ok := g.inner.(untagged.Forker)
	if !ok {
		return nil
	}
	forked := f.Fork()
	return &guarded{inner: forked, opt: g.opt, depth: g.depth, start: forked.Location()}
}
