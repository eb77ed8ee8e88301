package untagged

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeParseError        = "parse_error"
	CodeTruncated         = "truncated"
	CodeInvalidWireKind   = "invalid_wire_kind"
	CodeSchemaInvalid     = "schema_invalid"
	CodeBondedUnsupported = "bonded_unsupported"
	CodeLimitExceeded     = "limit_exceeded"
)

// Issue represents a single compile or decode error entry.
type Issue struct {
	Path    string // Slash-separated field path (for example: /Person/name).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
	Offset  int64 // Byte offset in the input stream (-1 when unknown).
}

// Issues is a collection of errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		if it.Path != "" {
			fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		} else {
			b.WriteString(it.Code)
		}
		if it.Message != "" {
			fmt.Fprintf(b, ": %s", it.Message)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// toIssues wraps arbitrary errors (schema resolution failures, handler
// errors) into Issues; errors that already are Issues pass through.
func toIssues(code string, err error) Issues {
	if err == nil {
		return nil
	}
	if ii, ok := AsIssues(err); ok {
		return ii
	}
	return AppendIssues(nil, Issue{Code: code, Message: err.Error(), Cause: err, Offset: -1})
}

func compileIssue(path, code, msg string) Issues {
	return AppendIssues(nil, Issue{Path: path, Code: code, Message: msg, Offset: -1})
}
