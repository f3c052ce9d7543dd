// Package errs defines the error taxonomy shared by the chunking, indexing
// and retrieval components.
//
// Components create an *Error once, at the boundary where a failure is
// classified, and callers above propagate it unchanged. Use errors.Is with
// the Err* sentinels to test the kind:
//
//	if errors.Is(err, errs.ErrExtraction) { ... }
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindOther Kind = iota
	KindConfiguration
	KindUnsupportedFormat
	KindExtraction
	KindIndex
	KindStorage
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindExtraction:
		return "extraction error"
	case KindIndex:
		return "index error"
	case KindStorage:
		return "storage error"
	case KindState:
		return "invalid state"
	default:
		return "error"
	}
}

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrConfiguration     = &Error{Kind: KindConfiguration}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrExtraction        = &Error{Kind: KindExtraction}
	ErrIndex             = &Error{Kind: KindIndex}
	ErrStorage           = &Error{Kind: KindStorage}
	ErrState             = &Error{Kind: KindState}
)

// E builds a classified error.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Op == "" && t.Kind == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}
