package eau

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes callers branch on
var (
	ErrMalformedFraming      = errors.New("malformed framing")
	ErrMalformedSyntax       = errors.New("malformed syntax")
	ErrPrecisionLoss         = errors.New("precision loss")
	ErrInstrumentNotResolved = errors.New("instrument not resolved")
	ErrUnsupportedFormat     = errors.New("unsupported format")
	ErrTrailingData          = errors.New("unparsed trailing data")
)

// FramingError reports a structural problem at a byte offset within one region
type FramingError struct {
	Where  string // "header", "chdr", "events", "text", "envelope", ...
	Offset int
	Msg    string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("%s at %s+%d: %s", ErrMalformedFraming, e.Where, e.Offset, e.Msg)
}

func (e *FramingError) Unwrap() error {
	return ErrMalformedFraming
}

func framingErr(where string, offset int, format string, args ...any) error {
	return &FramingError{Where: where, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// SyntaxError is a text compiler failure with a 1-based line number
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: line %d: %s", ErrMalformedSyntax, e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrMalformedSyntax
}

// WarnFunc receives non-fatal diagnostics. The error wraps ErrPrecisionLoss,
// ErrInstrumentNotResolved or ErrTrailingData. A nil WarnFunc drops them.
type WarnFunc func(err error)

// Warnf formats a warning wrapping kind and delivers it, if w is set
func (w WarnFunc) Warnf(kind error, format string, args ...any) {
	if w == nil {
		return
	}
	w(fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...)))
}
