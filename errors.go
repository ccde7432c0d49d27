package chalkdoc

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedEquation = errors.New("malformed equation")
	ErrInvalidRange      = errors.New("invalid range")
	ErrTooManyCandidates = errors.New("too many candidates")
	ErrInvalidTemplate   = errors.New("invalid template")
)

// GenerationError wraps fatal generation failures. Kind is one of the Err*
// sentinels; Cause, when set, is the underlying error such as an
// *algebra.SyntaxError.
type GenerationError struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *GenerationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GenerationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// IsInputError reports whether err was caused by the template rather than by
// the environment.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMalformedEquation) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidTemplate) ||
		errors.Is(err, ErrTooManyCandidates)
}

func malformed(cause error, format string, args ...any) error {
	return &GenerationError{Kind: ErrMalformedEquation, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func rangef(format string, args ...any) error {
	return &GenerationError{Kind: ErrInvalidRange, Msg: fmt.Sprintf(format, args...)}
}

func templatef(format string, args ...any) error {
	return &GenerationError{Kind: ErrInvalidTemplate, Msg: fmt.Sprintf(format, args...)}
}

func tooMany(count, limit int64) error {
	return &GenerationError{
		Kind: ErrTooManyCandidates,
		Msg:  fmt.Sprintf("%d candidates exceed the limit of %d", count, limit),
	}
}
