package sky

import (
	"errors"
	"fmt"
)

// Kind classifies a render or resolution failure.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindCoordinateResolution Kind = "coordinate_resolution"
	KindSkyMapUnavailable    Kind = "skymap_unavailable"
	KindProjection           Kind = "projection"
	KindInternal             Kind = "internal"
)

// Error is the single failure type the engine returns.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so callers can test with the
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation           = &Error{Kind: KindValidation, Message: "invalid request"}
	ErrCoordinateResolution = &Error{Kind: KindCoordinateResolution, Message: "could not resolve coordinates"}
	ErrSkyMapUnavailable    = &Error{Kind: KindSkyMapUnavailable, Message: "sky map is not loaded"}
	ErrProjection           = &Error{Kind: KindProjection, Message: "invalid projection"}
	ErrInternal             = &Error{Kind: KindInternal, Message: "internal error"}
)

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) *Error {
	return newError(KindValidation, nil, format, args...)
}

// Internal wraps an unexpected failure.
func Internal(err error, format string, args ...any) *Error {
	return newError(KindInternal, err, format, args...)
}

// Unavailable reports that the sky map precondition is not met.
func Unavailable(err error, format string, args ...any) *Error {
	return newError(KindSkyMapUnavailable, err, format, args...)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
