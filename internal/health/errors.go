package health

import "errors"

// ErrorKind classifies contract failures independently of the backend that raised them.
type ErrorKind string

const (
	KindNotSupported    ErrorKind = "NotSupported"
	KindUnauthorized    ErrorKind = "Unauthorized"
	KindInvalidArgument ErrorKind = "InvalidArgument"
	KindPlatformFailure ErrorKind = "PlatformFailure"
)

// Error is the failure type returned by every Plugin operation.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

// Sentinels for errors.Is checks; they match any *Error of the same kind.
var (
	ErrNotSupported    = &Error{Kind: KindNotSupported}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrPlatformFailure = &Error{Kind: KindPlatformFailure}
)

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can compare against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" when err is not a contract error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// NotSupported builds a NotSupported error for op.
func NotSupported(op, message string) error {
	return &Error{Kind: KindNotSupported, Op: op, Message: message}
}

// Unauthorized builds an Unauthorized error for op.
func Unauthorized(op, message string) error {
	return &Error{Kind: KindUnauthorized, Op: op, Message: message}
}

// InvalidArgument builds an InvalidArgument error for op.
func InvalidArgument(op, message string) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Message: message}
}

// PlatformFailure wraps a backend error, keeping its message as is.
// Contract errors pass through unchanged.
func PlatformFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindPlatformFailure, Op: op, Message: err.Error(), Err: err}
}
