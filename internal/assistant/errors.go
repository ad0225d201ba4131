package assistant

import "fmt"

// ErrorKind classifies assistant invocation failures.
type ErrorKind string

// Invocation failure kinds.
const (
	KindNotInstalled ErrorKind = "not_installed"
	KindVersion      ErrorKind = "version"
	KindExit         ErrorKind = "exit"
	KindTimeout      ErrorKind = "timeout"
)

// Error is an assistant invocation failure with its classification.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("assistant invocation failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the error kind if err is an assistant Error, or empty.
func KindOf(err error) ErrorKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ""
}
