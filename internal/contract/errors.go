package contract

import (
	"errors"
	"fmt"
)

// ErrorKind tells the caller whether an error is a defect or something the user must fix.
type ErrorKind string

const (
	// StateKind is an integrity violation or a misuse of the pipeline. The run is aborted.
	StateKind ErrorKind = "state"

	// ArgumentKind is an invalid value handed to an API.
	ArgumentKind ErrorKind = "argument"

	// MessageKind is a configuration problem reported to the user as is.
	MessageKind ErrorKind = "message"
)

// Error is the error type surfaced by the analysis core.
type Error struct {
	Kind       ErrorKind
	Message    string
	Underlying error
}

// NewStateError creates an error for an unexpected state.
func NewStateError(format string, args ...any) *Error {
	return &Error{Kind: StateKind, Message: fmt.Sprintf(format, args...)}
}

// NewArgumentError creates an error for an invalid argument.
func NewArgumentError(format string, args ...any) *Error {
	return &Error{Kind: ArgumentKind, Message: fmt.Sprintf(format, args...)}
}

// NewMessageError creates an error whose message is meant for the end user.
func NewMessageError(format string, args ...any) *Error {
	return &Error{Kind: MessageKind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause to the error.
func (e *Error) Wrap(err error) *Error {
	e.Underlying = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// KindOf returns the kind of the first *Error in the chain, or StateKind for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return StateKind
}

// IsStateError checks if the error chain holds a state error.
func IsStateError(err error) bool {
	return isKind(err, StateKind)
}

// IsArgumentError checks if the error chain holds an argument error.
func IsArgumentError(err error) bool {
	return isKind(err, ArgumentKind)
}

// IsMessageError checks if the error chain holds a user-facing error.
func IsMessageError(err error) bool {
	return isKind(err, MessageKind)
}

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
