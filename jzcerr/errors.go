// Package jzcerr defines the failure taxonomy for jsonz-corpus.
//
// Every error returned by the corpus builder, the emitter, the verifier, or
// the CLI maps to exactly one FailureClass, which determines the exit code.
// There is no recoverable class: the tool is a test harness and any failure
// aborts the run.
package jzcerr

import (
	"errors"
	"fmt"
)

// FailureClass is a stable failure category.
type FailureClass string

const (
	ConfigInvalid     FailureClass = "CONFIG_INVALID"
	SerializeFailed   FailureClass = "SERIALIZE_FAILED"
	RandomSource      FailureClass = "RANDOM_SOURCE"
	DecodeFailed      FailureClass = "DECODE_FAILED"
	RoundTripMismatch FailureClass = "ROUND_TRIP_MISMATCH"
	CLIUsage          FailureClass = "CLI_USAGE"
	InternalIO        FailureClass = "INTERNAL_IO"
	InternalError     FailureClass = "INTERNAL_ERROR"
)

// ExitCode returns the process exit code for this failure class.
//
// Problems with the input handed to the tool exit 2; problems producing the
// corpus itself exit 10.
func (fc FailureClass) ExitCode() int {
	switch fc {
	case CLIUsage, DecodeFailed, RoundTripMismatch:
		return 2
	default:
		return 10
	}
}

// Error is the structured error type for all jsonz-corpus failures.
type Error struct {
	Class   FailureClass
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("jzcerr: %s: %s: %v", e.Class, e.Message, e.Cause)
	}
	return fmt.Sprintf("jzcerr: %s: %s", e.Class, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given class and message.
func New(class FailureClass, message string) *Error {
	return &Error{Class: class, Message: message}
}

// Newf is like New with a format string.
func Newf(class FailureClass, format string, args ...any) *Error {
	return &Error{Class: class, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(class FailureClass, message string, cause error) *Error {
	return &Error{Class: class, Message: message, Cause: cause}
}

// ClassOf returns the class of the first *Error in err's chain, or
// InternalError when err carries no classification.
func ClassOf(err error) FailureClass {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return InternalError
}
