package task

import (
	"errors"
	"fmt"
)

// Kind classifies everything that can go wrong while a task is handled.
// Every code path that fails a task must map into one of these.
type Kind string

const (
	// Submission-side validation. Rejected before a record exists,
	// never written to the store.
	KindUnsupportedMediaType Kind = "UNSUPPORTED_MEDIA_TYPE"
	KindEmptyPayload         Kind = "EMPTY_PAYLOAD"

	// Extraction failures. Terminal for the task, never retried.
	KindUnreadableDocument     Kind = "UNREADABLE_DOCUMENT"
	KindEmptyOrUnreadable      Kind = "EMPTY_OR_UNREADABLE"
	KindMalformedModelOutput   Kind = "MALFORMED_MODEL_OUTPUT"
	KindSchemaValidationFailed Kind = "SCHEMA_VALIDATION_FAILED"

	// Connectivity to the store or the model.
	KindTransport Kind = "TRANSPORT"

	// Record missing or corrupt when it should be present.
	KindInternal Kind = "INTERNAL"
)

// ErrorDescriptor is the kind+message pair stored on a FAILED record and
// returned to pollers. The message is human-readable; raw exception detail
// stays in the logs.
type ErrorDescriptor struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Error is the in-process form of a task failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errf builds a task error of the given kind.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WrapErr attaches a kind to an existing error.
func WrapErr(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Describe converts any processing error into a descriptor. Errors without
// an explicit kind are treated as internal: the fail boundary must never
// drop a failure on the floor for lack of classification.
func Describe(err error) *ErrorDescriptor {
	var te *Error
	if errors.As(err, &te) {
		msg := string(te.Kind)
		if te.Err != nil {
			msg = te.Err.Error()
		}
		return &ErrorDescriptor{Kind: te.Kind, Message: msg}
	}
	return &ErrorDescriptor{Kind: KindInternal, Message: err.Error()}
}
