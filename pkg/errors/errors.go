// Package errors provides structured error types for the flowmodel editor core.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP viewer
//   - Machine-readable error codes for programmatic handling
//   - Structured context (offending element id, command name)
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes mirror the failure taxonomy of the editing core:
//
//   - DUPLICATE_ID, INVALID_PARENT, NOT_FOUND, DEPENDENTS_EXIST: element registry
//   - UNRESOLVED_DEPENDENCY, CIRCULAR_DEPENDENCY: module composition
//   - RULE_VIOLATION: a modeling verb rejected by the rules engine
//   - NOT_REVERTIBLE, TRANSACTION_ABORTED, COMMAND_CANCELLED, ILLEGAL_INVOCATION: command stack
//   - IMPORT_FAILED: diagram import boundary
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDuplicateID, "element %q already registered", id).WithElement(id)
//	if errors.Is(err, errors.ErrCodeDuplicateID) {
//	    // Handle duplicate
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTransactionAborted, cause, "command %s failed", name)
//
// Unlike [errors.As], [Is] inspects every *Error in the chain, so a
// RULE_VIOLATION raised inside an aborted transaction is still reported.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Element registry errors
	ErrCodeDuplicateID     Code = "DUPLICATE_ID"
	ErrCodeInvalidParent   Code = "INVALID_PARENT"
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeDependentsExist Code = "DEPENDENTS_EXIST"

	// Module composition errors
	ErrCodeUnresolvedDependency Code = "UNRESOLVED_DEPENDENCY"
	ErrCodeCircularDependency   Code = "CIRCULAR_DEPENDENCY"

	// Modeling and command stack errors
	ErrCodeRuleViolation      Code = "RULE_VIOLATION"
	ErrCodeNotRevertible      Code = "NOT_REVERTIBLE"
	ErrCodeTransactionAborted Code = "TRANSACTION_ABORTED"
	ErrCodeCommandCancelled   Code = "COMMAND_CANCELLED"
	ErrCodeIllegalInvocation  Code = "ILLEGAL_INVOCATION"
	ErrCodeInvalidHandler     Code = "INVALID_HANDLER"

	// Event bus errors
	ErrCodeInvalidPayload Code = "INVALID_PAYLOAD"

	// Import/export errors
	ErrCodeImportFailed Code = "IMPORT_FAILED"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code, optional context and optional cause.
type Error struct {
	Code      Code     // Machine-readable error code
	Message   string   // Human-readable message
	ElementID string   // Offending element id (optional)
	Command   string   // Command name being executed (optional)
	Chain     []string // Service resolution chain or cycle (optional)
	Cause     error    // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Chain) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Chain, " -> "))
		b.WriteString("]")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithElement sets the offending element id and returns e.
func (e *Error) WithElement(id string) *Error {
	e.ElementID = id
	return e
}

// WithCommand sets the command name and returns e.
func (e *Error) WithCommand(name string) *Error {
	e.Command = name
	return e
}

// WithChain sets the dependency chain and returns e.
func (e *Error) WithChain(chain ...string) *Error {
	e.Chain = append([]string(nil), chain...)
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
// Element and command context of a wrapped *Error is inherited.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
	var inner *Error
	if errors.As(cause, &inner) {
		e.ElementID = inner.ElementID
		e.Command = inner.Command
	}
	return e
}

// Is reports whether any *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	found := false
	walk(err, func(e *Error) bool {
		if e.Code == code {
			found = true
			return false
		}
		return true
	})
	return found
}

// Find returns the first *Error in err's chain carrying code.
func Find(err error, code Code) (*Error, bool) {
	var match *Error
	walk(err, func(e *Error) bool {
		if e.Code == code {
			match = e
			return false
		}
		return true
	})
	return match, match != nil
}

// walk visits every *Error reachable from err, following both single and
// joined unwrapping, until visit returns false.
func walk(err error, visit func(*Error) bool) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if !visit(e) {
				return false
			}
		}
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				if !walk(inner, visit) {
					return false
				}
			}
			return true
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return true
		}
	}
	return true
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
