// Package qerrors defines the error taxonomy of the query language.
//
// Query errors (*Error) are per-request client errors: the caller sent a
// filter or sort string that cannot be honored. They are deterministic and
// never worth retrying. Registration errors (*RegistrationError) describe a
// broken entity schema and are fatal at startup.
package qerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code categorizes query errors.
type Code string

const (
	// CodeGrammar indicates a clause that does not match the grammar.
	CodeGrammar Code = "GRAMMAR"

	// CodeUnknownField indicates a field that is not registered.
	CodeUnknownField Code = "UNKNOWN_FIELD"

	// CodeOperatorNotAllowed indicates an operator or direction outside the
	// field's allowed set.
	CodeOperatorNotAllowed Code = "OPERATOR_NOT_ALLOWED"

	// CodeArity indicates the wrong number of arguments for the operator.
	CodeArity Code = "ARITY"

	// CodeValueFormat indicates an argument that does not parse as the
	// field's kind.
	CodeValueFormat Code = "VALUE_FORMAT"

	// CodeNullability indicates a null literal on a field that disallows null.
	CodeNullability Code = "NULLABILITY"
)

// Codes lists every query error code.
var Codes = []Code{
	CodeGrammar,
	CodeUnknownField,
	CodeOperatorNotAllowed,
	CodeArity,
	CodeValueFormat,
	CodeNullability,
}

// IsKnownCode reports whether c is one of Codes.
func IsKnownCode(c Code) bool {
	for _, k := range Codes {
		if k == c {
			return true
		}
	}
	return false
}

// Error is a rejected filter or sort request.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Field is the field name as written by the client, if known.
	Field string

	// Clause is the raw clause text that failed.
	Clause string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: field %q: %s", e.Code, e.Field, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// WithClause returns a copy of e carrying the clause text.
func (e *Error) WithClause(clause string) *Error {
	c := *e
	c.Clause = clause
	return &c
}

// NewGrammarError creates an Error for a malformed clause.
func NewGrammarError(clause, message string) *Error {
	return &Error{Code: CodeGrammar, Clause: clause, Message: message}
}

// NewUnknownFieldError creates an Error for an unregistered field.
func NewUnknownFieldError(field string) *Error {
	return &Error{Code: CodeUnknownField, Field: field, Message: "field is not registered"}
}

// NewOperatorNotAllowedError creates an Error for an illegal operator or
// direction. what is the rendered operator ("Like|CaseInsensitive").
func NewOperatorNotAllowedError(field, what string) *Error {
	return &Error{Code: CodeOperatorNotAllowed, Field: field, Message: fmt.Sprintf("%s is not allowed", what)}
}

// NewArityError creates an Error for a wrong argument count.
func NewArityError(field, expected string, got int) *Error {
	return &Error{
		Code:    CodeArity,
		Field:   field,
		Message: fmt.Sprintf("expected %s argument(s), got %d", expected, got),
	}
}

// NewValueFormatError creates an Error for an unparsable argument.
func NewValueFormatError(field string, cause error) *Error {
	return &Error{Code: CodeValueFormat, Field: field, Message: "invalid value", Err: cause}
}

// NewNullabilityError creates an Error for a null literal on a non-nullable
// field.
func NewNullabilityError(field string) *Error {
	return &Error{Code: CodeNullability, Field: field, Message: "null is not allowed"}
}

// CodeOf returns the Code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsQueryError reports whether err is a client query error.
func IsQueryError(err error) bool {
	var qe *Error
	return errors.As(err, &qe)
}

// IsGrammar reports whether err is a grammar error.
func IsGrammar(err error) bool { return CodeOf(err) == CodeGrammar }

// IsUnknownField reports whether err is an unknown field error.
func IsUnknownField(err error) bool { return CodeOf(err) == CodeUnknownField }

// IsOperatorNotAllowed reports whether err is an illegal operator error.
func IsOperatorNotAllowed(err error) bool { return CodeOf(err) == CodeOperatorNotAllowed }

// IsArity reports whether err is an argument count error.
func IsArity(err error) bool { return CodeOf(err) == CodeArity }

// IsValueFormat reports whether err is a value format error.
func IsValueFormat(err error) bool { return CodeOf(err) == CodeValueFormat }

// IsNullability reports whether err is a nullability error.
func IsNullability(err error) bool { return CodeOf(err) == CodeNullability }

// HTTPStatus maps err to a response status: 400 for query errors, 500 for
// anything else.
func HTTPStatus(err error) int {
	if IsQueryError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
