package qerrors

import (
	"errors"
	"fmt"
)

// RegistrationError reports an invalid entity schema. It is raised while a
// registry is built and is fatal at startup.
type RegistrationError struct {
	Entity  string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("registration %s.%s: %s", e.Entity, e.Field, e.Message)
	}
	return fmt.Sprintf("registration %s: %s", e.Entity, e.Message)
}

// NewRegistrationError creates a RegistrationError with a formatted message.
func NewRegistrationError(entity, field, format string, args ...any) *RegistrationError {
	return &RegistrationError{Entity: entity, Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsRegistration reports whether err is a registration error.
func IsRegistration(err error) bool {
	var re *RegistrationError
	return errors.As(err, &re)
}
