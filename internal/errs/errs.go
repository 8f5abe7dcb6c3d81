// Package errs defines the two failure kinds every core operation can
// return.
//
// ValidationError — malformed input, a missing entity, or a business-rule
// violation. Always detectable from the arguments plus current state.
//
// AuthorizationError — the actor lacks the tier or membership the mutation
// requires, or the session credential itself is invalid.
//
// The transport layer maps these onto status codes; the core never thinks
// in HTTP terms. Anything that is neither kind is an internal error and is
// wrapped with fmt.Errorf("...: %w", err) as usual.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError rejects the request as malformed or rule-breaking.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// AuthorizationError rejects the actor, not the request.
type AuthorizationError struct {
	msg string
}

func (e *AuthorizationError) Error() string { return e.msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Authorizationf builds an AuthorizationError.
func Authorizationf(format string, args ...any) error {
	return &AuthorizationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAuthorization reports whether err is (or wraps) an AuthorizationError.
func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}
