package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("requested item not found")
	ErrConflict            = errors.New("item already exists or conflict")
	ErrUnauthenticated     = errors.New("authentication required or invalid credentials")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrMalformedCredential = errors.New("stored credential is malformed")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidID           = errors.New("invalid identifier")
)

// Token verification failures. All of them surface to clients as a plain 401.
var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token has expired")
)

// ConflictError reports which unique field collided.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Message is the client-facing text for the collision.
func (e *ConflictError) Message() string {
	switch e.Field {
	case "email":
		return "Email already registered"
	case "username":
		return "Username already taken"
	default:
		return "Resource already exists"
	}
}

// FieldError is one failed validation rule on one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field errors for a single request body.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Fields[0].Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
