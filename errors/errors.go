package errors

import "fmt"

var (
	// Auth collaborator failures.
	ErrAuthTransport      = fmt.Errorf("auth transport failure")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Message store failures.
	ErrEmptyMessage   = fmt.Errorf("message content is empty")
	ErrMessageTooLong = fmt.Errorf("message content exceeds maximum length")

	// Runtime failures.
	ErrWorkerPanic = fmt.Errorf("worker panic")
)
