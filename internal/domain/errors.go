package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("account already exists")

	// ErrInvalidCredential covers both unknown email and wrong password.
	// The reason is attached for logs only, see InvalidCredentialError.
	ErrInvalidCredential = errors.New("invalid credentials")

	ErrUnauthorized            = errors.New("unauthorized")
	ErrInvalidVerificationLink = errors.New("invalid or expired verification link")
	ErrValidation              = errors.New("validation error")
	ErrUnavailable             = errors.New("dependency unavailable")
	ErrCacheMiss               = errors.New("cache miss")

	ErrContactNotFound  = errors.New("contact not found")
	ErrDuplicateContact = errors.New("contact with this email or phone already exists")
	ErrInvalidCursor    = errors.New("invalid cursor")
)

// Unavailable marks err from a collaborator as retryable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

type CredentialFailure string

const (
	CredentialUserNotFound  CredentialFailure = "user_not_found"
	CredentialWrongPassword CredentialFailure = "wrong_password"
)

// InvalidCredentialError carries the internal reason a login failed.
// errors.Is(err, ErrInvalidCredential) holds for every reason.
type InvalidCredentialError struct {
	Reason CredentialFailure
}

func (e *InvalidCredentialError) Error() string {
	return ErrInvalidCredential.Error() + ": " + string(e.Reason)
}

func (e *InvalidCredentialError) Unwrap() error {
	return ErrInvalidCredential
}

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
