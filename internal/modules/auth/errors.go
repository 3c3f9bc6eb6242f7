package auth

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrPasswordTooShort   = fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	ErrPasswordMismatch   = fmt.Errorf("%w: passwords do not match", ErrValidation)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrSessionInvalid     = errors.New("session expired or revoked")
)
