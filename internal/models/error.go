package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
)

// FederatedAccountError rejects a local login against an account that only
// has federated sign-in. Unlike the merged unknown-email/wrong-password
// failure, this one names the provider so the user knows which button to
// press instead.
type FederatedAccountError struct {
	Provider string
}

func (e *FederatedAccountError) Error() string {
	return fmt.Sprintf("account uses %s sign-in", e.Provider)
}

func (e *FederatedAccountError) Unwrap() error {
	return ErrUnauthorized
}
