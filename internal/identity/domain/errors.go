package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendUnavailable wraps network failures and 5xx responses from the auth provider.
	ErrBackendUnavailable = errors.New("identity: auth backend unavailable")
	// ErrUnauthenticated is returned when the provider rejects an access or refresh token.
	ErrUnauthenticated = errors.New("identity: token rejected")
)

// CredentialReason classifies a user-correctable auth failure.
type CredentialReason string

const (
	ReasonInvalidCredentials CredentialReason = "invalid_credentials"
	ReasonEmailNotConfirmed  CredentialReason = "email_not_confirmed"
	ReasonRateLimited        CredentialReason = "rate_limited"
	ReasonWeakPassword       CredentialReason = "weak_password"
	ReasonAlreadyRegistered  CredentialReason = "already_registered"
	ReasonInvalidInput       CredentialReason = "invalid_input"
)

// CredentialError is a failure the user can fix by changing what they typed.
// It is shown inline and never logged above Info.
type CredentialError struct {
	Reason CredentialReason
	Detail string
}

func (e *CredentialError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("identity: %s", e.Reason)
	}
	return fmt.Sprintf("identity: %s: %s", e.Reason, e.Detail)
}

// Message returns the text rendered to the user.
func (e *CredentialError) Message() string {
	switch e.Reason {
	case ReasonInvalidCredentials:
		return "Invalid email or password."
	case ReasonEmailNotConfirmed:
		return "Please confirm your email address before signing in."
	case ReasonRateLimited:
		return "Too many attempts. Please wait a moment and try again."
	case ReasonWeakPassword:
		return "Password is too weak. Use at least 6 characters."
	case ReasonAlreadyRegistered:
		return "An account with this email already exists."
	}
	if e.Detail != "" {
		return e.Detail
	}
	return "Please check the form and try again."
}

// AsCredentialError unwraps err to a *CredentialError.
func AsCredentialError(err error) (*CredentialError, bool) {
	var ce *CredentialError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
