package models

import (
	"errors"
)

var (
	ErrUserNotFound        = errors.New("models: user not found")
	ErrSessionNotFound     = errors.New("models: no session for today")
	ErrRecipientNotFound   = errors.New("models: recipient not found")
	ErrInviteNotFound      = errors.New("models: invite code not found")
	ErrInviteAlreadyUsed   = errors.New("models: invite code already used")
	ErrTransactionNotFound = errors.New("models: transaction not found")
	ErrWithdrawalNotFound  = errors.New("models: withdrawal request not found")
	ErrDuplicateEmail      = errors.New("models: duplicate email")
	ErrInvalidCredentials  = errors.New("models: invalid credentials")
	ErrInvalidResetCode    = errors.New("models: invalid reset code")
	ErrInsufficientFunds   = errors.New("models: insufficient funds")
	ErrSweepInProgress     = errors.New("models: sweep already running")
)

// ValidationError enumerates a missing or malformed field so clients can
// highlight it. Onboarding flows surface one per offending field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation reports whether err is (or wraps) a field validation error.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
