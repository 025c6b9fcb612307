package models

import (
	"time"
)

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"

	// Derived, never persisted: list views mark the payer's currently
	// selected recipient active and the remaining accepted ones available.
	InviteStatusActive    = "active"
	InviteStatusAvailable = "available"
)

// Recipient is a payee profile, optionally linked to a platform user account
// and to a payment-processor payee account for external transfers.
type Recipient struct {
	ID             int       `json:"id"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	PayeeAccountID string    `json:"payee_account_id,omitempty"`
	UserID         *int      `json:"user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecipientInvite binds a payer to a phone number via a one-time code.
type RecipientInvite struct {
	ID          int        `json:"id"`
	PayerID     int        `json:"payer_id"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email,omitempty"`
	Code        string     `json:"code"`
	Status      string     `json:"status"`
	RecipientID *int       `json:"recipient_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type CreateInviteRequest struct {
	PayerID int    `json:"payer_id"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	SendSMS bool   `json:"send_sms"`
}

type VerifyInviteResponse struct {
	Code       string `json:"code"`
	PayerName  string `json:"payer_name"`
	PayerEmail string `json:"payer_email"`
	Status     string `json:"status"`
}

type AcceptInviteRequest struct {
	Code     string `json:"code"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OnboardingRequest is the accept variant that also provisions a processor
// payee account and attaches a tokenized payment instrument.
type OnboardingRequest struct {
	Code         string `json:"code"`
	FullName     string `json:"full_name"`
	DateOfBirth  string `json:"date_of_birth"` // "YYYY-MM-DD"
	AddressLine  string `json:"address_line"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	SSNLast4     string `json:"ssn_last4"`
	PaymentToken string `json:"payment_token"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

type SelectRecipientRequest struct {
	PayerID     int `json:"payer_id"`
	RecipientID int `json:"recipient_id"`
}

// InviteView is one row of the payer's recipient list: accepted recipients
// plus the most recent pending invite, with a derived status.
type InviteView struct {
	RecipientID *int   `json:"recipient_id,omitempty"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
	Code        string `json:"code,omitempty"`
}

// PayoutRule is the default transfer rule created when an invite is accepted.
type PayoutRule struct {
	ID          int       `json:"id"`
	PayerID     int       `json:"payer_id"`
	RecipientID int       `json:"recipient_id"`
	AmountCents int64     `json:"amount_cents"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}
