package models

import (
	"time"
)

const (
	ObjectiveTypeCount = "count" // reps: pushups, squats, km
	ObjectiveTypeLimit = "limit" // accumulate and stay under: screen minutes, calories

	RecurrenceDaily    = "daily"
	RecurrenceWeekdays = "weekdays"

	DestinationCharity = "charity"
	DestinationCustom  = "custom"

	DefaultTimezone = "America/New_York"
)

type User struct {
	ID                  int        `json:"id"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone,omitempty"`
	FullName            string     `json:"full_name"`
	Password            string     `json:"password,omitempty"`
	BalanceCents        int64      `json:"balance_cents"`
	ObjectiveType       string     `json:"objective_type"`
	TargetCount         int        `json:"target_count"`
	Deadline            string     `json:"deadline"` // "HH:MM" local time-of-day
	Recurrence          string     `json:"recurrence"`
	PayoutDestination   string     `json:"payout_destination"`
	SelectedRecipientID *int       `json:"selected_recipient_id,omitempty"`
	PledgeAmountCents   int64      `json:"pledge_amount_cents"`
	ObjectiveCommitted  bool       `json:"objective_committed"`
	PayoutCommitted     bool       `json:"payout_committed"`
	Timezone            string     `json:"timezone"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
}

// ProfileUpsertRequest is the combined create-or-update payload. Pointer
// fields distinguish "omitted" from zero values so partial updates merge
// instead of overwrite.
type ProfileUpsertRequest struct {
	Email               string  `json:"email"`
	Phone               *string `json:"phone"`
	FullName            *string `json:"full_name"`
	Password            *string `json:"password"`
	ObjectiveType       *string `json:"objective_type"`
	TargetCount         *int    `json:"target_count"`
	Deadline            *string `json:"deadline"`
	Recurrence          *string `json:"recurrence"`
	PayoutDestination   *string `json:"payout_destination"`
	SelectedRecipientID *int    `json:"selected_recipient_id"`
	PledgeAmountCents   *int64  `json:"pledge_amount_cents"`
	ObjectiveCommitted  *bool   `json:"objective_committed"`
	PayoutCommitted     *bool   `json:"payout_committed"`
	Timezone            *string `json:"timezone"`
	CreateOnly          bool    `json:"create_only"`
}

// BalanceResponse carries the authoritative balance plus the legacy duplicate
// field older clients still read. The duplicate exists only here, at the
// serialization boundary.
type BalanceResponse struct {
	UserID             int   `json:"user_id"`
	BalanceCents       int64 `json:"balance_cents"`
	LegacyBalanceCents int64 `json:"balance"`
}

func NewBalanceResponse(userID int, balanceCents int64) BalanceResponse {
	return BalanceResponse{UserID: userID, BalanceCents: balanceCents, LegacyBalanceCents: balanceCents}
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthSession struct {
	UserID       int       `json:"user_id"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	User   User   `json:"user"`
	Tokens Tokens `json:"tokens"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type VerifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type NewPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}
