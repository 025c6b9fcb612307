package models

import (
	"time"
)

const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusCompleted = "completed"
	WithdrawalStatusFailed    = "failed"

	// After this many transfer attempts a request is marked failed and the
	// debited amount is credited back.
	WithdrawalMaxAttempts = 3
)

// WithdrawalRequest queues an outbound transfer that could not complete
// immediately, usually for platform liquidity reasons.
type WithdrawalRequest struct {
	ID          int        `json:"id"`
	UserID      int        `json:"user_id"`
	AmountCents int64      `json:"amount_cents"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type WithdrawRequest struct {
	UserID      int   `json:"user_id"`
	AmountCents int64 `json:"amount_cents"`
}

type WithdrawResponse struct {
	Request        WithdrawalRequest `json:"request"`
	AvailableCents int64             `json:"available_cents"`
}

type ProcessQueueResult struct {
	Processed int `json:"processed"`
	Completed int `json:"completed"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
}
