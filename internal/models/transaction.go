package models

import (
	"encoding/json"
	"time"
)

const (
	TransactionTypePayout     = "payout"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeDeposit    = "deposit"

	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusAccepted  = "accepted"
)

// Transaction is one append-only ledger row. Amounts are signed cents from
// the payer's perspective: payouts and withdrawals are negative, deposits
// positive. PayerID and RecipientID both reference users, so either side's
// history query can match the row.
type Transaction struct {
	ID          int             `json:"id"`
	PayerID     int             `json:"payer_id"`
	RecipientID *int            `json:"recipient_id,omitempty"`
	AmountCents int64           `json:"amount_cents"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CharityPayout records a forfeited stake routed to the platform's charity
// bucket. No external transfer happens; the funds stay in the platform
// account.
type CharityPayout struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	SessionID   int       `json:"session_id"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
}
