package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"stakefitBack/internal/models"
)

// PayoutRepository owns the multi-table monetary mutation of the sweep. The
// debit, the ledger insert, the destination credit and the session mark all
// commit or roll back together.
type PayoutRepository struct {
	DB *sql.DB
}

// PayoutOutcome reports what one committed payout actually did.
type PayoutOutcome struct {
	TransactionID int
	DebitedCents  int64
}

// ExecutePayout moves the stake for a claimed session. The caller must have
// won the payout_triggered claim first. recipientUserID is nil for charity
// payouts.
func (r *PayoutRepository) ExecutePayout(ctx context.Context, c models.SessionCandidate, recipientUserID *int, recipientID *int) (PayoutOutcome, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return PayoutOutcome{}, err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM users WHERE id = ? FOR UPDATE`, c.PayerID,
	).Scan(&balance)
	if err != nil {
		return PayoutOutcome{}, fmt.Errorf("lock payer balance: %w", err)
	}

	// Debit is floored at zero: a payer with less than the pledge forfeits
	// what is left, never goes negative.
	debit := c.Session.PayoutAmountCents
	if balance < debit {
		debit = balance
	}
	if debit <= 0 {
		return PayoutOutcome{}, models.ErrInsufficientFunds
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE users SET balance_cents = balance_cents - ?, updated_at = ? WHERE id = ?`,
		debit, now, c.PayerID,
	)
	if err != nil {
		return PayoutOutcome{}, fmt.Errorf("debit payer: %w", err)
	}

	// The ledger's recipient_id is a users.id so the credited user's own
	// history can find the row; the recipients-table id travels in metadata.
	metadata, _ := json.Marshal(map[string]any{
		"session_id":   c.Session.ID,
		"session_date": c.Session.SessionDate,
		"destination":  c.Destination,
		"recipient_id": recipientID,
	})
	result, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (payer_id, recipient_id, amount_cents, type, status, metadata, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.PayerID, recipientUserID, -debit, models.TransactionTypePayout,
		models.TransactionStatusCompleted, string(metadata), now,
	)
	if err != nil {
		return PayoutOutcome{}, fmt.Errorf("insert transaction: %w", err)
	}
	txnID, err := result.LastInsertId()
	if err != nil {
		return PayoutOutcome{}, err
	}

	if recipientUserID != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET balance_cents = balance_cents + ?, updated_at = ? WHERE id = ?`,
			debit, now, *recipientUserID,
		)
		if err != nil {
			return PayoutOutcome{}, fmt.Errorf("credit recipient: %w", err)
		}
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO charity_payouts (user_id, session_id, amount_cents, created_at) VALUES (?, ?, ?, ?)`,
			c.PayerID, c.Session.ID, debit, now,
		)
		if err != nil {
			return PayoutOutcome{}, fmt.Errorf("insert charity payout: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE objective_sessions SET status = ?, transaction_id = ?, updated_at = ? WHERE id = ?`,
		models.SessionStatusMissed, txnID, now, c.Session.ID,
	)
	if err != nil {
		return PayoutOutcome{}, fmt.Errorf("mark session missed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return PayoutOutcome{}, err
	}
	return PayoutOutcome{TransactionID: int(txnID), DebitedCents: debit}, nil
}
