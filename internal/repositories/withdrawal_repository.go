package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stakefitBack/internal/models"
)

type WithdrawalRepository struct {
	DB *sql.DB
}

const withdrawalColumns = `id, user_id, amount_cents, status, attempts, last_error, created_at, updated_at`

func scanWithdrawal(scanner interface{ Scan(dest ...any) error }) (models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	var lastError sql.NullString
	var updated sql.NullTime
	err := scanner.Scan(&w.ID, &w.UserID, &w.AmountCents, &w.Status, &w.Attempts, &lastError, &w.CreatedAt, &updated)
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	w.LastError = lastError.String
	if updated.Valid {
		t := updated.Time
		w.UpdatedAt = &t
	}
	return w, nil
}

// CreateWithDebit debits the user and queues the withdrawal in one
// transaction. The conditional debit checks the balance in SQL, so two
// concurrent withdrawals cannot both spend the same cents.
func (r *WithdrawalRepository) CreateWithDebit(ctx context.Context, userID int, amountCents int64) (models.WithdrawalRequest, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`UPDATE users SET balance_cents = balance_cents - ?, updated_at = ? WHERE id = ? AND balance_cents >= ?`,
		amountCents, now, userID, amountCents,
	)
	if err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("debit user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	if rowsAffected == 0 {
		return models.WithdrawalRequest{}, models.ErrInsufficientFunds
	}

	result, err = tx.ExecContext(ctx,
		`INSERT INTO withdrawal_requests (user_id, amount_cents, status, attempts, created_at)
         VALUES (?, ?, ?, 0, ?)`,
		userID, amountCents, models.WithdrawalStatusPending, now,
	)
	if err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("queue withdrawal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.WithdrawalRequest{}, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (payer_id, amount_cents, type, status, metadata, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		userID, -amountCents, models.TransactionTypeWithdrawal, models.TransactionStatusPending,
		withdrawalMetadata(int(id)), now,
	)
	if err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("ledger withdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.WithdrawalRequest{}, err
	}

	return models.WithdrawalRequest{
		ID:          int(id),
		UserID:      userID,
		AmountCents: amountCents,
		Status:      models.WithdrawalStatusPending,
		CreatedAt:   now,
	}, nil
}

func (r *WithdrawalRepository) ListPending(ctx context.Context) ([]models.WithdrawalRequest, error) {
	return r.list(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE status = ? ORDER BY created_at`, models.WithdrawalStatusPending)
}

func (r *WithdrawalRepository) ListPendingByUser(ctx context.Context, userID int) ([]models.WithdrawalRequest, error) {
	return r.list(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE status = ? AND user_id = ? ORDER BY created_at`,
		models.WithdrawalStatusPending, userID,
	)
}

func (r *WithdrawalRepository) list(ctx context.Context, query string, args ...any) ([]models.WithdrawalRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, w)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// withdrawalMetadata is the exact metadata written on the ledger row of a
// withdrawal, so status updates can find the row again by equality.
func withdrawalMetadata(id int) string {
	return fmt.Sprintf(`{"withdrawal_request_id":%d}`, id)
}

// MarkCompleted settles the request and its ledger row together.
func (r *WithdrawalRepository) MarkCompleted(ctx context.Context, id int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE withdrawal_requests SET status = ?, updated_at = ? WHERE id = ?`,
		models.WithdrawalStatusCompleted, now, id,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE transactions SET status = ? WHERE type = ? AND metadata = ?`,
		models.TransactionStatusCompleted, models.TransactionTypeWithdrawal, withdrawalMetadata(id),
	)
	if err != nil {
		return fmt.Errorf("settle ledger: %w", err)
	}

	return tx.Commit()
}

func (r *WithdrawalRepository) RecordAttempt(ctx context.Context, id int, attemptErr string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE withdrawal_requests SET attempts = attempts + 1, last_error = ?, updated_at = ? WHERE id = ?`,
		attemptErr, time.Now(), id,
	)
	return err
}

// FailWithRefund terminates a request after too many attempts and credits the
// amount back to the user atomically.
func (r *WithdrawalRepository) FailWithRefund(ctx context.Context, w models.WithdrawalRequest) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE withdrawal_requests SET status = ?, updated_at = ? WHERE id = ?`,
		models.WithdrawalStatusFailed, now, w.ID,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE transactions SET status = ? WHERE type = ? AND metadata = ?`,
		models.TransactionStatusFailed, models.TransactionTypeWithdrawal, withdrawalMetadata(w.ID),
	)
	if err != nil {
		return fmt.Errorf("fail ledger: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET balance_cents = balance_cents + ?, updated_at = ? WHERE id = ?`,
		w.AmountCents, now, w.UserID,
	)
	if err != nil {
		return fmt.Errorf("refund user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (payer_id, amount_cents, type, status, metadata, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		w.UserID, w.AmountCents, models.TransactionTypeDeposit, models.TransactionStatusCompleted,
		fmt.Sprintf(`{"refund_of_withdrawal":%d}`, w.ID), now,
	)
	if err != nil {
		return fmt.Errorf("ledger refund: %w", err)
	}

	return tx.Commit()
}
