package repositories

import (
	"context"
	"database/sql"
	"time"

	"stakefitBack/internal/models"
)

type TransactionRepository struct {
	DB *sql.DB
}

const transactionColumns = `id, payer_id, recipient_id, amount_cents, type, status, metadata, created_at`

func scanTransaction(scanner interface{ Scan(dest ...any) error }) (models.Transaction, error) {
	var txn models.Transaction
	var recipientID sql.NullInt64
	var metadata sql.NullString
	err := scanner.Scan(&txn.ID, &txn.PayerID, &recipientID, &txn.AmountCents, &txn.Type, &txn.Status, &metadata, &txn.CreatedAt)
	if err != nil {
		return models.Transaction{}, err
	}
	if recipientID.Valid {
		id := int(recipientID.Int64)
		txn.RecipientID = &id
	}
	if metadata.Valid {
		txn.Metadata = []byte(metadata.String)
	}
	return txn, nil
}

func (r *TransactionRepository) Create(ctx context.Context, txn models.Transaction) (models.Transaction, error) {
	query := `
        INSERT INTO transactions (payer_id, recipient_id, amount_cents, type, status, metadata, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	txn.CreatedAt = time.Now()
	var metadata any
	if len(txn.Metadata) > 0 {
		metadata = string(txn.Metadata)
	}
	result, err := r.DB.ExecContext(ctx, query,
		txn.PayerID, txn.RecipientID, txn.AmountCents, txn.Type, txn.Status, metadata, txn.CreatedAt,
	)
	if err != nil {
		return models.Transaction{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.Transaction{}, err
	}
	txn.ID = int(id)
	return txn, nil
}

// ListByUser returns ledger rows where the user is payer or recipient, newest
// first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int) ([]models.Transaction, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
         WHERE payer_id = ? OR recipient_id = ?
         ORDER BY created_at DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}
