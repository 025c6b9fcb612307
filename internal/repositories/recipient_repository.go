package repositories

import (
	"context"
	"database/sql"
	"time"

	"stakefitBack/internal/models"
)

type RecipientRepository struct {
	DB *sql.DB
}

const recipientColumns = `id, full_name, phone, email, payee_account_id, user_id, created_at`

func scanRecipient(scanner interface{ Scan(dest ...any) error }) (models.Recipient, error) {
	var rec models.Recipient
	var email, payeeAccount sql.NullString
	var userID sql.NullInt64
	err := scanner.Scan(&rec.ID, &rec.FullName, &rec.Phone, &email, &payeeAccount, &userID, &rec.CreatedAt)
	if err != nil {
		return models.Recipient{}, err
	}
	rec.Email = email.String
	rec.PayeeAccountID = payeeAccount.String
	if userID.Valid {
		id := int(userID.Int64)
		rec.UserID = &id
	}
	return rec, nil
}

func (r *RecipientRepository) GetByID(ctx context.Context, id int) (models.Recipient, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+recipientColumns+` FROM recipients WHERE id = ?`, id)
	rec, err := scanRecipient(row)
	if err == sql.ErrNoRows {
		return models.Recipient{}, models.ErrRecipientNotFound
	}
	if err != nil {
		return models.Recipient{}, err
	}
	return rec, nil
}

func (r *RecipientRepository) GetByPhone(ctx context.Context, phone string) (models.Recipient, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+recipientColumns+` FROM recipients WHERE phone = ?`, phone)
	rec, err := scanRecipient(row)
	if err == sql.ErrNoRows {
		return models.Recipient{}, models.ErrRecipientNotFound
	}
	if err != nil {
		return models.Recipient{}, err
	}
	return rec, nil
}

func (r *RecipientRepository) GetByEmail(ctx context.Context, email string) (models.Recipient, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+recipientColumns+` FROM recipients WHERE email = ?`, email)
	rec, err := scanRecipient(row)
	if err == sql.ErrNoRows {
		return models.Recipient{}, models.ErrRecipientNotFound
	}
	if err != nil {
		return models.Recipient{}, err
	}
	return rec, nil
}

// Upsert creates or refreshes a recipient keyed by phone and returns the
// stored row.
func (r *RecipientRepository) Upsert(ctx context.Context, rec models.Recipient) (models.Recipient, error) {
	query := `
        INSERT INTO recipients (full_name, phone, email, payee_account_id, user_id, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
            full_name = VALUES(full_name),
            email = VALUES(email),
            payee_account_id = COALESCE(VALUES(payee_account_id), payee_account_id),
            user_id = COALESCE(VALUES(user_id), user_id)
    `
	var payeeAccount any
	if rec.PayeeAccountID != "" {
		payeeAccount = rec.PayeeAccountID
	}
	_, err := r.DB.ExecContext(ctx, query,
		rec.FullName, rec.Phone, rec.Email, payeeAccount, rec.UserID, time.Now(),
	)
	if err != nil {
		return models.Recipient{}, err
	}
	return r.GetByPhone(ctx, rec.Phone)
}

func (r *RecipientRepository) LinkUser(ctx context.Context, recipientID, userID int) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE recipients SET user_id = ? WHERE id = ?`, userID, recipientID,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrRecipientNotFound
	}
	return nil
}
