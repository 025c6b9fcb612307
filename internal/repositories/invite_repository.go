package repositories

import (
	"context"
	"database/sql"
	"time"

	"stakefitBack/internal/models"
)

type InviteRepository struct {
	DB *sql.DB
}

const inviteColumns = `id, payer_id, phone, email, code, status, recipient_id, created_at, updated_at`

func scanInvite(scanner interface{ Scan(dest ...any) error }) (models.RecipientInvite, error) {
	var inv models.RecipientInvite
	var email sql.NullString
	var recipientID sql.NullInt64
	var updated sql.NullTime
	err := scanner.Scan(&inv.ID, &inv.PayerID, &inv.Phone, &email, &inv.Code, &inv.Status, &recipientID, &inv.CreatedAt, &updated)
	if err != nil {
		return models.RecipientInvite{}, err
	}
	inv.Email = email.String
	if recipientID.Valid {
		id := int(recipientID.Int64)
		inv.RecipientID = &id
	}
	if updated.Valid {
		t := updated.Time
		inv.UpdatedAt = &t
	}
	return inv, nil
}

func (r *InviteRepository) Create(ctx context.Context, inv models.RecipientInvite) (models.RecipientInvite, error) {
	query := `
        INSERT INTO recipient_invites (payer_id, phone, email, code, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	inv.CreatedAt = time.Now()
	inv.Status = models.InviteStatusPending
	result, err := r.DB.ExecContext(ctx, query,
		inv.PayerID, inv.Phone, inv.Email, inv.Code, inv.Status, inv.CreatedAt,
	)
	if err != nil {
		return models.RecipientInvite{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.RecipientInvite{}, err
	}
	inv.ID = int(id)
	return inv, nil
}

func (r *InviteRepository) GetByCode(ctx context.Context, code string) (models.RecipientInvite, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+inviteColumns+` FROM recipient_invites WHERE code = ?`, code)
	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return models.RecipientInvite{}, models.ErrInviteNotFound
	}
	if err != nil {
		return models.RecipientInvite{}, err
	}
	return inv, nil
}

// GetPending finds an outstanding invite for the same payer and phone so a
// resend reuses the original code instead of minting a new one.
func (r *InviteRepository) GetPending(ctx context.Context, payerID int, phone string) (models.RecipientInvite, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM recipient_invites
         WHERE payer_id = ? AND phone = ? AND status = ?
         ORDER BY created_at DESC LIMIT 1`,
		payerID, phone, models.InviteStatusPending,
	)
	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return models.RecipientInvite{}, models.ErrInviteNotFound
	}
	if err != nil {
		return models.RecipientInvite{}, err
	}
	return inv, nil
}

// MarkAccepted links the invite to its recipient and flips the status, but
// only while it is still pending; a second accept of the same code affects
// zero rows.
func (r *InviteRepository) MarkAccepted(ctx context.Context, inviteID, recipientID int) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE recipient_invites SET status = ?, recipient_id = ?, updated_at = ? WHERE id = ? AND status = ?`,
		models.InviteStatusAccepted, recipientID, time.Now(), inviteID, models.InviteStatusPending,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrInviteAlreadyUsed
	}
	return nil
}

func (r *InviteRepository) ListByPayer(ctx context.Context, payerID int) ([]models.RecipientInvite, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM recipient_invites WHERE payer_id = ? ORDER BY created_at DESC`,
		payerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.RecipientInvite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *InviteRepository) CreatePayoutRule(ctx context.Context, rule models.PayoutRule) (models.PayoutRule, error) {
	query := `
        INSERT INTO payout_rules (payer_id, recipient_id, amount_cents, active, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	rule.CreatedAt = time.Now()
	result, err := r.DB.ExecContext(ctx, query,
		rule.PayerID, rule.RecipientID, rule.AmountCents, rule.Active, rule.CreatedAt,
	)
	if err != nil {
		return models.PayoutRule{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.PayoutRule{}, err
	}
	rule.ID = int(id)
	return rule, nil
}
