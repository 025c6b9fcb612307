package repositories

import (
	"context"
	"database/sql"
	"time"

	"stakefitBack/internal/models"
)

// ErrUserNotFound aliases the shared sentinel so handlers can match it with
// errors.Is regardless of which layer surfaced it.
var ErrUserNotFound = models.ErrUserNotFound

type UserRepository struct {
	DB *sql.DB
}

const userColumns = `id, email, phone, full_name, password_hash, balance_cents,
	objective_type, target_count, deadline, recurrence, payout_destination,
	selected_recipient_id, pledge_amount_cents, objective_committed,
	payout_committed, timezone, created_at, updated_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (models.User, error) {
	var user models.User
	var phone, objType, deadline, recurrence, destination, tz sql.NullString
	var selectedRecipient sql.NullInt64
	var updated sql.NullTime
	err := scanner.Scan(
		&user.ID, &user.Email, &phone, &user.FullName, &user.Password, &user.BalanceCents,
		&objType, &user.TargetCount, &deadline, &recurrence, &destination,
		&selectedRecipient, &user.PledgeAmountCents, &user.ObjectiveCommitted,
		&user.PayoutCommitted, &tz, &user.CreatedAt, &updated,
	)
	if err != nil {
		return models.User{}, err
	}
	user.Phone = phone.String
	user.ObjectiveType = objType.String
	user.Deadline = deadline.String
	user.Recurrence = recurrence.String
	user.PayoutDestination = destination.String
	user.Timezone = tz.String
	if selectedRecipient.Valid {
		id := int(selectedRecipient.Int64)
		user.SelectedRecipientID = &id
	}
	if updated.Valid {
		t := updated.Time
		user.UpdatedAt = &t
	}
	return user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
        INSERT INTO users (email, phone, full_name, password_hash, balance_cents,
            objective_type, target_count, deadline, recurrence, payout_destination,
            selected_recipient_id, pledge_amount_cents, objective_committed,
            payout_committed, timezone, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	user.CreatedAt = time.Now()
	result, err := r.DB.ExecContext(ctx, query,
		user.Email, user.Phone, user.FullName, user.Password, user.BalanceCents,
		user.ObjectiveType, user.TargetCount, user.Deadline, user.Recurrence,
		user.PayoutDestination, user.SelectedRecipientID, user.PledgeAmountCents,
		user.ObjectiveCommitted, user.PayoutCommitted, user.Timezone, user.CreatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	user.ID = int(id)
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
        UPDATE users
        SET phone = ?, full_name = ?, password_hash = ?, objective_type = ?,
            target_count = ?, deadline = ?, recurrence = ?, payout_destination = ?,
            selected_recipient_id = ?, pledge_amount_cents = ?, objective_committed = ?,
            payout_committed = ?, timezone = ?, updated_at = ?
        WHERE id = ?
    `
	updatedAt := time.Now()
	user.UpdatedAt = &updatedAt
	result, err := r.DB.ExecContext(ctx, query,
		user.Phone, user.FullName, user.Password, user.ObjectiveType,
		user.TargetCount, user.Deadline, user.Recurrence, user.PayoutDestination,
		user.SelectedRecipientID, user.PledgeAmountCents, user.ObjectiveCommitted,
		user.PayoutCommitted, user.Timezone, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return models.User{}, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.User{}, err
	}
	if rowsAffected == 0 {
		return models.User{}, ErrUserNotFound
	}
	return r.GetUserByID(ctx, user.ID)
}

// ListPayoutCommitted returns every user with an active payout commitment.
// No date filter: "today" varies per user timezone, so callers decide the
// date per user and rely on the unique session key for idempotence.
func (r *UserRepository) ListPayoutCommitted(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE payout_committed = 1`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetBalance reads the authoritative balance column.
func (r *UserRepository) GetBalance(ctx context.Context, userID int) (int64, error) {
	var balance int64
	err := r.DB.QueryRowContext(ctx, `SELECT balance_cents FROM users WHERE id = ?`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// CreditBalance adds amount in a single UPDATE so concurrent credits cannot
// lose each other's writes.
func (r *UserRepository) CreditBalance(ctx context.Context, userID int, amountCents int64) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE users SET balance_cents = balance_cents + ?, updated_at = ? WHERE id = ?`,
		amountCents, time.Now(), userID,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetSession(ctx context.Context, userID int, session models.AuthSession) error {
	query := `
        INSERT INTO sessions (user_id, refresh_token, expires_at)
        VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE refresh_token = VALUES(refresh_token), expires_at = VALUES(expires_at)
    `
	_, err := r.DB.ExecContext(ctx, query, userID, session.RefreshToken, session.ExpiresAt)
	return err
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (models.AuthSession, error) {
	var session models.AuthSession
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, refresh_token, expires_at FROM sessions WHERE refresh_token = ?`,
		refreshToken,
	).Scan(&session.UserID, &session.RefreshToken, &session.ExpiresAt)
	if err == sql.ErrNoRows {
		return models.AuthSession{}, nil
	}
	if err != nil {
		return models.AuthSession{}, err
	}
	return session, nil
}

func (r *UserRepository) SaveResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	query := `
        INSERT INTO password_resets (email, code, expires_at, used)
        VALUES (?, ?, ?, 0)
        ON DUPLICATE KEY UPDATE code = VALUES(code), expires_at = VALUES(expires_at), used = 0
    `
	_, err := r.DB.ExecContext(ctx, query, email, code, expiresAt)
	return err
}

func (r *UserRepository) CheckResetCode(ctx context.Context, email, code string) error {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM password_resets WHERE email = ? AND code = ? AND used = 0 AND expires_at > ?`,
		email, code, time.Now(),
	).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrInvalidResetCode
	}
	return nil
}

// ConsumeResetCode validates and burns a reset code in one conditional
// UPDATE; consuming the same code twice affects zero rows the second time.
func (r *UserRepository) ConsumeResetCode(ctx context.Context, email, code string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE password_resets SET used = 1 WHERE email = ? AND code = ? AND used = 0 AND expires_at > ?`,
		email, code, time.Now(),
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrInvalidResetCode
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE email = ?`,
		passwordHash, time.Now(), email,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
