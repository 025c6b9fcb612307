package repositories

import (
	"context"
	"database/sql"
	"time"

	"stakefitBack/internal/models"
)

type SessionRepository struct {
	DB *sql.DB
}

const sessionColumns = `id, user_id, DATE_FORMAT(session_date, '%Y-%m-%d'), objective_type,
	target_count, completed_count, deadline, status, payout_amount_cents,
	payout_triggered, transaction_id, created_at, updated_at`

func scanSession(scanner interface{ Scan(dest ...any) error }) (models.ObjectiveSession, error) {
	var s models.ObjectiveSession
	var txnID sql.NullInt64
	var updated sql.NullTime
	err := scanner.Scan(
		&s.ID, &s.UserID, &s.SessionDate, &s.ObjectiveType,
		&s.TargetCount, &s.CompletedCount, &s.Deadline, &s.Status,
		&s.PayoutAmountCents, &s.PayoutTriggered, &txnID, &s.CreatedAt, &updated,
	)
	if err != nil {
		return models.ObjectiveSession{}, err
	}
	if txnID.Valid {
		id := int(txnID.Int64)
		s.TransactionID = &id
	}
	if updated.Valid {
		t := updated.Time
		s.UpdatedAt = &t
	}
	return s, nil
}

func (r *SessionRepository) GetByUserAndDate(ctx context.Context, userID int, date string) (models.ObjectiveSession, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM objective_sessions WHERE user_id = ? AND session_date = ?`,
		userID, date,
	)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return models.ObjectiveSession{}, models.ErrSessionNotFound
	}
	if err != nil {
		return models.ObjectiveSession{}, err
	}
	return session, nil
}

// CreateIfAbsent inserts the session unless one already exists for
// (user_id, session_date). The unique key makes concurrent calls collapse to
// a single row; the returned flag reports whether this call inserted it.
func (r *SessionRepository) CreateIfAbsent(ctx context.Context, s models.ObjectiveSession) (bool, error) {
	query := `
        INSERT IGNORE INTO objective_sessions
            (user_id, session_date, objective_type, target_count, completed_count,
             deadline, status, payout_amount_cents, payout_triggered, created_at)
        VALUES (?, ?, ?, ?, 0, ?, ?, ?, 0, ?)
    `
	result, err := r.DB.ExecContext(ctx, query,
		s.UserID, s.SessionDate, s.ObjectiveType, s.TargetCount,
		s.Deadline, models.SessionStatusPending, s.PayoutAmountCents, time.Now(),
	)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// AddProgress applies the delta and recomputes the status in one UPDATE, so
// concurrent progress logs cannot lose counts. Count objectives complete on
// reaching the target; limit objectives stay in progress until the sweep
// judges them. Terminal missed/accepted sessions are left untouched.
func (r *SessionRepository) AddProgress(ctx context.Context, userID int, date string, delta int) error {
	query := `
        UPDATE objective_sessions
        SET completed_count = completed_count + ?,
            status = CASE
                WHEN objective_type = ? THEN ?
                WHEN completed_count + ? >= target_count THEN ?
                ELSE ?
            END,
            updated_at = ?
        WHERE user_id = ? AND session_date = ? AND status IN (?, ?, ?)
    `
	result, err := r.DB.ExecContext(ctx, query,
		delta,
		models.ObjectiveTypeLimit, models.SessionStatusInProgress,
		delta, models.SessionStatusCompleted,
		models.SessionStatusInProgress,
		time.Now(),
		userID, date,
		models.SessionStatusPending, models.SessionStatusInProgress, models.SessionStatusCompleted,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// ApplySettings rewrites today's target/deadline/payout after a settings
// change. Progress already logged is preserved; completion is re-evaluated
// against the new target.
func (r *SessionRepository) ApplySettings(ctx context.Context, userID int, date string, objectiveType string, targetCount int, deadline string, payoutAmountCents int64) error {
	query := `
        UPDATE objective_sessions
        SET objective_type = ?, target_count = ?, deadline = ?, payout_amount_cents = ?,
            status = CASE
                WHEN ? = ? THEN ?
                WHEN completed_count >= ? THEN ?
                WHEN completed_count > 0 THEN ?
                ELSE ?
            END,
            updated_at = ?
        WHERE user_id = ? AND session_date = ? AND payout_triggered = 0
    `
	_, err := r.DB.ExecContext(ctx, query,
		objectiveType, targetCount, deadline, payoutAmountCents,
		objectiveType, models.ObjectiveTypeLimit, models.SessionStatusInProgress,
		targetCount, models.SessionStatusCompleted,
		models.SessionStatusInProgress,
		models.SessionStatusPending,
		time.Now(),
		userID, date,
	)
	return err
}

// ListSweepCandidates returns unswept sessions joined with the owner fields
// the sweep needs. in_progress is included alongside pending and missed:
// a session with partial progress past its deadline is still a miss.
func (r *SessionRepository) ListSweepCandidates(ctx context.Context) ([]models.SessionCandidate, error) {
	query := `
        SELECT ` + sessionColumns2("s") + `,
            u.id, u.balance_cents, u.timezone, u.payout_destination, u.selected_recipient_id
        FROM objective_sessions s
        JOIN users u ON u.id = s.user_id
        WHERE s.status IN (?, ?, ?) AND s.payout_triggered = 0
    `
	rows, err := r.DB.QueryContext(ctx, query,
		models.SessionStatusPending, models.SessionStatusInProgress, models.SessionStatusMissed,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []models.SessionCandidate
	for rows.Next() {
		var c models.SessionCandidate
		var txnID, recipientID sql.NullInt64
		var updated sql.NullTime
		var tz, destination sql.NullString
		err := rows.Scan(
			&c.Session.ID, &c.Session.UserID, &c.Session.SessionDate, &c.Session.ObjectiveType,
			&c.Session.TargetCount, &c.Session.CompletedCount, &c.Session.Deadline, &c.Session.Status,
			&c.Session.PayoutAmountCents, &c.Session.PayoutTriggered, &txnID, &c.Session.CreatedAt, &updated,
			&c.PayerID, &c.PayerBalanceCents, &tz, &destination, &recipientID,
		)
		if err != nil {
			return nil, err
		}
		if txnID.Valid {
			id := int(txnID.Int64)
			c.Session.TransactionID = &id
		}
		if updated.Valid {
			t := updated.Time
			c.Session.UpdatedAt = &t
		}
		c.Timezone = tz.String
		c.Destination = destination.String
		if recipientID.Valid {
			id := int(recipientID.Int64)
			c.RecipientID = &id
		}
		candidates = append(candidates, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func sessionColumns2(alias string) string {
	return alias + `.id, ` + alias + `.user_id, DATE_FORMAT(` + alias + `.session_date, '%Y-%m-%d'), ` +
		alias + `.objective_type, ` + alias + `.target_count, ` + alias + `.completed_count, ` +
		alias + `.deadline, ` + alias + `.status, ` + alias + `.payout_amount_cents, ` +
		alias + `.payout_triggered, ` + alias + `.transaction_id, ` + alias + `.created_at, ` + alias + `.updated_at`
}

// ClaimForPayout flips the payout guard only if it was still clear. A false
// return means another sweep pass owns the session; the caller must not touch
// money for it.
func (r *SessionRepository) ClaimForPayout(ctx context.Context, sessionID int) (bool, error) {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE objective_sessions SET payout_triggered = 1, updated_at = ? WHERE id = ? AND payout_triggered = 0`,
		time.Now(), sessionID,
	)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// ReleaseClaim clears the guard after a failed payout so the next sweep pass
// retries the session.
func (r *SessionRepository) ReleaseClaim(ctx context.Context, sessionID int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE objective_sessions SET payout_triggered = 0, updated_at = ? WHERE id = ?`,
		time.Now(), sessionID,
	)
	return err
}

// MarkAccepted is the correction path: the objective turned out to be met, so
// the session closes with no money movement. The guard stays set so no later
// pass reconsiders it.
func (r *SessionRepository) MarkAccepted(ctx context.Context, sessionID int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE objective_sessions SET status = ?, updated_at = ? WHERE id = ?`,
		models.SessionStatusAccepted, time.Now(), sessionID,
	)
	return err
}
