package services

import (
	"context"
	"database/sql/driver"
	"log"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"stakefitBack/internal/models"
	"stakefitBack/internal/repositories"
)

var sweepNow = time.Date(2026, 8, 30, 20, 0, 0, 0, time.UTC)

var candidateColumns = []string{
	"id", "user_id", "session_date", "objective_type", "target_count",
	"completed_count", "deadline", "status", "payout_amount_cents",
	"payout_triggered", "transaction_id", "created_at", "updated_at",
	"u_id", "balance_cents", "timezone", "payout_destination", "selected_recipient_id",
}

func candidateRow(sessionDate, deadline string, target, completed int, balance, pledge int64) []driver.Value {
	return []driver.Value{
		42, 7, sessionDate, models.ObjectiveTypeCount, target,
		completed, deadline, models.SessionStatusPending, pledge,
		false, nil, sweepNow.Add(-time.Hour), nil,
		7, balance, "UTC", models.DestinationCharity, nil,
	}
}

func newSweepService(t *testing.T) (*SweepService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	svc := &SweepService{
		SessionRepo:   &repositories.SessionRepository{DB: db},
		PayoutRepo:    &repositories.PayoutRepository{DB: db},
		UserRepo:      &repositories.UserRepository{DB: db},
		RecipientRepo: &repositories.RecipientRepository{DB: db},
		ErrorLog:      log.New(os.Stderr, "", 0),
	}
	return svc, mock, func() { db.Close() }
}

func expectCandidates(mock sqlmock.Sqlmock, rows ...[]driver.Value) {
	r := sqlmock.NewRows(candidateColumns)
	for _, row := range rows {
		r.AddRow(row...)
	}
	mock.ExpectQuery("FROM objective_sessions s").WillReturnRows(r)
}

func TestSweepSkipsBeforeDeadline(t *testing.T) {
	svc, mock, closeDB := newSweepService(t)
	defer closeDB()

	expectCandidates(mock, candidateRow("2026-08-30", "23:00", 50, 10, 1000, 500))

	result, err := svc.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Skipped != 1 || result.Missed != 0 {
		t.Fatalf("result = %+v, want 1 skipped", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSweepSkipsStaleSession(t *testing.T) {
	svc, mock, closeDB := newSweepService(t)
	defer closeDB()

	// Three days old: past the staleness window, never swept.
	expectCandidates(mock, candidateRow("2026-08-27", "19:00", 50, 10, 1000, 500))

	result, err := svc.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Skipped != 1 {
		t.Fatalf("result = %+v, want 1 skipped", result)
	}
	if result.Outcomes[0].Reason != "stale" {
		t.Errorf("reason = %q, want stale", result.Outcomes[0].Reason)
	}
}

func TestSweepAcceptsMetObjective(t *testing.T) {
	svc, mock, closeDB := newSweepService(t)
	defer closeDB()

	// Target reached but status never advanced: the sweep corrects it to
	// accepted and moves no money.
	expectCandidates(mock, candidateRow("2026-08-30", "19:00", 20, 25, 1000, 500))
	mock.ExpectExec("UPDATE objective_sessions SET payout_triggered = 1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE objective_sessions SET status").
		WithArgs(models.SessionStatusAccepted, sqlmock.AnyArg(), 42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Accepted != 1 || result.Missed != 0 {
		t.Fatalf("result = %+v, want 1 accepted", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSweepPaysCharityOnMiss(t *testing.T) {
	svc, mock, closeDB := newSweepService(t)
	defer closeDB()

	expectCandidates(mock, candidateRow("2026-08-30", "19:00", 50, 10, 1000, 500))
	mock.ExpectExec("UPDATE objective_sessions SET payout_triggered = 1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance_cents FROM users").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(int64(1000)))
	mock.ExpectExec("UPDATE users SET balance_cents = balance_cents -").
		WithArgs(int64(500), sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnResult(sqlmock.NewResult(99, 1))
	mock.ExpectExec("INSERT INTO charity_payouts").
		WithArgs(7, 42, int64(500), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE objective_sessions SET status").
		WithArgs(models.SessionStatusMissed, int64(99), sqlmock.AnyArg(), 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Missed != 1 {
		t.Fatalf("result = %+v, want 1 missed", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func recipientAccountRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "phone", "full_name", "password_hash", "balance_cents",
		"objective_type", "target_count", "deadline", "recurrence", "payout_destination",
		"selected_recipient_id", "pledge_amount_cents", "objective_committed",
		"payout_committed", "timezone", "created_at", "updated_at",
	}).AddRow(11, "pal@example.com", "", "Pal Doe", "", int64(0),
		models.ObjectiveTypeCount, 0, "09:00", models.RecurrenceDaily, models.DestinationCharity,
		nil, int64(0), false, false, "UTC", sweepNow, nil)
}

func TestSweepPaysSelectedRecipientOnMiss(t *testing.T) {
	svc, mock, closeDB := newSweepService(t)
	defer closeDB()

	// The payer picked recipient row 3, which belongs to user 11. Both the
	// ledger row and the credit must land on user 11, or the recipient's own
	// transaction history never shows the payout.
	row := candidateRow("2026-08-30", "19:00", 50, 10, 1000, 500)
	row[16] = models.DestinationCustom
	row[17] = 3
	expectCandidates(mock, row)

	mock.ExpectQuery("FROM recipients WHERE id").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "full_name", "phone", "email", "payee_account_id", "user_id", "created_at",
		}).AddRow(3, "Pal Doe", "+15550001111", "pal@example.com", nil, 11, sweepNow))
	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("pal@example.com").
		WillReturnRows(recipientAccountRow())
	mock.ExpectExec("UPDATE objective_sessions SET payout_triggered = 1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance_cents FROM users").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(int64(1000)))
	mock.ExpectExec("UPDATE users SET balance_cents = balance_cents -").
		WithArgs(int64(500), sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(7, 11, int64(-500), models.TransactionTypePayout,
			models.TransactionStatusCompleted, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(99, 1))
	mock.ExpectExec(`UPDATE users SET balance_cents = balance_cents \+`).
		WithArgs(int64(500), sqlmock.AnyArg(), 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE objective_sessions SET status").
		WithArgs(models.SessionStatusMissed, int64(99), sqlmock.AnyArg(), 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Missed != 1 {
		t.Fatalf("result = %+v, want 1 missed", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSweepHonorsLostClaim(t *testing.T) {
	svc, mock, closeDB := newSweepService(t)
	defer closeDB()

	// Another pass set payout_triggered first: no payout transaction at all.
	expectCandidates(mock, candidateRow("2026-08-30", "19:00", 50, 10, 1000, 500))
	mock.ExpectExec("UPDATE objective_sessions SET payout_triggered = 1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	result, err := svc.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Missed != 0 {
		t.Fatalf("result = %+v, want no payout", result)
	}
	if result.Outcomes[0].Outcome != models.SweepOutcomeClaimed {
		t.Errorf("outcome = %q, want duplicate", result.Outcomes[0].Outcome)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSweepSkipsEmptyBalance(t *testing.T) {
	svc, mock, closeDB := newSweepService(t)
	defer closeDB()

	expectCandidates(mock, candidateRow("2026-08-30", "19:00", 50, 10, 0, 500))

	result, err := svc.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Skipped != 1 {
		t.Fatalf("result = %+v, want 1 skipped", result)
	}
	if result.Outcomes[0].Reason != "nothing at stake" {
		t.Errorf("reason = %q, want nothing at stake", result.Outcomes[0].Reason)
	}
}
