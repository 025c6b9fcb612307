package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"stakefitBack/internal/models"
	"stakefitBack/internal/repositories"
)

func newInviteService(t *testing.T) (*InviteService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	svc := &InviteService{
		InviteRepo:    &repositories.InviteRepository{DB: db},
		RecipientRepo: &repositories.RecipientRepository{DB: db},
		UserRepo:      &repositories.UserRepository{DB: db},
	}
	return svc, mock, func() { db.Close() }
}

func inviteRow(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "payer_id", "phone", "email", "code", "status", "recipient_id", "created_at", "updated_at",
	}).AddRow(5, 7, "+15550001111", "pal@example.com", "ABCD2345", status, nil, time.Now(), nil)
}

func payerRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "phone", "full_name", "password_hash", "balance_cents",
		"objective_type", "target_count", "deadline", "recurrence", "payout_destination",
		"selected_recipient_id", "pledge_amount_cents", "objective_committed",
		"payout_committed", "timezone", "created_at", "updated_at",
	}).AddRow(7, "payer@example.com", "", "Pat Doe", "", int64(1000),
		models.ObjectiveTypeCount, 50, "09:00", models.RecurrenceDaily, models.DestinationCharity,
		nil, int64(500), true, true, "UTC", time.Now(), nil)
}

func TestVerifyInvitePending(t *testing.T) {
	svc, mock, closeDB := newInviteService(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM recipient_invites WHERE code").
		WithArgs("ABCD2345").
		WillReturnRows(inviteRow(models.InviteStatusPending))
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(7).
		WillReturnRows(payerRow())

	resp, err := svc.VerifyInvite(context.Background(), "ABCD2345")
	if err != nil {
		t.Fatalf("VerifyInvite: %v", err)
	}
	if resp.PayerName != "Pat Doe" || resp.PayerEmail != "payer@example.com" {
		t.Errorf("payer identity = %q/%q", resp.PayerName, resp.PayerEmail)
	}
	if resp.Status != models.InviteStatusPending {
		t.Errorf("status = %q, want pending", resp.Status)
	}
}

func TestVerifyInviteAlreadyUsed(t *testing.T) {
	svc, mock, closeDB := newInviteService(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM recipient_invites WHERE code").
		WithArgs("ABCD2345").
		WillReturnRows(inviteRow(models.InviteStatusAccepted))

	_, err := svc.VerifyInvite(context.Background(), "ABCD2345")
	if !errors.Is(err, models.ErrInviteAlreadyUsed) {
		t.Fatalf("expected ErrInviteAlreadyUsed, got %v", err)
	}
}

func TestCreateInviteRequiresPhone(t *testing.T) {
	svc, _, closeDB := newInviteService(t)
	defer closeDB()

	_, err := svc.CreateInvite(context.Background(), models.CreateInviteRequest{PayerID: 7})
	if _, ok := models.AsValidation(err); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
}
