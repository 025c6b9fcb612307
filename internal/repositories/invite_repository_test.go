package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"stakefitBack/internal/models"
)

func TestMarkAcceptedOnlyOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &InviteRepository{DB: db}

	mock.ExpectExec("UPDATE recipient_invites SET status").
		WithArgs(models.InviteStatusAccepted, 3, sqlmock.AnyArg(), 5, models.InviteStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE recipient_invites SET status").
		WithArgs(models.InviteStatusAccepted, 3, sqlmock.AnyArg(), 5, models.InviteStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkAccepted(context.Background(), 5, 3); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	err = repo.MarkAccepted(context.Background(), 5, 3)
	if !errors.Is(err, models.ErrInviteAlreadyUsed) {
		t.Fatalf("second accept: expected ErrInviteAlreadyUsed, got %v", err)
	}
}

func TestGetByCodeNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &InviteRepository{DB: db}

	mock.ExpectQuery("SELECT (.+) FROM recipient_invites WHERE code").
		WithArgs("NOSUCH").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetByCode(context.Background(), "NOSUCH")
	if !errors.Is(err, models.ErrInviteNotFound) {
		t.Fatalf("expected ErrInviteNotFound, got %v", err)
	}
}
