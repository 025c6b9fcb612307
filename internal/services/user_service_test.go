package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"stakefitBack/internal/models"
	"stakefitBack/internal/repositories"
	"stakefitBack/utils"
)

func TestSignInIssuesManagerTokens(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	manager, err := utils.NewManager("test-signing-key")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	svc := &UserService{
		UserRepo:     &repositories.UserRepository{DB: db},
		TokenManager: manager,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("pat@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "phone", "full_name", "password_hash", "balance_cents",
			"objective_type", "target_count", "deadline", "recurrence", "payout_destination",
			"selected_recipient_id", "pledge_amount_cents", "objective_committed",
			"payout_committed", "timezone", "created_at", "updated_at",
		}).AddRow(7, "pat@example.com", "", "Pat Doe", string(hash), int64(1000),
			models.ObjectiveTypeCount, 50, "09:00", models.RecurrenceDaily, models.DestinationCharity,
			nil, int64(500), true, true, "UTC", time.Now(), nil))
	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(7, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	resp, err := svc.SignIn(context.Background(), "pat@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	// The access token must come from the shared token manager: parseable
	// with the same key and carrying the user id as its subject.
	sub, err := manager.Parse(resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("Parse access token: %v", err)
	}
	if sub != "7" {
		t.Errorf("token subject = %q, want 7", sub)
	}
	if resp.Tokens.RefreshToken == "" {
		t.Error("refresh token is empty")
	}
	if resp.User.Password != "" {
		t.Error("password hash leaked in response")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
