package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"stakefitBack/internal/repositories"
	"stakefitBack/internal/services"
)

func TestWithdrawInsufficientFundsAnswers400(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	h := &WithdrawalHandler{Service: &services.WithdrawalService{
		WithdrawalRepo: &repositories.WithdrawalRepository{DB: db},
		UserRepo:       &repositories.UserRepository{DB: db},
	}}

	// Conditional debit matches no row, then the balance is read back so the
	// client can show what is actually available.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET balance_cents = balance_cents -").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	mock.ExpectQuery("SELECT balance_cents FROM users").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(int64(100)))

	req := httptest.NewRequest(http.MethodPost, "/withdraw", strings.NewReader(`{"user_id":7,"amount_cents":500}`))
	rr := httptest.NewRecorder()

	h.Withdraw(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["available_cents"] != float64(100) {
		t.Errorf("available_cents = %v, want 100", body["available_cents"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestWithdrawForbiddenForOtherUser(t *testing.T) {
	h := &WithdrawalHandler{}

	req := httptest.NewRequest(http.MethodPost, "/withdraw", strings.NewReader(`{"user_id":7,"amount_cents":500}`))
	req = req.WithContext(context.WithValue(req.Context(), UserIDContextKey, 99))
	rr := httptest.NewRecorder()

	h.Withdraw(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}
