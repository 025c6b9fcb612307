package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"stakefitBack/internal/models"
)

func TestCreateWithDebit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &WithdrawalRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET balance_cents = balance_cents -").
		WithArgs(int64(300), sqlmock.AnyArg(), 7, int64(300)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO withdrawal_requests").
		WithArgs(7, int64(300), models.WithdrawalStatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(7, int64(-300), models.TransactionTypeWithdrawal,
			models.TransactionStatusPending, `{"withdrawal_request_id":12}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request, err := repo.CreateWithDebit(context.Background(), 7, 300)
	if err != nil {
		t.Fatalf("CreateWithDebit: %v", err)
	}
	if request.ID != 12 {
		t.Errorf("request id = %d, want 12", request.ID)
	}
	if request.Status != models.WithdrawalStatusPending {
		t.Errorf("status = %q, want pending", request.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateWithDebitInsufficientFunds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &WithdrawalRepository{DB: db}

	// Conditional debit matches no row: balance below the amount. Nothing is
	// queued and nothing is committed.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET balance_cents = balance_cents -").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = repo.CreateWithDebit(context.Background(), 7, 999999)
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFailWithRefund(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &WithdrawalRepository{DB: db}
	w := models.WithdrawalRequest{ID: 12, UserID: 7, AmountCents: 300}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE withdrawal_requests SET status").
		WithArgs(models.WithdrawalStatusFailed, sqlmock.AnyArg(), 12).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs(models.TransactionStatusFailed, models.TransactionTypeWithdrawal,
			`{"withdrawal_request_id":12}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET balance_cents = balance_cents \+`).
		WithArgs(int64(300), sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(7, int64(300), models.TransactionTypeDeposit,
			models.TransactionStatusCompleted, `{"refund_of_withdrawal":12}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	if err := repo.FailWithRefund(context.Background(), w); err != nil {
		t.Fatalf("FailWithRefund: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkCompletedSettlesLedgerRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &WithdrawalRepository{DB: db}

	// Completing the request must also flip the pending ledger row, or the
	// user's history keeps showing the withdrawal as in flight.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE withdrawal_requests SET status").
		WithArgs(models.WithdrawalStatusCompleted, sqlmock.AnyArg(), 12).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs(models.TransactionStatusCompleted, models.TransactionTypeWithdrawal,
			`{"withdrawal_request_id":12}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.MarkCompleted(context.Background(), 12); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
