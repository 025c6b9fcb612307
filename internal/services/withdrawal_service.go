package services

import (
	"context"
	"errors"
	"log"

	"stakefitBack/internal/models"
	"stakefitBack/internal/repositories"
)

type WithdrawalService struct {
	WithdrawalRepo *repositories.WithdrawalRepository
	RecipientRepo  *repositories.RecipientRepository
	UserRepo       *repositories.UserRepository
	PayWay         *PayWayService
	ErrorLog       *log.Logger
}

func (s *WithdrawalService) logf(format string, args ...any) {
	if s.ErrorLog != nil {
		s.ErrorLog.Printf(format, args...)
	}
}

// Withdraw debits the user, queues the request and attempts the transfer
// immediately. A liquidity rejection leaves the request pending for the
// queue; the user's debit stands either way since the refund only happens on
// terminal failure.
func (s *WithdrawalService) Withdraw(ctx context.Context, req models.WithdrawRequest) (models.WithdrawResponse, error) {
	if req.AmountCents <= 0 {
		return models.WithdrawResponse{}, models.NewValidationError("amount_cents", "amount must be positive")
	}

	request, err := s.WithdrawalRepo.CreateWithDebit(ctx, req.UserID, req.AmountCents)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			balance, balErr := s.UserRepo.GetBalance(ctx, req.UserID)
			if balErr != nil {
				return models.WithdrawResponse{}, balErr
			}
			return models.WithdrawResponse{AvailableCents: balance}, models.ErrInsufficientFunds
		}
		return models.WithdrawResponse{}, err
	}

	if done, err := s.attemptTransfer(ctx, &request); err != nil {
		s.logf("withdrawal %d: immediate transfer failed: %v", request.ID, err)
	} else if done {
		request.Status = models.WithdrawalStatusCompleted
	}

	balance, err := s.UserRepo.GetBalance(ctx, req.UserID)
	if err != nil {
		return models.WithdrawResponse{}, err
	}
	return models.WithdrawResponse{Request: request, AvailableCents: balance}, nil
}

// attemptTransfer tries the external transfer once and records the attempt.
// Returns true when the request completed.
func (s *WithdrawalService) attemptTransfer(ctx context.Context, w *models.WithdrawalRequest) (bool, error) {
	user, err := s.UserRepo.GetUserByID(ctx, w.UserID)
	if err != nil {
		return false, err
	}

	rec, err := s.RecipientRepo.GetByEmail(ctx, user.Email)
	if err != nil || rec.PayeeAccountID == "" {
		recordErr := s.WithdrawalRepo.RecordAttempt(ctx, w.ID, "no payee account on file")
		if recordErr != nil {
			return false, recordErr
		}
		return false, errors.New("no payee account on file")
	}

	_, err = s.PayWay.CreateTransfer(ctx, rec.PayeeAccountID, w.AmountCents)
	if err != nil {
		if recordErr := s.WithdrawalRepo.RecordAttempt(ctx, w.ID, err.Error()); recordErr != nil {
			return false, recordErr
		}
		return false, err
	}

	if err := s.WithdrawalRepo.MarkCompleted(ctx, w.ID); err != nil {
		return false, err
	}
	return true, nil
}

// ProcessQueue retries every pending withdrawal. Requests that exhaust their
// attempts are failed terminally and refunded. One bad request never stops
// the rest of the queue.
func (s *WithdrawalService) ProcessQueue(ctx context.Context) (models.ProcessQueueResult, error) {
	pending, err := s.WithdrawalRepo.ListPending(ctx)
	if err != nil {
		return models.ProcessQueueResult{}, err
	}

	var result models.ProcessQueueResult
	for _, w := range pending {
		result.Processed++

		if w.Attempts >= models.WithdrawalMaxAttempts {
			if err := s.WithdrawalRepo.FailWithRefund(ctx, w); err != nil {
				s.logf("withdrawal %d: terminal fail/refund: %v", w.ID, err)
				continue
			}
			result.Failed++
			continue
		}

		req := w
		done, err := s.attemptTransfer(ctx, &req)
		if err != nil {
			s.logf("withdrawal %d: retry failed: %v", w.ID, err)
			result.Retried++
			continue
		}
		if done {
			result.Completed++
		}
	}
	return result, nil
}

func (s *WithdrawalService) PendingForUser(ctx context.Context, userID int) ([]models.WithdrawalRequest, error) {
	return s.WithdrawalRepo.ListPendingByUser(ctx, userID)
}
