package services

import (
	"context"

	"stakefitBack/internal/models"
	"stakefitBack/internal/repositories"
)

type TransactionService struct {
	TransactionRepo *repositories.TransactionRepository
	UserRepo        *repositories.UserRepository
}

// History returns the user's ledger, both sides. The user existence check
// keeps an unknown ID from answering an empty list instead of 404.
func (s *TransactionService) History(ctx context.Context, userID int) ([]models.Transaction, error) {
	if _, err := s.UserRepo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	txns, err := s.TransactionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	return txns, nil
}
