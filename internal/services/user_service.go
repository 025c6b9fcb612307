package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"stakefitBack/internal/models"
	"stakefitBack/internal/repositories"
	"stakefitBack/utils"
)

const (
	tokenTTL      = 120 * time.Minute
	resetCodeTTL  = 15 * time.Minute
	refreshWindow = 24 * 30 * 2 * time.Hour
)

type UserService struct {
	UserRepo      *repositories.UserRepository
	RecipientRepo *repositories.RecipientRepository
	TokenManager  *utils.Manager
	Mailer        *Mailer
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// UpsertProfile is the combined create-or-update contract keyed by normalized
// email. First writes require a full name; later writes merge only the
// supplied fields. CreateOnly rejects writes to an existing email so sign-up
// cannot silently overwrite an account.
func (s *UserService) UpsertProfile(ctx context.Context, req models.ProfileUpsertRequest) (models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return models.User{}, models.NewValidationError("email", "email is required")
	}

	if req.SelectedRecipientID != nil {
		if _, err := s.RecipientRepo.GetByID(ctx, *req.SelectedRecipientID); err != nil {
			if errors.Is(err, models.ErrRecipientNotFound) {
				return models.User{}, models.NewValidationError("selected_recipient_id", "recipient does not exist")
			}
			return models.User{}, err
		}
	}

	existing, err := s.UserRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if req.CreateOnly {
			return models.User{}, models.ErrDuplicateEmail
		}
		return s.mergeProfile(ctx, existing, req)
	case errors.Is(err, repositories.ErrUserNotFound):
		return s.createProfile(ctx, email, req)
	default:
		return models.User{}, err
	}
}

func (s *UserService) createProfile(ctx context.Context, email string, req models.ProfileUpsertRequest) (models.User, error) {
	if req.FullName == nil || strings.TrimSpace(*req.FullName) == "" {
		return models.User{}, models.NewValidationError("full_name", "full name is required on first save")
	}

	user := models.User{
		Email:    email,
		FullName: strings.TrimSpace(*req.FullName),
		Timezone: models.DefaultTimezone,
	}
	if req.Password != nil && *req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, err
		}
		user.Password = string(hashed)
	}
	applyProfileFields(&user, req)

	created, err := s.UserRepo.CreateUser(ctx, user)
	if err != nil {
		return models.User{}, err
	}
	created.Password = ""
	return created, nil
}

func (s *UserService) mergeProfile(ctx context.Context, user models.User, req models.ProfileUpsertRequest) (models.User, error) {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) != "" {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Password != nil && *req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, err
		}
		user.Password = string(hashed)
	}
	applyProfileFields(&user, req)

	updated, err := s.UserRepo.UpdateUser(ctx, user)
	if err != nil {
		return models.User{}, err
	}
	updated.Password = ""
	return updated, nil
}

func applyProfileFields(user *models.User, req models.ProfileUpsertRequest) {
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.ObjectiveType != nil {
		user.ObjectiveType = *req.ObjectiveType
	}
	if req.TargetCount != nil {
		user.TargetCount = *req.TargetCount
	}
	if req.Deadline != nil {
		user.Deadline = *req.Deadline
	}
	if req.Recurrence != nil {
		user.Recurrence = *req.Recurrence
	}
	if req.PayoutDestination != nil {
		user.PayoutDestination = *req.PayoutDestination
	}
	if req.SelectedRecipientID != nil {
		user.SelectedRecipientID = req.SelectedRecipientID
	}
	if req.PledgeAmountCents != nil {
		user.PledgeAmountCents = *req.PledgeAmountCents
	}
	if req.ObjectiveCommitted != nil {
		user.ObjectiveCommitted = *req.ObjectiveCommitted
	}
	if req.PayoutCommitted != nil {
		user.PayoutCommitted = *req.PayoutCommitted
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}
}

// SignIn verifies credentials and issues a signed, expiring access token plus
// a refresh token. Clients must present the access token on every user-scoped
// request; the server never trusts a bare userId.
func (s *UserService) SignIn(ctx context.Context, email, password string) (models.SignInResponse, error) {
	user, err := s.UserRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.SignInResponse{}, models.ErrInvalidCredentials
		}
		return models.SignInResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.SignInResponse{}, models.ErrInvalidCredentials
	}

	if s.TokenManager == nil {
		return models.SignInResponse{}, errors.New("token manager is not configured")
	}
	accessToken, err := s.TokenManager.NewJWT(strconv.Itoa(user.ID), tokenTTL)
	if err != nil {
		return models.SignInResponse{}, err
	}

	tokens, err := s.createAuthSession(ctx, user, accessToken)
	if err != nil {
		return models.SignInResponse{}, err
	}

	user.Password = ""
	return models.SignInResponse{User: user, Tokens: tokens}, nil
}

func (s *UserService) createAuthSession(ctx context.Context, user models.User, accessToken string) (models.Tokens, error) {
	var (
		res models.Tokens
		err error
	)

	res.AccessToken = accessToken

	res.RefreshToken = uuid.New().String()
	if s.TokenManager != nil {
		res.RefreshToken, err = s.TokenManager.NewRefreshToken()
		if err != nil {
			return res, err
		}
	}

	session := models.AuthSession{
		RefreshToken: res.RefreshToken,
		ExpiresAt:    time.Now().Add(refreshWindow),
	}
	if err = s.UserRepo.SetSession(ctx, user.ID, session); err != nil {
		return res, err
	}
	return res, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (models.User, error) {
	user, err := s.UserRepo.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.Password = ""
	return user, nil
}

func (s *UserService) GetBalance(ctx context.Context, userID int) (models.BalanceResponse, error) {
	balance, err := s.UserRepo.GetBalance(ctx, userID)
	if err != nil {
		return models.BalanceResponse{}, err
	}
	return models.NewBalanceResponse(userID, balance), nil
}

func generateResetCode() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

// RequestPasswordReset emails a short-lived code. An unknown email returns
// success anyway so the endpoint cannot be used to probe for accounts.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	_, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil
		}
		return err
	}

	code := generateResetCode()
	if err := s.UserRepo.SaveResetCode(ctx, email, code, time.Now().Add(resetCodeTTL)); err != nil {
		return err
	}
	if s.Mailer != nil {
		if err := s.Mailer.SendResetCode(email, code); err != nil {
			return fmt.Errorf("deliver reset code: %w", err)
		}
	}
	return nil
}

func (s *UserService) VerifyResetCode(ctx context.Context, email, code string) error {
	return s.UserRepo.CheckResetCode(ctx, normalizeEmail(email), code)
}

func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if len(newPassword) < 8 {
		return models.NewValidationError("new_password", "password must be at least 8 characters")
	}
	if err := s.UserRepo.ConsumeResetCode(ctx, email, code); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.UserRepo.UpdatePassword(ctx, email, string(hashed))
}

// ParseUserID is a convenience for handlers reading :userId path params.
func ParseUserID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("userId", "invalid user id")
	}
	return id, nil
}
