package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"stakefitBack/internal/models"
	"stakefitBack/internal/repositories"
	"stakefitBack/utils"
)

const defaultInviteCodeLength = 8

type InviteService struct {
	InviteRepo    *repositories.InviteRepository
	RecipientRepo *repositories.RecipientRepository
	UserRepo      *repositories.UserRepository
	SMS           *SMSService
	PayWay        *PayWayService
	InviteLink    string
	CodeLength    int
}

func (s *InviteService) codeLength() int {
	if s.CodeLength > 0 {
		return s.CodeLength
	}
	return defaultInviteCodeLength
}

// CreateInvite generates (or re-sends) a one-time code binding the payer to a
// phone number. An outstanding pending invite for the same payer and phone is
// re-sent with its original code rather than replaced.
func (s *InviteService) CreateInvite(ctx context.Context, req models.CreateInviteRequest) (models.RecipientInvite, error) {
	if strings.TrimSpace(req.Phone) == "" {
		return models.RecipientInvite{}, models.NewValidationError("phone", "phone is required")
	}
	payer, err := s.UserRepo.GetUserByID(ctx, req.PayerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.RecipientInvite{}, models.ErrUserNotFound
		}
		return models.RecipientInvite{}, err
	}

	invite, err := s.InviteRepo.GetPending(ctx, req.PayerID, req.Phone)
	if errors.Is(err, models.ErrInviteNotFound) {
		code, err := utils.NewInviteCode(s.codeLength())
		if err != nil {
			return models.RecipientInvite{}, err
		}
		invite, err = s.InviteRepo.Create(ctx, models.RecipientInvite{
			PayerID: req.PayerID,
			Phone:   req.Phone,
			Email:   req.Email,
			Code:    code,
		})
		if err != nil {
			return models.RecipientInvite{}, err
		}
	} else if err != nil {
		return models.RecipientInvite{}, err
	}

	if req.SendSMS && s.SMS != nil {
		message := fmt.Sprintf("%s picked you to receive their missed-workout stakes. Accept with code %s: %s%s",
			payer.FullName, invite.Code, s.InviteLink, invite.Code)
		if err := s.SMS.Send(req.Phone, message); err != nil {
			return models.RecipientInvite{}, fmt.Errorf("send invite sms: %w", err)
		}
	}
	return invite, nil
}

// VerifyInvite resolves a code into the inviting payer's identity. Used codes
// report ErrInviteAlreadyUsed so the signup screen can explain itself.
func (s *InviteService) VerifyInvite(ctx context.Context, code string) (models.VerifyInviteResponse, error) {
	invite, err := s.InviteRepo.GetByCode(ctx, code)
	if err != nil {
		return models.VerifyInviteResponse{}, err
	}
	if invite.Status != models.InviteStatusPending {
		return models.VerifyInviteResponse{}, models.ErrInviteAlreadyUsed
	}

	payer, err := s.UserRepo.GetUserByID(ctx, invite.PayerID)
	if err != nil {
		return models.VerifyInviteResponse{}, err
	}
	return models.VerifyInviteResponse{
		Code:       invite.Code,
		PayerName:  payer.FullName,
		PayerEmail: payer.Email,
		Status:     invite.Status,
	}, nil
}

// AcceptInvite turns a pending code into an accepted recipient: the recipient
// row is upserted by phone, a platform account is created for them if the
// email is new, and a default payout rule binds payer to recipient.
func (s *InviteService) AcceptInvite(ctx context.Context, req models.AcceptInviteRequest) (models.Recipient, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return models.Recipient{}, models.NewValidationError("full_name", "full name is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return models.Recipient{}, models.NewValidationError("phone", "phone is required")
	}

	invite, err := s.InviteRepo.GetByCode(ctx, req.Code)
	if err != nil {
		return models.Recipient{}, err
	}
	if invite.Status != models.InviteStatusPending {
		return models.Recipient{}, models.ErrInviteAlreadyUsed
	}

	recipient, err := s.RecipientRepo.Upsert(ctx, models.Recipient{
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    normalizeEmail(req.Email),
	})
	if err != nil {
		return models.Recipient{}, err
	}

	if recipient.UserID == nil && req.Email != "" {
		userID, err := s.ensureRecipientUser(ctx, req)
		if err != nil {
			return models.Recipient{}, err
		}
		if err := s.RecipientRepo.LinkUser(ctx, recipient.ID, userID); err != nil {
			return models.Recipient{}, err
		}
		recipient.UserID = &userID
	}

	if err := s.finishAcceptance(ctx, invite, recipient); err != nil {
		return models.Recipient{}, err
	}
	return recipient, nil
}

func (s *InviteService) ensureRecipientUser(ctx context.Context, req models.AcceptInviteRequest) (int, error) {
	email := normalizeEmail(req.Email)
	existing, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return 0, err
	}

	user := models.User{
		Email:    email,
		Phone:    req.Phone,
		FullName: req.FullName,
		Timezone: models.DefaultTimezone,
	}
	if req.Password != "" {
		hashed, err := hashPassword(req.Password)
		if err != nil {
			return 0, err
		}
		user.Password = hashed
	}
	created, err := s.UserRepo.CreateUser(ctx, user)
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (s *InviteService) finishAcceptance(ctx context.Context, invite models.RecipientInvite, recipient models.Recipient) error {
	if err := s.InviteRepo.MarkAccepted(ctx, invite.ID, recipient.ID); err != nil {
		return err
	}

	payer, err := s.UserRepo.GetUserByID(ctx, invite.PayerID)
	if err != nil {
		return err
	}
	_, err = s.InviteRepo.CreatePayoutRule(ctx, models.PayoutRule{
		PayerID:     invite.PayerID,
		RecipientID: recipient.ID,
		AmountCents: payer.PledgeAmountCents,
		Active:      true,
	})
	return err
}

// Onboard is the accept variant that also provisions a processor payee
// account and attaches the tokenized instrument. If the database write after
// provisioning fails, the created account is deleted again.
func (s *InviteService) Onboard(ctx context.Context, req models.OnboardingRequest) (models.Recipient, error) {
	for _, check := range []struct {
		field, value string
	}{
		{"full_name", req.FullName},
		{"date_of_birth", req.DateOfBirth},
		{"address_line", req.AddressLine},
		{"ssn_last4", req.SSNLast4},
		{"payment_token", req.PaymentToken},
		{"phone", req.Phone},
	} {
		if strings.TrimSpace(check.value) == "" {
			return models.Recipient{}, models.NewValidationError(check.field, check.field+" is required")
		}
	}

	invite, err := s.InviteRepo.GetByCode(ctx, req.Code)
	if err != nil {
		return models.Recipient{}, err
	}
	if invite.Status != models.InviteStatusPending {
		return models.Recipient{}, models.ErrInviteAlreadyUsed
	}

	account, err := s.PayWay.CreatePayeeAccount(ctx, PayeeAccountRequest{
		FullName:    req.FullName,
		DateOfBirth: req.DateOfBirth,
		AddressLine: req.AddressLine,
		City:        req.City,
		PostalCode:  req.PostalCode,
		SSNLast4:    req.SSNLast4,
		Email:       req.Email,
		Phone:       req.Phone,
	})
	if err != nil {
		return models.Recipient{}, err
	}

	if err := s.PayWay.AttachInstrument(ctx, account.AccountID, req.PaymentToken); err != nil {
		return models.Recipient{}, err
	}

	recipient, err := s.RecipientRepo.Upsert(ctx, models.Recipient{
		FullName:       req.FullName,
		Phone:          req.Phone,
		Email:          normalizeEmail(req.Email),
		PayeeAccountID: account.AccountID,
	})
	if err != nil {
		if delErr := s.PayWay.DeletePayeeAccount(ctx, account.AccountID); delErr != nil {
			return models.Recipient{}, fmt.Errorf("store recipient: %v (account cleanup also failed: %w)", err, delErr)
		}
		return models.Recipient{}, err
	}

	if err := s.finishAcceptance(ctx, invite, recipient); err != nil {
		return models.Recipient{}, err
	}
	return recipient, nil
}

// SelectRecipient switches the payer's active payout destination to a
// previously accepted recipient.
func (s *InviteService) SelectRecipient(ctx context.Context, payerID, recipientID int) error {
	invites, err := s.InviteRepo.ListByPayer(ctx, payerID)
	if err != nil {
		return err
	}
	accepted := false
	for _, inv := range invites {
		if inv.Status == models.InviteStatusAccepted && inv.RecipientID != nil && *inv.RecipientID == recipientID {
			accepted = true
			break
		}
	}
	if !accepted {
		return models.ErrRecipientNotFound
	}

	payer, err := s.UserRepo.GetUserByID(ctx, payerID)
	if err != nil {
		return err
	}
	payer.SelectedRecipientID = &recipientID
	payer.PayoutDestination = models.DestinationCustom
	_, err = s.UserRepo.UpdateUser(ctx, payer)
	return err
}

// ListInvites reconstructs the payer's recipient list: the selected recipient
// first, other accepted recipients alphabetically, the latest pending invite
// last. Accepted recipients are deduplicated by id.
func (s *InviteService) ListInvites(ctx context.Context, payerID int) ([]models.InviteView, error) {
	payer, err := s.UserRepo.GetUserByID(ctx, payerID)
	if err != nil {
		return nil, err
	}
	invites, err := s.InviteRepo.ListByPayer(ctx, payerID)
	if err != nil {
		return nil, err
	}

	var selected *models.InviteView
	var available []models.InviteView
	var pending *models.InviteView
	seen := make(map[int]bool)

	for _, inv := range invites {
		switch inv.Status {
		case models.InviteStatusAccepted:
			if inv.RecipientID == nil || seen[*inv.RecipientID] {
				continue
			}
			seen[*inv.RecipientID] = true
			rec, err := s.RecipientRepo.GetByID(ctx, *inv.RecipientID)
			if err != nil {
				return nil, err
			}
			view := models.InviteView{
				RecipientID: inv.RecipientID,
				FullName:    rec.FullName,
				Phone:       rec.Phone,
				Status:      models.InviteStatusAvailable,
			}
			if payer.SelectedRecipientID != nil && *payer.SelectedRecipientID == rec.ID {
				view.Status = models.InviteStatusActive
				selected = &view
				continue
			}
			available = append(available, view)
		case models.InviteStatusPending:
			if pending == nil {
				view := models.InviteView{
					FullName: inv.Email,
					Phone:    inv.Phone,
					Status:   models.InviteStatusPending,
					Code:     inv.Code,
				}
				pending = &view
			}
		}
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].FullName < available[j].FullName
	})

	var views []models.InviteView
	if selected != nil {
		views = append(views, *selected)
	}
	views = append(views, available...)
	if pending != nil {
		views = append(views, *pending)
	}
	return views, nil
}
