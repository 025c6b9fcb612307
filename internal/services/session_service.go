package services

import (
	"context"
	"errors"
	"time"

	"stakefitBack/internal/models"
	"stakefitBack/internal/repositories"
)

type SessionService struct {
	SessionRepo *repositories.SessionRepository
	UserRepo    *repositories.UserRepository
}

func userLocation(tz string) *time.Location {
	if tz == "" {
		tz = models.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc, err = time.LoadLocation(models.DefaultTimezone)
		if err != nil {
			return time.UTC
		}
	}
	return loc
}

func localDate(now time.Time, tz string) string {
	return now.In(userLocation(tz)).Format("2006-01-02")
}

// deadlinePassed compares a "HH:MM" time-of-day against now in the user's
// timezone. Unparseable deadlines count as passed so a corrupt value cannot
// suppress the sweep forever.
func deadlinePassed(now time.Time, tz, deadline string) bool {
	local := now.In(userLocation(tz))
	t, err := time.Parse("15:04", deadline)
	if err != nil {
		return true
	}
	deadlineMinutes := t.Hour()*60 + t.Minute()
	nowMinutes := local.Hour()*60 + local.Minute()
	return nowMinutes > deadlineMinutes
}

func isWeekend(now time.Time, tz string) bool {
	wd := now.In(userLocation(tz)).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// EnsureSession returns today's session for the user, creating it from the
// user's current objective configuration if absent. Safe under concurrent
// calls: the unique (user, date) key collapses racing inserts.
func (s *SessionService) EnsureSession(ctx context.Context, userID int, now time.Time) (models.ObjectiveSession, error) {
	user, err := s.UserRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.ObjectiveSession{}, err
	}

	today := localDate(now, user.Timezone)
	session, err := s.SessionRepo.GetByUserAndDate(ctx, userID, today)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, models.ErrSessionNotFound) {
		return models.ObjectiveSession{}, err
	}

	_, err = s.SessionRepo.CreateIfAbsent(ctx, models.ObjectiveSession{
		UserID:            userID,
		SessionDate:       today,
		ObjectiveType:     user.ObjectiveType,
		TargetCount:       user.TargetCount,
		Deadline:          user.Deadline,
		PayoutAmountCents: user.PledgeAmountCents,
	})
	if err != nil {
		return models.ObjectiveSession{}, err
	}
	return s.SessionRepo.GetByUserAndDate(ctx, userID, today)
}

// LogProgress adds a completed-count delta to today's session. The session
// must already exist.
func (s *SessionService) LogProgress(ctx context.Context, userID, delta int, now time.Time) (models.ObjectiveSession, error) {
	user, err := s.UserRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.ObjectiveSession{}, err
	}

	today := localDate(now, user.Timezone)
	if err := s.SessionRepo.AddProgress(ctx, userID, today, delta); err != nil {
		return models.ObjectiveSession{}, err
	}
	return s.SessionRepo.GetByUserAndDate(ctx, userID, today)
}

// ApplySettings merges the new objective configuration onto the user and
// rewrites today's session to match it. Logged progress is preserved and
// completion re-evaluated against the new target.
func (s *SessionService) ApplySettings(ctx context.Context, userID int, req models.ObjectiveSettingsRequest, now time.Time) (models.User, error) {
	user, err := s.UserRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
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
	if req.PledgeAmountCents != nil {
		user.PledgeAmountCents = *req.PledgeAmountCents
	}
	if req.PayoutDestination != nil {
		user.PayoutDestination = *req.PayoutDestination
	}

	updated, err := s.UserRepo.UpdateUser(ctx, user)
	if err != nil {
		return models.User{}, err
	}

	today := localDate(now, updated.Timezone)
	err = s.SessionRepo.ApplySettings(ctx, userID, today,
		updated.ObjectiveType, updated.TargetCount, updated.Deadline, updated.PledgeAmountCents)
	if err != nil {
		return models.User{}, err
	}
	return updated, nil
}

// CreateDailySessions materializes today's session for every payout-committed
// user that lacks one. "Today" is each user's local date, so the candidate
// list cannot be narrowed by any single calendar date; INSERT IGNORE turns
// already-covered users into no-ops and reruns into no-ops.
// Users on a weekdays recurrence are skipped on their local Saturday/Sunday.
func (s *SessionService) CreateDailySessions(ctx context.Context, now time.Time) (models.DailySessionsResult, error) {
	users, err := s.UserRepo.ListPayoutCommitted(ctx)
	if err != nil {
		return models.DailySessionsResult{}, err
	}

	var result models.DailySessionsResult
	for _, user := range users {
		if user.Recurrence == models.RecurrenceWeekdays && isWeekend(now, user.Timezone) {
			continue
		}
		today := localDate(now, user.Timezone)
		created, err := s.SessionRepo.CreateIfAbsent(ctx, models.ObjectiveSession{
			UserID:            user.ID,
			SessionDate:       today,
			ObjectiveType:     user.ObjectiveType,
			TargetCount:       user.TargetCount,
			Deadline:          user.Deadline,
			PayoutAmountCents: user.PledgeAmountCents,
		})
		if err != nil {
			return result, err
		}
		if !created {
			continue
		}
		session, err := s.SessionRepo.GetByUserAndDate(ctx, user.ID, today)
		if err != nil {
			return result, err
		}
		result.Created++
		result.Sessions = append(result.Sessions, session)
	}
	return result, nil
}
