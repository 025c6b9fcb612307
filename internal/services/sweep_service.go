package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"stakefitBack/internal/models"
	"stakefitBack/internal/repositories"
)

const (
	sweepLockKey = "sweep:lock"
	sweepLockTTL = 5 * time.Minute

	// Sessions more than this far in the past are treated as abandoned and
	// never swept.
	sweepStalenessDays = 2
)

// SweepLocker serializes sweep passes across processes with a redis
// SET NX EX lock, so overlapping cron triggers cannot both run.
type SweepLocker struct {
	RDB *redis.Client
}

func (l *SweepLocker) Acquire(ctx context.Context) (bool, error) {
	if l == nil || l.RDB == nil {
		// No redis configured: single-process deployment, the per-session
		// claim still protects every payout.
		return true, nil
	}
	return l.RDB.SetNX(ctx, sweepLockKey, "1", sweepLockTTL).Result()
}

func (l *SweepLocker) Release(ctx context.Context) {
	if l == nil || l.RDB == nil {
		return
	}
	l.RDB.Del(ctx, sweepLockKey)
}

type SweepService struct {
	SessionRepo   *repositories.SessionRepository
	PayoutRepo    *repositories.PayoutRepository
	UserRepo      *repositories.UserRepository
	RecipientRepo *repositories.RecipientRepository
	Locker        *SweepLocker
	ErrorLog      *log.Logger
}

func (s *SweepService) logf(format string, args ...any) {
	if s.ErrorLog != nil {
		s.ErrorLog.Printf(format, args...)
	}
}

// Run executes one sweep pass: find every unswept session whose deadline has
// passed and settle it. One failing session never aborts the others, and a
// session is paid out at most once: the payout_triggered claim is won before
// any money moves, and the monetary mutation itself is one transaction.
func (s *SweepService) Run(ctx context.Context, now time.Time) (models.SweepResult, error) {
	acquired, err := s.Locker.Acquire(ctx)
	if err != nil {
		return models.SweepResult{}, err
	}
	if !acquired {
		return models.SweepResult{}, models.ErrSweepInProgress
	}
	defer s.Locker.Release(ctx)

	candidates, err := s.SessionRepo.ListSweepCandidates(ctx)
	if err != nil {
		return models.SweepResult{}, err
	}

	result := models.SweepResult{StartedAt: now}
	for _, c := range candidates {
		result.Scanned++
		outcome := s.settle(ctx, c, now)
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome.Outcome {
		case models.SweepOutcomeMissed:
			result.Missed++
		case models.SweepOutcomeAccepted:
			result.Accepted++
		case models.SweepOutcomeFailed:
			result.Failed++
		default:
			result.Skipped++
		}
	}
	return result, nil
}

func (s *SweepService) settle(ctx context.Context, c models.SessionCandidate, now time.Time) models.SweepOutcome {
	out := models.SweepOutcome{SessionID: c.Session.ID, UserID: c.PayerID}

	today := localDate(now, c.Timezone)
	sessionDate, err := time.Parse("2006-01-02", c.Session.SessionDate)
	if err != nil {
		out.Outcome = models.SweepOutcomeSkipped
		out.Reason = "unparseable session date"
		return out
	}
	todayDate, _ := time.Parse("2006-01-02", today)

	age := int(todayDate.Sub(sessionDate).Hours() / 24)
	if age > sweepStalenessDays {
		out.Outcome = models.SweepOutcomeSkipped
		out.Reason = "stale"
		return out
	}
	if age < 0 {
		out.Outcome = models.SweepOutcomeSkipped
		out.Reason = "not yet due"
		return out
	}
	if age == 0 && !deadlinePassed(now, c.Timezone, c.Session.Deadline) {
		out.Outcome = models.SweepOutcomeSkipped
		out.Reason = "deadline not reached"
		return out
	}

	// Correction path: the objective was met after all. Close the session
	// with the guard set and move no money.
	if c.Session.ObjectiveMet() {
		claimed, err := s.SessionRepo.ClaimForPayout(ctx, c.Session.ID)
		if err != nil {
			s.logf("sweep: claim session %d: %v", c.Session.ID, err)
			out.Outcome = models.SweepOutcomeFailed
			out.Reason = err.Error()
			return out
		}
		if !claimed {
			out.Outcome = models.SweepOutcomeClaimed
			return out
		}
		if err := s.SessionRepo.MarkAccepted(ctx, c.Session.ID); err != nil {
			s.logf("sweep: mark accepted session %d: %v", c.Session.ID, err)
			out.Outcome = models.SweepOutcomeFailed
			out.Reason = err.Error()
			return out
		}
		out.Outcome = models.SweepOutcomeAccepted
		return out
	}

	if c.PayerBalanceCents <= 0 || c.Session.PayoutAmountCents <= 0 {
		out.Outcome = models.SweepOutcomeSkipped
		out.Reason = "nothing at stake"
		return out
	}

	var recipientUserID, recipientID *int
	if c.Destination == models.DestinationCustom {
		if c.RecipientID == nil {
			out.Outcome = models.SweepOutcomeSkipped
			out.Reason = "no recipient selected"
			return out
		}
		rec, err := s.RecipientRepo.GetByID(ctx, *c.RecipientID)
		if err != nil {
			s.logf("sweep: recipient %d for session %d: %v", *c.RecipientID, c.Session.ID, err)
			out.Outcome = models.SweepOutcomeFailed
			out.Reason = "recipient lookup failed"
			return out
		}
		recipientUser, err := s.UserRepo.GetUserByEmail(ctx, rec.Email)
		if err != nil {
			s.logf("sweep: recipient user %q for session %d: %v", rec.Email, c.Session.ID, err)
			out.Outcome = models.SweepOutcomeFailed
			out.Reason = "recipient account lookup failed"
			return out
		}
		recipientUserID = &recipientUser.ID
		recipientID = c.RecipientID
	}

	claimed, err := s.SessionRepo.ClaimForPayout(ctx, c.Session.ID)
	if err != nil {
		s.logf("sweep: claim session %d: %v", c.Session.ID, err)
		out.Outcome = models.SweepOutcomeFailed
		out.Reason = err.Error()
		return out
	}
	if !claimed {
		out.Outcome = models.SweepOutcomeClaimed
		return out
	}

	_, err = s.PayoutRepo.ExecutePayout(ctx, c, recipientUserID, recipientID)
	if err != nil {
		// Release the claim so the next pass retries; the rolled back
		// transaction moved no money.
		if relErr := s.SessionRepo.ReleaseClaim(ctx, c.Session.ID); relErr != nil {
			s.logf("sweep: release claim session %d: %v", c.Session.ID, relErr)
		}
		if errors.Is(err, models.ErrInsufficientFunds) {
			out.Outcome = models.SweepOutcomeSkipped
			out.Reason = "nothing at stake"
			return out
		}
		s.logf("sweep: payout session %d: %v", c.Session.ID, err)
		out.Outcome = models.SweepOutcomeFailed
		out.Reason = err.Error()
		return out
	}

	out.Outcome = models.SweepOutcomeMissed
	return out
}
