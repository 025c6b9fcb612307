package models

import (
	"time"
)

const (
	SessionStatusPending    = "pending"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusMissed     = "missed"
	SessionStatusAccepted   = "accepted"
)

// ObjectiveSession is the per-user-per-day record of progress toward the
// configured objective. (user_id, session_date) is unique in the database, so
// concurrent ensure calls cannot produce duplicates.
type ObjectiveSession struct {
	ID                int        `json:"id"`
	UserID            int        `json:"user_id"`
	SessionDate       string     `json:"session_date"` // "YYYY-MM-DD" in the user's timezone
	ObjectiveType     string     `json:"objective_type"`
	TargetCount       int        `json:"target_count"`
	CompletedCount    int        `json:"completed_count"`
	Deadline          string     `json:"deadline"` // "HH:MM" local time-of-day
	Status            string     `json:"status"`
	PayoutAmountCents int64      `json:"payout_amount_cents"`
	PayoutTriggered   bool       `json:"payout_triggered"`
	TransactionID     *int       `json:"transaction_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// ObjectiveMet reports whether the session's objective is satisfied. Count
// objectives require reaching the target; limit objectives require staying
// under it.
func (s ObjectiveSession) ObjectiveMet() bool {
	if s.ObjectiveType == ObjectiveTypeLimit {
		return s.CompletedCount <= s.TargetCount
	}
	return s.CompletedCount >= s.TargetCount
}

type LogProgressRequest struct {
	CompletedCount int `json:"completed_count"`
}

type ObjectiveSettingsRequest struct {
	ObjectiveType     *string `json:"objective_type"`
	TargetCount       *int    `json:"target_count"`
	Deadline          *string `json:"deadline"`
	Recurrence        *string `json:"recurrence"`
	PledgeAmountCents *int64  `json:"pledge_amount_cents"`
	PayoutDestination *string `json:"payout_destination"`
}

// SessionCandidate joins a sweep-eligible session with the owner fields the
// sweep needs to evaluate it.
type SessionCandidate struct {
	Session           ObjectiveSession
	PayerID           int
	PayerBalanceCents int64
	Timezone          string
	Destination       string
	RecipientID       *int
}

const (
	SweepOutcomeMissed   = "missed"    // payout executed
	SweepOutcomeAccepted = "accepted"  // objective met after all, corrected
	SweepOutcomeSkipped  = "skipped"   // deadline not reached, stale, or nothing at stake
	SweepOutcomeFailed   = "failed"    // payout attempted but errored; session released for retry
	SweepOutcomeClaimed  = "duplicate" // another pass already claimed the session
)

type SweepOutcome struct {
	SessionID int    `json:"session_id"`
	UserID    int    `json:"user_id"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
}

type SweepResult struct {
	Scanned   int            `json:"scanned"`
	Missed    int            `json:"missed"`
	Accepted  int            `json:"accepted"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	Outcomes  []SweepOutcome `json:"outcomes"`
	StartedAt time.Time      `json:"started_at"`
}

type DailySessionsResult struct {
	Created  int                `json:"created"`
	Sessions []ObjectiveSession `json:"sessions"`
}
