package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"stakefitBack/internal/models"
	"stakefitBack/internal/repositories"
)

func TestDeadlinePassed(t *testing.T) {
	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		tz       string
		deadline string
		want     bool
	}{
		{"past deadline", "UTC", "17:30", true},
		{"exact minute is not past", "UTC", "18:00", false},
		{"future deadline", "UTC", "21:00", false},
		{"unparseable counts as passed", "UTC", "half past nine", true},
		{"timezone shifts the comparison", "America/New_York", "15:00", false}, // 14:00 local
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deadlinePassed(now, tt.tz, tt.deadline); got != tt.want {
				t.Errorf("deadlinePassed(%q, %q) = %v, want %v", tt.tz, tt.deadline, got, tt.want)
			}
		})
	}
}

func TestLocalDateCrossesMidnight(t *testing.T) {
	// 02:00 UTC is still the previous evening in New York.
	now := time.Date(2026, 8, 30, 2, 0, 0, 0, time.UTC)
	if got := localDate(now, "America/New_York"); got != "2026-08-29" {
		t.Errorf("localDate = %q, want 2026-08-29", got)
	}
	if got := localDate(now, "UTC"); got != "2026-08-30" {
		t.Errorf("localDate = %q, want 2026-08-30", got)
	}
}

func TestUserLocationFallsBackOnBadTZ(t *testing.T) {
	loc := userLocation("Not/AZone")
	if loc.String() != models.DefaultTimezone {
		t.Errorf("location = %q, want %q", loc.String(), models.DefaultTimezone)
	}
}

func TestIsWeekend(t *testing.T) {
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	if !isWeekend(sunday, "UTC") {
		t.Error("2026-08-30 is a Sunday")
	}
	if isWeekend(monday, "UTC") {
		t.Error("2026-08-31 is a Monday")
	}
}

func TestCreateDailySessionsUsesEachUsersLocalDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	svc := &SessionService{
		SessionRepo: &repositories.SessionRepository{DB: db},
		UserRepo:    &repositories.UserRepository{DB: db},
	}

	// 20:00 UTC on the 30th is already the 31st at UTC+14. The batch must
	// create that user's session for their local date, not the UTC one.
	now := time.Date(2026, 8, 30, 20, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM users WHERE payout_committed").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "phone", "full_name", "password_hash", "balance_cents",
			"objective_type", "target_count", "deadline", "recurrence", "payout_destination",
			"selected_recipient_id", "pledge_amount_cents", "objective_committed",
			"payout_committed", "timezone", "created_at", "updated_at",
		}).AddRow(7, "payer@example.com", "", "Pat Doe", "", int64(1000),
			models.ObjectiveTypeCount, 50, "21:00", models.RecurrenceDaily, models.DestinationCharity,
			nil, int64(500), true, true, "Pacific/Kiritimati", now, nil))
	mock.ExpectExec("INSERT IGNORE INTO objective_sessions").
		WithArgs(7, "2026-08-31", models.ObjectiveTypeCount, 50, "21:00",
			models.SessionStatusPending, int64(500), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM objective_sessions WHERE user_id").
		WithArgs(7, "2026-08-31").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "session_date", "objective_type", "target_count",
			"completed_count", "deadline", "status", "payout_amount_cents",
			"payout_triggered", "transaction_id", "created_at", "updated_at",
		}).AddRow(1, 7, "2026-08-31", models.ObjectiveTypeCount, 50,
			0, "21:00", models.SessionStatusPending, int64(500),
			false, nil, now, nil))

	result, err := svc.CreateDailySessions(context.Background(), now)
	if err != nil {
		t.Fatalf("CreateDailySessions: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("created = %d, want 1", result.Created)
	}
	if result.Sessions[0].SessionDate != "2026-08-31" {
		t.Errorf("session date = %q, want 2026-08-31", result.Sessions[0].SessionDate)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestObjectiveMet(t *testing.T) {
	tests := []struct {
		name    string
		session models.ObjectiveSession
		want    bool
	}{
		{"count reached", models.ObjectiveSession{ObjectiveType: models.ObjectiveTypeCount, TargetCount: 50, CompletedCount: 50}, true},
		{"count short", models.ObjectiveSession{ObjectiveType: models.ObjectiveTypeCount, TargetCount: 50, CompletedCount: 49}, false},
		{"limit held", models.ObjectiveSession{ObjectiveType: models.ObjectiveTypeLimit, TargetCount: 120, CompletedCount: 90}, true},
		{"limit blown", models.ObjectiveSession{ObjectiveType: models.ObjectiveTypeLimit, TargetCount: 120, CompletedCount: 121}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.ObjectiveMet(); got != tt.want {
				t.Errorf("ObjectiveMet() = %v, want %v", got, tt.want)
			}
		})
	}
}
