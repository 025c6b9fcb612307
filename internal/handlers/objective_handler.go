package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"stakefitBack/internal/models"
	"stakefitBack/internal/services"
)

type ObjectiveHandler struct {
	Sessions *services.SessionService
	Sweep    *services.SweepService
}

// CreateDailySessions batch-creates today's session for every committed
// user. Safe to call repeatedly; already-created users are skipped.
func (h *ObjectiveHandler) CreateDailySessions(w http.ResponseWriter, r *http.Request) {
	result, err := h.Sessions.CreateDailySessions(r.Context(), time.Now())
	if err != nil {
		log.Printf("CreateDailySessions error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetToday returns today's session, creating it lazily from the user's
// current configuration if absent.
func (h *ObjectiveHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	userID, err := services.ParseUserID(r.URL.Query().Get(":userId"))
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if !authorizedFor(r, userID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	session, err := h.Sessions.EnsureSession(r.Context(), userID, time.Now())
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

func (h *ObjectiveHandler) LogProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := services.ParseUserID(r.URL.Query().Get(":userId"))
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if !authorizedFor(r, userID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var req models.LogProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.Sessions.LogProgress(r.Context(), userID, req.CompletedCount, time.Now())
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			http.Error(w, "No session for today", http.StatusNotFound)
			return
		}
		if errors.Is(err, models.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

func (h *ObjectiveHandler) ApplySettings(w http.ResponseWriter, r *http.Request) {
	userID, err := services.ParseUserID(r.URL.Query().Get(":userId"))
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if !authorizedFor(r, userID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var req models.ObjectiveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.Sessions.ApplySettings(r.Context(), userID, req, time.Now())
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// CheckMissed runs one payout sweep pass. A pass already in flight answers
// 409 instead of running twice.
func (h *ObjectiveHandler) CheckMissed(w http.ResponseWriter, r *http.Request) {
	result, err := h.Sweep.Run(r.Context(), time.Now())
	if err != nil {
		if errors.Is(err, models.ErrSweepInProgress) {
			http.Error(w, "A sweep is already running", http.StatusConflict)
			return
		}
		log.Printf("CheckMissed error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
