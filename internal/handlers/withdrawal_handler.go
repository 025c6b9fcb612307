package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"stakefitBack/internal/models"
	"stakefitBack/internal/services"
)

type WithdrawalHandler struct {
	Service *services.WithdrawalService
}

func (h *WithdrawalHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req models.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !authorizedFor(r, req.UserID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	resp, err := h.Service.Withdraw(r.Context(), req)
	if err != nil {
		if ve, ok := models.AsValidation(err); ok {
			http.Error(w, ve.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, models.ErrInsufficientFunds) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error":           "insufficient funds",
				"available_cents": resp.AvailableCents,
			})
			return
		}
		if errors.Is(err, models.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("Withdraw error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// ProcessQueue retries the pending withdrawal queue. Called by the internal
// scheduler, not the mobile client.
func (h *WithdrawalHandler) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.ProcessQueue(r.Context())
	if err != nil {
		log.Printf("ProcessQueue error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *WithdrawalHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	userID, err := services.ParseUserID(r.URL.Query().Get(":userId"))
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if !authorizedFor(r, userID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	pending, err := h.Service.PendingForUser(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if pending == nil {
		pending = []models.WithdrawalRequest{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pending)
}
