package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"stakefitBack/internal/models"
	"stakefitBack/internal/services"
)

type UserHandler struct {
	Service *services.UserService
}

// UpsertProfile is the combined create-or-update endpoint keyed by email.
func (h *UserHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.Service.UpsertProfile(r.Context(), req)
	if err != nil {
		if ve, ok := models.AsValidation(err); ok {
			http.Error(w, ve.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, models.ErrDuplicateEmail) {
			http.Error(w, "A user with this email already exists", http.StatusConflict)
			return
		}
		log.Printf("UpsertProfile error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.Service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		log.Printf("SignIn error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *UserHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := services.ParseUserID(r.URL.Query().Get(":userId"))
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	if !authorizedFor(r, userID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	balance, err := h.Service.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balance)
}

func (h *UserHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		log.Printf("RequestPasswordReset error: %v", err)
		http.Error(w, "Failed to send reset code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "sent"})
}

func (h *UserHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyResetCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.VerifyResetCode(r.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, models.ErrInvalidResetCode) {
			http.Error(w, "Invalid or expired reset code", http.StatusUnauthorized)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "valid"})
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.NewPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		if ve, ok := models.AsValidation(err); ok {
			http.Error(w, ve.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, models.ErrInvalidResetCode) {
			http.Error(w, "Invalid or expired reset code", http.StatusUnauthorized)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
}
