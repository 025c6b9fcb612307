package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"stakefitBack/internal/models"
	"stakefitBack/internal/services"
)

type TransactionHandler struct {
	Service *services.TransactionService
}

func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := services.ParseUserID(r.URL.Query().Get(":userId"))
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if !authorizedFor(r, userID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	txns, err := h.Service.History(r.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(txns)
}
