package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"stakefitBack/internal/models"
	"stakefitBack/internal/services"
)

type InviteHandler struct {
	Service *services.InviteService
}

func (h *InviteHandler) inviteError(w http.ResponseWriter, err error) {
	if ve, ok := models.AsValidation(err); ok {
		http.Error(w, ve.Error(), http.StatusBadRequest)
		return
	}
	switch {
	case errors.Is(err, models.ErrInviteNotFound):
		http.Error(w, "Invite code not found", http.StatusNotFound)
	case errors.Is(err, models.ErrInviteAlreadyUsed):
		http.Error(w, "Invite code already used", http.StatusConflict)
	case errors.Is(err, models.ErrUserNotFound):
		// The mobile client rewrites this one into a guided "save your
		// profile first" message.
		http.Error(w, "payer user not found", http.StatusNotFound)
	case errors.Is(err, models.ErrRecipientNotFound):
		http.Error(w, "Recipient not found", http.StatusNotFound)
	default:
		log.Printf("invite error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.SendSMS = true
	if !authorizedFor(r, req.PayerID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	invite, err := h.Service.CreateInvite(r.Context(), req)
	if err != nil {
		h.inviteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(invite)
}

// CreateInviteCodeOnly mints or re-sends a code without dispatching SMS; the
// client shares it through its own channel.
func (h *InviteHandler) CreateInviteCodeOnly(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.SendSMS = false
	if !authorizedFor(r, req.PayerID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	invite, err := h.Service.CreateInvite(r.Context(), req)
	if err != nil {
		h.inviteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(invite)
}

func (h *InviteHandler) VerifyInvite(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get(":code")
	if code == "" {
		http.Error(w, "Missing invite code", http.StatusBadRequest)
		return
	}

	resp, err := h.Service.VerifyInvite(r.Context(), code)
	if err != nil {
		h.inviteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *InviteHandler) RecipientSignup(w http.ResponseWriter, r *http.Request) {
	var req models.AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	recipient, err := h.Service.AcceptInvite(r.Context(), req)
	if err != nil {
		h.inviteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(recipient)
}

func (h *InviteHandler) RecipientOnboarding(w http.ResponseWriter, r *http.Request) {
	var req models.OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	recipient, err := h.Service.Onboard(r.Context(), req)
	if err != nil {
		h.inviteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(recipient)
}

func (h *InviteHandler) SelectRecipient(w http.ResponseWriter, r *http.Request) {
	var req models.SelectRecipientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !authorizedFor(r, req.PayerID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.Service.SelectRecipient(r.Context(), req.PayerID, req.RecipientID); err != nil {
		h.inviteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "selected"})
}

func (h *InviteHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	payerID, err := services.ParseUserID(r.URL.Query().Get(":payerId"))
	if err != nil {
		http.Error(w, "Invalid payer ID", http.StatusBadRequest)
		return
	}

	if !authorizedFor(r, payerID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	views, err := h.Service.ListInvites(r.Context(), payerID)
	if err != nil {
		h.inviteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}
