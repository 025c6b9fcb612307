package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUpsertProfileRejectsBadBody(t *testing.T) {
	h := &UserHandler{}

	req := httptest.NewRequest(http.MethodPost, "/user/save-user-info", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()

	h.UpsertProfile(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestGetBalanceRejectsBadUserID(t *testing.T) {
	h := &UserHandler{}

	req := httptest.NewRequest(http.MethodGet, "/user/abc/balance?:userId=abc", nil)
	rr := httptest.NewRecorder()

	h.GetBalance(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestGetBalanceForbiddenForOtherUser(t *testing.T) {
	h := &UserHandler{}

	// Token belongs to user 99; the path asks for user 7.
	req := httptest.NewRequest(http.MethodGet, "/users/7/balance?:userId=7", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserIDContextKey, 99))
	rr := httptest.NewRecorder()

	h.GetBalance(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestSignInRejectsBadBody(t *testing.T) {
	h := &UserHandler{}

	req := httptest.NewRequest(http.MethodPost, "/user/sign_in", strings.NewReader(""))
	rr := httptest.NewRecorder()

	h.SignIn(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
