package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInsufficientLiquidity is returned when the processor rejects a transfer
// because the platform account cannot cover it right now. Such transfers are
// queued and retried instead of failed.
var ErrInsufficientLiquidity = errors.New("payway: insufficient platform liquidity")

type PayWayConfig struct {
	Username   string
	Password   string
	MerchantID string

	// Acquiring base, e.g. https://api.payway.example/ledger-api
	BaseURL string

	Client *http.Client
	Logger *slog.Logger
}

// PayWayService is the narrow client for the payment processor: payee account
// provisioning, instrument attachment and ledger transfers. Nothing else of
// the processor API is wrapped.
type PayWayService struct {
	username   string
	password   string
	merchantID string
	baseURL    *url.URL

	httpClient *http.Client
	logger     *slog.Logger

	// jwt cache
	mu          sync.Mutex
	accessToken string
	tokenExp    time.Time
}

func NewPayWayService(cfg PayWayConfig) (*PayWayService, error) {
	if strings.TrimSpace(cfg.Username) == "" ||
		strings.TrimSpace(cfg.Password) == "" ||
		strings.TrimSpace(cfg.MerchantID) == "" ||
		strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("payway: username/password/merchant_id/base_url are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	s := &PayWayService{
		username:   cfg.Username,
		password:   cfg.Password,
		merchantID: cfg.MerchantID,
		baseURL:    u,
		httpClient: client,
		logger:     logger,
	}
	logger.Info("PayWay initialized", "baseURL", u.Redacted())
	return s, nil
}

// PayWayError carries the raw processor response for non-2xx replies.
type PayWayError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *PayWayError) Error() string {
	return fmt.Sprintf("payway: %s %s", e.Status, e.Body)
}

func (s *PayWayService) ensureToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Until(s.tokenExp) > 2*time.Minute {
		return s.accessToken, nil
	}
	type signInReq struct {
		User       string `json:"user"`
		Password   string `json:"password"`
		MerchantID string `json:"merchant_id"`
	}
	type signInResp struct {
		AccessToken string `json:"access_token"`
	}

	endpoint := *s.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/v1/auth/sign-in")
	body, _ := json.Marshal(signInReq{
		User:       s.username,
		Password:   s.password,
		MerchantID: s.merchantID,
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("auth failed: %s %s", resp.Status, strings.TrimSpace(string(b)))
	}
	var out signInResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("auth decode: %w", err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", errors.New("auth: empty access_token")
	}
	s.accessToken = out.AccessToken
	s.tokenExp = time.Now().Add(55 * time.Minute)
	return s.accessToken, nil
}

func (s *PayWayService) do(ctx context.Context, method, apiPath string, payload any, out any) error {
	token, err := s.ensureToken(ctx)
	if err != nil {
		return err
	}

	endpoint := *s.baseURL
	endpoint.Path = path.Join(endpoint.Path, apiPath)

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return &PayWayError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(b)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("payway decode: %w", err)
	}
	return nil
}

type PayeeAccountRequest struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	SSNLast4    string `json:"ssn_last4"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type PayeeAccountResponse struct {
	AccountID string `json:"account_id"`
	Status    string `json:"status"`
}

// CreatePayeeAccount provisions a processor account for an invited recipient.
func (s *PayWayService) CreatePayeeAccount(ctx context.Context, req PayeeAccountRequest) (*PayeeAccountResponse, error) {
	logger := s.logger.With("op", "CreatePayeeAccount")
	var out PayeeAccountResponse
	if err := s.do(ctx, http.MethodPost, "/api/v1/payees", req, &out); err != nil {
		logger.Error("create payee failed", "err", err)
		return nil, err
	}
	logger.Info("payee created", "accountID", out.AccountID, "status", out.Status)
	return &out, nil
}

// AttachInstrument binds a tokenized payment instrument to a payee account.
func (s *PayWayService) AttachInstrument(ctx context.Context, accountID, paymentToken string) error {
	logger := s.logger.With("op", "AttachInstrument", "accountID", accountID)
	payload := map[string]string{"token": paymentToken}
	if err := s.do(ctx, http.MethodPost, "/api/v1/payees/"+accountID+"/instruments", payload, nil); err != nil {
		logger.Error("attach instrument failed", "err", err)
		return err
	}
	logger.Info("instrument attached")
	return nil
}

// DeletePayeeAccount rolls back a provisioned account when the database write
// after it fails.
func (s *PayWayService) DeletePayeeAccount(ctx context.Context, accountID string) error {
	return s.do(ctx, http.MethodDelete, "/api/v1/payees/"+accountID, nil, nil)
}

type TransferResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// CreateTransfer moves amountCents from the platform account to the payee.
// The uuid idempotency key makes a retried call safe on the processor side.
func (s *PayWayService) CreateTransfer(ctx context.Context, accountID string, amountCents int64) (*TransferResponse, error) {
	logger := s.logger.With("op", "CreateTransfer", "accountID", accountID)
	payload := map[string]any{
		"account_id":      accountID,
		"amount_cents":    amountCents,
		"currency":        "USD",
		"idempotency_key": uuid.New().String(),
	}
	var out TransferResponse
	err := s.do(ctx, http.MethodPost, "/api/v1/transfers", payload, &out)
	if err != nil {
		var apiErr *PayWayError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict &&
			strings.Contains(apiErr.Body, "insufficient") {
			return nil, ErrInsufficientLiquidity
		}
		logger.Error("transfer failed", "err", err)
		return nil, err
	}
	logger.Info("transfer created", "transferID", out.TransferID, "status", out.Status)
	return &out, nil
}
