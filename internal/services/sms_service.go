package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// SMSService sends messages through the Mobizon-compatible gateway. The
// gateway answers 200 even for rejected messages; the embedded code decides.
type SMSService struct {
	APIKey   string
	Endpoint string
}

const defaultSMSEndpoint = "https://api.mobizon.kz/service/message/sendsmsmessage"

func (s *SMSService) Send(phone, message string) error {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultSMSEndpoint
	}

	data := url.Values{}
	data.Set("apiKey", s.APIKey)
	data.Set("recipient", phone)
	data.Set("text", message)

	resp, err := http.PostForm(endpoint, data)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("sms read response: %w", err)
	}

	var result struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("sms parse response: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("sms gateway: %s (code %d)", result.Message, result.Code)
	}
	return nil
}
