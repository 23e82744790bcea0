package verification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// TwilioConfig holds Verify service credentials.
type TwilioConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	ServiceSID string
	Timeout    time.Duration
}

// TwilioVerifier delegates delivery and checking to Twilio Verify.
type TwilioVerifier struct {
	client     *resty.Client
	serviceSID string
}

type twilioVerification struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	Valid  bool   `json:"valid"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// NewTwilioVerifier builds a Verify API client.
func NewTwilioVerifier(cfg TwilioConfig) *TwilioVerifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &TwilioVerifier{client: client, serviceSID: cfg.ServiceSID}
}

// SendCode starts an SMS verification.
func (v *TwilioVerifier) SendCode(ctx context.Context, phone string) error {
	var out twilioVerification
	var apiErr twilioError
	resp, err := v.client.R().
		SetContext(ctx).
		SetPathParam("service", v.serviceSID).
		SetFormData(map[string]string{"To": phone, "Channel": "sms"}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/Services/{service}/Verifications")
	if err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send verification code: twilio status %d: %s", resp.StatusCode(), apiErr.Message)
	}
	return nil
}

// CheckCode reports whether Twilio approved the code. An expired or unknown
// verification is a plain mismatch.
func (v *TwilioVerifier) CheckCode(ctx context.Context, phone, code string) (bool, error) {
	var out twilioVerification
	var apiErr twilioError
	resp, err := v.client.R().
		SetContext(ctx).
		SetPathParam("service", v.serviceSID).
		SetFormData(map[string]string{"To": phone, "Code": code}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/Services/{service}/VerificationCheck")
	if err != nil {
		return false, fmt.Errorf("verify code: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	if resp.IsError() {
		return false, fmt.Errorf("verify code: twilio status %d: %s", resp.StatusCode(), apiErr.Message)
	}
	return out.Status == "approved", nil
}
