package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/civic-intake/internal/config"
)

// ErrSMSNotConfigured is returned when the gateway has no credentials.
var ErrSMSNotConfigured = errors.New("sms gateway not configured")

// SMSSender delivers text messages.
type SMSSender interface {
	Send(ctx context.Context, to, message string) error
}

// TelerivetClient sends SMS through the Telerivet REST API.
type TelerivetClient struct {
	baseURL   string
	apiKey    string
	projectID string
	phoneID   string
	asciiOnly bool
	client    *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewTelerivetClient builds a client from configuration.
func NewTelerivetClient(cfg config.SMSConfig, logger *zap.Logger) *TelerivetClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	c := &TelerivetClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		projectID: cfg.ProjectID,
		phoneID:   cfg.PhoneID,
		asciiOnly: cfg.ASCIIOnly,
		client:    &http.Client{Timeout: cfg.Timeout()},
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger,
	}
	if !c.Configured() {
		logger.Warn("telerivet credentials not configured; sms disabled")
	}
	return c
}

// Configured reports whether the client has credentials.
func (c *TelerivetClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.projectID != ""
}

type sendRequest struct {
	ToNumber string `json:"to_number"`
	Content  string `json:"content"`
	PhoneID  string `json:"phone_id,omitempty"`
}

type sendResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Send posts one message, waiting on the rate limiter first.
func (c *TelerivetClient) Send(ctx context.Context, to, message string) error {
	if !c.Configured() {
		return ErrSMSNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sms rate limiter: %w", err)
	}
	if c.asciiOnly {
		message = unidecode.Unidecode(message)
	}

	body, err := json.Marshal(sendRequest{ToNumber: to, Content: message, PhoneID: c.phoneID})
	if err != nil {
		return fmt.Errorf("marshal sms: %w", err)
	}
	url := fmt.Sprintf("%s/projects/%s/messages/send", c.baseURL, c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read sms response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telerivet status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		c.logger.Warn("unparseable telerivet response", zap.Error(err))
	}
	c.logger.Info("sms sent",
		zap.String("to", to),
		zap.String("message_id", parsed.ID),
		zap.String("status", parsed.Status),
		zap.Int("length", len([]rune(message))))
	return nil
}
