package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-intake/internal/domain"
)

// Classification is the fixed-shape record a classifier derives from raw text.
type Classification struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func (c Classification) complete() bool {
	return c.Category != "" && c.Title != "" && c.Address != "" && c.Description != ""
}

// Classifier extracts a classification from a free-text report.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

type fallbackChain struct {
	primary Classifier
	logger  *zap.Logger
}

// WithFallback wraps primary so that any failure, empty field or missing
// primary is answered by the rule-based classifier. The returned classifier
// never returns an error.
func WithFallback(primary Classifier, logger *zap.Logger) Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fallbackChain{primary: primary, logger: logger}
}

func (f *fallbackChain) Classify(ctx context.Context, text string) (Classification, error) {
	if f.primary == nil {
		return Fallback(text), nil
	}
	result, err := f.primary.Classify(ctx, text)
	if err != nil {
		f.logger.Warn("classifier failed, using rule-based fallback", zap.Error(err))
		return Fallback(text), nil
	}
	if !result.complete() {
		f.logger.Warn("classifier returned incomplete record, using rule-based fallback")
		return Fallback(text), nil
	}
	return result, nil
}

// RemoteClassifier asks an HTTP text-understanding service for address, title
// and description. The category stays rule-based unless the service names a
// known taxonomy value.
type RemoteClassifier struct {
	endpoint string
	client   *http.Client
}

// NewRemoteClassifier builds a client for endpoint.
func NewRemoteClassifier(endpoint string, timeout time.Duration) *RemoteClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteClassifier{
		endpoint: strings.TrimSpace(endpoint),
		client:   &http.Client{Timeout: timeout},
	}
}

type remoteRequest struct {
	Text string `json:"text"`
}

// Classify posts text and decodes the service's answer.
func (r *RemoteClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	if r == nil || r.endpoint == "" {
		return Classification{}, fmt.Errorf("remote classifier not configured")
	}

	body, err := json.Marshal(remoteRequest{Text: text})
	if err != nil {
		return Classification{}, fmt.Errorf("marshal classify request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return Classification{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("send classify request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Classification{}, fmt.Errorf("read classify response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Classification{}, fmt.Errorf("classifier status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed Classification
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Classification{}, fmt.Errorf("decode classify response: %w", err)
	}
	parsed.Title = strings.TrimSpace(parsed.Title)
	parsed.Address = strings.TrimSpace(parsed.Address)
	parsed.Description = strings.TrimSpace(parsed.Description)
	if !domain.IsKnownCategory(parsed.Category) {
		parsed.Category = CategoryFor(text)
	}
	return parsed, nil
}
