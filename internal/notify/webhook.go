package notify

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// InboundSMS is a message received through the gateway webhook.
type InboundSMS struct {
	Phone     string
	Text      string
	MessageID string
}

// ParseInbound extracts sender, body and id from a webhook payload, trying
// the field names the gateway is known to use.
func ParseInbound(fields map[string]any) InboundSMS {
	return InboundSMS{
		Phone:     firstField(fields, "from_number", "from", "sender"),
		Text:      strings.TrimSpace(firstField(fields, "content", "message", "text", "body")),
		MessageID: firstField(fields, "id", "message_id"),
	}
}

func firstField(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok || raw == nil {
			continue
		}
		var value string
		switch v := raw.(type) {
		case string:
			value = v
		case float64:
			value = strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			value = v.String()
		default:
			value = fmt.Sprint(v)
		}
		if value != "" {
			return value
		}
	}
	return ""
}

// ValidateSecret compares the request secret with the configured one. With
// no configured secret every request passes and a warning is logged.
func ValidateSecret(configured, provided string, logger *zap.Logger) bool {
	if configured == "" {
		if logger != nil {
			logger.Warn("webhook secret not configured; skipping validation")
		}
		return true
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(provided)) == 1
}
