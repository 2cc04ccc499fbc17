package handlers

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-intake/internal/notify"
	"github.com/spec-kit/civic-intake/internal/service"
	apperrors "github.com/spec-kit/civic-intake/pkg/util/errorutil"
)

// SMSHandler receives inbound messages from the SMS gateway.
type SMSHandler struct {
	service *service.IssueService
	secret  string
	logger  *zap.Logger
}

// NewSMSHandler constructs handler.
func NewSMSHandler(issueService *service.IssueService, webhookSecret string, logger *zap.Logger) *SMSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMSHandler{service: issueService, secret: webhookSecret, logger: logger}
}

// Webhook POST /sms/webhook. Accepts JSON or form-encoded payloads.
func (h *SMSHandler) Webhook(c *fiber.Ctx) error {
	fields, err := webhookFields(c)
	if err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	provided := c.Get("X-Telerivet-Secret")
	if provided == "" {
		if s, ok := fields["secret"].(string); ok {
			provided = s
		}
	}
	if !notify.ValidateSecret(h.secret, provided, h.logger) {
		h.logger.Warn("rejected sms webhook with bad secret", zap.String("ip", c.IP()))
		return apperrors.NewForbidden("invalid webhook secret")
	}

	inbound := notify.ParseInbound(fields)
	outcome, err := h.service.HandleSMS(c.UserContext(), service.SMSMessage{
		Phone:     inbound.Phone,
		Text:      inbound.Text,
		MessageID: inbound.MessageID,
	})
	if err != nil {
		return err
	}

	data := fiber.Map{"kind": outcome.Kind, "message_id": inbound.MessageID}
	switch outcome.Kind {
	case service.SMSSubmitted:
		data["ticketId"] = outcome.Submit.Issue.TicketID
		data["created"] = outcome.Submit.Created
	case service.SMSLookup, service.SMSNotFound:
		data["ticketId"] = outcome.TicketID
	case service.SMSConfirmed:
		confirmed := make([]string, 0, len(outcome.Confirmed))
		for _, issue := range outcome.Confirmed {
			confirmed = append(confirmed, issue.TicketID)
		}
		data["confirmed"] = confirmed
	}
	return c.JSON(fiber.Map{"data": data})
}

func webhookFields(c *fiber.Ctx) (map[string]any, error) {
	fields := map[string]any{}
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEApplicationJSON) {
		decoder := json.NewDecoder(bytes.NewReader(c.Body()))
		decoder.UseNumber()
		if err := decoder.Decode(&fields); err != nil {
			return nil, err
		}
		return fields, nil
	}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		fields[string(key)] = string(value)
	})
	return fields, nil
}
