package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	"CoPenny/pkg/logger"
)

// AlertHandler consumes alert events off the bus, persists them to the
// user's history and sends an email notification. It implements the
// kafka consumer's MessageHandler contract.
type AlertHandler struct {
	topic string
	users repository.UserStore
	email repository.EmailSender
	log   *logger.Logger
}

// NewAlertHandler creates the consumer-side handler.
func NewAlertHandler(topic string, users repository.UserStore, email repository.EmailSender, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		topic: topic,
		users: users,
		email: email,
		log:   log,
	}
}

// Topic returns the subscribed topic.
func (h *AlertHandler) Topic() string { return h.topic }

// Handle processes one alert event. Persistence failure is returned so
// the consumer retries; email failure is only logged, a lost mail is
// not worth re-processing the event.
func (h *AlertHandler) Handle(ctx context.Context, data []byte) error {
	var a models.Alert
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode alert event: %w", err)
	}

	if err := h.users.SaveAlert(ctx, &a); err != nil {
		return fmt.Errorf("persist alert: %w", err)
	}

	if h.email != nil {
		if user, err := h.users.GetUser(ctx, a.UserID); err == nil && user != nil && user.Email != "" {
			subject := fmt.Sprintf("Co Penny alert: %s", a.Title)
			body := fmt.Sprintf("Hi %s,\n\n%s\n\nSeverity: %s\n\n— Co Penny", user.Name, a.Message, a.Severity)
			if err := h.email.Send(user.Email, subject, body); err != nil && h.log != nil {
				h.log.Warn("alert email failed", logger.Error(err))
			}
		}
	}

	if h.log != nil {
		h.log.Info("alert handled",
			logger.String("user_id", a.UserID),
			logger.String("type", a.Type),
			logger.String("severity", a.Severity),
		)
	}
	return nil
}
