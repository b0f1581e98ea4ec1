package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"CoPenny/internal/domain/models"
)

type capturingEmail struct {
	to, subject, body string
	err               error
	sent              int
}

func (e *capturingEmail) Send(to, subject, body string) error {
	e.sent++
	e.to, e.subject, e.body = to, subject, body
	return e.err
}

func encodeAlert(t *testing.T, a models.Alert) []byte {
	t.Helper()
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal alert: %v", err)
	}
	return b
}

func TestAlertHandlerPersistsAndEmails(t *testing.T) {
	users := newFakeUserStore()
	users.users["u1"] = &models.User{ID: "u1", Email: "u1@example.com", Name: "Asha"}
	email := &capturingEmail{}
	h := NewAlertHandler("copenny.alerts", users, email, nil)

	if h.Topic() != "copenny.alerts" {
		t.Fatalf("unexpected topic %q", h.Topic())
	}

	alert := models.Alert{
		ID:        "a1",
		UserID:    "u1",
		Type:      models.AlertLargeTransaction,
		Severity:  models.SeverityHigh,
		Title:     "Unusually large transaction",
		Message:   "A transaction of 9000 stands out.",
		CreatedAt: time.Now().UTC(),
	}

	if err := h.Handle(context.Background(), encodeAlert(t, alert)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(users.alerts) != 1 || users.alerts[0].ID != "a1" {
		t.Fatalf("alert not persisted: %v", users.alerts)
	}
	if email.sent != 1 || email.to != "u1@example.com" {
		t.Fatalf("email not sent: %+v", email)
	}
	if !strings.Contains(email.subject, alert.Title) {
		t.Fatalf("subject missing title: %q", email.subject)
	}
	if !strings.Contains(email.body, "Asha") {
		t.Fatalf("body missing user name: %q", email.body)
	}
}

func TestAlertHandlerPersistFailureIsRetryable(t *testing.T) {
	users := newFakeUserStore()
	users.saveAlertErr = errors.New("disk full")
	h := NewAlertHandler("t", users, &capturingEmail{}, nil)

	err := h.Handle(context.Background(), encodeAlert(t, models.Alert{ID: "a1", UserID: "u1"}))
	if err == nil {
		t.Fatal("persistence failure must be returned for retry")
	}
}

func TestAlertHandlerEmailFailureSwallowed(t *testing.T) {
	users := newFakeUserStore()
	users.users["u1"] = &models.User{ID: "u1", Email: "u1@example.com"}
	h := NewAlertHandler("t", users, &capturingEmail{err: errors.New("smtp down")}, nil)

	if err := h.Handle(context.Background(), encodeAlert(t, models.Alert{ID: "a1", UserID: "u1"})); err != nil {
		t.Fatalf("email failure must not fail handling: %v", err)
	}
}

func TestAlertHandlerUnknownUserSkipsEmail(t *testing.T) {
	email := &capturingEmail{}
	h := NewAlertHandler("t", newFakeUserStore(), email, nil)

	if err := h.Handle(context.Background(), encodeAlert(t, models.Alert{ID: "a1", UserID: "ghost"})); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if email.sent != 0 {
		t.Fatal("no email expected for unknown user")
	}
}

func TestAlertHandlerRejectsMalformedPayload(t *testing.T) {
	h := NewAlertHandler("t", newFakeUserStore(), nil, nil)
	if err := h.Handle(context.Background(), []byte("not json")); err == nil {
		t.Fatal("malformed payload must error")
	}
}
