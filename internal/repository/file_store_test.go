package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"CoPenny/internal/domain/models"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return s
}

func TestFileStoreUserRoundTrip(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	u := &models.User{ID: "u1", Email: "a@x.com", Name: "Asha", CreatedAt: time.Now().UTC()}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetUser(ctx, "u1")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Email != "a@x.com" {
		t.Fatalf("unexpected user: %+v", got)
	}

	byEmail, err := s.GetUserByEmail(ctx, "a@x.com")
	if err != nil || byEmail == nil || byEmail.ID != "u1" {
		t.Fatalf("email lookup failed: %v %v", byEmail, err)
	}

	// Absent lookups are nil, not errors.
	missing, err := s.GetUser(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("absent user should be nil: %v %v", missing, err)
	}
}

func TestFileStoreDuplicateEmailRejected(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, &models.User{ID: "u1", Email: "a@x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateUser(ctx, &models.User{ID: "u2", Email: "a@x.com"}); err == nil {
		t.Fatal("duplicate email must be rejected")
	}
}

func TestFileStoreProfile(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	absent, err := s.GetProfile(ctx, "u1")
	if err != nil || absent != nil {
		t.Fatalf("absent profile should be nil: %v %v", absent, err)
	}

	p := &models.Profile{UserID: "u1", RiskTolerance: "moderate", TimeHorizon: "long"}
	if err := s.SaveProfile(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.GetProfile(ctx, "u1")
	if err != nil || got == nil || got.RiskTolerance != "moderate" {
		t.Fatalf("profile round trip failed: %v %v", got, err)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("save must stamp updated_at")
	}
}

func TestFileStoreCSVMetadataCascade(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	if err := s.SaveCSVMetadata(ctx, &models.CSVMetadata{UserID: "u1", Filename: "f.csv", Rows: 10}); err != nil {
		t.Fatalf("save metadata: %v", err)
	}
	if err := s.SaveModelInfo(ctx, &models.ModelInfo{UserID: "u1", SpikeThreshold: 42}); err != nil {
		t.Fatalf("save model info: %v", err)
	}

	if err := s.DeleteCSVMetadata(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	meta, _ := s.GetCSVMetadata(ctx, "u1")
	info, _ := s.GetModelInfo(ctx, "u1")
	if meta != nil || info != nil {
		t.Fatalf("cascade delete failed: %v %v", meta, info)
	}
}

func TestFileStoreSubscription(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	sub := &models.Subscription{UserID: "u1", Tier: models.TierPro}
	if err := s.SaveSubscription(ctx, sub); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.GetSubscription(ctx, "u1")
	if err != nil || got == nil || got.Tier != models.TierPro {
		t.Fatalf("subscription round trip failed: %v %v", got, err)
	}
}

func TestFileStoreAlertsSortAndLimit(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		a := &models.Alert{
			ID:        fmt.Sprintf("a%d", i),
			UserID:    "u1",
			Type:      models.AlertLargeTransaction,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.SaveAlert(ctx, a); err != nil {
			t.Fatalf("save alert: %v", err)
		}
	}
	// Another user's alert must not leak in.
	if err := s.SaveAlert(ctx, &models.Alert{ID: "other", UserID: "u2", CreatedAt: base}); err != nil {
		t.Fatalf("save alert: %v", err)
	}

	alerts, err := s.ListAlerts(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("limit not applied: %d", len(alerts))
	}
	if alerts[0].ID != "a5" || alerts[1].ID != "a4" {
		t.Fatalf("not sorted newest first: %v", alerts)
	}

	if err := s.ClearAlerts(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cleared, _ := s.ListAlerts(ctx, "u1", 0)
	if len(cleared) != 0 {
		t.Fatalf("alerts not cleared: %v", cleared)
	}
	// The other user's history survives.
	others, _ := s.ListAlerts(ctx, "u2", 0)
	if len(others) != 1 {
		t.Fatalf("unrelated alerts lost: %v", others)
	}
}
