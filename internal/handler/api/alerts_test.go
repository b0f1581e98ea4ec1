package api

import (
	"testing"
	"time"

	"CoPenny/internal/domain/models"
)

func TestAlertsSinceZeroCutoffKeepsAll(t *testing.T) {
	alerts := []models.Alert{
		{ID: "a1", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "a2", CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	got := alertsSince(alerts, time.Time{})
	if len(got) != 2 {
		t.Fatalf("expected all alerts, got %d", len(got))
	}
}

func TestAlertsSinceFiltersOlder(t *testing.T) {
	cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	alerts := []models.Alert{
		{ID: "old", CreatedAt: cutoff.Add(-time.Hour)},
		{ID: "boundary", CreatedAt: cutoff},
		{ID: "new", CreatedAt: cutoff.Add(time.Hour)},
	}

	got := alertsSince(alerts, cutoff)
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(got))
	}
	// The cutoff itself is inclusive.
	if got[0].ID != "boundary" || got[1].ID != "new" {
		t.Fatalf("unexpected alerts: %v, %v", got[0].ID, got[1].ID)
	}
}
