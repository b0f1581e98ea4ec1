package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/store"
)

type capturingPublisher struct {
	published []models.Alert
	err       error
}

func (p *capturingPublisher) Publish(ctx context.Context, a *models.Alert) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, *a)
	return nil
}

func accessorWithCSV(t *testing.T, csv string) *store.Accessor {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "transactions.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return store.NewAccessor(path, filepath.Join(dir, "users"))
}

func steadyCSV(rows int, amount float64) string {
	var sb strings.Builder
	sb.WriteString("date,amount,category,merchant\n")
	for i := 0; i < rows; i++ {
		sb.WriteString(fmt.Sprintf("2024-01-%02d,%.2f,Food,Cafe\n", i%27+1, amount))
	}
	return sb.String()
}

func alertsOfType(alerts []models.Alert, kind string) []models.Alert {
	var out []models.Alert
	for _, a := range alerts {
		if a.Type == kind {
			out = append(out, a)
		}
	}
	return out
}

func TestEvaluateDataQuality(t *testing.T) {
	engine := NewAlertEngine(accessorWithCSV(t, steadyCSV(3, -100)), newFakeUserStore(), nil, nil, nil)
	alerts, err := engine.Evaluate(context.Background(), "u")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	dq := alertsOfType(alerts, models.AlertDataQuality)
	if len(dq) != 1 {
		t.Fatalf("expected one data quality alert, got %v", alerts)
	}
	if dq[0].Severity != models.SeverityLow {
		t.Fatalf("unexpected severity %q", dq[0].Severity)
	}
	if dq[0].ID == "" {
		t.Fatal("alert needs an id")
	}
}

func TestEvaluateSpikeUsesStoredThreshold(t *testing.T) {
	csv := steadyCSV(12, -100) + "2024-02-01,-5000,Electronics,BigStore\n"
	users := newFakeUserStore()
	users.modelInfo["u"] = &models.ModelInfo{UserID: "u", SpikeThreshold: 1000}

	engine := NewAlertEngine(accessorWithCSV(t, csv), users, nil, nil, nil)
	alerts, err := engine.Evaluate(context.Background(), "u")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	spikes := alertsOfType(alerts, models.AlertLargeTransaction)
	if len(spikes) != 1 {
		t.Fatalf("expected one spike alert, got %v", alerts)
	}
	if spikes[0].Severity != models.SeverityHigh {
		t.Fatalf("unexpected severity %q", spikes[0].Severity)
	}
	if !strings.Contains(spikes[0].Message, "BigStore") {
		t.Fatalf("merchant missing from message: %q", spikes[0].Message)
	}
}

func TestEvaluateSpikeDefaultThreshold(t *testing.T) {
	// Mean abs is pulled up by the outlier; threshold = 3x mean abs.
	csv := steadyCSV(20, -100) + "2024-02-01,-50000,Electronics,BigStore\n"
	engine := NewAlertEngine(accessorWithCSV(t, csv), newFakeUserStore(), nil, nil, nil)
	alerts, err := engine.Evaluate(context.Background(), "u")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	spikes := alertsOfType(alerts, models.AlertLargeTransaction)
	if len(spikes) != 1 {
		t.Fatalf("expected the outlier to trip the default threshold, got %v", alerts)
	}
}

func TestEvaluateSpikeCap(t *testing.T) {
	users := newFakeUserStore()
	users.modelInfo["u"] = &models.ModelInfo{UserID: "u", SpikeThreshold: 1}

	engine := NewAlertEngine(accessorWithCSV(t, steadyCSV(20, -100)), users, nil, nil, nil)
	alerts, _ := engine.Evaluate(context.Background(), "u")

	spikes := alertsOfType(alerts, models.AlertLargeTransaction)
	if len(spikes) != maxSpikeAlerts {
		t.Fatalf("spike alerts not capped: %d", len(spikes))
	}
}

func TestEvaluateHighExpense(t *testing.T) {
	engine := NewAlertEngine(accessorWithCSV(t, steadyCSV(20, -3000)), newFakeUserStore(), nil, nil, nil)
	alerts, err := engine.Evaluate(context.Background(), "u")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	high := alertsOfType(alerts, models.AlertHighExpense)
	if len(high) != 1 {
		t.Fatalf("expected high expense alert, got %v", alerts)
	}
	if high[0].Severity != models.SeverityMedium {
		t.Fatalf("unexpected severity %q", high[0].Severity)
	}
	if !strings.Contains(high[0].Message, "60000") {
		t.Fatalf("total missing from message: %q", high[0].Message)
	}
}

func TestEvaluatePublishesAlerts(t *testing.T) {
	pub := &capturingPublisher{}
	metrics := newFakeMetrics()
	engine := NewAlertEngine(accessorWithCSV(t, steadyCSV(3, -100)), newFakeUserStore(), pub, metrics, nil)

	alerts, err := engine.Evaluate(context.Background(), "u")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(pub.published) != len(alerts) {
		t.Fatalf("published %d, want %d", len(pub.published), len(alerts))
	}
	if metrics.alerts[models.AlertDataQuality] != 1 {
		t.Fatalf("alert not counted: %v", metrics.alerts)
	}
}

func TestEvaluatePublishFailureStillReturnsAlerts(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("broker down")}
	metrics := newFakeMetrics()
	engine := NewAlertEngine(accessorWithCSV(t, steadyCSV(3, -100)), newFakeUserStore(), pub, metrics, nil)

	alerts, err := engine.Evaluate(context.Background(), "u")
	if err != nil {
		t.Fatalf("publish failure must not fail evaluation: %v", err)
	}
	if len(alerts) == 0 {
		t.Fatal("alerts must still be returned")
	}
	if metrics.errors["alert_publish"] == 0 {
		t.Fatalf("publish failure not recorded: %v", metrics.errors)
	}
}
