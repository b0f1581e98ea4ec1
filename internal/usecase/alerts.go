package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	"CoPenny/internal/store"
	"CoPenny/pkg/logger"
)

// Hard floor for the high-expense rule: total outflow beyond this in
// one dataset raises an alert regardless of history.
const highExpenseFloor = -50000.0

// Alert volume cap per evaluation so one pathological upload does not
// flood the bus.
const maxSpikeAlerts = 5

// AlertEngine evaluates cashflow rules over a user's transactions and
// publishes hits onto the alert bus.
type AlertEngine struct {
	accessor  *store.Accessor
	users     repository.UserStore
	publisher repository.AlertPublisher
	metrics   repository.Metrics
	log       *logger.Logger
}

// NewAlertEngine creates the rules engine. The publisher may be nil;
// alerts are then only returned to the caller.
func NewAlertEngine(
	accessor *store.Accessor,
	users repository.UserStore,
	publisher repository.AlertPublisher,
	metrics repository.Metrics,
	log *logger.Logger,
) *AlertEngine {
	return &AlertEngine{
		accessor:  accessor,
		users:     users,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
	}
}

// Evaluate runs all rules for one user and publishes the hits.
func (e *AlertEngine) Evaluate(ctx context.Context, userID string) ([]models.Alert, error) {
	rows := e.accessor.Rows(userID)

	var alerts []models.Alert
	now := time.Now().UTC()

	if len(rows) < 10 {
		alerts = append(alerts, models.Alert{
			ID:       uuid.NewString(),
			UserID:   userID,
			Type:     models.AlertDataQuality,
			Severity: models.SeverityLow,
			Title:    "Not enough transaction data",
			Message: fmt.Sprintf(
				"Only %d transactions found. Insights and alerts improve with more history; consider uploading a fuller export.",
				len(rows)),
			CreatedAt: now,
		})
	}

	if len(rows) > 0 {
		alerts = append(alerts, e.spikeAlerts(ctx, userID, rows, now)...)

		var total float64
		for _, tx := range rows {
			total += tx.Amount
		}
		if total < highExpenseFloor {
			alerts = append(alerts, models.Alert{
				ID:       uuid.NewString(),
				UserID:   userID,
				Type:     models.AlertHighExpense,
				Severity: models.SeverityMedium,
				Title:    "High overall expenses",
				Message: fmt.Sprintf(
					"Total outflow across your transactions is ₹%.0f. Reviewing your largest categories may reveal savings.",
					math.Abs(total)),
				CreatedAt: now,
			})
		}
	}

	for i := range alerts {
		if e.metrics != nil {
			e.metrics.RecordAlert(alerts[i].Type)
		}
		if e.publisher != nil {
			if err := e.publisher.Publish(ctx, &alerts[i]); err != nil {
				if e.log != nil {
					e.log.Warn("alert publish failed", logger.Error(err))
				}
				if e.metrics != nil {
					e.metrics.RecordError("alert_publish")
				}
			}
		}
	}

	return alerts, nil
}

// spikeAlerts flags transactions whose magnitude exceeds the user's
// spike threshold: the trained snapshot's value when one exists, else
// three times the mean absolute amount.
func (e *AlertEngine) spikeAlerts(ctx context.Context, userID string, rows []models.Transaction, now time.Time) []models.Alert {
	threshold := 0.0
	if e.users != nil {
		if info, err := e.users.GetModelInfo(ctx, store.NormalizeUserID(userID)); err == nil && info != nil {
			threshold = info.SpikeThreshold
		}
	}
	if threshold <= 0 {
		var absSum float64
		for _, tx := range rows {
			absSum += math.Abs(tx.Amount)
		}
		threshold = 3 * absSum / float64(len(rows))
	}

	var alerts []models.Alert
	for _, tx := range rows {
		if math.Abs(tx.Amount) <= threshold {
			continue
		}
		merchant := tx.Merchant
		if merchant == "" {
			merchant = "an unnamed merchant"
		}
		alerts = append(alerts, models.Alert{
			ID:       uuid.NewString(),
			UserID:   userID,
			Type:     models.AlertLargeTransaction,
			Severity: models.SeverityHigh,
			Title:    "Unusually large transaction",
			Message: fmt.Sprintf(
				"A transaction of ₹%.0f at %s is well above your usual pattern (threshold ₹%.0f).",
				math.Abs(tx.Amount), merchant, threshold),
			CreatedAt: now,
		})
		if len(alerts) >= maxSpikeAlerts {
			break
		}
	}
	return alerts
}
