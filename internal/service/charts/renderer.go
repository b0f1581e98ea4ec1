package charts

import (
	"bytes"
	"encoding/base64"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"CoPenny/internal/domain/models"
	"CoPenny/pkg/logger"
)

// Renderer draws spending charts as base64-encoded PNGs keyed by chart
// name. Render failures drop the chart, never the response.
type Renderer struct {
	log *logger.Logger
}

// NewRenderer creates the chart renderer.
func NewRenderer(log *logger.Logger) *Renderer {
	return &Renderer{log: log}
}

// Inputs carries the aggregates charts are drawn from.
type Inputs struct {
	Categories *models.CategoryStatsResult
	Daily      *models.DailySpendResult
	Merchants  *models.MerchantStatsResult
	Label      string
}

// Render draws the charts requested by the message keywords, defaulting
// to the spending pie and daily trend.
func (r *Renderer) Render(message string, in Inputs) map[string]string {
	lower := strings.ToLower(message)

	wantPie := strings.Contains(lower, "pie")
	wantBar := strings.Contains(lower, "bar")
	wantTrend := strings.Contains(lower, "trend") || strings.Contains(lower, "line") ||
		strings.Contains(lower, "over time") || strings.Contains(lower, "timeline")
	wantMerchant := strings.Contains(lower, "merchant")

	if !wantPie && !wantBar && !wantTrend && !wantMerchant {
		wantPie = true
		wantTrend = true
	}

	out := make(map[string]string)

	if wantPie && in.Categories != nil && len(in.Categories.Items) > 0 {
		if img, ok := r.categoryPie(in.Categories.Items); ok {
			out["spending_pie"] = img
		}
	}
	if wantBar && in.Categories != nil && len(in.Categories.Items) > 0 {
		if img, ok := r.categoryBar(in.Categories.Items); ok {
			out["category_bar"] = img
		}
	}
	if wantTrend && in.Daily != nil && len(in.Daily.Items) > 0 {
		if img, ok := r.dailyTrend(in.Daily.Items); ok {
			out["spending_trend"] = img
		}
	}
	if wantMerchant && in.Merchants != nil && len(in.Merchants.Items) > 0 {
		if img, ok := r.merchantBar(in.Merchants.Items); ok {
			out["top_merchants"] = img
		}
	}

	return out
}

func (r *Renderer) encode(render func(w *bytes.Buffer) error) (string, bool) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		if r.log != nil {
			r.log.Warn("chart render failed", logger.Error(err))
		}
		return "", false
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), true
}

// categoryPie charts spend magnitudes; outflows are stored negative.
func (r *Renderer) categoryPie(items []models.CategoryStat) (string, bool) {
	values := make([]chart.Value, 0, len(items))
	for _, it := range items {
		v := math.Abs(it.Spent)
		if v == 0 {
			continue
		}
		values = append(values, chart.Value{Label: it.Category, Value: v})
	}
	if len(values) == 0 {
		return "", false
	}

	pie := chart.PieChart{
		Title:  "Spending by Category",
		Width:  512,
		Height: 512,
		Values: values,
	}
	return r.encode(func(w *bytes.Buffer) error { return pie.Render(chart.PNG, w) })
}

func (r *Renderer) categoryBar(items []models.CategoryStat) (string, bool) {
	bars := make([]chart.Value, 0, len(items))
	for _, it := range items {
		bars = append(bars, chart.Value{Label: it.Category, Value: math.Abs(it.Spent)})
	}

	bar := chart.BarChart{
		Title:    "Spending by Category",
		Width:    768,
		Height:   512,
		BarWidth: 50,
		Bars:     bars,
	}
	return r.encode(func(w *bytes.Buffer) error { return bar.Render(chart.PNG, w) })
}

func (r *Renderer) dailyTrend(items []models.DailySpend) (string, bool) {
	xs := make([]time.Time, 0, len(items))
	ys := make([]float64, 0, len(items))
	for _, it := range items {
		t, err := time.Parse("2006-01-02", it.Date)
		if err != nil {
			continue
		}
		xs = append(xs, t)
		ys = append(ys, it.Spent)
	}
	if len(xs) < 2 {
		return "", false
	}

	line := chart.Chart{
		Title:  "Daily Spending",
		Width:  768,
		Height: 384,
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "spent",
				XValues: xs,
				YValues: ys,
			},
		},
	}
	return r.encode(func(w *bytes.Buffer) error { return line.Render(chart.PNG, w) })
}

func (r *Renderer) merchantBar(items []models.MerchantStat) (string, bool) {
	bars := make([]chart.Value, 0, len(items))
	for _, it := range items {
		bars = append(bars, chart.Value{Label: it.Merchant, Value: math.Abs(it.Spent)})
	}

	bar := chart.BarChart{
		Title:    "Top Merchants",
		Width:    768,
		Height:   512,
		BarWidth: 40,
		Bars:     bars,
	}
	return r.encode(func(w *bytes.Buffer) error { return bar.Render(chart.PNG, w) })
}
