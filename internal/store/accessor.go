package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"CoPenny/internal/domain/models"
	"CoPenny/pkg/logger"
)

// Sentinel notes returned instead of errors for missing data.
const (
	noteNoData            = "No data available"
	noteAmountNotFound    = "amount column not found"
	noteDateAmountMissing = "date/amount columns not found"
	noteCategoryMissing   = "amount/category columns not found"
	noteMerchantMissing   = "merchant/amount columns not found"
)

// Accessor answers aggregate questions over per-user transaction CSVs.
// When a warehouse is attached, aggregation is pushed into SQL with the
// in-process computation as the fallback.
type Accessor struct {
	sharedCSV   string
	userDataDir string
	warehouse   *Warehouse
	log         *logger.Logger
}

// AccessorOption configures the Accessor.
type AccessorOption func(*Accessor)

// WithWarehouse attaches the columnar engine.
func WithWarehouse(w *Warehouse) AccessorOption {
	return func(a *Accessor) { a.warehouse = w }
}

// WithAccessorLogger attaches a logger.
func WithAccessorLogger(l *logger.Logger) AccessorOption {
	return func(a *Accessor) { a.log = l }
}

// NewAccessor creates the transaction accessor.
func NewAccessor(sharedCSV, userDataDir string, opts ...AccessorOption) *Accessor {
	a := &Accessor{
		sharedCSV:   sharedCSV,
		userDataDir: userDataDir,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NormalizeUserID makes a user id safe for filesystem usage.
func NormalizeUserID(userID string) string {
	if userID == "" {
		return "guest"
	}
	s := strings.ReplaceAll(userID, ".", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return strings.TrimSpace(s)
}

// UserCSVPath is the per-user upload location.
func (a *Accessor) UserCSVPath(userID string) string {
	return filepath.Join(a.userDataDir, NormalizeUserID(userID), "transactions.csv")
}

// resolvePath returns the user upload when present, else the shared
// default, else "" when neither exists.
func (a *Accessor) resolvePath(userID string) string {
	if userID != "" {
		p := a.UserCSVPath(userID)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if a.sharedCSV != "" {
		if _, err := os.Stat(a.sharedCSV); err == nil {
			return a.sharedCSV
		}
	}
	return ""
}

// load resolves and parses the user's dataset. A nil dataset with a nil
// error means no data is available.
func (a *Accessor) load(userID string) (*Dataset, error) {
	path := a.resolvePath(userID)
	if path == "" {
		return nil, nil
	}
	ds, err := LoadCSV(path)
	if err != nil {
		if a.log != nil {
			a.log.Warn("csv load failed", logger.String("path", path), logger.Error(err))
		}
		return nil, nil
	}
	return ds, nil
}

// Rows returns the parsed transactions, for rule evaluation that needs
// row-level amounts rather than aggregates. Nil when no data exists.
func (a *Accessor) Rows(userID string) []models.Transaction {
	ds, _ := a.load(userID)
	if ds == nil || !ds.Columns.HasAmount() {
		return nil
	}
	return ds.Rows
}

// TotalSpend returns the total amount for optional year/month filters.
func (a *Accessor) TotalSpend(ctx context.Context, userID string, year, month int) (*models.TotalSpendResult, error) {
	ds, _ := a.load(userID)
	if ds == nil {
		return &models.TotalSpendResult{Total: 0.0, Notes: noteNoData}, nil
	}
	if !ds.Columns.HasAmount() {
		return &models.TotalSpendResult{Total: 0.0, Notes: noteAmountNotFound}, nil
	}

	if a.warehouse != nil {
		if res, err := a.warehouse.TotalSpend(ctx, userID, ds, year, month); err == nil {
			return res, nil
		} else if a.log != nil {
			a.log.Warn("warehouse total_spend failed, using in-process fallback", logger.Error(err))
		}
	}

	return &models.TotalSpendResult{
		Year:  year,
		Month: month,
		Total: sumAmounts(ds.filter(year, month)),
	}, nil
}

// MonthlySpend returns spend aggregated by month.
func (a *Accessor) MonthlySpend(ctx context.Context, userID string, year int) (*models.MonthlySpendResult, error) {
	ds, _ := a.load(userID)
	if ds == nil {
		return &models.MonthlySpendResult{Items: []models.MonthlySpend{}, Notes: noteNoData}, nil
	}
	if !ds.Columns.HasDate() || !ds.Columns.HasAmount() {
		return &models.MonthlySpendResult{Items: []models.MonthlySpend{}, Notes: noteDateAmountMissing}, nil
	}

	type ym struct{ y, m int }
	sums := make(map[ym]float64)
	for _, tx := range ds.filter(year, 0) {
		if tx.Date.IsZero() {
			continue
		}
		k := ym{tx.Date.Year(), int(tx.Date.Month())}
		sums[k] += tx.Amount
	}

	items := make([]models.MonthlySpend, 0, len(sums))
	for k, v := range sums {
		items = append(items, models.MonthlySpend{Year: k.y, Month: k.m, Spent: round2(v)})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Year != items[j].Year {
			return items[i].Year < items[j].Year
		}
		return items[i].Month < items[j].Month
	})

	return &models.MonthlySpendResult{Year: year, Items: items}, nil
}

// DailySpend returns spend aggregated by day.
func (a *Accessor) DailySpend(ctx context.Context, userID string, year, month int) (*models.DailySpendResult, error) {
	ds, _ := a.load(userID)
	if ds == nil {
		return &models.DailySpendResult{Items: []models.DailySpend{}, Notes: noteNoData}, nil
	}
	if !ds.Columns.HasDate() || !ds.Columns.HasAmount() {
		return &models.DailySpendResult{Items: []models.DailySpend{}, Notes: noteDateAmountMissing}, nil
	}

	sums := make(map[string]float64)
	for _, tx := range ds.filter(year, month) {
		if tx.Date.IsZero() {
			continue
		}
		sums[tx.Date.Format("2006-01-02")] += tx.Amount
	}

	items := make([]models.DailySpend, 0, len(sums))
	for day, v := range sums {
		items = append(items, models.DailySpend{Date: day, Spent: round2(v)})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date < items[j].Date })

	return &models.DailySpendResult{Year: year, Month: month, Items: items}, nil
}

// CategoryStats returns spend by category, sorted descending.
func (a *Accessor) CategoryStats(ctx context.Context, userID string, year, month int) (*models.CategoryStatsResult, error) {
	ds, _ := a.load(userID)
	if ds == nil {
		return &models.CategoryStatsResult{Items: []models.CategoryStat{}, Notes: noteNoData}, nil
	}
	if !ds.Columns.HasAmount() || ds.Columns.Category < 0 {
		return &models.CategoryStatsResult{Items: []models.CategoryStat{}, Notes: noteCategoryMissing}, nil
	}

	if a.warehouse != nil {
		if res, err := a.warehouse.CategoryStats(ctx, userID, ds, year, month); err == nil {
			return res, nil
		} else if a.log != nil {
			a.log.Warn("warehouse category_stats failed, using in-process fallback", logger.Error(err))
		}
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, tx := range ds.filter(year, month) {
		sums[tx.Category] += tx.Amount
		counts[tx.Category]++
	}

	items := make([]models.CategoryStat, 0, len(sums))
	for cat, v := range sums {
		items = append(items, models.CategoryStat{Category: cat, Spent: round2(v), Count: counts[cat]})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Spent != items[j].Spent {
			return items[i].Spent > items[j].Spent
		}
		return items[i].Category < items[j].Category
	})

	return &models.CategoryStatsResult{Year: year, Month: month, Items: items}, nil
}

// MerchantStats returns the top-N merchants by spend.
func (a *Accessor) MerchantStats(ctx context.Context, userID string, year, month, topN int) (*models.MerchantStatsResult, error) {
	if topN <= 0 {
		topN = 10
	}
	ds, _ := a.load(userID)
	if ds == nil {
		return &models.MerchantStatsResult{Items: []models.MerchantStat{}, Notes: noteNoData}, nil
	}
	if !ds.Columns.HasAmount() || ds.Columns.Merchant < 0 {
		return &models.MerchantStatsResult{Items: []models.MerchantStat{}, Notes: noteMerchantMissing}, nil
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, tx := range ds.filter(year, month) {
		sums[tx.Merchant] += tx.Amount
		counts[tx.Merchant]++
	}

	items := make([]models.MerchantStat, 0, len(sums))
	for m, v := range sums {
		items = append(items, models.MerchantStat{Merchant: m, Spent: round2(v), Count: counts[m]})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Spent != items[j].Spent {
			return items[i].Spent > items[j].Spent
		}
		return items[i].Merchant < items[j].Merchant
	})
	if len(items) > topN {
		items = items[:topN]
	}

	return &models.MerchantStatsResult{Year: year, Month: month, Items: items}, nil
}

// TimeCoverage returns the min/max dates present in the data.
func (a *Accessor) TimeCoverage(ctx context.Context, userID string) (*models.TimeCoverage, error) {
	ds, _ := a.load(userID)
	if ds == nil {
		return &models.TimeCoverage{Notes: noteNoData}, nil
	}

	cov := &models.TimeCoverage{Rows: len(ds.Rows)}
	if !ds.Columns.HasDate() {
		return cov, nil
	}
	for _, tx := range ds.Rows {
		if tx.Date.IsZero() {
			continue
		}
		day := tx.Date.Format("2006-01-02")
		if cov.Start == "" || day < cov.Start {
			cov.Start = day
		}
		if cov.End == "" || day > cov.End {
			cov.End = day
		}
	}
	return cov, nil
}

// Describe summarizes the loaded file's shape.
func (a *Accessor) Describe(ctx context.Context, userID string) (*models.CSVDescription, error) {
	ds, _ := a.load(userID)
	if ds == nil {
		return &models.CSVDescription{Columns: []string{}, Resolved: map[string]string{}, Notes: noteNoData}, nil
	}
	return &models.CSVDescription{
		Columns:  ds.Header,
		Resolved: ds.Columns.Resolved(),
		Rows:     len(ds.Rows),
	}, nil
}

// Summary builds the pipeline's transaction data context in one pass.
func (a *Accessor) Summary(ctx context.Context, userID string) (*models.TransactionSummary, error) {
	ds, _ := a.load(userID)
	if ds == nil {
		return &models.TransactionSummary{Notes: noteNoData}, nil
	}
	if !ds.Columns.HasAmount() {
		return &models.TransactionSummary{Notes: noteAmountNotFound}, nil
	}

	total, _ := a.TotalSpend(ctx, userID, 0, 0)
	monthly, _ := a.MonthlySpend(ctx, userID, 0)
	categories, _ := a.CategoryStats(ctx, userID, 0, 0)
	coverage, _ := a.TimeCoverage(ctx, userID)

	summary := &models.TransactionSummary{
		TotalSpend:      total.Total,
		MonthlyPatterns: monthly.Items,
		Coverage:        *coverage,
	}
	if n := len(monthly.Items); n > 0 {
		var sum float64
		for _, m := range monthly.Items {
			sum += m.Spent
		}
		summary.MonthlyAverage = round2(sum / float64(n))
	}
	top := categories.Items
	if len(top) > 5 {
		top = top[:5]
	}
	summary.TopCategories = top

	return summary, nil
}
