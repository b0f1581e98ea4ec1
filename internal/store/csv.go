package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"CoPenny/internal/domain/models"
)

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"01/02/2006",
	"02.01.2006",
}

// ParseDate tries the accepted layouts in order.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Dataset is a loaded transactions file: parsed rows plus the resolved
// column mapping. Rows with unparsable amounts keep a zero amount; rows
// with unparsable dates keep a zero time and are excluded by date
// filters, matching best-effort coercion semantics.
type Dataset struct {
	Path    string
	Header  []string
	Columns ColumnMap
	Rows    []models.Transaction
}

// LoadCSV reads and parses a transactions CSV.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return &Dataset{Path: path, Columns: ResolveColumns(nil)}, nil
	}

	header := records[0]
	cm := ResolveColumns(header)

	ds := &Dataset{
		Path:    path,
		Header:  header,
		Columns: cm,
	}

	for _, rec := range records[1:] {
		var tx models.Transaction
		if cm.Date >= 0 && cm.Date < len(rec) {
			if t, ok := ParseDate(rec[cm.Date]); ok {
				tx.Date = t
			}
		}
		if cm.Amount >= 0 && cm.Amount < len(rec) {
			if d, err := decimal.NewFromString(strings.TrimSpace(rec[cm.Amount])); err == nil {
				tx.Exact = d
				tx.Amount, _ = d.Float64()
			}
		}
		if cm.Category >= 0 && cm.Category < len(rec) {
			tx.Category = strings.TrimSpace(rec[cm.Category])
		}
		if cm.Merchant >= 0 && cm.Merchant < len(rec) {
			tx.Merchant = strings.TrimSpace(rec[cm.Merchant])
		}
		ds.Rows = append(ds.Rows, tx)
	}

	return ds, nil
}

// filter returns the rows matching the optional year/month filters.
// Zero means no filter. Rows without a parsed date are excluded when a
// filter is active.
func (d *Dataset) filter(year, month int) []models.Transaction {
	if year == 0 && month == 0 {
		return d.Rows
	}
	var out []models.Transaction
	for _, tx := range d.Rows {
		if tx.Date.IsZero() {
			continue
		}
		if year != 0 && tx.Date.Year() != year {
			continue
		}
		if month != 0 && int(tx.Date.Month()) != month {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// round2 rounds through decimal so sums of parsed values stay exact.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func sumAmounts(rows []models.Transaction) float64 {
	total := decimal.Zero
	for _, tx := range rows {
		total = total.Add(tx.ExactAmount())
	}
	f, _ := total.Round(2).Float64()
	return f
}
