package store

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"CoPenny/internal/domain/models"
	"CoPenny/pkg/clickhouse"
	"CoPenny/pkg/logger"
)

var warehouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		user_id  String,
		tx_date  Date,
		amount   Float64,
		category String,
		merchant String,
		loaded_at DateTime DEFAULT now()
	) ENGINE = MergeTree()
	ORDER BY (user_id, tx_date)`,
}

// Warehouse pushes transaction aggregation into ClickHouse. Datasets are
// ingested lazily per user and re-ingested when the file on disk no
// longer matches the last load (a new upload replaced it).
type Warehouse struct {
	client *clickhouse.Client
	log    *logger.Logger

	mu       sync.Mutex
	ingested map[string]ingestStamp
}

// ingestStamp identifies the file contents behind the last ingest.
// Size and mtime catch an overwrite that keeps the row count.
type ingestStamp struct {
	rows    int
	size    int64
	modTime time.Time
}

func datasetStamp(ds *Dataset) ingestStamp {
	st := ingestStamp{rows: len(ds.Rows)}
	if info, err := os.Stat(ds.Path); err == nil {
		st.size = info.Size()
		st.modTime = info.ModTime()
	}
	return st
}

// NewWarehouse creates the warehouse and ensures the schema exists.
func NewWarehouse(ctx context.Context, client *clickhouse.Client, log *logger.Logger) (*Warehouse, error) {
	if err := client.InitSchema(ctx, warehouseSchema); err != nil {
		return nil, fmt.Errorf("warehouse schema: %w", err)
	}
	return &Warehouse{
		client:   client,
		log:      log,
		ingested: make(map[string]ingestStamp),
	}, nil
}

// ensureIngested loads the dataset into the transactions table when it
// is absent or stale.
func (w *Warehouse) ensureIngested(ctx context.Context, userID string, ds *Dataset) error {
	key := NormalizeUserID(userID)
	stamp := datasetStamp(ds)

	w.mu.Lock()
	defer w.mu.Unlock()

	if prev, ok := w.ingested[key]; ok && prev == stamp {
		return nil
	}

	db := w.client.DB()
	if _, err := db.ExecContext(ctx,
		`ALTER TABLE transactions DELETE WHERE user_id = ?`, key); err != nil {
		return fmt.Errorf("clear user rows: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (user_id, tx_date, amount, category, merchant) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, row := range ds.Rows {
		d := row.Date
		if d.IsZero() {
			d = time.Unix(0, 0).UTC()
		}
		if _, err := stmt.ExecContext(ctx, key, d, row.Amount, row.Category, row.Merchant); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	w.ingested[key] = stamp
	if w.log != nil {
		w.log.Debug("warehouse ingested dataset",
			logger.String("user_id", key),
			logger.Int("rows", len(ds.Rows)),
		)
	}
	return nil
}

func ymWhere(year, month int) (string, []interface{}) {
	clauses := []string{"user_id = ?"}
	var args []interface{}
	if year != 0 {
		clauses = append(clauses, "toYear(tx_date) = ?")
		args = append(args, year)
	}
	if month != 0 {
		clauses = append(clauses, "toMonth(tx_date) = ?")
		args = append(args, month)
	}
	return strings.Join(clauses, " AND "), args
}

// TotalSpend sums amounts in SQL.
func (w *Warehouse) TotalSpend(ctx context.Context, userID string, ds *Dataset, year, month int) (*models.TotalSpendResult, error) {
	if err := w.ensureIngested(ctx, userID, ds); err != nil {
		return nil, err
	}

	where, args := ymWhere(year, month)
	query := fmt.Sprintf(`SELECT round(coalesce(sum(amount), 0), 2) FROM transactions WHERE %s`, where)

	var total float64
	allArgs := append([]interface{}{NormalizeUserID(userID)}, args...)
	if err := w.client.DB().QueryRowContext(ctx, query, allArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("total spend query: %w", err)
	}

	return &models.TotalSpendResult{Year: year, Month: month, Total: total}, nil
}

// CategoryStats groups spend by category in SQL, sorted descending.
func (w *Warehouse) CategoryStats(ctx context.Context, userID string, ds *Dataset, year, month int) (*models.CategoryStatsResult, error) {
	if err := w.ensureIngested(ctx, userID, ds); err != nil {
		return nil, err
	}

	where, args := ymWhere(year, month)
	query := fmt.Sprintf(`
		SELECT category, round(sum(amount), 2) AS spent, count() AS cnt
		FROM transactions
		WHERE %s
		GROUP BY category
		ORDER BY spent DESC, category ASC`, where)

	allArgs := append([]interface{}{NormalizeUserID(userID)}, args...)
	rows, err := w.client.DB().QueryContext(ctx, query, allArgs...)
	if err != nil {
		return nil, fmt.Errorf("category stats query: %w", err)
	}
	defer rows.Close()

	items := []models.CategoryStat{}
	for rows.Next() {
		var item models.CategoryStat
		if err := rows.Scan(&item.Category, &item.Spent, &item.Count); err != nil {
			return nil, fmt.Errorf("category stats scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category stats rows: %w", err)
	}

	return &models.CategoryStatsResult{Year: year, Month: month, Items: items}, nil
}
