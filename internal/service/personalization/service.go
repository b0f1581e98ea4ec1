package personalization

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	"CoPenny/internal/store"
	"CoPenny/pkg/cache"
	"CoPenny/pkg/logger"
)

// Service handles per-user transaction uploads: validation, placement
// into the user data directory, and the feature snapshot refreshed on
// every successful upload.
type Service struct {
	userDataDir string
	users       repository.UserStore
	cache       cache.Service
	log         *logger.Logger
}

// NewService creates the personalization service. cacheSvc may be nil;
// when set, cached aggregates for a user are dropped after an upload
// or delete so stale totals never outlive the new file.
func NewService(userDataDir string, users repository.UserStore, cacheSvc cache.Service, log *logger.Logger) *Service {
	return &Service{
		userDataDir: userDataDir,
		users:       users,
		cache:       cacheSvc,
		log:         log,
	}
}

// invalidate drops the user's cached tool aggregates.
func (s *Service) invalidate(ctx context.Context, safeID string) {
	if s.cache == nil {
		return
	}
	pattern := cache.BuildPattern(cache.GenerateKey("tools", safeID))
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil && s.log != nil {
		s.log.Warn("tools cache invalidation failed", logger.Error(err))
	}
}

// Validation is the result of a pre-upload CSV check.
type Validation struct {
	Valid    bool              `json:"valid"`
	Rows     int               `json:"rows"`
	Columns  []string          `json:"columns"`
	Resolved map[string]string `json:"resolved"`
	Problems []string          `json:"problems,omitempty"`
}

// ValidateCSV parses the file and checks that the mandatory date and
// amount columns resolve through the alias lists.
func (s *Service) ValidateCSV(path string) (*Validation, error) {
	ds, err := store.LoadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("validate csv: %w", err)
	}

	v := &Validation{
		Rows:     len(ds.Rows),
		Columns:  ds.Header,
		Resolved: ds.Columns.Resolved(),
	}
	if !ds.Columns.HasDate() {
		v.Problems = append(v.Problems, "no date column found (expected one of: ts, date)")
	}
	if !ds.Columns.HasAmount() {
		v.Problems = append(v.Problems, "no amount column found (expected one of: amount, monthly_expense_total)")
	}
	if len(ds.Rows) == 0 {
		v.Problems = append(v.Problems, "file contains no data rows")
	}
	v.Valid = len(v.Problems) == 0
	return v, nil
}

// ErrUploadExists is returned when the user already has an upload and
// overwrite was not requested.
var ErrUploadExists = fmt.Errorf("a transactions file already exists for this user")

// ProcessUserCSV validates the staged upload, moves it into the user's
// data directory and refreshes the stored metadata and feature
// snapshot. The move is temp-file-then-rename so a concurrent reader
// never sees a half-written file.
func (s *Service) ProcessUserCSV(ctx context.Context, userID, stagedPath, filename string, overwrite bool) (*Validation, error) {
	v, err := s.ValidateCSV(stagedPath)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		return v, nil
	}

	safeID := store.NormalizeUserID(userID)
	userDir := filepath.Join(s.userDataDir, safeID)
	finalPath := filepath.Join(userDir, "transactions.csv")

	if !overwrite {
		if _, err := os.Stat(finalPath); err == nil {
			return v, ErrUploadExists
		}
	}

	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("create user dir: %w", err)
	}

	tmp, err := os.CreateTemp(userDir, ".upload-*.csv")
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	src, err := os.Open(stagedPath)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("open staged upload: %w", err)
	}
	if _, err := tmp.ReadFrom(src); err != nil {
		src.Close()
		tmp.Close()
		return nil, fmt.Errorf("copy upload: %w", err)
	}
	src.Close()
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("flush upload: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return nil, fmt.Errorf("place upload: %w", err)
	}

	if s.users != nil {
		meta := &models.CSVMetadata{
			UserID:     safeID,
			Filename:   filename,
			Rows:       v.Rows,
			Columns:    v.Columns,
			UploadedAt: time.Now().UTC(),
		}
		if err := s.users.SaveCSVMetadata(ctx, meta); err != nil && s.log != nil {
			s.log.Warn("csv metadata save failed", logger.Error(err))
		}
		if info := s.snapshot(safeID, finalPath); info != nil {
			if err := s.users.SaveModelInfo(ctx, info); err != nil && s.log != nil {
				s.log.Warn("model info save failed", logger.Error(err))
			}
		}
	}

	s.invalidate(ctx, safeID)

	if s.log != nil {
		s.log.Info("user csv processed",
			logger.String("user_id", safeID),
			logger.Int("rows", v.Rows),
		)
	}
	return v, nil
}

// DeleteUserCSV removes the user's upload and its stored metadata.
func (s *Service) DeleteUserCSV(ctx context.Context, userID string) error {
	safeID := store.NormalizeUserID(userID)
	path := filepath.Join(s.userDataDir, safeID, "transactions.csv")

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	if s.users != nil {
		if err := s.users.DeleteCSVMetadata(ctx, safeID); err != nil && s.log != nil {
			s.log.Warn("csv metadata delete failed", logger.Error(err))
		}
	}
	s.invalidate(ctx, safeID)
	return nil
}

// snapshot computes the per-user feature summary used by alert rules:
// monthly totals, category spend shares and the large-transaction spike
// threshold (mean absolute amount plus three standard deviations).
func (s *Service) snapshot(safeID, path string) *models.ModelInfo {
	ds, err := store.LoadCSV(path)
	if err != nil || !ds.Columns.HasAmount() {
		return nil
	}

	monthly := make(map[string]float64)
	shares := make(map[string]float64)
	var absSum, absSqSum, total float64
	n := 0

	for _, tx := range ds.Rows {
		if !tx.Date.IsZero() {
			monthly[tx.Date.Format("2006-01")] += tx.Amount
		}
		if tx.Category != "" {
			shares[tx.Category] += math.Abs(tx.Amount)
		}
		abs := math.Abs(tx.Amount)
		absSum += abs
		absSqSum += abs * abs
		total += abs
		n++
	}
	if n == 0 {
		return nil
	}

	if total > 0 {
		for cat, v := range shares {
			shares[cat] = v / total
		}
	}

	mean := absSum / float64(n)
	variance := absSqSum/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	threshold := mean + 3*math.Sqrt(variance)

	return &models.ModelInfo{
		UserID:         safeID,
		MonthlyTotals:  monthly,
		CategoryShares: shares,
		SpikeThreshold: threshold,
		TrainedAt:      time.Now().UTC(),
	}
}
