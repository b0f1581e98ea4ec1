package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"CoPenny/internal/domain/models"
	"CoPenny/pkg/logger"
)

// FileStore is the local JSON fallback used when MongoDB is not
// configured. Each collection is one JSON file holding an id-to-document
// map; writes go through temp-file-then-rename.
type FileStore struct {
	dir string
	log *logger.Logger
	mu  sync.Mutex
}

// NewFileStore creates the store and its directory.
func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// readAll loads a collection file. A missing file is an empty collection.
func (s *FileStore) readAll(collection string) (map[string]json.RawMessage, error) {
	b, err := os.ReadFile(s.path(collection))
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	docs := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return docs, nil
}

func (s *FileStore) writeAll(collection string, docs map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	tmp := s.path(collection) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if err := os.Rename(tmp, s.path(collection)); err != nil {
		return fmt.Errorf("place %s: %w", collection, err)
	}
	return nil
}

func (s *FileStore) put(collection, id string, doc interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readAll(collection)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	docs[id] = raw
	return s.writeAll(collection, docs)
}

// get decodes one document into dest; found=false means absent.
func (s *FileStore) get(collection, id string, dest interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readAll(collection)
	if err != nil {
		return false, err
	}
	raw, ok := docs[id]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func (s *FileStore) delete(collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readAll(collection)
	if err != nil {
		return err
	}
	delete(docs, id)
	return s.writeAll(collection, docs)
}

// CreateUser inserts a new user. Duplicate emails are rejected.
func (s *FileStore) CreateUser(ctx context.Context, u *models.User) error {
	existing, err := s.GetUserByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("user with email %s already exists", u.Email)
	}
	return s.put("users", u.ID, u)
}

// GetUserByEmail scans the users collection; returns nil when absent.
func (s *FileStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	docs, err := s.readAll("users")
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for _, raw := range docs {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			continue
		}
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

// GetUser returns nil when the user does not exist.
func (s *FileStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	ok, err := s.get("users", userID, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// SaveProfile upserts the user's investing profile.
func (s *FileStore) SaveProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	return s.put("profiles", p.UserID, p)
}

// GetProfile returns nil when no profile is stored.
func (s *FileStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	ok, err := s.get("profiles", userID, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// SaveCSVMetadata upserts the upload record.
func (s *FileStore) SaveCSVMetadata(ctx context.Context, m *models.CSVMetadata) error {
	return s.put("csv_metadata", m.UserID, m)
}

// GetCSVMetadata returns nil when no upload is recorded.
func (s *FileStore) GetCSVMetadata(ctx context.Context, userID string) (*models.CSVMetadata, error) {
	var m models.CSVMetadata
	ok, err := s.get("csv_metadata", userID, &m)
	if err != nil || !ok {
		return nil, err
	}
	return &m, nil
}

// DeleteCSVMetadata removes the upload record and its feature snapshot.
func (s *FileStore) DeleteCSVMetadata(ctx context.Context, userID string) error {
	if err := s.delete("csv_metadata", userID); err != nil {
		return err
	}
	return s.delete("model_info", userID)
}

// SaveModelInfo upserts the feature snapshot.
func (s *FileStore) SaveModelInfo(ctx context.Context, m *models.ModelInfo) error {
	return s.put("model_info", m.UserID, m)
}

// GetModelInfo returns nil when no snapshot is stored.
func (s *FileStore) GetModelInfo(ctx context.Context, userID string) (*models.ModelInfo, error) {
	var m models.ModelInfo
	ok, err := s.get("model_info", userID, &m)
	if err != nil || !ok {
		return nil, err
	}
	return &m, nil
}

// SaveSubscription upserts the user's plan.
func (s *FileStore) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	return s.put("subscriptions", sub.UserID, sub)
}

// GetSubscription returns nil when no plan is stored.
func (s *FileStore) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	ok, err := s.get("subscriptions", userID, &sub)
	if err != nil || !ok {
		return nil, err
	}
	return &sub, nil
}

// SaveAlert appends one alert to the user's history.
func (s *FileStore) SaveAlert(ctx context.Context, a *models.Alert) error {
	return s.put("alerts", a.ID, a)
}

// ListAlerts returns the newest alerts first.
func (s *FileStore) ListAlerts(ctx context.Context, userID string, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	docs, err := s.readAll("alerts")
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := []models.Alert{}
	for _, raw := range docs {
		var a models.Alert
		if err := json.Unmarshal(raw, &a); err != nil {
			continue
		}
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ClearAlerts removes the user's alert history.
func (s *FileStore) ClearAlerts(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readAll("alerts")
	if err != nil {
		return err
	}
	for id, raw := range docs {
		var a models.Alert
		if err := json.Unmarshal(raw, &a); err != nil {
			continue
		}
		if a.UserID == userID {
			delete(docs, id)
		}
	}
	return s.writeAll("alerts", docs)
}

// Close is a no-op for the file store.
func (s *FileStore) Close(ctx context.Context) error { return nil }
