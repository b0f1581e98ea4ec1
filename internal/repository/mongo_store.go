package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"CoPenny/internal/domain/models"
	"CoPenny/pkg/logger"
)

// MongoStore persists users, profiles, uploads, subscriptions and
// alerts in MongoDB. All lookups are equality on the document id, so
// the default _id index covers them.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

// NewMongoStore connects and pings the server.
func NewMongoStore(ctx context.Context, uri, database string, log *logger.Logger) (*MongoStore, error) {
	if database == "" {
		database = "copenny"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(database),
		log:    log,
	}, nil
}

func (s *MongoStore) users() *mongo.Collection         { return s.db.Collection("users") }
func (s *MongoStore) profiles() *mongo.Collection      { return s.db.Collection("profiles") }
func (s *MongoStore) csvMetadata() *mongo.Collection   { return s.db.Collection("csv_metadata") }
func (s *MongoStore) modelInfo() *mongo.Collection     { return s.db.Collection("model_info") }
func (s *MongoStore) subscriptions() *mongo.Collection { return s.db.Collection("subscriptions") }
func (s *MongoStore) alerts() *mongo.Collection        { return s.db.Collection("alerts") }

func (s *MongoStore) upsert(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", coll.Name(), id, err)
	}
	return nil
}

// CreateUser inserts a new user. Duplicate emails are rejected.
func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	existing, err := s.GetUserByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("user with email %s already exists", u.Email)
	}
	if _, err := s.users().InsertOne(ctx, u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns nil when no user matches.
func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// GetUser returns nil when the user does not exist.
func (s *MongoStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// SaveProfile upserts the user's investing profile.
func (s *MongoStore) SaveProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	return s.upsert(ctx, s.profiles(), p.UserID, p)
}

// GetProfile returns nil when no profile is stored.
func (s *MongoStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := s.profiles().FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// SaveCSVMetadata upserts the upload record.
func (s *MongoStore) SaveCSVMetadata(ctx context.Context, m *models.CSVMetadata) error {
	return s.upsert(ctx, s.csvMetadata(), m.UserID, m)
}

// GetCSVMetadata returns nil when no upload is recorded.
func (s *MongoStore) GetCSVMetadata(ctx context.Context, userID string) (*models.CSVMetadata, error) {
	var m models.CSVMetadata
	err := s.csvMetadata().FindOne(ctx, bson.M{"_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get csv metadata: %w", err)
	}
	return &m, nil
}

// DeleteCSVMetadata removes the upload record. Absence is not an error.
func (s *MongoStore) DeleteCSVMetadata(ctx context.Context, userID string) error {
	if _, err := s.csvMetadata().DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return fmt.Errorf("delete csv metadata: %w", err)
	}
	_, _ = s.modelInfo().DeleteOne(ctx, bson.M{"_id": userID})
	return nil
}

// SaveModelInfo upserts the feature snapshot.
func (s *MongoStore) SaveModelInfo(ctx context.Context, m *models.ModelInfo) error {
	return s.upsert(ctx, s.modelInfo(), m.UserID, m)
}

// GetModelInfo returns nil when no snapshot is stored.
func (s *MongoStore) GetModelInfo(ctx context.Context, userID string) (*models.ModelInfo, error) {
	var m models.ModelInfo
	err := s.modelInfo().FindOne(ctx, bson.M{"_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get model info: %w", err)
	}
	return &m, nil
}

// SaveSubscription upserts the user's plan.
func (s *MongoStore) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	return s.upsert(ctx, s.subscriptions(), sub.UserID, sub)
}

// GetSubscription returns nil when no plan is stored; callers default
// to the free tier.
func (s *MongoStore) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.subscriptions().FindOne(ctx, bson.M{"_id": userID}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

// SaveAlert appends one alert to the user's history.
func (s *MongoStore) SaveAlert(ctx context.Context, a *models.Alert) error {
	if _, err := s.alerts().InsertOne(ctx, a); err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

// ListAlerts returns the newest alerts first.
func (s *MongoStore) ListAlerts(ctx context.Context, userID string, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.alerts().Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Alert{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}
	return out, nil
}

// ClearAlerts removes the user's alert history.
func (s *MongoStore) ClearAlerts(ctx context.Context, userID string) error {
	if _, err := s.alerts().DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("clear alerts: %w", err)
	}
	return nil
}

// Close disconnects from the server.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
