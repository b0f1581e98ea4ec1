package repository

import (
	"context"

	"CoPenny/internal/domain/models"
)

// KnowledgeStore retrieves ranked text chunks from the vector store.
type KnowledgeStore interface {
	Retrieve(ctx context.Context, query, namespace string, topK int) ([]models.Chunk, error)
}

// TransactionStore answers aggregate questions over a user's transactions.
// Every operation degrades to a result carrying an explanatory note rather
// than an error when data is missing or malformed.
type TransactionStore interface {
	TotalSpend(ctx context.Context, userID string, year, month int) (*models.TotalSpendResult, error)
	MonthlySpend(ctx context.Context, userID string, year int) (*models.MonthlySpendResult, error)
	DailySpend(ctx context.Context, userID string, year, month int) (*models.DailySpendResult, error)
	CategoryStats(ctx context.Context, userID string, year, month int) (*models.CategoryStatsResult, error)
	MerchantStats(ctx context.Context, userID string, year, month, topN int) (*models.MerchantStatsResult, error)
	TimeCoverage(ctx context.Context, userID string) (*models.TimeCoverage, error)
	Describe(ctx context.Context, userID string) (*models.CSVDescription, error)
	Summary(ctx context.Context, userID string) (*models.TransactionSummary, error)
}

// UserStore persists users, profiles, uploads and subscriptions.
// Lookups are equality on user id only.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)

	SaveProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	SaveCSVMetadata(ctx context.Context, m *models.CSVMetadata) error
	GetCSVMetadata(ctx context.Context, userID string) (*models.CSVMetadata, error)
	DeleteCSVMetadata(ctx context.Context, userID string) error

	SaveModelInfo(ctx context.Context, m *models.ModelInfo) error
	GetModelInfo(ctx context.Context, userID string) (*models.ModelInfo, error)

	SaveSubscription(ctx context.Context, s *models.Subscription) error
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)

	SaveAlert(ctx context.Context, a *models.Alert) error
	ListAlerts(ctx context.Context, userID string, limit int) ([]models.Alert, error)
	ClearAlerts(ctx context.Context, userID string) error

	Close(ctx context.Context) error
}

// AlertPublisher emits alert events onto the event bus.
type AlertPublisher interface {
	Publish(ctx context.Context, a *models.Alert) error
}

// EmailSender delivers alert notifications.
type EmailSender interface {
	Send(to, subject, body string) error
}

// MarketData provides a best-effort market snapshot for strategy prompts.
// A nil context means no stream is available; callers degrade.
type MarketData interface {
	Context() *models.MarketContext
}

// Metrics records operational counters for the pipeline.
type Metrics interface {
	RecordChatRequest(responseType string)
	RecordLLMCall(provider, outcome string)
	RecordError(kind string)
	RecordAlert(kind string)
	RecordStage(stage string, seconds float64)
}
