package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	"CoPenny/internal/store"
	"CoPenny/pkg/cache"
	xhttp "CoPenny/pkg/http"
	xlogger "CoPenny/pkg/logger"
	"CoPenny/pkg/util"
)

// toolsCacheTTL bounds staleness between the TTL and the explicit
// invalidation that runs when a user uploads or deletes a CSV.
const toolsCacheTTL = 5 * time.Minute

// ToolsHandler exposes the transaction aggregates directly, the same
// operations the agent pipeline consumes. Results are cached per user
// and filter; uploads invalidate the user's keys.
type ToolsHandler struct {
	transactions repository.TransactionStore
	cache        cache.Service
	logger       *xlogger.Logger
}

// NewToolsHandler creates the tools handler. cacheSvc may be nil.
func NewToolsHandler(transactions repository.TransactionStore, cacheSvc cache.Service, logger *xlogger.Logger) *ToolsHandler {
	return &ToolsHandler{transactions: transactions, cache: cacheSvc, logger: logger}
}

// RegisterRoutes mounts the aggregate endpoints.
func (h *ToolsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/tools")
	g.GET("/total_spend", h.TotalSpend)
	g.GET("/monthly_spend", h.MonthlySpend)
	g.GET("/daily_spend", h.DailySpend)
	g.GET("/category_stats", h.CategoryStats)
	g.GET("/merchant_stats", h.MerchantStats)
	g.GET("/time_coverage", h.TimeCoverage)
	g.GET("/describe_csv", h.DescribeCSV)
}

func (h *ToolsHandler) filters(c echo.Context) (userID string, year, month int) {
	userID = UserID(c, c.QueryParam("user_id"))
	year = util.ParseIntDefault(c.QueryParam("year"), 0)
	month = util.ParseIntDefault(c.QueryParam("month"), 0)
	return userID, year, month
}

// ToolsCachePrefix is the key prefix shared with the upload service,
// which deletes tools:<user_id>* after a successful upload or delete.
// userID must already be normalized.
func ToolsCachePrefix(userID string) string {
	return cache.GenerateKey("tools", userID)
}

func toolsKey(userID, op string, params ...interface{}) string {
	prefix := ToolsCachePrefix(store.NormalizeUserID(userID))
	return cache.GenerateKeyWithParams(prefix, append([]interface{}{op}, params...)...)
}

// respond answers from cache when possible, otherwise loads the
// aggregate and caches it. hit must be a pointer to the result type.
func (h *ToolsHandler) respond(c echo.Context, op, key string, hit interface{}, load func(ctx context.Context) (interface{}, error)) error {
	ctx := c.Request().Context()

	if h.cache != nil {
		if err := h.cache.Get(ctx, key, hit); err == nil {
			return xhttp.SuccessResponse(c, hit)
		}
	}

	res, err := load(ctx)
	if err != nil {
		h.logger.Error(op+" failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		_ = h.cache.Set(ctx, key, res, toolsCacheTTL)
	}
	return xhttp.SuccessResponse(c, res)
}

// TotalSpend sums amounts for optional year/month filters.
func (h *ToolsHandler) TotalSpend(c echo.Context) error {
	userID, year, month := h.filters(c)
	return h.respond(c, "total_spend", toolsKey(userID, "total_spend", year, month),
		new(models.TotalSpendResult), func(ctx context.Context) (interface{}, error) {
			return h.transactions.TotalSpend(ctx, userID, year, month)
		})
}

// MonthlySpend aggregates spend by month.
func (h *ToolsHandler) MonthlySpend(c echo.Context) error {
	userID, year, _ := h.filters(c)
	return h.respond(c, "monthly_spend", toolsKey(userID, "monthly_spend", year),
		new(models.MonthlySpendResult), func(ctx context.Context) (interface{}, error) {
			return h.transactions.MonthlySpend(ctx, userID, year)
		})
}

// DailySpend aggregates spend by day.
func (h *ToolsHandler) DailySpend(c echo.Context) error {
	userID, year, month := h.filters(c)
	return h.respond(c, "daily_spend", toolsKey(userID, "daily_spend", year, month),
		new(models.DailySpendResult), func(ctx context.Context) (interface{}, error) {
			return h.transactions.DailySpend(ctx, userID, year, month)
		})
}

// CategoryStats aggregates spend by category, largest first.
func (h *ToolsHandler) CategoryStats(c echo.Context) error {
	userID, year, month := h.filters(c)
	return h.respond(c, "category_stats", toolsKey(userID, "category_stats", year, month),
		new(models.CategoryStatsResult), func(ctx context.Context) (interface{}, error) {
			return h.transactions.CategoryStats(ctx, userID, year, month)
		})
}

// MerchantStats returns the top merchants by spend.
func (h *ToolsHandler) MerchantStats(c echo.Context) error {
	userID, year, month := h.filters(c)
	topN := util.ParseIntDefault(c.QueryParam("top_n"), 10)
	return h.respond(c, "merchant_stats", toolsKey(userID, "merchant_stats", year, month, topN),
		new(models.MerchantStatsResult), func(ctx context.Context) (interface{}, error) {
			return h.transactions.MerchantStats(ctx, userID, year, month, topN)
		})
}

// TimeCoverage returns the date range present in the data.
func (h *ToolsHandler) TimeCoverage(c echo.Context) error {
	userID, _, _ := h.filters(c)
	return h.respond(c, "time_coverage", toolsKey(userID, "time_coverage"),
		new(models.TimeCoverage), func(ctx context.Context) (interface{}, error) {
			return h.transactions.TimeCoverage(ctx, userID)
		})
}

// DescribeCSV summarizes the loaded file's shape.
func (h *ToolsHandler) DescribeCSV(c echo.Context) error {
	userID, _, _ := h.filters(c)
	return h.respond(c, "describe_csv", toolsKey(userID, "describe_csv"),
		new(models.CSVDescription), func(ctx context.Context) (interface{}, error) {
			return h.transactions.Describe(ctx, userID)
		})
}
