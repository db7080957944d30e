package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trade-journal/internal/middleware"
	"github.com/trade-journal/internal/service"
	"github.com/trade-journal/pkg/response"
)

// AnalyticsHandler serves the journal analytics endpoints
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// Performance returns the headline trade metrics
// GET /api/v1/analytics/performance
func (h *AnalyticsHandler) Performance(c *gin.Context) {
	userID := middleware.GetUserID(c)

	perf, err := h.analyticsService.GetPerformance(userID)
	if err != nil {
		response.InternalError(c, "failed to compute performance")
		return
	}

	response.Success(c, perf)
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter
func parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.BadRequest(c, "invalid "+name+" date, expected YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

// DailyPnL returns per-day aggregates, optionally range-filtered
// GET /api/v1/analytics/daily-pnl?start=2026-01-01&end=2026-01-31
func (h *AnalyticsHandler) DailyPnL(c *gin.Context) {
	userID := middleware.GetUserID(c)

	start, ok := parseDateQuery(c, "start")
	if !ok {
		return
	}
	end, ok := parseDateQuery(c, "end")
	if !ok {
		return
	}
	if end != nil {
		// Include the whole end day
		e := end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		end = &e
	}

	daily, err := h.analyticsService.GetDailyPnL(userID, start, end)
	if err != nil {
		response.InternalError(c, "failed to compute daily pnl")
		return
	}

	response.Success(c, daily)
}

// CumulativePnL returns the running P&L series
// GET /api/v1/analytics/cumulative-pnl
func (h *AnalyticsHandler) CumulativePnL(c *gin.Context) {
	userID := middleware.GetUserID(c)

	series, err := h.analyticsService.GetCumulativePnL(userID)
	if err != nil {
		response.InternalError(c, "failed to compute cumulative pnl")
		return
	}

	response.Success(c, series)
}

// Streaks returns the current win/loss runs
// GET /api/v1/analytics/streaks
func (h *AnalyticsHandler) Streaks(c *gin.Context) {
	userID := middleware.GetUserID(c)

	streaks, err := h.analyticsService.GetStreaks(userID)
	if err != nil {
		response.InternalError(c, "failed to compute streaks")
		return
	}

	response.Success(c, streaks)
}

// Drawdown returns drawdown statistics
// GET /api/v1/analytics/drawdown
func (h *AnalyticsHandler) Drawdown(c *gin.Context) {
	userID := middleware.GetUserID(c)

	dd, err := h.analyticsService.GetDrawdown(userID)
	if err != nil {
		response.InternalError(c, "failed to compute drawdown")
		return
	}

	response.Success(c, dd)
}

// DayStats returns day-level win/loss statistics
// GET /api/v1/analytics/day-stats
func (h *AnalyticsHandler) DayStats(c *gin.Context) {
	userID := middleware.GetUserID(c)

	stats, err := h.analyticsService.GetDayStats(userID)
	if err != nil {
		response.InternalError(c, "failed to compute day stats")
		return
	}

	response.Success(c, stats)
}

// Calendar returns one month of per-day aggregates
// GET /api/v1/analytics/calendar?year=2026&month=8
func (h *AnalyticsHandler) Calendar(c *gin.Context) {
	userID := middleware.GetUserID(c)

	now := time.Now().UTC()
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil || year < 2000 || year > 2100 {
		response.BadRequest(c, "invalid year")
		return
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil || month < 1 || month > 12 {
		response.BadRequest(c, "invalid month")
		return
	}

	cal, err := h.analyticsService.GetCalendar(userID, year, month)
	if err != nil {
		response.InternalError(c, "failed to compute calendar")
		return
	}

	response.Success(c, cal)
}

// Distribution returns per-direction performance
// GET /api/v1/analytics/distribution
func (h *AnalyticsHandler) Distribution(c *gin.Context) {
	userID := middleware.GetUserID(c)

	dist, err := h.analyticsService.GetDistribution(userID)
	if err != nil {
		response.InternalError(c, "failed to compute distribution")
		return
	}

	response.Success(c, dist)
}

// AssetPerformance returns per-asset-type performance
// GET /api/v1/analytics/assets
func (h *AnalyticsHandler) AssetPerformance(c *gin.Context) {
	userID := middleware.GetUserID(c)

	assets, err := h.analyticsService.GetAssetPerformance(userID)
	if err != nil {
		response.InternalError(c, "failed to compute asset performance")
		return
	}

	response.Success(c, assets)
}

// RegisterRoutes registers analytics routes
func (h *AnalyticsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	analytics := rg.Group("/analytics")
	{
		analytics.GET("/performance", h.Performance)
		analytics.GET("/daily-pnl", h.DailyPnL)
		analytics.GET("/cumulative-pnl", h.CumulativePnL)
		analytics.GET("/streaks", h.Streaks)
		analytics.GET("/drawdown", h.Drawdown)
		analytics.GET("/day-stats", h.DayStats)
		analytics.GET("/calendar", h.Calendar)
		analytics.GET("/distribution", h.Distribution)
		analytics.GET("/assets", h.AssetPerformance)
	}
}
