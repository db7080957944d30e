package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
	"gorm.io/gorm"
)

func newAnalyticsService(db *gorm.DB) *AnalyticsService {
	return NewAnalyticsService(repository.NewJournalRepository(db))
}

func TestPerformanceEmptyJournal(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	perf, err := svc.GetPerformance(testUserID)
	require.NoError(t, err)

	assert.Zero(t, perf.TotalTrades)
	assert.Zero(t, perf.WinRate)
	assert.Zero(t, perf.ProfitFactor)
	assert.Zero(t, perf.TotalPnL)
}

func TestPerformanceMetrics(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	closedEntry(t, db, 0, 10, models.DirectionLong, "stock")
	closedEntry(t, db, 1, -5, models.DirectionLong, "stock")
	closedEntry(t, db, 2, 20, models.DirectionShort, "crypto")
	closedEntry(t, db, 3, -30, models.DirectionLong, "stock")

	perf, err := svc.GetPerformance(testUserID)
	require.NoError(t, err)

	assert.Equal(t, 4, perf.TotalTrades)
	assert.Equal(t, 2, perf.WinningTrades)
	assert.Equal(t, 2, perf.LosingTrades)
	assert.Equal(t, 50.0, perf.WinRate)
	assert.Equal(t, -5.0, perf.TotalPnL)
	assert.Equal(t, 15.0, perf.AverageWin)
	assert.Equal(t, 17.5, perf.AverageLoss)
	assert.Equal(t, 0.86, perf.ProfitFactor)
	assert.Equal(t, 20.0, perf.LargestWin)
	assert.Equal(t, -30.0, perf.LargestLoss)
}

func TestProfitFactorZeroWithoutLosses(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	closedEntry(t, db, 0, 10, models.DirectionLong, "stock")
	closedEntry(t, db, 1, 20, models.DirectionLong, "stock")

	perf, err := svc.GetPerformance(testUserID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, perf.ProfitFactor)
	assert.Equal(t, 100.0, perf.WinRate)
}

func TestDrawdownTracksRunningPeak(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	// Cumulative: 10, 5, 25, -5; peak reaches 25
	closedEntry(t, db, 0, 10, models.DirectionLong, "stock")
	closedEntry(t, db, 1, -5, models.DirectionLong, "stock")
	closedEntry(t, db, 2, 20, models.DirectionLong, "stock")
	closedEntry(t, db, 3, -30, models.DirectionLong, "stock")

	dd, err := svc.GetDrawdown(testUserID)
	require.NoError(t, err)

	assert.Equal(t, 30.0, dd.MaxDrawdown)
	assert.Equal(t, 30.0, dd.CurrentDrawdown)
	assert.Equal(t, 17.5, dd.AverageDrawdown)
	assert.Equal(t, 120.0, dd.MaxDrawdownPercent)
}

func TestStreaksScanMostRecentFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	closedEntry(t, db, 0, 10, models.DirectionLong, "stock")
	closedEntry(t, db, 1, -5, models.DirectionLong, "stock")
	closedEntry(t, db, 2, -3, models.DirectionLong, "stock")

	streaks, err := svc.GetStreaks(testUserID)
	require.NoError(t, err)

	assert.Equal(t, 2, streaks.CurrentTradeStreak)
	assert.Equal(t, "loss", streaks.CurrentTradeStreakType)
	assert.Equal(t, 2, streaks.CurrentDayStreak)
	assert.Equal(t, "loss", streaks.CurrentDayStreakType)
}

func TestStreaksEmptyJournal(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	streaks, err := svc.GetStreaks(testUserID)
	require.NoError(t, err)
	assert.Zero(t, streaks.CurrentTradeStreak)
	assert.Equal(t, "none", streaks.CurrentTradeStreakType)
	assert.Equal(t, "none", streaks.CurrentDayStreakType)
}

func TestDailyPnLGroupsByEntryDay(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	closedEntry(t, db, 0, 10, models.DirectionLong, "stock")
	closedEntry(t, db, 0, -4, models.DirectionLong, "stock")
	closedEntry(t, db, 2, 7, models.DirectionLong, "stock")

	daily, err := svc.GetDailyPnL(testUserID, nil, nil)
	require.NoError(t, err)
	require.Len(t, daily, 2)

	assert.Equal(t, "2026-03-01", daily[0].Date)
	assert.Equal(t, 6.0, daily[0].PnL)
	assert.Equal(t, 2, daily[0].Trades)
	assert.Equal(t, 1, daily[0].Wins)
	assert.Equal(t, 50.0, daily[0].WinRate)

	assert.Equal(t, "2026-03-03", daily[1].Date)
	assert.Equal(t, 7.0, daily[1].PnL)
}

func TestDailyPnLRangeFilter(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	closedEntry(t, db, 0, 10, models.DirectionLong, "stock")
	closedEntry(t, db, 5, 20, models.DirectionLong, "stock")

	start := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	daily, err := svc.GetDailyPnL(testUserID, &start, &end)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "2026-03-06", daily[0].Date)
}

func TestCumulativePnL(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	closedEntry(t, db, 0, 10, models.DirectionLong, "stock")
	closedEntry(t, db, 1, -5, models.DirectionLong, "stock")

	series, err := svc.GetCumulativePnL(testUserID)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 10.0, series[0].CumulativePnL)
	assert.Equal(t, 5.0, series[1].CumulativePnL)
}

func TestDayStats(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	closedEntry(t, db, 0, 10, models.DirectionLong, "stock")
	closedEntry(t, db, 1, -5, models.DirectionLong, "stock")
	closedEntry(t, db, 2, 5, models.DirectionLong, "stock")
	closedEntry(t, db, 2, -5, models.DirectionLong, "stock")

	stats, err := svc.GetDayStats(testUserID)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalTradingDays)
	assert.Equal(t, 1, stats.WinningDays)
	assert.Equal(t, 1, stats.LosingDays)
	assert.Equal(t, 1, stats.BreakevenDays)
	assert.Equal(t, 33.33, stats.DayWinRate)
}

func TestCalendarBoundsToMonth(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	closedEntry(t, db, 0, 10, models.DirectionLong, "stock")  // March 1
	closedEntry(t, db, 31, 99, models.DirectionLong, "stock") // April 1

	cal, err := svc.GetCalendar(testUserID, 2026, 3)
	require.NoError(t, err)

	assert.Equal(t, 2026, cal.Year)
	assert.Equal(t, 3, cal.Month)
	assert.Equal(t, 1, cal.TradingDays)
	assert.Equal(t, 1, cal.MonthlyTrades)
	assert.Equal(t, 10.0, cal.MonthlyPnL)
	assert.Contains(t, cal.Days, "2026-03-01")
}

func TestDistributionByDirection(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	closedEntry(t, db, 0, 10, models.DirectionLong, "stock")
	closedEntry(t, db, 1, -5, models.DirectionLong, "stock")
	closedEntry(t, db, 2, 20, models.DirectionShort, "stock")

	dist, err := svc.GetDistribution(testUserID)
	require.NoError(t, err)

	assert.Equal(t, 2, dist.Long.Count)
	assert.Equal(t, 5.0, dist.Long.PnL)
	assert.Equal(t, 50.0, dist.Long.WinRate)
	assert.Equal(t, 1, dist.Short.Count)
	assert.Equal(t, 20.0, dist.Short.PnL)
	assert.Equal(t, 100.0, dist.Short.WinRate)
}

func TestAssetPerformance(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)

	closedEntry(t, db, 0, 10, models.DirectionLong, "crypto")
	closedEntry(t, db, 1, -5, models.DirectionLong, "stock")
	closedEntry(t, db, 2, 15, models.DirectionLong, "stock")

	assets, err := svc.GetAssetPerformance(testUserID)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	// Sorted by asset type
	assert.Equal(t, "crypto", assets[0].AssetType)
	assert.Equal(t, 10.0, assets[0].PnL)
	assert.Equal(t, "stock", assets[1].AssetType)
	assert.Equal(t, 10.0, assets[1].PnL)
	assert.Equal(t, 50.0, assets[1].WinRate)
}
