package service

import (
	"math"
	"sort"
	"time"

	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
)

// AnalyticsService computes read-only rollups over closed journal entries.
// Everything is recomputed per request: per-user volumes are small and the
// journal is read-mostly.
type AnalyticsService struct {
	journalRepo *repository.JournalRepository
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(journalRepo *repository.JournalRepository) *AnalyticsService {
	return &AnalyticsService{journalRepo: journalRepo}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

// Performance holds the headline trade metrics
type Performance struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalPnL      float64 `json:"total_pnl"`
	AverageWin    float64 `json:"average_win"`
	AverageLoss   float64 `json:"average_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`
}

// GetPerformance computes win rate, averages, profit factor and extremes
// over all closed entries with realized P&L.
func (s *AnalyticsService) GetPerformance(userID uint) (*Performance, error) {
	entries, err := s.journalRepo.GetClosedWithPnL(userID)
	if err != nil {
		return nil, err
	}

	perf := &Performance{}
	if len(entries) == 0 {
		return perf, nil
	}

	var totalPnL, totalWins, totalLosses float64
	for _, e := range entries {
		pnl := *e.PnL
		totalPnL += pnl
		switch {
		case pnl > 0:
			perf.WinningTrades++
			totalWins += pnl
			if pnl > perf.LargestWin {
				perf.LargestWin = pnl
			}
		case pnl < 0:
			perf.LosingTrades++
			totalLosses += -pnl
			if pnl < perf.LargestLoss {
				perf.LargestLoss = pnl
			}
		}
	}

	perf.TotalTrades = len(entries)
	perf.WinRate = pct(perf.WinningTrades, perf.TotalTrades)
	perf.TotalPnL = round2(totalPnL)
	if perf.WinningTrades > 0 {
		perf.AverageWin = round2(totalWins / float64(perf.WinningTrades))
	}
	if perf.LosingTrades > 0 {
		perf.AverageLoss = round2(totalLosses / float64(perf.LosingTrades))
	}
	if totalLosses > 0 {
		perf.ProfitFactor = round2(totalWins / totalLosses)
	}
	perf.LargestWin = round2(perf.LargestWin)
	perf.LargestLoss = round2(perf.LargestLoss)
	return perf, nil
}

// DailyPnL is one day's aggregate in the daily rollup
type DailyPnL struct {
	Date    string  `json:"date"`
	PnL     float64 `json:"pnl"`
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
}

type dayBucket struct {
	pnl    float64
	trades int
	wins   int
	losses int
}

// bucketByDay groups entries by their entry date (not exit date).
func bucketByDay(entries []models.JournalEntry) map[string]*dayBucket {
	buckets := make(map[string]*dayBucket)
	for _, e := range entries {
		key := e.EntryDate.UTC().Format("2006-01-02")
		b := buckets[key]
		if b == nil {
			b = &dayBucket{}
			buckets[key] = b
		}
		b.pnl += *e.PnL
		b.trades++
		if *e.PnL > 0 {
			b.wins++
		} else {
			b.losses++
		}
	}
	return buckets
}

func sortedDays(buckets map[string]*dayBucket) []string {
	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// GetDailyPnL returns per-day aggregates in ascending date order; the
// optional range filters on entry date.
func (s *AnalyticsService) GetDailyPnL(userID uint, start, end *time.Time) ([]DailyPnL, error) {
	var entries []models.JournalEntry
	var err error
	if start != nil && end != nil {
		entries, err = s.journalRepo.GetClosedWithPnLInRange(userID, *start, *end)
	} else {
		entries, err = s.journalRepo.GetClosedWithPnL(userID)
		if err == nil {
			filtered := entries[:0]
			for _, e := range entries {
				if start != nil && e.EntryDate.Before(*start) {
					continue
				}
				if end != nil && e.EntryDate.After(*end) {
					continue
				}
				filtered = append(filtered, e)
			}
			entries = filtered
		}
	}
	if err != nil {
		return nil, err
	}

	buckets := bucketByDay(entries)
	result := make([]DailyPnL, 0, len(buckets))
	for _, day := range sortedDays(buckets) {
		b := buckets[day]
		result = append(result, DailyPnL{
			Date:    day,
			PnL:     round2(b.pnl),
			Trades:  b.trades,
			Wins:    b.wins,
			Losses:  b.losses,
			WinRate: pct(b.wins, b.trades),
		})
	}
	return result, nil
}

// CumulativePoint is one step of the cumulative P&L series
type CumulativePoint struct {
	Date          string  `json:"date"`
	PnL           float64 `json:"pnl"`
	CumulativePnL float64 `json:"cumulative_pnl"`
}

// GetCumulativePnL returns the running P&L sum in entry-date order
func (s *AnalyticsService) GetCumulativePnL(userID uint) ([]CumulativePoint, error) {
	entries, err := s.journalRepo.GetClosedWithPnL(userID)
	if err != nil {
		return nil, err
	}

	result := make([]CumulativePoint, 0, len(entries))
	var cumulative float64
	for _, e := range entries {
		cumulative += *e.PnL
		result = append(result, CumulativePoint{
			Date:          e.EntryDate.UTC().Format(time.RFC3339),
			PnL:           round2(*e.PnL),
			CumulativePnL: round2(cumulative),
		})
	}
	return result, nil
}

// Streaks holds the current win/loss runs at trade and day granularity
type Streaks struct {
	CurrentTradeStreak     int    `json:"current_trade_streak"`
	CurrentTradeStreakType string `json:"current_trade_streak_type"`
	CurrentDayStreak       int    `json:"current_day_streak"`
	CurrentDayStreakType   string `json:"current_day_streak_type"`
}

// GetStreaks scans most-recent-first until the streak type changes
func (s *AnalyticsService) GetStreaks(userID uint) (*Streaks, error) {
	entries, err := s.journalRepo.GetClosedWithPnL(userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &Streaks{CurrentTradeStreakType: "none", CurrentDayStreakType: "none"}, nil
	}

	// Repo returns ascending entry date; walk backwards.
	streaks := &Streaks{}
	latest := entries[len(entries)-1]
	tradeType := "loss"
	if *latest.PnL > 0 {
		tradeType = "win"
	}
	streaks.CurrentTradeStreakType = tradeType
	for i := len(entries) - 1; i >= 0; i-- {
		isWin := *entries[i].PnL > 0
		if (isWin && tradeType == "win") || (!isWin && tradeType == "loss") {
			streaks.CurrentTradeStreak++
		} else {
			break
		}
	}

	dailyPnL := make(map[string]float64)
	for _, e := range entries {
		dailyPnL[e.EntryDate.UTC().Format("2006-01-02")] += *e.PnL
	}
	days := make([]string, 0, len(dailyPnL))
	for day := range dailyPnL {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	dayType := "loss"
	if dailyPnL[days[0]] > 0 {
		dayType = "win"
	}
	streaks.CurrentDayStreakType = dayType
	for _, day := range days {
		isWinDay := dailyPnL[day] > 0
		if (isWinDay && dayType == "win") || (!isWinDay && dayType == "loss") {
			streaks.CurrentDayStreak++
		} else {
			break
		}
	}
	return streaks, nil
}

// Drawdown reports drawdown statistics over the cumulative P&L curve
type Drawdown struct {
	MaxDrawdown        float64 `json:"max_drawdown"`
	MaxDrawdownPercent float64 `json:"max_drawdown_percent"`
	AverageDrawdown    float64 `json:"average_drawdown"`
	CurrentDrawdown    float64 `json:"current_drawdown"`
}

// GetDrawdown tracks the running peak of cumulative P&L; drawdown at each
// step is peak minus current cumulative.
func (s *AnalyticsService) GetDrawdown(userID uint) (*Drawdown, error) {
	entries, err := s.journalRepo.GetClosedWithPnL(userID)
	if err != nil {
		return nil, err
	}

	dd := &Drawdown{}
	if len(entries) == 0 {
		return dd, nil
	}

	var cumulative, peak, maxDD, ddSum float64
	var ddCount int
	for _, e := range entries {
		cumulative += *e.PnL
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := peak - cumulative
		if drawdown > 0 {
			ddSum += drawdown
			ddCount++
			if drawdown > maxDD {
				maxDD = drawdown
			}
		}
	}

	dd.MaxDrawdown = round2(maxDD)
	dd.CurrentDrawdown = round2(peak - cumulative)
	if ddCount > 0 {
		dd.AverageDrawdown = round2(ddSum / float64(ddCount))
	}
	if peak > 0 {
		dd.MaxDrawdownPercent = round2(maxDD / peak * 100)
	}
	return dd, nil
}

// DayStats reports day-level win/loss statistics
type DayStats struct {
	TotalTradingDays int     `json:"total_trading_days"`
	WinningDays      int     `json:"winning_days"`
	LosingDays       int     `json:"losing_days"`
	BreakevenDays    int     `json:"breakeven_days"`
	DayWinRate       float64 `json:"day_win_rate"`
	AverageDayPnL    float64 `json:"average_day_pnl"`
}

// GetDayStats aggregates wins and losses at day granularity
func (s *AnalyticsService) GetDayStats(userID uint) (*DayStats, error) {
	entries, err := s.journalRepo.GetClosedWithPnL(userID)
	if err != nil {
		return nil, err
	}

	stats := &DayStats{}
	if len(entries) == 0 {
		return stats, nil
	}

	dailyPnL := make(map[string]float64)
	for _, e := range entries {
		dailyPnL[e.EntryDate.UTC().Format("2006-01-02")] += *e.PnL
	}

	var total float64
	for _, pnl := range dailyPnL {
		total += pnl
		switch {
		case pnl > 0:
			stats.WinningDays++
		case pnl < 0:
			stats.LosingDays++
		default:
			stats.BreakevenDays++
		}
	}
	stats.TotalTradingDays = len(dailyPnL)
	stats.DayWinRate = pct(stats.WinningDays, stats.TotalTradingDays)
	stats.AverageDayPnL = round2(total / float64(stats.TotalTradingDays))
	return stats, nil
}

// Calendar is the month-bounded per-day rollup
type Calendar struct {
	Year          int                 `json:"year"`
	Month         int                 `json:"month"`
	MonthlyPnL    float64             `json:"monthly_pnl"`
	MonthlyTrades int                 `json:"monthly_trades"`
	TradingDays   int                 `json:"trading_days"`
	Days          map[string]DailyPnL `json:"days"`
}

// GetCalendar aggregates one month of closed entries
func (s *AnalyticsService) GetCalendar(userID uint, year, month int) (*Calendar, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	entries, err := s.journalRepo.GetClosedWithPnLInRange(userID, start, end)
	if err != nil {
		return nil, err
	}

	buckets := bucketByDay(entries)
	cal := &Calendar{
		Year:        year,
		Month:       month,
		TradingDays: len(buckets),
		Days:        make(map[string]DailyPnL, len(buckets)),
	}

	var monthlyPnL float64
	for day, b := range buckets {
		monthlyPnL += b.pnl
		cal.MonthlyTrades += b.trades
		cal.Days[day] = DailyPnL{
			Date:    day,
			PnL:     round2(b.pnl),
			Trades:  b.trades,
			Wins:    b.wins,
			Losses:  b.losses,
			WinRate: pct(b.wins, b.trades),
		}
	}
	cal.MonthlyPnL = round2(monthlyPnL)
	return cal, nil
}

// DirectionStats is one side of the long/short distribution
type DirectionStats struct {
	Count   int     `json:"count"`
	PnL     float64 `json:"pnl"`
	WinRate float64 `json:"win_rate"`
}

// Distribution reports per-direction performance
type Distribution struct {
	Long  DirectionStats `json:"long"`
	Short DirectionStats `json:"short"`
}

// GetDistribution splits closed-trade performance by direction
func (s *AnalyticsService) GetDistribution(userID uint) (*Distribution, error) {
	entries, err := s.journalRepo.GetClosedWithPnL(userID)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count int
		pnl   float64
		wins  int
	}
	var long, short acc
	for _, e := range entries {
		a := &long
		if e.Direction == models.DirectionShort {
			a = &short
		}
		a.count++
		a.pnl += *e.PnL
		if *e.PnL > 0 {
			a.wins++
		}
	}

	return &Distribution{
		Long:  DirectionStats{Count: long.count, PnL: round2(long.pnl), WinRate: pct(long.wins, long.count)},
		Short: DirectionStats{Count: short.count, PnL: round2(short.pnl), WinRate: pct(short.wins, short.count)},
	}, nil
}

// AssetPerformance is per-asset-type performance
type AssetPerformance struct {
	AssetType string  `json:"asset_type"`
	Count     int     `json:"count"`
	PnL       float64 `json:"pnl"`
	WinRate   float64 `json:"win_rate"`
}

// GetAssetPerformance groups closed-trade performance by asset type
func (s *AnalyticsService) GetAssetPerformance(userID uint) ([]AssetPerformance, error) {
	entries, err := s.journalRepo.GetClosedWithPnL(userID)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count int
		pnl   float64
		wins  int
	}
	byAsset := make(map[string]*acc)
	for _, e := range entries {
		assetType := e.AssetType
		if assetType == "" {
			assetType = "unknown"
		}
		a := byAsset[assetType]
		if a == nil {
			a = &acc{}
			byAsset[assetType] = a
		}
		a.count++
		a.pnl += *e.PnL
		if *e.PnL > 0 {
			a.wins++
		}
	}

	assets := make([]string, 0, len(byAsset))
	for asset := range byAsset {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	result := make([]AssetPerformance, 0, len(assets))
	for _, asset := range assets {
		a := byAsset[asset]
		result = append(result, AssetPerformance{
			AssetType: asset,
			Count:     a.count,
			PnL:       round2(a.pnl),
			WinRate:   pct(a.wins, a.count),
		})
	}
	return result, nil
}
