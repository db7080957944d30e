package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trade-journal/internal/config"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testUserID uint = 1

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// In-memory SQLite lives in a single connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.JournalEntry{},
		&models.Position{},
		&models.ExchangeConnection{},
	))
	return db
}

func testSimConfig() config.SimulationConfig {
	return config.SimulationConfig{
		InitialBalance: 100_000,
		QuoteAsset:     "USDT",
	}
}

// stubPrices is a fixed-price PriceSource
type stubPrices struct {
	price float64
	err   error
}

func (s *stubPrices) FetchPrice(_ context.Context, _ string) (float64, error) {
	return s.price, s.err
}

func seedWallet(t *testing.T, db *gorm.DB, asset string, balance float64) {
	t.Helper()
	require.NoError(t, repository.NewWalletRepository(db).Create(&models.Wallet{
		UserID:  testUserID,
		Asset:   asset,
		Balance: balance,
	}))
}

func walletBalance(t *testing.T, db *gorm.DB, asset string) *models.Wallet {
	t.Helper()
	wallet, err := repository.NewWalletRepository(db).GetByUserIDAndAsset(testUserID, asset)
	require.NoError(t, err)
	return wallet
}

// closedEntry inserts a closed journal entry dated day days after the base
// date with the given realized P&L.
func closedEntry(t *testing.T, db *gorm.DB, day int, pnl float64, direction models.TradeDirection, assetType string) {
	t.Helper()

	entryDate := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, day)
	exitDate := entryDate.Add(time.Hour)
	exitPrice := 110.0
	require.NoError(t, repository.NewJournalRepository(db).Create(&models.JournalEntry{
		UserID:     testUserID,
		Symbol:     "AAPL",
		Direction:  direction,
		EntryDate:  entryDate,
		EntryPrice: 100,
		Quantity:   1,
		ExitDate:   &exitDate,
		ExitPrice:  &exitPrice,
		PnL:        &pnl,
		Status:     models.StatusClosed,
		AssetType:  assetType,
		Source:     models.SourceManual,
	}))
}
