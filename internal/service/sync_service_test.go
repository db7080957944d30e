package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trade-journal/internal/exchange"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
	"gorm.io/gorm"
)

const testAESKey = "unit-test-encryption-key"

// fakeConnector serves canned fills keyed by symbol
type fakeConnector struct {
	name        string
	fills       map[string][]exchange.Fill
	validateErr error
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) ValidateCredentials(_ context.Context) error {
	return f.validateErr
}

func (f *fakeConnector) FetchFills(_ context.Context, symbol string, _ int) ([]exchange.Fill, error) {
	fills, ok := f.fills[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return fills, nil
}

func (f *fakeConnector) FetchBalances(_ context.Context) ([]exchange.AssetBalance, error) {
	return []exchange.AssetBalance{{Asset: "BTC", Free: 1.5}}, nil
}

func newSyncService(db *gorm.DB, connector *fakeConnector) *SyncService {
	svc := NewSyncService(
		repository.NewExchangeRepository(db),
		repository.NewJournalRepository(db),
		testAESKey,
	)
	svc.SetConnectorFactory(func(_, _, _ string, _ bool) (exchange.Connector, error) {
		return connector, nil
	})
	return svc
}

func testFills() map[string][]exchange.Fill {
	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return map[string][]exchange.Fill{
		"BTCUSDT": {
			{ExternalID: "t-1", Symbol: "BTCUSDT", Side: "BUY", Timestamp: ts, Price: 50_000, Quantity: 0.1, Fee: 5, FeeAsset: "USDT"},
			{ExternalID: "t-2", Symbol: "BTCUSDT", Side: "SELL", Timestamp: ts.Add(time.Hour), Price: 51_000, Quantity: 0.1, Fee: 5.1, FeeAsset: "USDT"},
		},
	}
}

func TestConnectStoresEncryptedCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := newSyncService(db, &fakeConnector{name: "binance", fills: testFills()})

	conn, err := svc.Connect(context.Background(), testUserID, &ConnectRequest{
		Exchange:  "binance",
		APIKey:    "my-api-key",
		APISecret: "my-api-secret",
	})
	require.NoError(t, err)

	assert.True(t, conn.IsActive)
	assert.Equal(t, "spot", conn.AccountType)
	assert.NotEqual(t, "my-api-key", conn.APIKeyEncrypted)
	assert.NotEqual(t, "my-api-secret", conn.APISecretEncrypted)

	// Reconnecting replaces credentials instead of duplicating the row
	again, err := svc.Connect(context.Background(), testUserID, &ConnectRequest{
		Exchange:  "binance",
		APIKey:    "rotated-key",
		APISecret: "rotated-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, conn.ID, again.ID)

	statuses, err := svc.Status(testUserID)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "binance", statuses[0].Exchange)
}

func TestConnectRejectedCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := newSyncService(db, &fakeConnector{name: "binance", validateErr: errors.New("401")})

	_, err := svc.Connect(context.Background(), testUserID, &ConnectRequest{
		Exchange:  "binance",
		APIKey:    "bad",
		APISecret: "bad",
	})
	assert.ErrorIs(t, err, ErrCredentialsRejected)
}

func TestSyncImportsFillsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newSyncService(db, &fakeConnector{name: "binance", fills: testFills()})
	ctx := context.Background()

	conn, err := svc.Connect(ctx, testUserID, &ConnectRequest{
		Exchange:  "binance",
		APIKey:    "key",
		APISecret: "secret",
	})
	require.NoError(t, err)

	result, err := svc.Sync(ctx, testUserID, conn.ID, []string{"BTCUSDT"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Warnings)

	// Imported entries are closed and tagged with the exchange name. Raw
	// fills carry only the commission; realized P&L stays unset.
	entries, _, err := repository.NewJournalRepository(db).GetByUserIDPaginated(testUserID, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, models.StatusClosed, e.Status)
		assert.Equal(t, "binance", e.Source)
		assert.NotEmpty(t, e.ExternalID)
		assert.Nil(t, e.PnL)
		assert.Greater(t, e.Commission, 0.0)
	}

	// A second run is a no-op
	result, err = svc.Sync(ctx, testUserID, conn.ID, []string{"BTCUSDT"})
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	assert.Equal(t, 2, result.Skipped)

	updated, err := repository.NewExchangeRepository(db).GetByIDAndUserID(conn.ID, testUserID)
	require.NoError(t, err)
	assert.NotNil(t, updated.LastSyncedAt)
}

func TestSyncedFillsExcludedFromAnalytics(t *testing.T) {
	db := newTestDB(t)
	svc := newSyncService(db, &fakeConnector{name: "binance", fills: testFills()})
	ctx := context.Background()

	conn, err := svc.Connect(ctx, testUserID, &ConnectRequest{
		Exchange:  "binance",
		APIKey:    "key",
		APISecret: "secret",
	})
	require.NoError(t, err)

	result, err := svc.Sync(ctx, testUserID, conn.ID, []string{"BTCUSDT"})
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported)

	// Fills without realized P&L must not show up as losing trades
	perf, err := NewAnalyticsService(repository.NewJournalRepository(db)).GetPerformance(testUserID)
	require.NoError(t, err)
	assert.Zero(t, perf.TotalTrades)
	assert.Zero(t, perf.TotalPnL)
}

func TestSyncCollectsPerSymbolWarnings(t *testing.T) {
	db := newTestDB(t)
	svc := newSyncService(db, &fakeConnector{name: "binance", fills: testFills()})
	ctx := context.Background()

	conn, err := svc.Connect(ctx, testUserID, &ConnectRequest{
		Exchange:  "binance",
		APIKey:    "key",
		APISecret: "secret",
	})
	require.NoError(t, err)

	result, err := svc.Sync(ctx, testUserID, conn.ID, []string{"DOGEUSDT", "BTCUSDT"})
	require.NoError(t, err)

	// The failing symbol is reported, the rest still imports
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "DOGEUSDT")
}

func TestSyncUnknownConnection(t *testing.T) {
	db := newTestDB(t)
	svc := newSyncService(db, &fakeConnector{name: "binance", fills: testFills()})

	_, err := svc.Sync(context.Background(), testUserID, 42, []string{"BTCUSDT"})
	assert.ErrorIs(t, err, repository.ErrConnectionNotFound)
}
