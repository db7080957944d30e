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

func newJournalService(db *gorm.DB) *JournalService {
	return NewJournalService(repository.NewJournalRepository(db))
}

func TestCreateOpenEntry(t *testing.T) {
	db := newTestDB(t)
	svc := newJournalService(db)

	entry, err := svc.Create(testUserID, &CreateEntryRequest{
		Symbol:     "AAPL",
		Direction:  "LONG",
		EntryDate:  time.Date(2026, 4, 1, 14, 30, 0, 0, time.UTC),
		EntryPrice: 180,
		Quantity:   10,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusOpen, entry.Status)
	assert.Equal(t, "stock", entry.AssetType)
	assert.Equal(t, models.SourceManual, entry.Source)
	assert.Nil(t, entry.PnL)
}

func TestCreateClosedEntryRealizesPnL(t *testing.T) {
	db := newTestDB(t)
	svc := newJournalService(db)

	exitDate := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	exitPrice := 190.0
	entry, err := svc.Create(testUserID, &CreateEntryRequest{
		Symbol:     "AAPL",
		Direction:  "LONG",
		EntryDate:  time.Date(2026, 4, 1, 14, 30, 0, 0, time.UTC),
		EntryPrice: 180,
		Quantity:   10,
		ExitDate:   &exitDate,
		ExitPrice:  &exitPrice,
		Commission: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusClosed, entry.Status)
	require.NotNil(t, entry.PnL)
	assert.Equal(t, 98.0, *entry.PnL) // (190-180)*10 - 2
}

func TestShortPnLIsDirectionAware(t *testing.T) {
	db := newTestDB(t)
	svc := newJournalService(db)

	exitDate := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	exitPrice := 90.0
	entry, err := svc.Create(testUserID, &CreateEntryRequest{
		Symbol:     "TSLA",
		Direction:  "SHORT",
		EntryDate:  time.Date(2026, 4, 1, 14, 30, 0, 0, time.UTC),
		EntryPrice: 100,
		Quantity:   5,
		ExitDate:   &exitDate,
		ExitPrice:  &exitPrice,
	})
	require.NoError(t, err)

	require.NotNil(t, entry.PnL)
	assert.Equal(t, 50.0, *entry.PnL)
}

func TestUpdateClosesEntry(t *testing.T) {
	db := newTestDB(t)
	svc := newJournalService(db)

	entry, err := svc.Create(testUserID, &CreateEntryRequest{
		Symbol:     "AAPL",
		Direction:  "LONG",
		EntryDate:  time.Date(2026, 4, 1, 14, 30, 0, 0, time.UTC),
		EntryPrice: 180,
		Quantity:   10,
	})
	require.NoError(t, err)

	exitPrice := 175.0
	updated, err := svc.Update(testUserID, entry.ID, &UpdateEntryRequest{ExitPrice: &exitPrice})
	require.NoError(t, err)

	assert.Equal(t, models.StatusClosed, updated.Status)
	require.NotNil(t, updated.PnL)
	assert.Equal(t, -50.0, *updated.PnL)
	assert.NotNil(t, updated.ExitDate)
}

func TestGetAndDeleteAreOwnerScoped(t *testing.T) {
	db := newTestDB(t)
	svc := newJournalService(db)

	entry, err := svc.Create(testUserID, &CreateEntryRequest{
		Symbol:     "AAPL",
		Direction:  "LONG",
		EntryDate:  time.Date(2026, 4, 1, 14, 30, 0, 0, time.UTC),
		EntryPrice: 180,
		Quantity:   10,
	})
	require.NoError(t, err)

	const otherUser uint = 2
	_, err = svc.Get(otherUser, entry.ID)
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)

	err = svc.Delete(otherUser, entry.ID)
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)

	require.NoError(t, svc.Delete(testUserID, entry.ID))
	_, err = svc.Get(testUserID, entry.ID)
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)
}
