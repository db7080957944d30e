package repository

import (
	"errors"
	"time"

	"github.com/trade-journal/internal/models"
	"gorm.io/gorm"
)

var (
	ErrEntryNotFound = errors.New("journal entry not found")
)

// JournalRepository handles trade journal data access
type JournalRepository struct {
	db *gorm.DB
}

// NewJournalRepository creates a new JournalRepository
func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *JournalRepository) WithTx(tx *gorm.DB) *JournalRepository {
	return &JournalRepository{db: tx}
}

// Create creates a new journal entry
func (r *JournalRepository) Create(entry *models.JournalEntry) error {
	return r.db.Create(entry).Error
}

// GetByIDAndUserID retrieves an entry by ID scoped to its owner
func (r *JournalRepository) GetByIDAndUserID(id, userID uint) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	result := r.db.Where("id = ? AND user_id = ?", id, userID).First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, result.Error
	}
	return &entry, nil
}

// GetByUserIDPaginated retrieves entries for a user with pagination,
// newest entry date first
func (r *JournalRepository) GetByUserIDPaginated(userID uint, page, pageSize int) ([]models.JournalEntry, int64, error) {
	var entries []models.JournalEntry
	var total int64

	if err := r.db.Model(&models.JournalEntry{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	result := r.db.Where("user_id = ?", userID).
		Order("entry_date DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&entries)

	return entries, total, result.Error
}

// GetOpenLots retrieves currently OPEN LONG entries for a symbol and source,
// oldest entry first. This is the FIFO order for spot lot closing.
func (r *JournalRepository) GetOpenLots(userID uint, symbol, source string) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	result := r.db.Where(
		"user_id = ? AND symbol = ? AND status = ? AND direction = ? AND source = ?",
		userID, symbol, models.StatusOpen, models.DirectionLong, source,
	).Order("entry_date ASC").Find(&entries)
	return entries, result.Error
}

// GetClosedWithPnL retrieves CLOSED entries that have a realized P&L,
// ordered by entry date ascending. The analytics rollups scan this set.
func (r *JournalRepository) GetClosedWithPnL(userID uint) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	result := r.db.Where(
		"user_id = ? AND status = ? AND pnl IS NOT NULL",
		userID, models.StatusClosed,
	).Order("entry_date ASC").Find(&entries)
	return entries, result.Error
}

// GetClosedWithPnLInRange retrieves CLOSED entries with P&L whose entry date
// falls inside [start, end], ordered ascending
func (r *JournalRepository) GetClosedWithPnLInRange(userID uint, start, end time.Time) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	result := r.db.Where(
		"user_id = ? AND status = ? AND pnl IS NOT NULL AND entry_date >= ? AND entry_date <= ?",
		userID, models.StatusClosed, start, end,
	).Order("entry_date ASC").Find(&entries)
	return entries, result.Error
}

// GetClosedBySources retrieves CLOSED entries from the given sources
func (r *JournalRepository) GetClosedBySources(userID uint, sources []string) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	result := r.db.Where(
		"user_id = ? AND status = ? AND source IN ?",
		userID, models.StatusClosed, sources,
	).Find(&entries)
	return entries, result.Error
}

// ExistsByExternalID checks whether a synced fill was already imported
func (r *JournalRepository) ExistsByExternalID(userID uint, source, externalID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.JournalEntry{}).
		Where("user_id = ? AND source = ? AND external_id = ?", userID, source, externalID).
		Count(&count).Error
	return count > 0, err
}

// Save persists entry changes
func (r *JournalRepository) Save(entry *models.JournalEntry) error {
	return r.db.Save(entry).Error
}

// Delete soft deletes an entry scoped to its owner
func (r *JournalRepository) Delete(id, userID uint) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.JournalEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}
