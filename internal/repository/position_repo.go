package repository

import (
	"errors"

	"github.com/trade-journal/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPositionNotFound = errors.New("position not found")
)

// PositionRepository handles simulated position data access
type PositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a new PositionRepository
func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *PositionRepository) WithTx(tx *gorm.DB) *PositionRepository {
	return &PositionRepository{db: tx}
}

// Create creates a new position
func (r *PositionRepository) Create(position *models.Position) error {
	return r.db.Create(position).Error
}

// GetOpenForUpdate loads one OPEN position owned by the user under a row
// lock. Must be called inside a transaction.
func (r *PositionRepository) GetOpenForUpdate(id, userID uint) (*models.Position, error) {
	var position models.Position
	result := forUpdate(r.db).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, models.PositionOpen).
		First(&position)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, result.Error
	}
	return &position, nil
}

// GetOpenByIDAndUserID retrieves one OPEN position without locking
func (r *PositionRepository) GetOpenByIDAndUserID(id, userID uint) (*models.Position, error) {
	var position models.Position
	result := r.db.Where("id = ? AND user_id = ? AND status = ?", id, userID, models.PositionOpen).
		First(&position)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, result.Error
	}
	return &position, nil
}

// GetOpenByUserID retrieves all OPEN positions, newest first
func (r *PositionRepository) GetOpenByUserID(userID uint) ([]models.Position, error) {
	var positions []models.Position
	result := r.db.Where("user_id = ? AND status = ?", userID, models.PositionOpen).
		Order("created_at DESC").
		Find(&positions)
	return positions, result.Error
}

// GetClosedByUserID retrieves CLOSED positions, newest first, up to limit
func (r *PositionRepository) GetClosedByUserID(userID uint, limit int) ([]models.Position, error) {
	var positions []models.Position
	result := r.db.Where("user_id = ? AND status = ?", userID, models.PositionClosed).
		Order("created_at DESC").
		Limit(limit).
		Find(&positions)
	return positions, result.Error
}

// Save persists position changes
func (r *PositionRepository) Save(position *models.Position) error {
	return r.db.Save(position).Error
}

// CloseAllOpenByUserID flips every OPEN position to CLOSED (wallet reset)
func (r *PositionRepository) CloseAllOpenByUserID(userID uint) (int64, error) {
	result := r.db.Model(&models.Position{}).
		Where("user_id = ? AND status = ?", userID, models.PositionOpen).
		Update("status", models.PositionClosed)
	return result.RowsAffected, result.Error
}
