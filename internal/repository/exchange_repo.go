package repository

import (
	"errors"
	"time"

	"github.com/trade-journal/internal/models"
	"gorm.io/gorm"
)

var (
	ErrConnectionNotFound = errors.New("exchange connection not found")
)

// ExchangeRepository handles exchange connection data access
type ExchangeRepository struct {
	db *gorm.DB
}

// NewExchangeRepository creates a new ExchangeRepository
func NewExchangeRepository(db *gorm.DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

// Create creates a new connection
func (r *ExchangeRepository) Create(conn *models.ExchangeConnection) error {
	return r.db.Create(conn).Error
}

// GetByIDAndUserID retrieves a connection by ID scoped to its owner
func (r *ExchangeRepository) GetByIDAndUserID(id, userID uint) (*models.ExchangeConnection, error) {
	var conn models.ExchangeConnection
	result := r.db.Where("id = ? AND user_id = ?", id, userID).First(&conn)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, result.Error
	}
	return &conn, nil
}

// GetByUserIDAndExchange retrieves a connection by exchange name
func (r *ExchangeRepository) GetByUserIDAndExchange(userID uint, exchangeName string) (*models.ExchangeConnection, error) {
	var conn models.ExchangeConnection
	result := r.db.Where("user_id = ? AND exchange_name = ?", userID, exchangeName).First(&conn)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, result.Error
	}
	return &conn, nil
}

// GetActiveByUserID retrieves all active connections for a user
func (r *ExchangeRepository) GetActiveByUserID(userID uint) ([]models.ExchangeConnection, error) {
	var conns []models.ExchangeConnection
	result := r.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&conns)
	return conns, result.Error
}

// Save persists connection changes
func (r *ExchangeRepository) Save(conn *models.ExchangeConnection) error {
	return r.db.Save(conn).Error
}

// TouchLastSynced records a successful sync time
func (r *ExchangeRepository) TouchLastSynced(id uint, at time.Time) error {
	return r.db.Model(&models.ExchangeConnection{}).
		Where("id = ?", id).
		Update("last_synced_at", at).Error
}
