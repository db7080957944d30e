package models

import (
	"time"

	"gorm.io/gorm"
)

// ExchangeConnection stores one user's API credentials for a real exchange.
// Secrets are AES-encrypted at rest; the plaintext never leaves the sync
// service.
type ExchangeConnection struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"index;not null" json:"user_id"`
	ExchangeName       string         `gorm:"size:30;not null" json:"exchange_name"`
	APIKeyEncrypted    string         `gorm:"size:512;not null" json:"-"`
	APISecretEncrypted string         `gorm:"size:512;not null" json:"-"`
	IsActive           bool           `gorm:"default:true" json:"is_active"`
	IsTestnet          bool           `gorm:"default:false" json:"is_testnet"`
	AccountType        string         `gorm:"size:10;default:'spot'" json:"account_type"`
	LastSyncedAt       *time.Time     `json:"last_synced_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for ExchangeConnection model
func (ExchangeConnection) TableName() string {
	return "exchange_connections"
}
