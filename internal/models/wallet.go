package models

import (
	"time"
)

// Wallet holds one user's balance for a single asset.
// Balance is freely spendable; LockedBalance is reserved as futures margin.
// Both are kept >= 0 by the execution engines.
type Wallet struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index:idx_wallet_user_asset,unique;not null" json:"user_id"`
	Asset         string    `gorm:"index:idx_wallet_user_asset,unique;size:20;not null" json:"asset"`
	Balance       float64   `gorm:"type:decimal(20,8);default:0" json:"balance"`
	LockedBalance float64   `gorm:"type:decimal(20,8);default:0" json:"locked_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for Wallet model
func (Wallet) TableName() string {
	return "wallets"
}

// Total returns the full wallet value including locked margin.
func (w *Wallet) Total() float64 {
	return w.Balance + w.LockedBalance
}
