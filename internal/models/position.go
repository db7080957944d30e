package models

import (
	"time"
)

// PositionStatus represents the position lifecycle state
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Position is one open leveraged exposure in the simulated futures engine.
// Exactly one open position maps to one journal entry via JournalEntryID.
// Positions are never deleted; close flips Status to CLOSED.
type Position struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"index;not null" json:"user_id"`
	Symbol           string         `gorm:"size:20;not null;index" json:"symbol"`
	BaseAsset        string         `gorm:"size:20;not null" json:"base_asset"`
	Side             TradeDirection `gorm:"size:10;not null" json:"side"`
	Quantity         float64        `gorm:"type:decimal(20,8);not null" json:"quantity"`
	EntryPrice       float64        `gorm:"type:decimal(20,8);not null" json:"entry_price"`
	Leverage         int            `gorm:"default:1" json:"leverage"`
	MarginUsed       float64        `gorm:"type:decimal(20,8);not null" json:"margin_used"`
	LiquidationPrice float64        `gorm:"type:decimal(20,8)" json:"liquidation_price"`
	TakeProfit       *float64       `gorm:"type:decimal(20,8)" json:"take_profit,omitempty"`
	StopLoss         *float64       `gorm:"type:decimal(20,8)" json:"stop_loss,omitempty"`
	Status           PositionStatus `gorm:"size:10;not null;default:'OPEN';index" json:"status"`
	JournalEntryID   *uint          `gorm:"index" json:"journal_entry_id,omitempty"`
	OrderRef         string         `gorm:"size:40" json:"order_ref,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for Position model
func (Position) TableName() string {
	return "positions"
}

// UnrealizedPnL computes the mark-to-market P&L at the given price.
func (p *Position) UnrealizedPnL(markPrice float64) float64 {
	if p.Side == DirectionLong {
		return (markPrice - p.EntryPrice) * p.Quantity
	}
	return (p.EntryPrice - markPrice) * p.Quantity
}
