package models

import (
	"time"

	"gorm.io/gorm"
)

// TradeDirection represents the direction of a trade
type TradeDirection string

const (
	DirectionLong  TradeDirection = "LONG"
	DirectionShort TradeDirection = "SHORT"
)

// TradeStatus represents the lifecycle state of a journal entry
type TradeStatus string

const (
	StatusOpen   TradeStatus = "OPEN"
	StatusClosed TradeStatus = "CLOSED"
)

// Journal entry sources. Entries synced from a real exchange carry the
// exchange name itself (e.g. "binance").
const (
	SourceManual  = "manual"
	SourceSimSpot = "simulated_spot"
	SourceSimFut  = "simulated_futures"
)

// JournalEntry is one row in the trade journal: a manual trade, a simulated
// fill, or an imported exchange fill. Spot buys stay OPEN as FIFO lots until
// an offsetting sell closes them; futures entries are closed by the position
// close flow.
type JournalEntry struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"index;not null" json:"user_id"`
	Symbol     string         `gorm:"size:30;not null;index" json:"symbol"`
	Direction  TradeDirection `gorm:"size:10;not null" json:"direction"`
	EntryDate  time.Time      `gorm:"index;not null" json:"entry_date"`
	EntryPrice float64        `gorm:"type:decimal(20,8);not null" json:"entry_price"`
	Quantity   float64        `gorm:"type:decimal(20,8);not null" json:"quantity"`
	ExitDate   *time.Time     `json:"exit_date,omitempty"`
	ExitPrice  *float64       `gorm:"type:decimal(20,8)" json:"exit_price,omitempty"`
	PnL        *float64       `gorm:"column:pnl;type:decimal(20,8)" json:"pnl,omitempty"`
	Status     TradeStatus    `gorm:"size:10;not null;default:'OPEN';index" json:"status"`
	AssetType  string         `gorm:"size:20;default:'crypto'" json:"asset_type"`
	Commission float64        `gorm:"type:decimal(20,8);default:0" json:"commission"`
	Source     string         `gorm:"size:30;default:'manual';index" json:"source"`
	ExternalID string         `gorm:"size:64;index" json:"external_id,omitempty"`
	StopLoss   *float64       `gorm:"type:decimal(20,8)" json:"stop_loss,omitempty"`
	TakeProfit *float64       `gorm:"type:decimal(20,8)" json:"take_profit,omitempty"`
	Notes      string         `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for JournalEntry model
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// IsWin reports whether the entry closed with positive P&L.
func (e *JournalEntry) IsWin() bool {
	return e.PnL != nil && *e.PnL > 0
}
