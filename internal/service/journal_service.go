package service

import (
	"time"

	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
)

// JournalService handles manual trade journal entries. Simulated and
// synced entries are written by their own engines; this service only ever
// touches what the user records by hand.
type JournalService struct {
	journalRepo *repository.JournalRepository
}

// NewJournalService creates a new JournalService
func NewJournalService(journalRepo *repository.JournalRepository) *JournalService {
	return &JournalService{journalRepo: journalRepo}
}

// CreateEntryRequest represents a manual journal entry
type CreateEntryRequest struct {
	Symbol     string     `json:"symbol" binding:"required"`
	Direction  string     `json:"direction" binding:"required,oneof=LONG SHORT"`
	EntryDate  time.Time  `json:"entry_date" binding:"required"`
	EntryPrice float64    `json:"entry_price" binding:"required,gt=0"`
	Quantity   float64    `json:"quantity" binding:"required,gt=0"`
	ExitDate   *time.Time `json:"exit_date"`
	ExitPrice  *float64   `json:"exit_price"`
	AssetType  string     `json:"asset_type"`
	Commission float64    `json:"commission"`
	StopLoss   *float64   `json:"stop_loss"`
	TakeProfit *float64   `json:"take_profit"`
	Notes      string     `json:"notes"`
}

// UpdateEntryRequest carries partial updates; nil fields are untouched
type UpdateEntryRequest struct {
	ExitDate   *time.Time `json:"exit_date"`
	ExitPrice  *float64   `json:"exit_price"`
	StopLoss   *float64   `json:"stop_loss"`
	TakeProfit *float64   `json:"take_profit"`
	Commission *float64   `json:"commission"`
	Notes      *string    `json:"notes"`
}

// realizedPnL computes direction-aware P&L net of commission.
func realizedPnL(entry *models.JournalEntry, exitPrice float64) float64 {
	var gross float64
	if entry.Direction == models.DirectionLong {
		gross = (exitPrice - entry.EntryPrice) * entry.Quantity
	} else {
		gross = (entry.EntryPrice - exitPrice) * entry.Quantity
	}
	return round4(gross - entry.Commission)
}

// Create records a manual entry. An entry created with an exit price is
// immediately CLOSED with its P&L realized.
func (s *JournalService) Create(userID uint, req *CreateEntryRequest) (*models.JournalEntry, error) {
	assetType := req.AssetType
	if assetType == "" {
		assetType = "stock"
	}

	entry := &models.JournalEntry{
		UserID:     userID,
		Symbol:     req.Symbol,
		Direction:  models.TradeDirection(req.Direction),
		EntryDate:  req.EntryDate,
		EntryPrice: req.EntryPrice,
		Quantity:   req.Quantity,
		Status:     models.StatusOpen,
		AssetType:  assetType,
		Commission: req.Commission,
		Source:     models.SourceManual,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Notes:      req.Notes,
	}

	if req.ExitPrice != nil {
		pnl := realizedPnL(entry, *req.ExitPrice)
		entry.ExitPrice = req.ExitPrice
		entry.ExitDate = req.ExitDate
		entry.PnL = &pnl
		entry.Status = models.StatusClosed
	}

	if err := s.journalRepo.Create(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Get retrieves one entry scoped to its owner
func (s *JournalService) Get(userID, entryID uint) (*models.JournalEntry, error) {
	return s.journalRepo.GetByIDAndUserID(entryID, userID)
}

// List retrieves entries with pagination
func (s *JournalService) List(userID uint, page, pageSize int) ([]models.JournalEntry, int64, error) {
	return s.journalRepo.GetByUserIDPaginated(userID, page, pageSize)
}

// Update applies a partial update. Setting an exit price recomputes the
// P&L and closes the entry.
func (s *JournalService) Update(userID, entryID uint, req *UpdateEntryRequest) (*models.JournalEntry, error) {
	entry, err := s.journalRepo.GetByIDAndUserID(entryID, userID)
	if err != nil {
		return nil, err
	}

	if req.StopLoss != nil {
		entry.StopLoss = req.StopLoss
	}
	if req.TakeProfit != nil {
		entry.TakeProfit = req.TakeProfit
	}
	if req.Commission != nil {
		entry.Commission = *req.Commission
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}
	if req.ExitDate != nil {
		entry.ExitDate = req.ExitDate
	}
	if req.ExitPrice != nil {
		pnl := realizedPnL(entry, *req.ExitPrice)
		entry.ExitPrice = req.ExitPrice
		entry.PnL = &pnl
		entry.Status = models.StatusClosed
		if entry.ExitDate == nil {
			now := time.Now().UTC()
			entry.ExitDate = &now
		}
	}

	if err := s.journalRepo.Save(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry scoped to its owner
func (s *JournalService) Delete(userID, entryID uint) error {
	return s.journalRepo.Delete(entryID, userID)
}
