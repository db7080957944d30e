package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trade-journal/internal/config"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
	"gorm.io/gorm"
)

const (
	minLeverage = 1
	maxLeverage = 125

	positionHistoryLimit = 50
)

// FuturesService opens and closes simulated leveraged positions. Margin
// moves between a wallet's available and locked balance so the wallet
// total is conserved across an open; a close releases the margin and
// settles realized P&L.
type FuturesService struct {
	db           *gorm.DB
	walletRepo   *repository.WalletRepository
	positionRepo *repository.PositionRepository
	journalRepo  *repository.JournalRepository
	prices       PriceSource
	simCfg       config.SimulationConfig
}

// NewFuturesService creates a new FuturesService
func NewFuturesService(
	db *gorm.DB,
	walletRepo *repository.WalletRepository,
	positionRepo *repository.PositionRepository,
	journalRepo *repository.JournalRepository,
	prices PriceSource,
	simCfg config.SimulationConfig,
) *FuturesService {
	return &FuturesService{
		db:           db,
		walletRepo:   walletRepo,
		positionRepo: positionRepo,
		journalRepo:  journalRepo,
		prices:       prices,
		simCfg:       simCfg,
	}
}

// FuturesOrderRequest represents a market futures order
type FuturesOrderRequest struct {
	Symbol     string   `json:"symbol" binding:"required"`
	Side       string   `json:"side" binding:"required"`
	Quantity   float64  `json:"quantity" binding:"required,gt=0"`
	Leverage   int      `json:"leverage"`
	TakeProfit *float64 `json:"take_profit"`
	StopLoss   *float64 `json:"stop_loss"`
}

// OpenResult summarizes an opened position
type OpenResult struct {
	Message          string  `json:"message"`
	PositionID       uint    `json:"position_id"`
	JournalEntryID   uint    `json:"journal_entry_id"`
	Symbol           string  `json:"symbol"`
	Side             string  `json:"side"`
	Quantity         float64 `json:"quantity"`
	EntryPrice       float64 `json:"entry_price"`
	Leverage         int     `json:"leverage"`
	MarginUsed       float64 `json:"margin_used"`
	NotionalValue    float64 `json:"notional_value"`
	LiquidationPrice float64 `json:"liquidation_price"`
}

// CloseResult summarizes a closed position
type CloseResult struct {
	Message          string  `json:"message"`
	PnL              float64 `json:"pnl"`
	ReturnedToWallet float64 `json:"returned_to_wallet"`
	EntryPrice       float64 `json:"entry_price"`
	ExitPrice        float64 `json:"exit_price"`
	Leverage         int     `json:"leverage"`
}

// LiquidationPrice is the theoretical price at which the posted margin is
// fully eroded. Computed for display only; nothing enforces it. Leverage
// at or below 1 cannot be liquidated.
func LiquidationPrice(side models.TradeDirection, entryPrice float64, leverage int) float64 {
	if leverage <= 1 {
		return 0
	}
	if side == models.DirectionLong {
		return round4(entryPrice * (1 - 1/float64(leverage)))
	}
	return round4(entryPrice * (1 + 1/float64(leverage)))
}

// Open validates and executes a leveraged market open. Margin is debited
// from the available balance and credited to the locked balance in the
// same transaction that writes the journal entry and position.
func (s *FuturesService) Open(ctx context.Context, userID uint, req *FuturesOrderRequest) (*OpenResult, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	base, ok := splitSymbol(req.Symbol, s.simCfg.QuoteAsset)
	if !ok {
		return nil, fmt.Errorf("%w: %s-margined pairs only", ErrInvalidSymbol, s.simCfg.QuoteAsset)
	}

	leverage := req.Leverage
	if leverage == 0 {
		leverage = 10
	}
	if leverage < minLeverage || leverage > maxLeverage {
		return nil, ErrInvalidLeverage
	}

	side := models.TradeDirection(strings.ToUpper(req.Side))
	if side != models.DirectionLong && side != models.DirectionShort {
		return nil, fmt.Errorf("%w: side must be LONG or SHORT", ErrInvalidSide)
	}

	symbol := base + s.simCfg.QuoteAsset
	price, err := s.prices.FetchPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	notional := price * req.Quantity
	margin := round4(notional / float64(leverage))
	liqPrice := LiquidationPrice(side, price, leverage)

	var position models.Position
	var entry models.JournalEntry
	err = s.db.Transaction(func(tx *gorm.DB) error {
		wallet, err := s.walletRepo.WithTx(tx).GetOrCreateForUpdate(userID, s.simCfg.QuoteAsset, s.simCfg.InitialBalance)
		if err != nil {
			return err
		}
		if wallet.Balance < margin {
			return fmt.Errorf("%w: need %.2f %s margin, have %.2f",
				ErrInsufficientFund, margin, s.simCfg.QuoteAsset, wallet.Balance)
		}

		wallet.Balance -= margin
		wallet.LockedBalance += margin
		if err := s.walletRepo.WithTx(tx).Save(wallet); err != nil {
			return err
		}

		entry = models.JournalEntry{
			UserID:     userID,
			Symbol:     fmt.Sprintf("%s/%s PERP", base, s.simCfg.QuoteAsset),
			Direction:  side,
			EntryDate:  time.Now().UTC(),
			EntryPrice: price,
			Quantity:   req.Quantity,
			Status:     models.StatusOpen,
			AssetType:  "crypto",
			Source:     models.SourceSimFut,
			StopLoss:   req.StopLoss,
			TakeProfit: req.TakeProfit,
			Notes:      fmt.Sprintf("Sim futures %s %v %s @ $%.2f | %dx leverage", side, req.Quantity, base, price, leverage),
		}
		if err := s.journalRepo.WithTx(tx).Create(&entry); err != nil {
			return err
		}

		entryID := entry.ID
		position = models.Position{
			UserID:           userID,
			Symbol:           symbol,
			BaseAsset:        base,
			Side:             side,
			Quantity:         req.Quantity,
			EntryPrice:       price,
			Leverage:         leverage,
			MarginUsed:       margin,
			LiquidationPrice: liqPrice,
			TakeProfit:       req.TakeProfit,
			StopLoss:         req.StopLoss,
			Status:           models.PositionOpen,
			JournalEntryID:   &entryID,
			OrderRef:         uuid.New().String(),
		}
		return s.positionRepo.WithTx(tx).Create(&position)
	})
	if err != nil {
		return nil, err
	}

	return &OpenResult{
		Message:          fmt.Sprintf("Opened %s %v %s @ $%.2f (%dx)", side, req.Quantity, base, price, leverage),
		PositionID:       position.ID,
		JournalEntryID:   entry.ID,
		Symbol:           symbol,
		Side:             string(side),
		Quantity:         req.Quantity,
		EntryPrice:       price,
		Leverage:         leverage,
		MarginUsed:       margin,
		NotionalValue:    notional,
		LiquidationPrice: liqPrice,
	}, nil
}

// Close settles an open position at the current market price. The locked
// margin is released and max(margin+pnl, 0) returns to the available
// balance: losses beyond the posted margin are absorbed, a simulated
// account never goes negative. The linked journal entry is closed with the
// realized P&L in the same transaction.
func (s *FuturesService) Close(ctx context.Context, userID uint, positionID uint) (*CloseResult, error) {
	// Ownership and status are re-checked under lock inside the
	// transaction; this early read only avoids a wasted upstream fetch.
	position, err := s.positionRepo.GetOpenByIDAndUserID(positionID, userID)
	if err != nil {
		return nil, err
	}

	exitPrice, err := s.prices.FetchPrice(ctx, position.Symbol)
	if err != nil {
		return nil, err
	}

	var result CloseResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		position, err := s.positionRepo.WithTx(tx).GetOpenForUpdate(positionID, userID)
		if err != nil {
			return err
		}

		pnl := round4(position.UnrealizedPnL(exitPrice))
		returned := round4(position.MarginUsed + pnl)

		wallet, err := s.walletRepo.WithTx(tx).GetOrCreateForUpdate(userID, s.simCfg.QuoteAsset, s.simCfg.InitialBalance)
		if err != nil {
			return err
		}
		if returned > 0 {
			wallet.Balance += returned
		}
		wallet.LockedBalance -= position.MarginUsed
		if wallet.LockedBalance < 0 {
			wallet.LockedBalance = 0
		}
		if err := s.walletRepo.WithTx(tx).Save(wallet); err != nil {
			return err
		}

		position.Status = models.PositionClosed
		if err := s.positionRepo.WithTx(tx).Save(position); err != nil {
			return err
		}

		if position.JournalEntryID != nil {
			entry, err := s.journalRepo.WithTx(tx).GetByIDAndUserID(*position.JournalEntryID, userID)
			if err == nil {
				now := time.Now().UTC()
				entry.ExitPrice = &exitPrice
				entry.ExitDate = &now
				entry.Status = models.StatusClosed
				entry.PnL = &pnl
				if err := s.journalRepo.WithTx(tx).Save(entry); err != nil {
					return err
				}
			}
		}

		result = CloseResult{
			Message:          fmt.Sprintf("Closed %s %v %s @ $%.2f", position.Side, position.Quantity, position.BaseAsset, exitPrice),
			PnL:              pnl,
			ReturnedToWallet: returned,
			EntryPrice:       position.EntryPrice,
			ExitPrice:        exitPrice,
			Leverage:         position.Leverage,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListOpen returns the user's open positions, newest first
func (s *FuturesService) ListOpen(userID uint) ([]models.Position, error) {
	return s.positionRepo.GetOpenByUserID(userID)
}

// History returns the user's most recently opened closed positions
func (s *FuturesService) History(userID uint) ([]models.Position, error) {
	return s.positionRepo.GetClosedByUserID(userID, positionHistoryLimit)
}
