package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/trade-journal/internal/config"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
	"gorm.io/gorm"
)

// SpotService executes simulated spot orders against the wallet ledger and
// records every fill in the trade journal with FIFO lot accounting.
type SpotService struct {
	db          *gorm.DB
	walletRepo  *repository.WalletRepository
	journalRepo *repository.JournalRepository
	prices      PriceSource
	simCfg      config.SimulationConfig
}

// NewSpotService creates a new SpotService
func NewSpotService(
	db *gorm.DB,
	walletRepo *repository.WalletRepository,
	journalRepo *repository.JournalRepository,
	prices PriceSource,
	simCfg config.SimulationConfig,
) *SpotService {
	return &SpotService{
		db:          db,
		walletRepo:  walletRepo,
		journalRepo: journalRepo,
		prices:      prices,
		simCfg:      simCfg,
	}
}

// SpotOrderRequest represents a market spot order
type SpotOrderRequest struct {
	Symbol   string  `json:"symbol" binding:"required"`
	Side     string  `json:"side" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// SpotFill summarizes an executed spot order
type SpotFill struct {
	Message        string   `json:"message"`
	Symbol         string   `json:"symbol"`
	Side           string   `json:"side"`
	Quantity       float64  `json:"quantity"`
	Price          float64  `json:"price"`
	Total          float64  `json:"total"`
	PnL            *float64 `json:"pnl,omitempty"`
	UnmatchedQty   float64  `json:"unmatched_quantity,omitempty"`
	JournalEntryID uint     `json:"journal_entry_id,omitempty"`
}

// PlaceOrder validates, prices, and executes a market spot order. The
// balance mutations and journal writes land in one transaction; a failed
// price fetch aborts before any state change.
func (s *SpotService) PlaceOrder(ctx context.Context, userID uint, req *SpotOrderRequest) (*SpotFill, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	base, ok := splitSymbol(req.Symbol, s.simCfg.QuoteAsset)
	if !ok {
		return nil, fmt.Errorf("%w: %s pairs only", ErrInvalidSymbol, s.simCfg.QuoteAsset)
	}

	side := strings.ToUpper(req.Side)
	if side != "BUY" && side != "SELL" {
		return nil, fmt.Errorf("%w: side must be BUY or SELL", ErrInvalidSide)
	}

	symbol := base + s.simCfg.QuoteAsset
	price, err := s.prices.FetchPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if side == "BUY" {
		return s.executeBuy(userID, base, price, req.Quantity)
	}
	return s.executeSell(userID, base, price, req.Quantity)
}

func (s *SpotService) executeBuy(userID uint, base string, price, quantity float64) (*SpotFill, error) {
	totalCost := round4(price * quantity)
	journalSymbol := base + "/" + s.simCfg.QuoteAsset

	var entry models.JournalEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		quoteWallet, err := s.walletRepo.WithTx(tx).GetOrCreateForUpdate(userID, s.simCfg.QuoteAsset, s.simCfg.InitialBalance)
		if err != nil {
			return err
		}
		if quoteWallet.Balance < totalCost {
			return fmt.Errorf("%w: need %.2f %s, have %.2f",
				ErrInsufficientFund, totalCost, s.simCfg.QuoteAsset, quoteWallet.Balance)
		}
		baseWallet, err := s.walletRepo.WithTx(tx).GetOrCreateForUpdate(userID, base, 0)
		if err != nil {
			return err
		}

		quoteWallet.Balance -= totalCost
		baseWallet.Balance += quantity
		if err := s.walletRepo.WithTx(tx).Save(quoteWallet); err != nil {
			return err
		}
		if err := s.walletRepo.WithTx(tx).Save(baseWallet); err != nil {
			return err
		}

		entry = models.JournalEntry{
			UserID:     userID,
			Symbol:     journalSymbol,
			Direction:  models.DirectionLong,
			EntryDate:  time.Now().UTC(),
			EntryPrice: price,
			Quantity:   quantity,
			Status:     models.StatusOpen,
			AssetType:  "crypto",
			Source:     models.SourceSimSpot,
			Notes:      fmt.Sprintf("Sim spot BUY %v %s @ $%.2f", quantity, base, price),
		}
		return s.journalRepo.WithTx(tx).Create(&entry)
	})
	if err != nil {
		return nil, err
	}

	return &SpotFill{
		Message:        fmt.Sprintf("Bought %v %s @ $%.2f", quantity, base, price),
		Symbol:         base + s.simCfg.QuoteAsset,
		Side:           "BUY",
		Quantity:       quantity,
		Price:          price,
		Total:          totalCost,
		JournalEntryID: entry.ID,
	}, nil
}

func (s *SpotService) executeSell(userID uint, base string, price, quantity float64) (*SpotFill, error) {
	totalProceeds := round4(price * quantity)
	journalSymbol := base + "/" + s.simCfg.QuoteAsset

	var pnl float64
	var unmatched float64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		baseWallet, err := s.walletRepo.WithTx(tx).GetOrCreateForUpdate(userID, base, 0)
		if err != nil {
			return err
		}
		if baseWallet.Balance < quantity {
			return fmt.Errorf("%w: need %v %s, have %.4f",
				ErrInsufficientFund, quantity, base, baseWallet.Balance)
		}
		quoteWallet, err := s.walletRepo.WithTx(tx).GetOrCreateForUpdate(userID, s.simCfg.QuoteAsset, s.simCfg.InitialBalance)
		if err != nil {
			return err
		}

		lots, err := s.journalRepo.WithTx(tx).GetOpenLots(userID, journalSymbol, models.SourceSimSpot)
		if err != nil {
			return err
		}

		// VWAP over the open lots gives the headline P&L of the sell;
		// per-lot P&L below is what lands in the journal.
		avgEntry := price
		if len(lots) > 0 {
			var notional, lotQty float64
			for _, lot := range lots {
				notional += lot.EntryPrice * lot.Quantity
				lotQty += lot.Quantity
			}
			avgEntry = notional / lotQty
		}
		pnl = round4((price - avgEntry) * quantity)

		baseWallet.Balance -= quantity
		quoteWallet.Balance += totalProceeds
		if err := s.walletRepo.WithTx(tx).Save(baseWallet); err != nil {
			return err
		}
		if err := s.walletRepo.WithTx(tx).Save(quoteWallet); err != nil {
			return err
		}

		// FIFO close: oldest lots first, each up to the remaining quantity.
		now := time.Now().UTC()
		remaining := quantity
		for i := range lots {
			if remaining <= 0 {
				break
			}
			lot := &lots[i]
			closeQty := lot.Quantity
			if remaining < closeQty {
				closeQty = remaining
			}
			lotPnL := round4((price - lot.EntryPrice) * closeQty)

			exitPrice := price
			lot.ExitPrice = &exitPrice
			lot.ExitDate = &now
			lot.Status = models.StatusClosed
			lot.PnL = &lotPnL
			if err := s.journalRepo.WithTx(tx).Save(lot); err != nil {
				return err
			}
			remaining -= closeQty
		}
		unmatched = round4(remaining)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if unmatched > 0 {
		// Wallet balance was still debited in full; only lot attribution
		// is short. Happens when base funds came from a reset or transfer
		// rather than a tracked buy.
		log.Printf("[SpotService] user=%d sell %s: %.8f quantity had no open lot to close", userID, journalSymbol, unmatched)
	}

	return &SpotFill{
		Message:      fmt.Sprintf("Sold %v %s @ $%.2f | PnL: $%+.2f", quantity, base, price, pnl),
		Symbol:       base + s.simCfg.QuoteAsset,
		Side:         "SELL",
		Quantity:     quantity,
		Price:        price,
		Total:        totalProceeds,
		PnL:          &pnl,
		UnmatchedQty: unmatched,
	}, nil
}
