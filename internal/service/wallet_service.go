package service

import (
	"fmt"

	"github.com/trade-journal/internal/config"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
	"gorm.io/gorm"
)

// WalletService manages the per-user asset ledger.
type WalletService struct {
	db           *gorm.DB
	walletRepo   *repository.WalletRepository
	positionRepo *repository.PositionRepository
	simCfg       config.SimulationConfig
}

// NewWalletService creates a new WalletService
func NewWalletService(
	db *gorm.DB,
	walletRepo *repository.WalletRepository,
	positionRepo *repository.PositionRepository,
	simCfg config.SimulationConfig,
) *WalletService {
	return &WalletService{
		db:           db,
		walletRepo:   walletRepo,
		positionRepo: positionRepo,
		simCfg:       simCfg,
	}
}

// ListWallets returns all wallets for a user. A user with no wallets gets
// the default quote wallet seeded with the configured starting balance.
func (s *WalletService) ListWallets(userID uint) ([]models.Wallet, error) {
	wallets, err := s.walletRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if len(wallets) > 0 {
		return wallets, nil
	}

	seed := models.Wallet{
		UserID:  userID,
		Asset:   s.simCfg.QuoteAsset,
		Balance: s.simCfg.InitialBalance,
	}
	if err := s.walletRepo.Create(&seed); err != nil {
		return nil, fmt.Errorf("failed to seed default wallet: %w", err)
	}
	return []models.Wallet{seed}, nil
}

// ResetResult summarizes a wallet reset.
type ResetResult struct {
	ClosedPositions int64   `json:"closed_positions"`
	Asset           string  `json:"asset"`
	Balance         float64 `json:"balance"`
}

// Reset wipes every wallet, force-closes all open positions, and restores
// the single quote wallet at the starting balance. The whole wipe is one
// transaction.
func (s *WalletService) Reset(userID uint) (*ResetResult, error) {
	var closed int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		closed, err = s.positionRepo.WithTx(tx).CloseAllOpenByUserID(userID)
		if err != nil {
			return err
		}
		if err := s.walletRepo.WithTx(tx).DeleteByUserID(userID); err != nil {
			return err
		}
		return s.walletRepo.WithTx(tx).Create(&models.Wallet{
			UserID:  userID,
			Asset:   s.simCfg.QuoteAsset,
			Balance: s.simCfg.InitialBalance,
		})
	})
	if err != nil {
		return nil, err
	}

	return &ResetResult{
		ClosedPositions: closed,
		Asset:           s.simCfg.QuoteAsset,
		Balance:         s.simCfg.InitialBalance,
	}, nil
}
