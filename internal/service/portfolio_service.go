package service

import (
	"context"
	"log"

	"github.com/trade-journal/internal/exchange"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
	"github.com/trade-journal/pkg/crypto"
)

// PortfolioService assembles the account overview: simulated wallets, open
// futures exposure, realized simulation performance and real exchange
// balances in one response.
type PortfolioService struct {
	walletService *WalletService
	positionRepo  *repository.PositionRepository
	journalRepo   *repository.JournalRepository
	exchangeRepo  *repository.ExchangeRepository
	prices        PriceSource
	aesKey        string
	newConnector  ConnectorFactory
}

// NewPortfolioService creates a new PortfolioService
func NewPortfolioService(
	walletService *WalletService,
	positionRepo *repository.PositionRepository,
	journalRepo *repository.JournalRepository,
	exchangeRepo *repository.ExchangeRepository,
	prices PriceSource,
	aesKey string,
) *PortfolioService {
	return &PortfolioService{
		walletService: walletService,
		positionRepo:  positionRepo,
		journalRepo:   journalRepo,
		exchangeRepo:  exchangeRepo,
		prices:        prices,
		aesKey:        aesKey,
		newConnector:  defaultConnectorFactory,
	}
}

// SetConnectorFactory overrides how connectors are built. Test hook.
func (s *PortfolioService) SetConnectorFactory(f ConnectorFactory) {
	s.newConnector = f
}

// OpenPositionView is one open futures position with its current mark
type OpenPositionView struct {
	Position      models.Position `json:"position"`
	MarkPrice     float64         `json:"mark_price"`
	UnrealizedPnL float64         `json:"unrealized_pnl"`
}

// SimPerformance summarizes realized results from the simulated engines
type SimPerformance struct {
	ClosedTrades int     `json:"closed_trades"`
	RealizedPnL  float64 `json:"realized_pnl"`
	WinRate      float64 `json:"win_rate"`
}

// ExchangeBalances is one real exchange's balance snapshot. Error is set
// when the snapshot could not be fetched; the rest of the summary is
// still served.
type ExchangeBalances struct {
	Exchange string                  `json:"exchange"`
	Balances []exchange.AssetBalance `json:"balances,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// Summary is the full account overview
type Summary struct {
	Wallets          []models.Wallet    `json:"wallets"`
	OpenPositions    []OpenPositionView `json:"open_positions"`
	Simulation       SimPerformance     `json:"simulation"`
	ExchangeAccounts []ExchangeBalances `json:"exchange_accounts"`
}

// GetSummary builds the portfolio overview for one user. A failing price
// lookup leaves the mark at zero for that position; a failing exchange
// fetch degrades to an error string on that account.
func (s *PortfolioService) GetSummary(ctx context.Context, userID uint) (*Summary, error) {
	wallets, err := s.walletService.ListWallets(userID)
	if err != nil {
		return nil, err
	}

	positions, err := s.positionRepo.GetOpenByUserID(userID)
	if err != nil {
		return nil, err
	}
	views := make([]OpenPositionView, 0, len(positions))
	for _, pos := range positions {
		view := OpenPositionView{Position: pos}
		mark, err := s.prices.FetchPrice(ctx, pos.Symbol)
		if err != nil {
			log.Printf("portfolio: price for %s unavailable: %v", pos.Symbol, err)
		} else {
			view.MarkPrice = round4(mark)
			view.UnrealizedPnL = round4(pos.UnrealizedPnL(mark))
		}
		views = append(views, view)
	}

	sim, err := s.simPerformance(userID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.exchangeAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Wallets:          wallets,
		OpenPositions:    views,
		Simulation:       *sim,
		ExchangeAccounts: accounts,
	}, nil
}

func (s *PortfolioService) simPerformance(userID uint) (*SimPerformance, error) {
	entries, err := s.journalRepo.GetClosedBySources(userID, []string{models.SourceSimSpot, models.SourceSimFut})
	if err != nil {
		return nil, err
	}

	perf := &SimPerformance{ClosedTrades: len(entries)}
	var wins int
	var total float64
	for _, e := range entries {
		if e.PnL == nil {
			continue
		}
		total += *e.PnL
		if *e.PnL > 0 {
			wins++
		}
	}
	perf.RealizedPnL = round2(total)
	perf.WinRate = pct(wins, len(entries))
	return perf, nil
}

func (s *PortfolioService) exchangeAccounts(ctx context.Context, userID uint) ([]ExchangeBalances, error) {
	conns, err := s.exchangeRepo.GetActiveByUserID(userID)
	if err != nil {
		return nil, err
	}

	accounts := make([]ExchangeBalances, 0, len(conns))
	for _, conn := range conns {
		account := ExchangeBalances{Exchange: conn.ExchangeName}
		balances, err := s.fetchBalances(ctx, &conn)
		if err != nil {
			account.Error = err.Error()
		} else {
			account.Balances = balances
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (s *PortfolioService) fetchBalances(ctx context.Context, conn *models.ExchangeConnection) ([]exchange.AssetBalance, error) {
	apiKey, err := crypto.DecryptAES(conn.APIKeyEncrypted, s.aesKey)
	if err != nil {
		return nil, err
	}
	apiSecret, err := crypto.DecryptAES(conn.APISecretEncrypted, s.aesKey)
	if err != nil {
		return nil, err
	}
	connector, err := s.newConnector(conn.ExchangeName, apiKey, apiSecret, conn.IsTestnet)
	if err != nil {
		return nil, err
	}
	return connector.FetchBalances(ctx)
}
