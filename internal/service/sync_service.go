package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trade-journal/internal/exchange"
	"github.com/trade-journal/internal/exchange/binance"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
	"github.com/trade-journal/pkg/crypto"
)

var (
	ErrUnsupportedExchange = errors.New("unsupported exchange")
	ErrCredentialsRejected = errors.New("exchange rejected the API credentials")
)

// syncFillLimit caps how many fills are fetched per symbol in one sync run.
const syncFillLimit = 100

// ConnectorFactory builds an authenticated exchange connector from stored
// credentials. Swappable in tests.
type ConnectorFactory func(exchangeName, apiKey, apiSecret string, testnet bool) (exchange.Connector, error)

func defaultConnectorFactory(exchangeName, apiKey, apiSecret string, testnet bool) (exchange.Connector, error) {
	switch exchangeName {
	case "binance":
		return binance.NewSignedClient(apiKey, apiSecret, testnet), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, exchangeName)
	}
}

// SyncService links real exchange accounts and imports their fill history
// into the journal. Credentials are AES-encrypted before they touch the
// database.
type SyncService struct {
	exchangeRepo *repository.ExchangeRepository
	journalRepo  *repository.JournalRepository
	aesKey       string
	newConnector ConnectorFactory
}

// NewSyncService creates a new SyncService
func NewSyncService(exchangeRepo *repository.ExchangeRepository, journalRepo *repository.JournalRepository, aesKey string) *SyncService {
	return &SyncService{
		exchangeRepo: exchangeRepo,
		journalRepo:  journalRepo,
		aesKey:       aesKey,
		newConnector: defaultConnectorFactory,
	}
}

// SetConnectorFactory overrides how connectors are built. Test hook.
func (s *SyncService) SetConnectorFactory(f ConnectorFactory) {
	s.newConnector = f
}

// ConnectRequest carries new exchange credentials
type ConnectRequest struct {
	Exchange    string `json:"exchange" binding:"required"`
	APIKey      string `json:"api_key" binding:"required"`
	APISecret   string `json:"api_secret" binding:"required"`
	IsTestnet   bool   `json:"is_testnet"`
	AccountType string `json:"account_type"`
}

// Connect validates the credentials against the exchange and stores them
// encrypted. Reconnecting an exchange that already has a connection
// replaces its credentials instead of creating a second row.
func (s *SyncService) Connect(ctx context.Context, userID uint, req *ConnectRequest) (*models.ExchangeConnection, error) {
	connector, err := s.newConnector(req.Exchange, req.APIKey, req.APISecret, req.IsTestnet)
	if err != nil {
		return nil, err
	}
	if err := connector.ValidateCredentials(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialsRejected, err)
	}

	keyEnc, err := crypto.EncryptAES(req.APIKey, s.aesKey)
	if err != nil {
		return nil, err
	}
	secretEnc, err := crypto.EncryptAES(req.APISecret, s.aesKey)
	if err != nil {
		return nil, err
	}

	accountType := req.AccountType
	if accountType == "" {
		accountType = "spot"
	}

	conn, err := s.exchangeRepo.GetByUserIDAndExchange(userID, req.Exchange)
	switch {
	case err == nil:
		conn.APIKeyEncrypted = keyEnc
		conn.APISecretEncrypted = secretEnc
		conn.IsActive = true
		conn.IsTestnet = req.IsTestnet
		conn.AccountType = accountType
		if err := s.exchangeRepo.Save(conn); err != nil {
			return nil, err
		}
		return conn, nil
	case errors.Is(err, repository.ErrConnectionNotFound):
		conn = &models.ExchangeConnection{
			UserID:             userID,
			ExchangeName:       req.Exchange,
			APIKeyEncrypted:    keyEnc,
			APISecretEncrypted: secretEnc,
			IsActive:           true,
			IsTestnet:          req.IsTestnet,
			AccountType:        accountType,
		}
		if err := s.exchangeRepo.Create(conn); err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, err
	}
}

// ConnectionStatus is one row of the connection overview
type ConnectionStatus struct {
	ID           uint       `json:"id"`
	Exchange     string     `json:"exchange"`
	IsActive     bool       `json:"is_active"`
	IsTestnet    bool       `json:"is_testnet"`
	AccountType  string     `json:"account_type"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// Status lists the user's active exchange connections
func (s *SyncService) Status(userID uint) ([]ConnectionStatus, error) {
	conns, err := s.exchangeRepo.GetActiveByUserID(userID)
	if err != nil {
		return nil, err
	}
	statuses := make([]ConnectionStatus, 0, len(conns))
	for _, c := range conns {
		statuses = append(statuses, ConnectionStatus{
			ID:           c.ID,
			Exchange:     c.ExchangeName,
			IsActive:     c.IsActive,
			IsTestnet:    c.IsTestnet,
			AccountType:  c.AccountType,
			LastSyncedAt: c.LastSyncedAt,
		})
	}
	return statuses, nil
}

// SyncRequest names the symbols to pull fills for
type SyncRequest struct {
	Symbols []string `json:"symbols" binding:"required,min=1"`
}

// SyncResult summarizes one sync run. Warnings carry per-symbol fetch
// failures that did not abort the run.
type SyncResult struct {
	Exchange string   `json:"exchange"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// Sync fetches recent fills for each requested symbol and imports them as
// closed journal entries tagged with the exchange name. Fills already
// imported in a previous run are skipped by external ID. A symbol whose
// fetch fails is reported as a warning and the run continues.
func (s *SyncService) Sync(ctx context.Context, userID, connectionID uint, symbols []string) (*SyncResult, error) {
	conn, err := s.exchangeRepo.GetByIDAndUserID(connectionID, userID)
	if err != nil {
		return nil, err
	}

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

	result := &SyncResult{Exchange: conn.ExchangeName}
	for _, symbol := range symbols {
		fills, err := connector.FetchFills(ctx, symbol, syncFillLimit)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", symbol, err))
			continue
		}
		for _, fill := range fills {
			imported, err := s.importFill(userID, conn.ExchangeName, &fill)
			if err != nil {
				return nil, err
			}
			if imported {
				result.Imported++
			} else {
				result.Skipped++
			}
		}
	}

	if err := s.exchangeRepo.TouchLastSynced(conn.ID, time.Now()); err != nil {
		return nil, err
	}
	return result, nil
}

// importFill converts one fill into a closed journal entry. Raw fills carry
// no realized P&L, only the commission; leaving PnL unset keeps them out of
// the analytics rollups. Returns false when the fill was seen before.
func (s *SyncService) importFill(userID uint, source string, fill *exchange.Fill) (bool, error) {
	if err := fill.Validate(); err != nil {
		return false, err
	}

	exists, err := s.journalRepo.ExistsByExternalID(userID, source, fill.ExternalID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	direction := models.DirectionLong
	if fill.Side == "SELL" {
		direction = models.DirectionShort
	}

	exitDate := fill.Timestamp
	exitPrice := fill.Price
	entry := &models.JournalEntry{
		UserID:     userID,
		Symbol:     fill.Symbol,
		Direction:  direction,
		EntryDate:  fill.Timestamp,
		EntryPrice: fill.Price,
		Quantity:   fill.Quantity,
		ExitDate:   &exitDate,
		ExitPrice:  &exitPrice,
		Status:     models.StatusClosed,
		AssetType:  "crypto",
		Commission: fill.Fee,
		Source:     source,
		ExternalID: fill.ExternalID,
	}
	if err := s.journalRepo.Create(entry); err != nil {
		return false, err
	}
	return true, nil
}
