package exchange

import (
	"context"
	"fmt"
	"time"
)

// Fill is one historical execution fetched from a real exchange, normalized
// at the connector boundary. All fields are required except Fee.
type Fill struct {
	ExternalID string    `json:"external_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"` // "BUY" | "SELL"
	Timestamp  time.Time `json:"timestamp"`
	Price      float64   `json:"price"`
	Quantity   float64   `json:"quantity"`
	Fee        float64   `json:"fee"`
	FeeAsset   string    `json:"fee_asset"`
}

// Validate rejects fills with missing or malformed required fields so that
// partial upstream data never reaches the journal.
func (f *Fill) Validate() error {
	switch {
	case f.ExternalID == "":
		return &DecodeError{Field: "external_id", Reason: "missing"}
	case f.Symbol == "":
		return &DecodeError{Field: "symbol", Reason: "missing"}
	case f.Side != "BUY" && f.Side != "SELL":
		return &DecodeError{Field: "side", Reason: fmt.Sprintf("unexpected value %q", f.Side)}
	case f.Timestamp.IsZero():
		return &DecodeError{Field: "timestamp", Reason: "missing"}
	case f.Price <= 0:
		return &DecodeError{Field: "price", Reason: "must be positive"}
	case f.Quantity <= 0:
		return &DecodeError{Field: "quantity", Reason: "must be positive"}
	}
	return nil
}

// AssetBalance is one asset row from a real exchange account snapshot.
type AssetBalance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
}

// DecodeError marks a connector response field that could not be decoded.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("exchange response field %s: %s", e.Field, e.Reason)
}

// Connector is the contract a real-exchange client must satisfy for
// journal sync. Implementations normalize responses into Fill and
// AssetBalance records and surface malformed fields as DecodeError.
type Connector interface {
	// Name returns the exchange name used as the journal source tag.
	Name() string

	// ValidateCredentials verifies the API key pair with a cheap
	// authenticated call.
	ValidateCredentials(ctx context.Context) error

	// FetchFills returns historical executions for one symbol,
	// newest-last, up to limit.
	FetchFills(ctx context.Context, symbol string, limit int) ([]Fill, error)

	// FetchBalances returns the non-zero account balances.
	FetchBalances(ctx context.Context) ([]AssetBalance, error)
}
