package service

import (
	"context"
	"errors"
	"math"
	"strings"
)

// Shared order validation errors. All are rejected before any state
// mutation and map to 400 at the handler layer.
var (
	ErrInvalidSymbol    = errors.New("symbol must be a quote-asset pair")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidSide      = errors.New("invalid order side")
	ErrInvalidLeverage  = errors.New("leverage must be between 1 and 125")
	ErrInsufficientFund = errors.New("insufficient balance")
)

// PriceSource supplies the current market price for a symbol. Execution
// engines re-fetch on every order; there is no stale-price fallback.
type PriceSource interface {
	FetchPrice(ctx context.Context, symbol string) (float64, error)
}

// round4 rounds monetary amounts at engine boundaries.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// splitSymbol extracts the base asset from a quote-suffixed pair. Both
// BTCUSDT and BTC/USDT are accepted. Returns false when the symbol does
// not end with the quote asset or has an empty base.
func splitSymbol(symbol, quote string) (string, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	symbol = strings.ReplaceAll(symbol, "/", "")
	if !strings.HasSuffix(symbol, quote) || len(symbol) <= len(quote) {
		return "", false
	}
	return strings.TrimSuffix(symbol, quote), true
}
