package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trade-journal/internal/exchange/binance"
)

// ErrPriceUnavailable marks a failed upstream price fetch. Orders abort
// with no state change when they see it.
var ErrPriceUnavailable = errors.New("price unavailable")

const quoteTTL = 5 * time.Second

// PriceService is the price oracle. FetchPrice always hits the upstream
// ticker (the execution engines must never trade on a cached price);
// GetQuote serves the public quote endpoint through a short-lived redis
// mirror so dashboards do not hammer the upstream.
type PriceService struct {
	client *binance.Client
	redis  *redis.Client
}

// NewPriceService creates a new PriceService
func NewPriceService(client *binance.Client, rdb *redis.Client) *PriceService {
	return &PriceService{client: client, redis: rdb}
}

// FetchPrice implements PriceSource
func (s *PriceService) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := s.client.GetPrice(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, symbol, err)
	}
	return price, nil
}

// GetQuote returns the latest price for display purposes, served from the
// redis mirror when fresh.
func (s *PriceService) GetQuote(ctx context.Context, symbol string) (float64, error) {
	key := fmt.Sprintf("quote:%s", symbol)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Float64(); err == nil {
			return cached, nil
		}
	}

	price, err := s.FetchPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}

	if s.redis != nil {
		// Best effort; a quote is still valid if the mirror write fails.
		s.redis.Set(ctx, key, price, quoteTTL)
	}

	return price, nil
}
