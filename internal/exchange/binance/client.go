package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/trade-journal/internal/exchange"
)

const (
	mainnetURL = "https://api.binance.com"
	testnetURL = "https://testnet.binance.vision"

	requestTimeout = 5 * time.Second
)

// Client talks to the Binance spot REST API. The unauthenticated ticker
// endpoint backs the price oracle; the signed endpoints back journal sync.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// NewClient creates an unauthenticated client (ticker only) against the
// given base URL. An empty baseURL targets the Binance mainnet.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = mainnetURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// NewSignedClient creates a client with API credentials for account
// endpoints. testnet switches to the Binance spot testnet.
func NewSignedClient(apiKey, apiSecret string, testnet bool) *Client {
	baseURL := mainnetURL
	if testnet {
		baseURL = testnetURL
	}
	c := NewClient(baseURL)
	c.apiKey = apiKey
	c.apiSecret = apiSecret
	return c
}

// Name implements exchange.Connector
func (c *Client) Name() string {
	return "binance"
}

// GetPrice returns the latest trade price for a symbol.
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", c.baseURL, url.QueryEscape(strings.ToUpper(symbol)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("ticker request for %s returned %d: %s", symbol, resp.StatusCode, string(body))
	}

	var result struct {
		Price string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(result.Price, 64)
	if err != nil {
		return 0, &exchange.DecodeError{Field: "price", Reason: err.Error()}
	}
	if price <= 0 {
		return 0, &exchange.DecodeError{Field: "price", Reason: "must be positive"}
	}
	return price, nil
}

// ValidateCredentials implements exchange.Connector
func (c *Client) ValidateCredentials(ctx context.Context) error {
	_, err := c.FetchBalances(ctx)
	return err
}

// rawTrade mirrors the /api/v3/myTrades response row.
type rawTrade struct {
	ID              int64  `json:"id"`
	Symbol          string `json:"symbol"`
	Price           string `json:"price"`
	Qty             string `json:"qty"`
	Commission      string `json:"commission"`
	CommissionAsset string `json:"commissionAsset"`
	Time            int64  `json:"time"`
	IsBuyer         bool   `json:"isBuyer"`
}

// FetchFills implements exchange.Connector
func (c *Client) FetchFills(ctx context.Context, symbol string, limit int) ([]exchange.Fill, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(strings.ReplaceAll(symbol, "/", "")))
	params.Set("limit", strconv.Itoa(limit))

	var raw []rawTrade
	if err := c.signedGet(ctx, "/api/v3/myTrades", params, &raw); err != nil {
		return nil, err
	}

	fills := make([]exchange.Fill, 0, len(raw))
	for _, t := range raw {
		fill, err := normalizeTrade(t)
		if err != nil {
			return nil, err
		}
		fills = append(fills, fill)
	}
	return fills, nil
}

func normalizeTrade(t rawTrade) (exchange.Fill, error) {
	price, err := strconv.ParseFloat(t.Price, 64)
	if err != nil {
		return exchange.Fill{}, &exchange.DecodeError{Field: "price", Reason: err.Error()}
	}
	qty, err := strconv.ParseFloat(t.Qty, 64)
	if err != nil {
		return exchange.Fill{}, &exchange.DecodeError{Field: "qty", Reason: err.Error()}
	}
	fee := 0.0
	if t.Commission != "" {
		if fee, err = strconv.ParseFloat(t.Commission, 64); err != nil {
			return exchange.Fill{}, &exchange.DecodeError{Field: "commission", Reason: err.Error()}
		}
	}

	side := "SELL"
	if t.IsBuyer {
		side = "BUY"
	}

	fill := exchange.Fill{
		ExternalID: strconv.FormatInt(t.ID, 10),
		Symbol:     t.Symbol,
		Side:       side,
		Timestamp:  time.UnixMilli(t.Time).UTC(),
		Price:      price,
		Quantity:   qty,
		Fee:        fee,
		FeeAsset:   t.CommissionAsset,
	}
	if err := fill.Validate(); err != nil {
		return exchange.Fill{}, err
	}
	return fill, nil
}

// FetchBalances implements exchange.Connector
func (c *Client) FetchBalances(ctx context.Context) ([]exchange.AssetBalance, error) {
	var account struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := c.signedGet(ctx, "/api/v3/account", url.Values{}, &account); err != nil {
		return nil, err
	}

	balances := make([]exchange.AssetBalance, 0, len(account.Balances))
	for _, b := range account.Balances {
		free, err := strconv.ParseFloat(b.Free, 64)
		if err != nil {
			return nil, &exchange.DecodeError{Field: "free", Reason: err.Error()}
		}
		locked, err := strconv.ParseFloat(b.Locked, 64)
		if err != nil {
			return nil, &exchange.DecodeError{Field: "locked", Reason: err.Error()}
		}
		if free == 0 && locked == 0 {
			continue
		}
		balances = append(balances, exchange.AssetBalance{
			Asset:  b.Asset,
			Free:   free,
			Locked: locked,
		})
	}
	return balances, nil
}

// signedGet performs an HMAC-SHA256 signed GET request against an
// authenticated endpoint.
func (c *Client) signedGet(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", "5000")

	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(params.Encode()))
	params.Set("signature", hex.EncodeToString(mac.Sum(nil)))

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Msg != "" {
			return fmt.Errorf("binance %s returned %d: %s", path, resp.StatusCode, apiErr.Msg)
		}
		return fmt.Errorf("binance %s returned %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
