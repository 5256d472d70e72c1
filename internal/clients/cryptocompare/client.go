// Package cryptocompare provides spot price and history fetching from the
// CryptoCompare min-api, with persistent caching and stale-data fallback.
package cryptocompare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/clientdata"
	"github.com/erold/cryptofolio/internal/domain"
)

// Client for min-api.cryptocompare.com
type Client struct {
	baseURL   string
	apiKey    string
	currency  domain.Currency
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new CryptoCompare client. apiKey may be empty (the free
// tier works unauthenticated at low volume). cacheRepo is optional - if nil,
// caching is disabled. currency selects the quote currency for history series.
func NewClient(apiKey string, currency domain.Currency, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://min-api.cryptocompare.com/data",
		apiKey:    apiKey,
		currency:  currency,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log.With().Str("client", "cryptocompare").Logger(),
		cacheRepo: cacheRepo,
	}
}

// rawQuote is the subset of the pricemultifull RAW block we consume.
type rawQuote struct {
	Price float64 `json:"PRICE"`
}

// FetchPrices fetches current spot prices for all symbols in both EUR and USD
// with a single pricemultifull call. Both currencies are always requested so
// the EUR/USD cross rate can be derived from the BTC pair downstream.
func (c *Client) FetchPrices(ctx context.Context, symbols []string) (domain.PriceMap, error) {
	if len(symbols) == 0 {
		return domain.PriceMap{}, nil
	}

	cacheKey := strings.Join(symbols, ",")

	if c.cacheRepo != nil {
		var cached domain.PriceMap
		if ok, err := c.cacheRepo.GetIfFresh("prices", cacheKey, &cached); err == nil && ok {
			c.log.Debug().Int("symbols", len(cached)).Msg("Cache hit")
			return cached, nil
		}
	}

	url := fmt.Sprintf("%s/pricemultifull?fsyms=%s&tsyms=USD,EUR", c.baseURL, cacheKey)

	var result struct {
		Raw map[string]map[string]rawQuote `json:"RAW"`
	}
	if err := c.getJSON(ctx, url, &result); err != nil {
		if stale, ok := c.stalePrices(cacheKey); ok {
			c.log.Warn().Err(err).Msg("API failed, using stale cached prices")
			return stale, nil
		}
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	prices := make(domain.PriceMap, len(result.Raw))
	for symbol, byCurrency := range result.Raw {
		prices[symbol] = map[domain.Currency]float64{
			domain.CurrencyUSD: byCurrency["USD"].Price,
			domain.CurrencyEUR: byCurrency["EUR"].Price,
		}
	}

	if len(prices) == 0 {
		if stale, ok := c.stalePrices(cacheKey); ok {
			c.log.Warn().Msg("Empty price response, using stale cached prices")
			return stale, nil
		}
		return nil, fmt.Errorf("no prices in response for %s", cacheKey)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("prices", cacheKey, prices, clientdata.TTLPrices); err != nil {
			c.log.Warn().Err(err).Msg("Failed to cache prices")
		}
	}

	c.log.Debug().Int("symbols", len(prices)).Msg("Fetched prices")
	return prices, nil
}

// FetchDailyHistory fetches up to `days` daily closes for a symbol, oldest
// first, quoted in the client's configured currency.
func (c *Client) FetchDailyHistory(ctx context.Context, symbol string, days int) ([]domain.PricePoint, error) {
	url := fmt.Sprintf("%s/v2/histoday?fsym=%s&tsym=%s&limit=%d", c.baseURL, symbol, c.currency, days)
	return c.fetchHistory(ctx, "daily_history", symbol, url)
}

// FetchHourlyHistory fetches up to `hours` hourly closes for a symbol, oldest
// first, quoted in the client's configured currency.
func (c *Client) FetchHourlyHistory(ctx context.Context, symbol string, hours int) ([]domain.PricePoint, error) {
	url := fmt.Sprintf("%s/v2/histohour?fsym=%s&tsym=%s&limit=%d", c.baseURL, symbol, c.currency, hours)
	return c.fetchHistory(ctx, "hourly_history", symbol, url)
}

func (c *Client) fetchHistory(ctx context.Context, table, symbol, url string) ([]domain.PricePoint, error) {
	cacheKey := fmt.Sprintf("%s:%s", symbol, c.currency)

	if c.cacheRepo != nil {
		var cached []domain.PricePoint
		if ok, err := c.cacheRepo.GetIfFresh(table, cacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	var result struct {
		Response string `json:"Response"`
		Message  string `json:"Message"`
		Data     struct {
			Data []struct {
				Time  int64   `json:"time"`
				Close float64 `json:"close"`
			} `json:"Data"`
		} `json:"Data"`
	}
	if err := c.getJSON(ctx, url, &result); err != nil {
		if stale, ok := c.staleHistory(table, cacheKey); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale cached history")
			return stale, nil
		}
		return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}
	if result.Response == "Error" {
		if stale, ok := c.staleHistory(table, cacheKey); ok {
			c.log.Warn().Str("symbol", symbol).Str("message", result.Message).Msg("API error, using stale cached history")
			return stale, nil
		}
		return nil, fmt.Errorf("history API error for %s: %s", symbol, result.Message)
	}

	points := make([]domain.PricePoint, 0, len(result.Data.Data))
	for _, candle := range result.Data.Data {
		// Leading zero closes are padding for symbols younger than the
		// requested window; they would poison RSI and ATH math.
		if candle.Close <= 0 {
			continue
		}
		points = append(points, domain.PricePoint{Time: candle.Time, Close: candle.Close})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time < points[j].Time })

	if c.cacheRepo != nil {
		ttl := clientdata.TTLDailyHistory
		if table == "hourly_history" {
			ttl = clientdata.TTLHourlyHistory
		}
		if err := c.cacheRepo.Store(table, cacheKey, points, ttl); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache history")
		}
	}

	return points, nil
}

// getJSON performs a GET request and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Apikey "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) stalePrices(cacheKey string) (domain.PriceMap, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	var cached domain.PriceMap
	ok, err := c.cacheRepo.Get("prices", cacheKey, &cached)
	if err != nil || !ok {
		return nil, false
	}
	return cached, true
}

func (c *Client) staleHistory(table, cacheKey string) ([]domain.PricePoint, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	var cached []domain.PricePoint
	ok, err := c.cacheRepo.Get(table, cacheKey, &cached)
	if err != nil || !ok {
		return nil, false
	}
	return cached, true
}
