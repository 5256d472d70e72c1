// Package feargreed fetches the crypto fear & greed index from alternative.me.
package feargreed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/clientdata"
	"github.com/erold/cryptofolio/internal/domain"
)

// Client for api.alternative.me
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new fear & greed client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://api.alternative.me/fng/",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "feargreed").Logger(),
		cacheRepo: cacheRepo,
	}
}

// FetchFearGreed fetches the current index value. If the API fails, returns
// stale cached data if available; failing that, the neutral index, so
// sentiment problems never take the analysis pipeline down.
func (c *Client) FetchFearGreed(ctx context.Context) (domain.FearGreed, error) {
	const cacheKey = "current"

	if c.cacheRepo != nil {
		var cached domain.FearGreed
		if ok, err := c.cacheRepo.GetIfFresh("fear_greed", cacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return domain.NeutralFearGreed, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return c.fallback(cacheKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fallback(cacheKey, fmt.Errorf("API returned status %d", resp.StatusCode))
	}

	var result struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return c.fallback(cacheKey, fmt.Errorf("failed to parse response: %w", err))
	}
	if len(result.Data) == 0 {
		return c.fallback(cacheKey, fmt.Errorf("empty fear & greed response"))
	}

	value, err := strconv.Atoi(result.Data[0].Value)
	if err != nil {
		return c.fallback(cacheKey, fmt.Errorf("non-numeric index value %q", result.Data[0].Value))
	}

	fng := domain.FearGreed{Value: value, Label: result.Data[0].Classification}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("fear_greed", cacheKey, fng, clientdata.TTLFearGreed); err != nil {
			c.log.Warn().Err(err).Msg("Failed to cache fear & greed index")
		}
	}

	c.log.Debug().Int("value", fng.Value).Str("label", fng.Label).Msg("Fetched fear & greed")
	return fng, nil
}

// fallback returns stale cache if present, the neutral index otherwise.
// The cause is logged but not propagated: sentiment is advisory input.
func (c *Client) fallback(cacheKey string, cause error) (domain.FearGreed, error) {
	if c.cacheRepo != nil {
		var cached domain.FearGreed
		if ok, err := c.cacheRepo.Get("fear_greed", cacheKey, &cached); err == nil && ok {
			c.log.Warn().Err(cause).Int("value", cached.Value).Msg("API failed, using stale cached index")
			return cached, nil
		}
	}
	c.log.Warn().Err(cause).Msg("API failed and no cache, using neutral index")
	return domain.NeutralFearGreed, nil
}
