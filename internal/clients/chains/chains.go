// Package chains provides read-only on-chain balance lookups for the wallets
// the portfolio tracks. Each reader targets one chain's public API and returns
// the quantity in whole units of the asset. Readers are polling-based; no
// chain event subscriptions.
package chains

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/erold/cryptofolio/internal/clientdata"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

// getJSON performs a GET request and decodes the JSON body into out.
func getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := httpClient.Do(req)
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

// cachedBalance wraps a balance read for the cache table.
type cachedBalance struct {
	Qty float64 `msgpack:"qty"`
}

// cacheGet returns a fresh cached balance, if any.
func cacheGet(repo *clientdata.Repository, key string) (float64, bool) {
	if repo == nil {
		return 0, false
	}
	var cached cachedBalance
	ok, err := repo.GetIfFresh("chain_balances", key, &cached)
	if err != nil || !ok {
		return 0, false
	}
	return cached.Qty, true
}

// cachePut stores a balance read. Cache write failures are ignored; the
// balance was already fetched successfully.
func cachePut(repo *clientdata.Repository, key string, qty float64) {
	if repo == nil {
		return
	}
	_ = repo.Store("chain_balances", key, cachedBalance{Qty: qty}, clientdata.TTLChainBalance)
}
