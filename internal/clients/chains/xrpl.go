package chains

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/clientdata"
)

// XRPLReader reads the XRP balance of one account from an XRPL JSON-RPC
// cluster endpoint.
type XRPLReader struct {
	endpoint  string
	address   string
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewXRPLReader creates a reader for one XRPL account.
func NewXRPLReader(address string, cacheRepo *clientdata.Repository, log zerolog.Logger) *XRPLReader {
	return &XRPLReader{
		endpoint:  "https://xrplcluster.com",
		address:   address,
		log:       log.With().Str("client", "xrpl").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Symbol returns "XRP".
func (r *XRPLReader) Symbol() string { return "XRP" }

// FetchBalance returns the account balance in XRP. The ledger reports drops
// (1 XRP = 1,000,000 drops).
func (r *XRPLReader) FetchBalance(ctx context.Context) (float64, error) {
	cacheKey := "XRP:" + r.address
	if qty, ok := cacheGet(r.cacheRepo, cacheKey); ok {
		return qty, nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"method": "account_info",
		"params": []map[string]interface{}{
			{"account": r.address, "ledger_index": "validated"},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("build request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Result struct {
			AccountData struct {
				Balance string `json:"Balance"`
			} `json:"account_data"`
			Error string `json:"error"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Result.Error != "" {
		return 0, fmt.Errorf("XRPL error: %s", result.Result.Error)
	}

	drops, err := strconv.ParseInt(result.Result.AccountData.Balance, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid drops balance %q: %w", result.Result.AccountData.Balance, err)
	}

	qty := float64(drops) / 1_000_000
	cachePut(r.cacheRepo, cacheKey, qty)
	r.log.Debug().Float64("qty", qty).Msg("Fetched balance")
	return qty, nil
}
