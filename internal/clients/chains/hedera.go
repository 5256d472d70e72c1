package chains

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/clientdata"
)

// HederaReader reads the HBAR balance of one account from the public Hedera
// mirror node.
type HederaReader struct {
	baseURL   string
	accountID string
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewHederaReader creates a reader for one Hedera account (0.0.x form).
func NewHederaReader(accountID string, cacheRepo *clientdata.Repository, log zerolog.Logger) *HederaReader {
	return &HederaReader{
		baseURL:   "https://mainnet-public.mirrornode.hedera.com",
		accountID: accountID,
		log:       log.With().Str("client", "hedera").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Symbol returns "HBAR".
func (r *HederaReader) Symbol() string { return "HBAR" }

// FetchBalance returns the account balance in HBAR. The mirror node reports
// tinybars (1 HBAR = 100,000,000 tinybars).
func (r *HederaReader) FetchBalance(ctx context.Context) (float64, error) {
	cacheKey := "HBAR:" + r.accountID
	if qty, ok := cacheGet(r.cacheRepo, cacheKey); ok {
		return qty, nil
	}

	url := fmt.Sprintf("%s/api/v1/accounts/%s", r.baseURL, r.accountID)

	var result struct {
		Balance struct {
			Balance *int64 `json:"balance"`
		} `json:"balance"`
	}
	if err := getJSON(ctx, url, &result); err != nil {
		return 0, fmt.Errorf("fetch HBAR balance: %w", err)
	}
	if result.Balance.Balance == nil {
		return 0, fmt.Errorf("no balance in mirror node response for %s", r.accountID)
	}

	qty := float64(*result.Balance.Balance) / 100_000_000
	cachePut(r.cacheRepo, cacheKey, qty)
	r.log.Debug().Float64("qty", qty).Msg("Fetched balance")
	return qty, nil
}
