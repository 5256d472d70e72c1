package chains

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/clientdata"
)

// PsXDCContract is the Prime Staked XDC (liquid staking) token contract.
const PsXDCContract = "0x9B8e12b0BAC165B86967E771d98B520Ec3F665A6"

// XDCReader reads the XDC balance of one address from the BlocksScan API.
// The reported quantity is native balance plus staked psXDC, so staking does
// not show up as a phantom withdrawal.
type XDCReader struct {
	baseURL   string
	address   string
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewXDCReader creates a reader for one XDC address. Both the xdc... and 0x...
// address forms are accepted.
func NewXDCReader(address string, cacheRepo *clientdata.Repository, log zerolog.Logger) *XDCReader {
	return &XDCReader{
		baseURL:   "https://xdc.blocksscan.io/api",
		address:   normalizeXDCAddress(address),
		log:       log.With().Str("client", "xdc").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Symbol returns "XDC".
func (r *XDCReader) Symbol() string { return "XDC" }

// FetchBalance returns native XDC plus staked psXDC, in whole XDC.
// A failed psXDC lookup degrades to native-only rather than failing the sync.
func (r *XDCReader) FetchBalance(ctx context.Context) (float64, error) {
	cacheKey := "XDC:" + r.address
	if qty, ok := cacheGet(r.cacheRepo, cacheKey); ok {
		return qty, nil
	}

	nativeURL := fmt.Sprintf("%s?module=account&action=balance&address=%s", r.baseURL, r.address)
	native, err := r.fetchAmount(ctx, nativeURL)
	if err != nil {
		return 0, fmt.Errorf("fetch XDC balance: %w", err)
	}

	total := native

	stakedURL := fmt.Sprintf("%s?module=account&action=tokenbalance&contractaddress=%s&address=%s",
		r.baseURL, PsXDCContract, r.address)
	staked, err := r.fetchAmount(ctx, stakedURL)
	if err != nil {
		r.log.Warn().Err(err).Msg("psXDC lookup failed, reporting native balance only")
	} else {
		total += staked
	}

	cachePut(r.cacheRepo, cacheKey, total)
	r.log.Debug().Float64("native", native).Float64("qty", total).Msg("Fetched balance")
	return total, nil
}

func (r *XDCReader) fetchAmount(ctx context.Context, url string) (float64, error) {
	var result struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Result  string `json:"result"`
	}
	if err := getJSON(ctx, url, &result); err != nil {
		return 0, err
	}
	if result.Status != "1" {
		return 0, fmt.Errorf("blocksscan error: %s", result.Message)
	}
	return parseTokenAmount(result.Result, 18)
}

// normalizeXDCAddress rewrites the xdc prefix to 0x.
func normalizeXDCAddress(address string) string {
	lower := strings.ToLower(address)
	if strings.HasPrefix(lower, "xdc") {
		return "0x" + lower[3:]
	}
	return lower
}
