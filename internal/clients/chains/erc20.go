package chains

import (
	"context"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/clientdata"
)

// QNTContract is the Quant token contract on Ethereum mainnet.
const QNTContract = "0x4a220E6096B25EADb88358cb44068A3248254675"

// ERC20Reader reads an ERC-20 token balance through the Etherscan API.
type ERC20Reader struct {
	baseURL   string
	apiKey    string
	symbol    string
	contract  string
	decimals  int
	address   string
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewERC20Reader creates a reader for one token balance of one address.
// apiKey may be empty on the free tier.
func NewERC20Reader(symbol, contract string, decimals int, address, apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *ERC20Reader {
	return &ERC20Reader{
		baseURL:   "https://api.etherscan.io/api",
		apiKey:    apiKey,
		symbol:    symbol,
		contract:  contract,
		decimals:  decimals,
		address:   address,
		log:       log.With().Str("client", "etherscan").Str("symbol", symbol).Logger(),
		cacheRepo: cacheRepo,
	}
}

// Symbol returns the configured token symbol.
func (r *ERC20Reader) Symbol() string { return r.symbol }

// FetchBalance returns the token balance in whole units.
func (r *ERC20Reader) FetchBalance(ctx context.Context) (float64, error) {
	cacheKey := r.symbol + ":" + r.address
	if qty, ok := cacheGet(r.cacheRepo, cacheKey); ok {
		return qty, nil
	}

	url := fmt.Sprintf("%s?module=account&action=tokenbalance&contractaddress=%s&address=%s&tag=latest",
		r.baseURL, r.contract, r.address)
	if r.apiKey != "" {
		url += "&apikey=" + r.apiKey
	}

	var result struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Result  string `json:"result"`
	}
	if err := getJSON(ctx, url, &result); err != nil {
		return 0, fmt.Errorf("fetch %s balance: %w", r.symbol, err)
	}
	if result.Status != "1" {
		return 0, fmt.Errorf("etherscan error for %s: %s", r.symbol, result.Message)
	}

	qty, err := parseTokenAmount(result.Result, r.decimals)
	if err != nil {
		return 0, fmt.Errorf("invalid %s balance %q: %w", r.symbol, result.Result, err)
	}

	cachePut(r.cacheRepo, cacheKey, qty)
	r.log.Debug().Float64("qty", qty).Msg("Fetched balance")
	return qty, nil
}

// parseTokenAmount converts a raw integer token amount string into whole
// units. big.Float keeps precision for balances that overflow int64.
func parseTokenAmount(raw string, decimals int) (float64, error) {
	amount, ok := new(big.Float).SetString(raw)
	if !ok {
		return 0, fmt.Errorf("not a number")
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	qty, _ := new(big.Float).Quo(amount, divisor).Float64()
	return qty, nil
}
