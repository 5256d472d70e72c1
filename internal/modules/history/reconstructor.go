// Package history reconstructs the portfolio value series from the
// transaction ledger and price history, and persists daily valuation
// snapshots.
package history

import (
	"sort"
	"time"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/modules/portfolio"
)

// usdToDisplay returns the factor converting USD amounts (history closes,
// reference tables) into the display currency.
func usdToDisplay(prices domain.PriceMap, currency domain.Currency) float64 {
	if currency == domain.CurrencyUSD {
		return 1
	}
	rate, _ := portfolio.EURToUSDRate(prices)
	return 1 / rate
}

// eurToDisplay returns the factor converting EUR amounts (ledger costs) into
// the display currency.
func eurToDisplay(prices domain.PriceMap, currency domain.Currency) float64 {
	if currency == domain.CurrencyEUR {
		return 1
	}
	rate, _ := portfolio.EURToUSDRate(prices)
	return rate
}

// dateOf formats a unix-seconds timestamp as a UTC calendar date.
func dateOf(unixSec int64) string {
	return time.Unix(unixSec, 0).UTC().Format(domain.DateFormat)
}

// buyTransactions returns the ledger's BUY entries sorted by date.
func buyTransactions(ledger []domain.Transaction) []domain.Transaction {
	var buys []domain.Transaction
	for _, tx := range ledger {
		if tx.Type == domain.TxBuy {
			buys = append(buys, tx)
		}
	}
	sort.SliceStable(buys, func(i, j int) bool { return buys[i].Date < buys[j].Date })
	return buys
}

// Reconstruct replays the ledger against daily price history and returns the
// portfolio value series in the display currency.
//
// The replay is date-keyed, not index-aligned: per-symbol closes become
// sparse date maps, the emitted dates are the union of all symbols' dates,
// and a symbol missing a close on some date carries its last known price
// forward instead of being valued at zero. Assets enter the series on their
// first BUY date. rangeDays 0 means the full series since the first BUY.
//
// Returns an empty series when the ledger has no BUY transactions or no
// price history overlaps the window.
func Reconstruct(snap domain.MarketSnapshot, rangeDays int, currency domain.Currency) []domain.HistoryPoint {
	buys := buyTransactions(snap.Ledger)
	if len(buys) == 0 {
		return nil
	}

	// Sparse per-symbol date -> close maps, union of dates across symbols.
	priceByDate := make(map[string]map[string]float64, len(snap.History))
	dateSet := make(map[string]struct{})
	for symbol, points := range snap.History {
		byDate := make(map[string]float64, len(points))
		for _, p := range points {
			date := dateOf(p.Time)
			byDate[date] = p.Close
			dateSet[date] = struct{}{}
		}
		priceByDate[symbol] = byDate
	}
	if len(dateSet) == 0 {
		return nil
	}

	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	today := time.Now().UTC().Format(domain.DateFormat)
	startDate := buys[0].Date
	if rangeDays > 0 {
		rangeStart := time.Now().UTC().AddDate(0, 0, -rangeDays).Format(domain.DateFormat)
		if rangeStart > startDate {
			startDate = rangeStart
		}
	}

	valueRate := usdToDisplay(snap.Prices, currency)
	investedRate := eurToDisplay(snap.Prices, currency)

	var series []domain.HistoryPoint
	lastKnownPrice := make(map[string]float64)

	for _, date := range dates {
		if date < startDate || date > today {
			continue
		}

		// Holdings and invested implied by the ledger up to this date.
		holdings := make(map[string]float64)
		var investedEUR float64
		for _, tx := range buys {
			if tx.Date > date {
				break
			}
			holdings[tx.Asset] += tx.Qty
			investedEUR += tx.Qty * tx.Price
		}
		if len(holdings) == 0 {
			continue
		}

		var dayValue float64
		hasValidPrice := false
		for symbol, qty := range holdings {
			price := priceByDate[symbol][date]
			if price == 0 {
				price = lastKnownPrice[symbol]
			}
			if price > 0 {
				dayValue += price * qty
				lastKnownPrice[symbol] = price
				hasValidPrice = true
			}
		}

		if !hasValidPrice || dayValue <= 0 {
			continue
		}

		ts, _ := time.Parse(domain.DateFormat, date)
		series = append(series, domain.HistoryPoint{
			Time:     ts.Unix(),
			Value:    dayValue * valueRate,
			Invested: investedEUR * investedRate,
		})
	}

	return series
}

// ReconstructHourly builds the short-range value series from hourly closes.
// Quantities are the current holdings, not a ledger replay: at hourly
// resolution over at most a week, intra-window transactions are rare and the
// current composition is the honest approximation. No invested line.
func ReconstructHourly(snap domain.MarketSnapshot, rangeDays int, currency domain.Currency) []domain.HistoryPoint {
	if len(snap.Holdings) == 0 {
		return nil
	}

	base := snap.HourlyHistory[snap.Holdings[0].Symbol]
	if len(base) == 0 {
		return nil
	}

	hours := 168
	if rangeDays == 1 {
		hours = 24
	}
	start := len(base) - hours
	if start < 0 {
		start = 0
	}

	valueRate := usdToDisplay(snap.Prices, currency)

	var series []domain.HistoryPoint
	for i := start; i < len(base); i++ {
		var hourValue float64
		for _, h := range snap.Holdings {
			points := snap.HourlyHistory[h.Symbol]
			if i < len(points) {
				hourValue += points[i].Close * h.Qty
			}
		}
		series = append(series, domain.HistoryPoint{
			Time:  base[i].Time,
			Value: hourValue * valueRate,
		})
	}
	return series
}

// BTCComparison computes, for each point of the reconstructed series, what
// the portfolio would be worth had every BUY bought BTC instead: each
// transaction's cost converts to BTC at the BTC price on the transaction
// date, and the accumulated BTC is revalued at each emitted date's BTC price.
// Returns nil when BTC history or BUY transactions are missing; the values
// are positionally aligned with the input series.
func BTCComparison(snap domain.MarketSnapshot, series []domain.HistoryPoint, currency domain.Currency) []float64 {
	if len(series) == 0 {
		return nil
	}
	btcHistory := snap.History["BTC"]
	if len(btcHistory) == 0 {
		return nil
	}
	buys := buyTransactions(snap.Ledger)
	if len(buys) == 0 {
		return nil
	}

	btcPriceByDate := make(map[string]float64, len(btcHistory))
	for _, p := range btcHistory {
		btcPriceByDate[dateOf(p.Time)] = p.Close
	}

	// Ledger costs are EUR but historical BTC closes are USD; historical
	// cross rates are not available, so the current rate approximates the
	// conversion uniformly across the series.
	eurUSD, _ := portfolio.EURToUSDRate(snap.Prices)
	valueRate := usdToDisplay(snap.Prices, currency)

	values := make([]float64, len(series))
	for i, point := range series {
		date := dateOf(point.Time)

		btcPriceToday := btcPriceByDate[date]
		if btcPriceToday == 0 {
			// Carry the previous comparison value forward on gap dates.
			if i > 0 {
				values[i] = values[i-1]
			}
			continue
		}

		var btcAccumulated float64
		for _, tx := range buys {
			if tx.Date > date {
				break
			}
			costUSD := tx.Qty * tx.Price * eurUSD
			btcPriceAtTx := btcPriceByDate[tx.Date]
			if btcPriceAtTx == 0 {
				btcPriceAtTx = btcPriceToday
			}
			btcAccumulated += costUSD / btcPriceAtTx
		}

		values[i] = btcAccumulated * btcPriceToday * valueRate
	}

	return values
}
