package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Short-lived data (changes constantly)
	TTLPrices = time.Minute // 1 minute - spot price snapshots

	// History series (a new daily candle appears once a day, hourly once an hour)
	TTLDailyHistory  = time.Hour        // 1 hour - daily close series
	TTLHourlyHistory = 15 * time.Minute // 15 minutes - hourly close series

	// Sentiment (the index updates a few times per day)
	TTLFearGreed = time.Hour // 1 hour - fear & greed index

	// On-chain balances (wallet sync runs hourly anyway)
	TTLChainBalance = 30 * time.Minute // 30 minutes - wallet balance reads
)
