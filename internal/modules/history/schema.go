package history

// Schema is the DDL for history.db.
const Schema = `
CREATE TABLE IF NOT EXISTS price_history (
    symbol TEXT NOT NULL,
    time   INTEGER NOT NULL,
    close  REAL NOT NULL,
    PRIMARY KEY (symbol, time)
);
CREATE INDEX IF NOT EXISTS idx_price_history_symbol ON price_history (symbol);

CREATE TABLE IF NOT EXISTS snapshots (
    date      TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    value     REAL NOT NULL,
    invested  REAL NOT NULL,
    pnl       REAL NOT NULL,
    currency  TEXT NOT NULL,
    generated INTEGER NOT NULL DEFAULT 0
);
`
