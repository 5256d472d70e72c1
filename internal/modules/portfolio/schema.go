package portfolio

// LedgerSchema is the DDL for ledger.db. The transaction ledger is
// append-only: rows are inserted and occasionally deleted to correct entry
// mistakes, never updated.
const LedgerSchema = `
CREATE TABLE IF NOT EXISTS transactions (
    id    INTEGER PRIMARY KEY,
    date  TEXT NOT NULL,
    type  TEXT NOT NULL CHECK (type IN ('BUY', 'SELL', 'SWAP')),
    asset TEXT NOT NULL,
    qty   REAL NOT NULL CHECK (qty > 0),
    price REAL NOT NULL CHECK (price > 0),
    note  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_transactions_asset ON transactions (asset);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions (date);
`

// PortfolioSchema is the DDL for portfolio.db.
const PortfolioSchema = `
CREATE TABLE IF NOT EXISTS holdings (
    symbol         TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    qty            REAL NOT NULL DEFAULT 0,
    avg_price      REAL NOT NULL DEFAULT 0,
    avg_price_eur  REAL NOT NULL DEFAULT 0,
    cost_basis     REAL NOT NULL DEFAULT 0,
    cost_basis_eur REAL NOT NULL DEFAULT 0,
    original_qty   REAL NOT NULL DEFAULT 0,
    last_updated   INTEGER
);
CREATE TABLE IF NOT EXISTS price_targets (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol     TEXT NOT NULL,
    price      REAL NOT NULL CHECK (price > 0),
    type       TEXT NOT NULL CHECK (type IN ('BUY', 'SELL')),
    note       TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    triggered  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_price_targets_symbol ON price_targets (symbol);
`
