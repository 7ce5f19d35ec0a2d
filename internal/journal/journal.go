// Package journal keeps a durable SQLite record of every fill the bot makes.
// It is write-mostly during trading; the analyze mode reads it back for
// performance metrics. Journal failures are logged and swallowed: losing a
// record is better than halting the exit path.
package journal

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at  TIMESTAMP NOT NULL,
	symbol      TEXT NOT NULL,
	side        TEXT NOT NULL,            -- buy / sell
	qty         TEXT NOT NULL,            -- decimals stored as text
	price       TEXT NOT NULL,
	entry_price TEXT,                     -- sells only
	pnl         TEXT,                     -- sells only, realized
	reason      TEXT,                     -- exit reason or entry strategy
	partial     INTEGER NOT NULL DEFAULT 0,
	order_id    TEXT
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
`

// Journal wraps the trades database.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	// modernc/sqlite serializes writes itself, but a single connection
	// avoids SQLITE_BUSY under the two writer goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	log.Printf("Journal initialized: %s", path)
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordEntry logs a buy fill.
func (j *Journal) RecordEntry(symbol string, qty, price decimal.Decimal, strategy, orderID string) {
	_, err := j.db.Exec(
		`INSERT INTO trades (created_at, symbol, side, qty, price, reason, order_id) VALUES (?, ?, 'buy', ?, ?, ?, ?)`,
		time.Now().UTC(), symbol, qty.String(), price.String(), strategy, orderID,
	)
	if err != nil {
		log.Printf("ERROR: Journal entry write failed for %s: %v", symbol, err)
	}
}

// RecordExit logs a sell fill with its realized P&L against the entry.
// Satisfies positions.Journal.
func (j *Journal) RecordExit(symbol string, qty, entryPrice, exitPrice decimal.Decimal, reason string, orderID string, partial bool) {
	pnl := exitPrice.Sub(entryPrice).Mul(qty)
	partialFlag := 0
	if partial {
		partialFlag = 1
	}
	_, err := j.db.Exec(
		`INSERT INTO trades (created_at, symbol, side, qty, price, entry_price, pnl, reason, partial, order_id)
		 VALUES (?, ?, 'sell', ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), symbol, qty.String(), exitPrice.String(), entryPrice.String(), pnl.String(), reason, partialFlag, orderID,
	)
	if err != nil {
		log.Printf("ERROR: Journal exit write failed for %s: %v", symbol, err)
	}
}

// Metrics summarizes realized performance across all recorded exits.
type Metrics struct {
	TotalExits int
	Wins       int
	Losses     int
	WinRate    float64
	TotalPnL   decimal.Decimal
	AvgWin     decimal.Decimal
	AvgLoss    decimal.Decimal
}

// PerformanceMetrics aggregates the sell side of the journal.
func (j *Journal) PerformanceMetrics() (Metrics, error) {
	rows, err := j.db.Query(`SELECT pnl FROM trades WHERE side = 'sell' AND pnl IS NOT NULL`)
	if err != nil {
		return Metrics{}, fmt.Errorf("query exits: %w", err)
	}
	defer rows.Close()

	m := Metrics{TotalPnL: decimal.Zero, AvgWin: decimal.Zero, AvgLoss: decimal.Zero}
	winSum, lossSum := decimal.Zero, decimal.Zero

	for rows.Next() {
		var pnlStr string
		if err := rows.Scan(&pnlStr); err != nil {
			return Metrics{}, err
		}
		pnl, err := decimal.NewFromString(pnlStr)
		if err != nil {
			continue
		}
		m.TotalExits++
		m.TotalPnL = m.TotalPnL.Add(pnl)
		if pnl.GreaterThan(decimal.Zero) {
			m.Wins++
			winSum = winSum.Add(pnl)
		} else {
			m.Losses++
			lossSum = lossSum.Add(pnl)
		}
	}
	if err := rows.Err(); err != nil {
		return Metrics{}, err
	}

	if m.TotalExits > 0 {
		m.WinRate = float64(m.Wins) / float64(m.TotalExits)
	}
	if m.Wins > 0 {
		m.AvgWin = winSum.Div(decimal.NewFromInt(int64(m.Wins)))
	}
	if m.Losses > 0 {
		m.AvgLoss = lossSum.Div(decimal.NewFromInt(int64(m.Losses)))
	}
	return m, nil
}

// RealizedPnLSince sums realized P&L on exits recorded at or after cutoff.
// The daily-loss breaker uses it with the start of the trading day.
func (j *Journal) RealizedPnLSince(cutoff time.Time) (decimal.Decimal, error) {
	rows, err := j.db.Query(`SELECT pnl FROM trades WHERE side = 'sell' AND pnl IS NOT NULL AND created_at >= ?`, cutoff.UTC())
	if err != nil {
		return decimal.Zero, fmt.Errorf("query daily pnl: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var pnlStr string
		if err := rows.Scan(&pnlStr); err != nil {
			return decimal.Zero, err
		}
		if pnl, err := decimal.NewFromString(pnlStr); err == nil {
			total = total.Add(pnl)
		}
	}
	return total, rows.Err()
}
