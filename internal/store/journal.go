package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"krx-trader/internal/models"
)

// Journal is the SQLite-backed append-only record of completed trades.
type Journal struct {
	db *sql.DB
}

// NewJournal opens or creates the trade journal at dbPath.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		buy_price REAL NOT NULL,
		sell_price REAL NOT NULL,
		profit REAL NOT NULL,
		profit_percent REAL NOT NULL,
		strategy TEXT,
		opened_at DATETIME NOT NULL,
		closed_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_code ON trades(code);
	CREATE INDEX IF NOT EXISTS idx_trades_closed_at ON trades(closed_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends one completed trade.
func (j *Journal) Record(ctx context.Context, t *models.TradeRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades (code, name, quantity, buy_price, sell_price, profit, profit_percent, strategy, opened_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.Code, t.Name, t.Quantity, t.BuyPrice, t.SellPrice, t.Profit, t.ProfitPercent, t.Strategy, t.OpenedAt, t.ClosedAt)
	if err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}
	return nil
}

// TradeFilter filters journal queries. Zero fields are ignored.
type TradeFilter struct {
	Code  string
	Since time.Time
	Until time.Time
	Limit int
}

// Trades retrieves completed trades matching the filter, newest first.
func (j *Journal) Trades(ctx context.Context, filter TradeFilter) ([]models.TradeRecord, error) {
	query := "SELECT id, code, name, quantity, buy_price, sell_price, profit, profit_percent, strategy, opened_at, closed_at FROM trades WHERE 1=1"
	args := []interface{}{}

	if filter.Code != "" {
		query += " AND code = ?"
		args = append(args, filter.Code)
	}
	if !filter.Since.IsZero() {
		query += " AND closed_at >= ?"
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		query += " AND closed_at <= ?"
		args = append(args, filter.Until)
	}
	query += " ORDER BY closed_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.TradeRecord
	for rows.Next() {
		var t models.TradeRecord
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Quantity, &t.BuyPrice, &t.SellPrice, &t.Profit, &t.ProfitPercent, &t.Strategy, &t.OpenedAt, &t.ClosedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
