// Package persistence provides SQLite-based storage for finished days:
// ledgers, end-of-day stock and run metadata.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/storesim/internal/catalog"
	"github.com/talgya/storesim/internal/customer"
	"github.com/talgya/storesim/internal/engine"
)

// ErrNoState means nothing has been archived yet.
var ErrNoState = errors.New("no saved state")

// DB wraps a SQLite connection for the day archive.
type DB struct {
	conn *sqlx.DB
}

// Run is one process lifetime of a store.
type Run struct {
	ID        string `db:"id" json:"id"`
	Store     string `db:"store" json:"store"`
	Seed      int64  `db:"seed" json:"seed"`
	StartedAt string `db:"started_at" json:"started_at"`
}

// DayRow is an archived day summary.
type DayRow struct {
	RunID        string `db:"run_id" json:"run_id"`
	Day          int    `db:"day" json:"day"`
	Visitors     int    `db:"visitors" json:"visitors"`
	Transactions int    `db:"transactions" json:"transactions"`
	Income       string `db:"income" json:"income"`
	ClosedAt     string `db:"closed_at" json:"closed_at"`
}

// TransactionRow is an archived ledger record.
type TransactionRow struct {
	TransactionID int    `db:"transaction_id" json:"transaction_id"`
	CustomerName  string `db:"customer_name" json:"customer_name"`
	ItemsJSON     string `db:"items_json" json:"-"`
	AmountSpent   string `db:"amount_spent" json:"amount_spent"`
	TimeEntered   int    `db:"time_entered" json:"time_entered"`
	TimeLeft      int    `db:"time_left" json:"time_left"`
}

// Items decodes the purchased lines.
func (r TransactionRow) Items() ([]customer.Line, error) {
	var lines []customer.Line
	if r.ItemsJSON == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(r.ItemsJSON), &lines); err != nil {
		return nil, fmt.Errorf("decode items of transaction %d: %w", r.TransactionID, err)
	}
	return lines, nil
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		store TEXT NOT NULL,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS days (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		visitors INTEGER NOT NULL,
		transactions INTEGER NOT NULL,
		income TEXT NOT NULL,
		closed_at TEXT NOT NULL,
		UNIQUE (run_id, day)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		transaction_id INTEGER NOT NULL,
		customer_name TEXT NOT NULL,
		items_json TEXT NOT NULL,
		amount_spent TEXT NOT NULL,
		time_entered INTEGER NOT NULL,
		time_left INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stock_snapshots (
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		stock INTEGER NOT NULL,
		PRIMARY KEY (run_id, day, item_id)
	);

	CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_day ON transactions(run_id, day);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun records a new run and returns its id.
func (db *DB) StartRun(store string, seed int64) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, store, seed, started_at) VALUES (?, ?, ?, ?)",
		id, store, seed, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	if err := db.SaveMeta("current_run", id); err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// GetRun loads a run by id.
func (db *DB) GetRun(id string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT id, store, seed, started_at FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNoState)
	}
	return r, err
}

// SaveDay archives a finished day in one transaction: the summary, every
// ledger record and the closing stock. Saving the same run and day twice
// replaces the earlier copy.
func (db *DB) SaveDay(runID string, summary engine.DaySummary, records []engine.TransactionRecord, items []catalog.Item) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT OR REPLACE INTO days
		(run_id, day, visitors, transactions, income, closed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, summary.Day, summary.Visitors, summary.Transactions,
		summary.Income.StringFixed(2), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert day %d: %w", summary.Day, err)
	}

	if _, err := tx.Exec("DELETE FROM transactions WHERE run_id = ? AND day = ?", runID, summary.Day); err != nil {
		return err
	}
	stmt, err := tx.Preparex(`INSERT INTO transactions
		(run_id, day, transaction_id, customer_name, items_json, amount_spent, time_entered, time_left)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		itemsJSON, err := json.Marshal(r.Items)
		if err != nil {
			return fmt.Errorf("encode items of transaction %d: %w", r.ID, err)
		}
		_, err = stmt.Exec(
			runID, summary.Day, r.ID, r.CustomerName, string(itemsJSON),
			r.AmountSpent.StringFixed(2), r.TimeEntered, r.TimeLeft,
		)
		if err != nil {
			return fmt.Errorf("insert transaction %d: %w", r.ID, err)
		}
	}

	if _, err := tx.Exec("DELETE FROM stock_snapshots WHERE run_id = ? AND day = ?", runID, summary.Day); err != nil {
		return err
	}
	for _, it := range items {
		_, err := tx.Exec(
			"INSERT INTO stock_snapshots (run_id, day, item_id, name, stock) VALUES (?, ?, ?, ?, ?)",
			runID, summary.Day, it.ID, it.Name, it.Stock,
		)
		if err != nil {
			return fmt.Errorf("insert stock for item %d: %w", it.ID, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO store_meta (key, value) VALUES (?, ?)",
		"last_day", strconv.Itoa(summary.Day),
	); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("day archived", "run", runID, "day", summary.Day, "transactions", len(records), "items", len(items))
	return nil
}

// SaveMeta stores a key-value pair in store metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO store_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM store_meta WHERE key = ?", key)
	return value, err
}

// HasState reports whether any day has been archived.
func (db *DB) HasState() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM days"); err != nil {
		return false
	}
	return count > 0
}

// LastDay returns the most recently archived day number.
func (db *DB) LastDay() (int, error) {
	v, err := db.GetMeta("last_day")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoState
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

// LatestStock returns the closing stock of the most recently archived day.
func (db *DB) LatestStock() (map[catalog.ItemID]int, error) {
	var latest struct {
		RunID string `db:"run_id"`
		Day   int    `db:"day"`
	}
	err := db.conn.Get(&latest, "SELECT run_id, day FROM days ORDER BY seq DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ItemID int `db:"item_id"`
		Stock  int `db:"stock"`
	}
	if err := db.conn.Select(&rows,
		"SELECT item_id, stock FROM stock_snapshots WHERE run_id = ? AND day = ?",
		latest.RunID, latest.Day,
	); err != nil {
		return nil, err
	}

	levels := make(map[catalog.ItemID]int, len(rows))
	for _, r := range rows {
		levels[catalog.ItemID(r.ItemID)] = r.Stock
	}
	return levels, nil
}

// Transactions returns the archived ledger of one day in transaction order.
func (db *DB) Transactions(runID string, day int) ([]TransactionRow, error) {
	var rows []TransactionRow
	err := db.conn.Select(&rows,
		`SELECT transaction_id, customer_name, items_json, amount_spent, time_entered, time_left
		FROM transactions WHERE run_id = ? AND day = ? ORDER BY transaction_id`,
		runID, day,
	)
	return rows, err
}

// RecentDays returns the most recent N archived days, newest first.
func (db *DB) RecentDays(limit int) ([]DayRow, error) {
	var days []DayRow
	err := db.conn.Select(&days,
		"SELECT run_id, day, visitors, transactions, income, closed_at FROM days ORDER BY seq DESC LIMIT ?",
		limit,
	)
	return days, err
}
