package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tradeassist/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	syncTimes map[string]time.Time
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:        db,
		syncTimes: make(map[string]time.Time),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Journal of every order this client submitted
	CREATE TABLE IF NOT EXISTS order_journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		instrument_key TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		status TEXT NOT NULL,
		submitted_at DATETIME NOT NULL
	);

	-- Last fetched trades, one JSON document per trade
	CREATE TABLE IF NOT EXISTS trades_cache (
		trade_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		cached_at DATETIME NOT NULL
	);

	-- Last fetched AI trade ideas
	CREATE TABLE IF NOT EXISTS ideas_cache (
		ai_trade_id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		cached_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sync_times (
		data_type TEXT PRIMARY KEY,
		synced_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_user ON order_journal(user_id, submitted_at);
	CREATE INDEX IF NOT EXISTS idx_trades_cache_user ON trades_cache(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// JournalOrder records a submitted order.
func (s *SQLiteStore) JournalOrder(ctx context.Context, order models.ValidOrder, tradeID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO order_journal
			(trade_id, user_id, instrument_key, symbol, side, quantity, entry_price, status, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tradeID, order.UserID, order.InstrumentKey, order.Symbol, string(order.Side),
		order.Quantity, order.EntryPrice, string(order.Status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("journaling order: %w", err)
	}
	return nil
}

// GetJournal returns the most recent journal entries.
func (s *SQLiteStore) GetJournal(ctx context.Context, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trade_id, user_id, instrument_key, symbol, side, quantity, entry_price, status, submitted_at
		FROM order_journal ORDER BY submitted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var side, status string
		if err := rows.Scan(&e.ID, &e.TradeID, &e.UserID, &e.InstrumentKey, &e.Symbol,
			&side, &e.Quantity, &e.EntryPrice, &status, &e.SubmittedAt); err != nil {
			return nil, err
		}
		e.Side = models.OrderSide(side)
		e.Status = models.OrderStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CacheTrades replaces the cached trades for a user.
func (s *SQLiteStore) CacheTrades(ctx context.Context, userID string, trades []models.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trades_cache WHERE user_id = ?`, userID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, trade := range trades {
		payload, err := json.Marshal(trade)
		if err != nil {
			return fmt.Errorf("encoding trade %s: %w", trade.TradeID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trades_cache (trade_id, user_id, payload, cached_at) VALUES (?, ?, ?, ?)`,
			trade.TradeID, userID, string(payload), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetCachedTrades returns the last cached trades for a user.
func (s *SQLiteStore) GetCachedTrades(ctx context.Context, userID string) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM trades_cache WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying trade cache: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var trade models.Trade
		if err := json.Unmarshal([]byte(payload), &trade); err != nil {
			continue // skip rows written by an older schema
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

// CacheIdeas replaces the cached AI trade ideas.
func (s *SQLiteStore) CacheIdeas(ctx context.Context, ideas []models.AiTrade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ideas_cache`); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, idea := range ideas {
		payload, err := json.Marshal(idea)
		if err != nil {
			return fmt.Errorf("encoding idea %s: %w", idea.AiTradeID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ideas_cache (ai_trade_id, payload, cached_at) VALUES (?, ?, ?)`,
			idea.AiTradeID, string(payload), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetCachedIdeas returns the last cached ideas.
func (s *SQLiteStore) GetCachedIdeas(ctx context.Context) ([]models.AiTrade, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM ideas_cache`)
	if err != nil {
		return nil, fmt.Errorf("querying idea cache: %w", err)
	}
	defer rows.Close()

	var ideas []models.AiTrade
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var idea models.AiTrade
		if err := json.Unmarshal([]byte(payload), &idea); err != nil {
			continue
		}
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

// GetLastSync returns the last sync time for a data type.
func (s *SQLiteStore) GetLastSync(dataType string) time.Time {
	s.mu.RLock()
	if t, ok := s.syncTimes[dataType]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	var t time.Time
	err := s.db.QueryRow(`SELECT synced_at FROM sync_times WHERE data_type = ?`, dataType).Scan(&t)
	if err != nil {
		return time.Time{}
	}

	s.mu.Lock()
	s.syncTimes[dataType] = t
	s.mu.Unlock()
	return t
}

// SetLastSync records the last sync time for a data type.
func (s *SQLiteStore) SetLastSync(dataType string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_times (data_type, synced_at) VALUES (?, ?)
		ON CONFLICT(data_type) DO UPDATE SET synced_at = excluded.synced_at`,
		dataType, t.UTC())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.syncTimes[dataType] = t
	s.mu.Unlock()
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements DataStore
var _ DataStore = (*SQLiteStore)(nil)
