package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

// Signal is one accepted pair state update.
type Signal struct {
	ID        int64
	Exchange  string
	Symbol    string
	State     domain.State
	Market    bool
	CreatedAt time.Time
}

// OrderRecord is one order acknowledged by an exchange.
type OrderRecord struct {
	ID              int64
	Exchange        string
	ExchangeOrderID string
	OurID           string
	Symbol          string
	Status          domain.ExchangeOrderStatus
	Side            domain.ExchangeOrderSide
	Type            domain.ExchangeOrderType
	Price           float64
	Amount          float64
	CreatedAt       time.Time
}

// SignalStore logs pair signals and placed orders to SQLite. Recording is
// best effort: write failures are logged and never reach the trading path.
type SignalStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSignalStore opens dbPath with WAL mode enabled.
func NewSignalStore(dbPath string) (*SignalStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			exchange TEXT NOT NULL,
			symbol TEXT NOT NULL,
			state TEXT NOT NULL,
			market INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_signals_pair ON signals (exchange, symbol, created_at);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			exchange TEXT NOT NULL,
			exchange_order_id TEXT NOT NULL,
			our_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			status TEXT NOT NULL,
			side TEXT NOT NULL,
			type TEXT NOT NULL,
			price REAL NOT NULL,
			amount REAL NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SignalStore{db: db, now: time.Now}, nil
}

// RecordSignal stores an accepted update.
func (s *SignalStore) RecordSignal(ctx context.Context, exchange, symbol string, state domain.State, options domain.PairStateOptions) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO signals (exchange, symbol, state, market, created_at) VALUES (?, ?, ?, ?, ?)",
		exchange, symbol, string(state), options.Market, s.now().UnixMilli(),
	)
	if err != nil {
		slog.Error("Failed to record signal",
			slog.String("exchange", exchange),
			slog.String("symbol", symbol),
			slog.Any("error", err))
	}
}

// RecordOrder stores an acknowledged order.
func (s *SignalStore) RecordOrder(ctx context.Context, exchange string, order *domain.ExchangeOrder) {
	if order == nil {
		return
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (exchange, exchange_order_id, our_id, symbol, status, side, type, price, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exchange, order.ID, order.OurID, order.Symbol, string(order.Status), string(order.Side), string(order.Type),
		order.Price, order.Amount, s.now().UnixMilli(),
	)
	if err != nil {
		slog.Error("Failed to record order",
			slog.String("exchange", exchange),
			slog.String("order_id", order.ID),
			slog.Any("error", err))
	}
}

// RecentSignals returns up to limit signals, newest first.
func (s *SignalStore) RecentSignals(ctx context.Context, limit int) ([]Signal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, exchange, symbol, state, market, created_at FROM signals ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []Signal
	for rows.Next() {
		var sig Signal
		var state string
		var createdAt int64
		if err := rows.Scan(&sig.ID, &sig.Exchange, &sig.Symbol, &state, &sig.Market, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		sig.State = domain.State(state)
		sig.CreatedAt = time.UnixMilli(createdAt)
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return signals, nil
}

// RecentOrders returns up to limit orders of symbol, newest first.
func (s *SignalStore) RecentOrders(ctx context.Context, symbol string, limit int) ([]OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exchange, exchange_order_id, our_id, symbol, status, side, type, price, amount, created_at
		 FROM orders WHERE symbol = ? ORDER BY id DESC LIMIT ?`,
		symbol, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []OrderRecord
	for rows.Next() {
		var o OrderRecord
		var status, side, typ string
		var createdAt int64
		if err := rows.Scan(&o.ID, &o.Exchange, &o.ExchangeOrderID, &o.OurID, &o.Symbol,
			&status, &side, &typ, &o.Price, &o.Amount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Status = domain.ExchangeOrderStatus(status)
		o.Side = domain.ExchangeOrderSide(side)
		o.Type = domain.ExchangeOrderType(typ)
		o.CreatedAt = time.UnixMilli(createdAt)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return orders, nil
}

// Close closes the database connection.
func (s *SignalStore) Close() error {
	return s.db.Close()
}
