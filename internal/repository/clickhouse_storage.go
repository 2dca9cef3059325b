package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/domain/repository"
)

// ClickHouseStorage implements Storage over two tables: raw ticks and guard
// events. Schema creation lives in the DI layer with the client.
type ClickHouseStorage struct {
	db         *sql.DB
	tickTable  string
	eventTable string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, tickTable, eventTable string) repository.Storage {
	return &ClickHouseStorage{db: db, tickTable: tickTable, eventTable: eventTable}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) StoreTick(ctx context.Context, t *models.Tick) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, volume) VALUES (?, ?, ?, ?)", s.tickTable)
	_, err := s.db.ExecContext(ctx, q,
		time.Unix(t.Timestamp, 0),
		t.Symbol,
		t.Price,
		t.Volume,
	)
	return err
}

func (s *ClickHouseStorage) StoreEvent(ctx context.Context, e *models.GuardEvent) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, kind, drop, peak, price, source) VALUES (?, ?, ?, ?, ?, ?, ?)", s.eventTable)
	_, err := s.db.ExecContext(ctx, q,
		e.TS,
		e.Symbol,
		e.Kind,
		e.Drop,
		e.Peak,
		e.Price,
		e.Source,
	)
	return err
}

// QueryTicks returns ticks oldest-first so a replay walks the range in the
// order the live run saw it.
func (s *ClickHouseStorage) QueryTicks(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Tick, error) {
	q := fmt.Sprintf("SELECT symbol, ts, price, volume FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC LIMIT ?", s.tickTable)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticks []*models.Tick
	for rows.Next() {
		var t models.Tick
		var ts time.Time
		if err := rows.Scan(&t.Symbol, &ts, &t.Price, &t.Volume); err != nil {
			return nil, err
		}
		t.Timestamp = ts.Unix()
		ticks = append(ticks, &t)
	}
	return ticks, rows.Err()
}

func (s *ClickHouseStorage) QueryEvents(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.GuardEvent, error) {
	q := fmt.Sprintf("SELECT symbol, ts, kind, drop, peak, price, source FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.eventTable)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.GuardEvent
	for rows.Next() {
		var e models.GuardEvent
		if err := rows.Scan(&e.Symbol, &e.TS, &e.Kind, &e.Drop, &e.Peak, &e.Price, &e.Source); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}
