package repository

import (
	"context"
	"time"

	"TradeGuard/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher fans detection events out to the message bus.
type Publisher interface {
	Publish(ctx context.Context, e *models.GuardEvent) error
	Close() error
}

// Storage persists ticks and guard events and serves the read paths for the
// events API and replay.
type Storage interface {
	Init(ctx context.Context) error
	StoreTick(ctx context.Context, t *models.Tick) error
	StoreEvent(ctx context.Context, e *models.GuardEvent) error
	QueryTicks(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Tick, error)
	QueryEvents(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.GuardEvent, error)
	Health(ctx context.Context) error
	Close() error
}

// CandleSource provides recent OHLCV history for guard warm-up.
type CandleSource interface {
	RecentCandles(ctx context.Context, symbol string, n int) ([]models.Candle, error)
}

type Metrics interface {
	RecordTick(symbol string)
	RecordEvent(symbol, kind, source string)
	RecordGate(symbol, reason string, allowed bool)
	RecordExit(symbol, reason string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
