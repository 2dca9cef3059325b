package usecase

import (
	"context"
	"encoding/json"
	"time"

	pkgkafka "TradeGuard/pkg/kafka"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
)

// KafkaTicksHandler consumes tick messages from Kafka and drives the guards
// through the same processor as the live feed. This is the ingest path when
// another service owns the exchange connection.
type KafkaTicksHandler struct {
	topic   string
	proc    *TickProcessor
	metrics domrepo.Metrics
}

func NewKafkaTicksHandler(topic string, proc *TickProcessor, metrics domrepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, proc: proc, metrics: metrics}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, c, v}
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	return h.proc.Process(ctx, &models.Tick{
		Symbol:    m.Symbol,
		Timestamp: m.T,
		Price:     m.C,
		Volume:    m.V,
	})
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
