package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"StratCore/internal/domain/models"
	domrepo "StratCore/internal/domain/repository"
	pkgkafka "StratCore/pkg/kafka"
)

// CandleIntake consumes closed candles from Kafka and feeds the engine.
type CandleIntake struct {
	topic   string
	engine  *Engine
	metrics domrepo.Metrics
}

func NewCandleIntake(topic string, engine *Engine, metrics domrepo.Metrics) *CandleIntake {
	return &CandleIntake{topic: topic, engine: engine, metrics: metrics}
}

func (h *CandleIntake) Topic() string { return h.topic }

// incoming message schema: {pair, tf, t, o, h, l, c, v}; t is the bar
// open time in epoch seconds or milliseconds.
func (h *CandleIntake) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Pair string  `json:"pair"`
		TF   string  `json:"tf"`
		T    int64   `json:"t"`
		O    float64 `json:"o"`
		H    float64 `json:"h"`
		L    float64 `json:"l"`
		C    float64 `json:"c"`
		V    float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	tf := domrepo.Timeframe(strings.ToLower(m.TF))
	if !domrepo.IsValidTimeframe(tf) {
		h.metrics.RecordError("consumer_timeframe")
		return nil // unknown resolution, skip rather than retry
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	openTime := time.Unix(m.T, 0).UTC()
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(openTime.Add(tf.Duration())).Seconds())

	return h.engine.OnCandle(ctx, tf, models.Candle{
		Pair:     m.Pair,
		OpenTime: openTime,
		Open:     m.O,
		High:     m.H,
		Low:      m.L,
		Close:    m.C,
		Volume:   m.V,
	})
}

var _ pkgkafka.MessageHandler = (*CandleIntake)(nil)
