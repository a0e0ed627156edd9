package repository

import (
	"context"
	"time"

	"StratCore/internal/domain/models"
)

// CandleStore provides read-only access to candle history for warm-up
// bootstrap. Live candles arrive through the Kafka intake, not here.
type CandleStore interface {
	GetCandles(ctx context.Context, pair string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, pair string, n int, tf Timeframe) ([]models.Candle, error)
	Health(ctx context.Context) error
}

// SignalPublisher hands signals and adjustment orders to the external
// order-execution layer. The core never tracks fills itself.
type SignalPublisher interface {
	PublishSignal(ctx context.Context, s *models.Signal) error
	PublishAdjustment(ctx context.Context, o *models.AdjustmentOrder) error
	Close() error
}

// Metrics records evaluation observability counters.
type Metrics interface {
	RecordSignal(pair string, kind, direction, mode string)
	RecordConditionHits(direction, mode string, n int)
	RecordAdjustment(pair, result string)
	RecordRejection(kind string)
	RecordError(kind string)
	RecordEvalLatency(pair string, seconds float64)
	RecordLatency(name string, seconds float64)
	RecordPredictorFallback()
	SetOpenPositions(n int)
	RecordProfitRatio(pair string, ratio float64)
}
