package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"StratCore/internal/conditions"
	"StratCore/internal/domain/models"
	domrepo "StratCore/internal/domain/repository"
	"StratCore/internal/evaluator"
	"StratCore/internal/indicators"
	"StratCore/internal/pipeline"
	"StratCore/internal/position"
	"StratCore/pkg/cache"
	"StratCore/pkg/logger"
)

// EngineConfig describes the pair universe and candle plumbing.
type EngineConfig struct {
	Pairs              []string
	BaseTimeframe      domrepo.Timeframe
	Informative        []domrepo.Timeframe
	ReferencePair      string
	ReferenceTimeframe domrepo.Timeframe
	ReferencePrefix    string
	WarmupCandles      int
	BaseStake          decimal.Decimal
	SignalCacheTTL     time.Duration
}

// pairState holds per-pair candle buffers, one per timeframe. Access
// is serialized by the pair's own mutex so slow pairs never block
// fast ones.
type pairState struct {
	mu      sync.Mutex
	buffers map[domrepo.Timeframe][]models.Candle
}

// Engine is the evaluation loop: candles in, signals and adjustment
// orders out. One Engine serves the whole pair universe.
type Engine struct {
	cfg        EngineConfig
	store      domrepo.CandleStore
	publisher  domrepo.SignalPublisher
	eval       *evaluator.Evaluator
	controller *position.Controller
	book       *position.Book
	cache      cache.Service
	metrics    domrepo.Metrics
	log        *logger.Logger

	mu    sync.RWMutex
	pairs map[string]*pairState
}

func NewEngine(cfg EngineConfig, store domrepo.CandleStore, publisher domrepo.SignalPublisher, eval *evaluator.Evaluator, controller *position.Controller, book *position.Book, c cache.Service, metrics domrepo.Metrics, log *logger.Logger) *Engine {
	if cfg.ReferencePrefix == "" {
		cfg.ReferencePrefix = "btc_"
	}
	if cfg.SignalCacheTTL <= 0 {
		cfg.SignalCacheTTL = 15 * time.Minute
	}
	e := &Engine{
		cfg:        cfg,
		store:      store,
		publisher:  publisher,
		eval:       eval,
		controller: controller,
		book:       book,
		cache:      c,
		metrics:    metrics,
		log:        log,
		pairs:      map[string]*pairState{},
	}
	for _, pair := range cfg.Pairs {
		e.pairs[pair] = newPairState(cfg)
	}
	if cfg.ReferencePair != "" {
		if _, ok := e.pairs[cfg.ReferencePair]; !ok {
			e.pairs[cfg.ReferencePair] = newPairState(cfg)
		}
	}
	return e
}

func newPairState(cfg EngineConfig) *pairState {
	st := &pairState{buffers: map[domrepo.Timeframe][]models.Candle{}}
	st.buffers[cfg.BaseTimeframe] = nil
	for _, tf := range cfg.Informative {
		st.buffers[tf] = nil
	}
	st.buffers[cfg.ReferenceTimeframe] = nil
	return st
}

// Bootstrap backfills every pair's buffers from the candle store so
// the first live candle already evaluates against warm indicators.
func (e *Engine) Bootstrap(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for pair, st := range e.pairs {
		st.mu.Lock()
		for tf := range st.buffers {
			candles, err := e.store.GetLatestNCandles(ctx, pair, e.cfg.WarmupCandles, tf)
			if err != nil {
				st.mu.Unlock()
				return fmt.Errorf("bootstrap %s %s: %w", pair, tf, err)
			}
			sort.Slice(candles, func(i, j int) bool {
				return candles[i].OpenTime.Before(candles[j].OpenTime)
			})
			st.buffers[tf] = candles
			e.log.Debug("bootstrapped candles",
				logger.String("pair", pair),
				logger.String("timeframe", string(tf)),
				logger.Int("count", len(candles)))
		}
		st.mu.Unlock()
	}
	e.log.Info("engine bootstrap complete", logger.Int("pairs", len(e.pairs)))
	return nil
}

// OnCandle ingests one closed candle. Candles must arrive in open-time
// order per pair and timeframe; an older candle is dropped and counted
// as an ordering violation, and an equal one is a duplicate no-op.
// Only a base-timeframe candle on a traded pair triggers evaluation.
func (e *Engine) OnCandle(ctx context.Context, tf domrepo.Timeframe, candle models.Candle) error {
	st := e.pairState(candle.Pair)
	if st == nil {
		return nil // not in the universe
	}
	st.mu.Lock()
	buf, tracked := st.buffers[tf]
	if !tracked {
		st.mu.Unlock()
		return nil
	}
	if n := len(buf); n > 0 {
		last := buf[n-1].OpenTime
		if candle.OpenTime.Equal(last) {
			st.mu.Unlock()
			return nil
		}
		if candle.OpenTime.Before(last) {
			st.mu.Unlock()
			e.metrics.RecordError("candle_out_of_order")
			return fmt.Errorf("out-of-order %s candle for %s: %s before %s",
				tf, candle.Pair, candle.OpenTime, last)
		}
	}
	buf = append(buf, candle)
	if max := e.cfg.WarmupCandles * 2; max > 0 && len(buf) > max {
		buf = buf[len(buf)-e.cfg.WarmupCandles:]
	}
	st.buffers[tf] = buf
	st.mu.Unlock()

	if tf != e.cfg.BaseTimeframe || !e.trades(candle.Pair) {
		return nil
	}
	return e.evaluate(ctx, candle.Pair, st)
}

func (e *Engine) trades(pair string) bool {
	for _, p := range e.cfg.Pairs {
		if p == pair {
			return true
		}
	}
	return false
}

func (e *Engine) pairState(pair string) *pairState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pairs[pair]
}

// evaluate recomputes the pair's merged feature frame and runs entry,
// exit, and adjustment logic over the newest closed row.
func (e *Engine) evaluate(ctx context.Context, pair string, st *pairState) error {
	row, err := e.buildRow(pair, st)
	if err != nil {
		e.metrics.RecordError("pipeline")
		e.log.Error("feature pipeline failed", logger.String("pair", pair), logger.Error(err))
		return err
	}
	if row == nil {
		return nil // not enough history yet
	}

	if pos, open := e.book.Get(pair); open {
		e.handleOpenPosition(ctx, *row, pos)
		return nil
	}

	sig := e.eval.EvaluateEntry(ctx, *row)
	if sig == nil {
		return nil
	}
	if err := e.publisher.PublishSignal(ctx, sig); err != nil {
		e.metrics.RecordError("publish")
		e.log.Error("signal publish failed", logger.String("pair", pair), logger.Error(err))
		return err
	}
	if _, err := e.book.Open(pair, sig.Direction, sig.Price, e.cfg.BaseStake, sig.Timestamp); err != nil {
		e.log.Warn("position open skipped", logger.String("pair", pair), logger.Error(err))
	}
	e.cacheSignal(ctx, sig)
	e.log.Info("entry signal",
		logger.String("pair", pair),
		logger.String("direction", string(sig.Direction)),
		logger.Int("condition_id", sig.ConditionID),
		logger.String("tag", sig.Tag))
	return nil
}

func (e *Engine) handleOpenPosition(ctx context.Context, row pipeline.Row, pos models.OpenPosition) {
	if sig := e.eval.EvaluateExit(row, pos); sig != nil {
		if err := e.publisher.PublishSignal(ctx, sig); err != nil {
			e.metrics.RecordError("publish")
			e.log.Error("exit publish failed", logger.String("pair", pos.Pair), logger.Error(err))
			return
		}
		if _, err := e.book.Close(pos.Pair); err != nil {
			e.log.Warn("position close skipped", logger.String("pair", pos.Pair), logger.Error(err))
		}
		e.cacheSignal(ctx, sig)
		e.log.Info("exit signal",
			logger.String("pair", pos.Pair),
			logger.Int("condition_id", sig.ConditionID),
			logger.String("tag", sig.Tag))
		return
	}

	price, ok := row.Value("close")
	if !ok {
		return
	}
	order := e.controller.Propose(e.eval.Registry(), pos, price, row.Time(), e.cfg.BaseTimeframe.Duration())
	if order == nil {
		return
	}
	if err := e.publisher.PublishAdjustment(ctx, order); err != nil {
		e.metrics.RecordError("publish")
		e.log.Error("adjustment publish failed", logger.String("pair", pos.Pair), logger.Error(err))
		return
	}
	if _, err := e.book.ApplyFill(pos.Pair, order.Stake); err != nil {
		e.log.Warn("adjustment fill skipped", logger.String("pair", pos.Pair), logger.Error(err))
	}
}

// buildRow assembles the merged feature frame for the pair and returns
// its newest row, or nil when the base buffer is still too short for
// any indicator to be ready.
func (e *Engine) buildRow(pair string, st *pairState) (*pipeline.Row, error) {
	st.mu.Lock()
	base := snapshot(st.buffers[e.cfg.BaseTimeframe])
	infs := make(map[domrepo.Timeframe][]models.Candle, len(e.cfg.Informative))
	for _, tf := range e.cfg.Informative {
		infs[tf] = snapshot(st.buffers[tf])
	}
	st.mu.Unlock()

	if len(base) < 2 {
		return nil, nil
	}

	baseFrame, err := indicators.Compute(pair, e.cfg.BaseTimeframe, base)
	if err != nil {
		return nil, err
	}

	informatives := make([]pipeline.Informative, 0, len(e.cfg.Informative)+1)
	for _, tf := range e.cfg.Informative {
		candles := infs[tf]
		if len(candles) == 0 {
			continue
		}
		f, err := indicators.Compute(pair, tf, candles)
		if err != nil {
			return nil, err
		}
		informatives = append(informatives, pipeline.Informative{Frame: f, Suffix: "_" + string(tf)})
	}

	if ref := e.referenceFrame(); ref != nil {
		informatives = append(informatives, pipeline.Informative{
			Frame:  ref,
			Prefix: e.cfg.ReferencePrefix,
			Suffix: "_" + string(e.cfg.ReferenceTimeframe),
		})
	}

	merged, err := pipeline.Merge(baseFrame, informatives)
	if err != nil {
		return nil, err
	}
	row := merged.LastRow()
	return &row, nil
}

func (e *Engine) referenceFrame() *pipeline.Frame {
	if e.cfg.ReferencePair == "" {
		return nil
	}
	st := e.pairState(e.cfg.ReferencePair)
	if st == nil {
		return nil
	}
	st.mu.Lock()
	candles := snapshot(st.buffers[e.cfg.ReferenceTimeframe])
	st.mu.Unlock()
	if len(candles) == 0 {
		return nil
	}
	f, err := indicators.Compute(e.cfg.ReferencePair, e.cfg.ReferenceTimeframe, candles)
	if err != nil {
		e.log.Warn("reference frame unavailable", logger.Error(err))
		return nil
	}
	return f
}

func (e *Engine) cacheSignal(ctx context.Context, sig *models.Signal) {
	if e.cache == nil {
		return
	}
	key := SignalCacheKey(sig.Pair)
	if err := e.cache.Set(ctx, key, sig, e.cfg.SignalCacheTTL); err != nil {
		e.log.Debug("signal cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// LatestSignal returns the most recent signal emitted for the pair,
// if the cache still holds one.
func (e *Engine) LatestSignal(ctx context.Context, pair string) (*models.Signal, error) {
	if e.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	var sig models.Signal
	if err := e.cache.Get(ctx, SignalCacheKey(pair), &sig); err != nil {
		return nil, err
	}
	return &sig, nil
}

// ConfirmEntry re-checks the pair's cached entry signal against the
// rate an executor is about to fill at. A cache miss propagates so the
// caller can distinguish "no signal" from a slippage rejection; a
// cached exit signal means the entry window has passed.
func (e *Engine) ConfirmEntry(ctx context.Context, pair string, rate float64) (bool, error) {
	sig, err := e.LatestSignal(ctx, pair)
	if err != nil {
		return false, err
	}
	if sig.Kind != models.SignalEntry {
		return false, nil
	}
	return e.eval.ConfirmEntry(sig, rate), nil
}

// SignalCacheKey names the latest-signal cache slot for a pair.
func SignalCacheKey(pair string) string {
	return cache.GenerateKey("stratcore:signal", pair)
}

func snapshot(candles []models.Candle) []models.Candle {
	out := make([]models.Candle, len(candles))
	copy(out, candles)
	return out
}

// Positions exposes the open book for the API layer.
func (e *Engine) Positions() []models.OpenPosition {
	return e.book.All()
}

// Conditions exposes the active registry for the API layer.
func (e *Engine) Conditions() []conditions.ConditionInfo {
	return e.eval.Registry().All()
}
