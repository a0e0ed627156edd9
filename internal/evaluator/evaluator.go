package evaluator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"StratCore/internal/conditions"
	"StratCore/internal/domain/models"
	"StratCore/internal/domain/repository"
	"StratCore/internal/hybrid"
	"StratCore/internal/pipeline"
	"StratCore/internal/policy"
	"StratCore/internal/position"
	"StratCore/pkg/logger"
)

// Config carries the evaluator's own knobs; everything mode- or
// condition-specific lives in the registry.
type Config struct {
	// SlippageRatio rejects entry confirmation when the fill rate has
	// drifted beyond this fraction of the signal candle close.
	SlippageRatio float64
	// MaxOpenPairs blocks new entries once this many pairs hold open
	// positions. Zero means unbounded.
	MaxOpenPairs int
}

// Evaluator turns finished indicator rows into entry and exit signals.
// The registry pointer swaps atomically on condition reload so an
// in-flight evaluation always sees one consistent table.
type Evaluator struct {
	cfg     Config
	reg     atomic.Pointer[conditions.Registry]
	shorts  atomic.Pointer[models.ShortPolicy]
	holds   *policy.HoldResolver
	gate    *hybrid.Gate
	book    *position.Book
	metrics repository.Metrics
	log     *logger.Logger
}

func New(cfg Config, reg *conditions.Registry, shorts models.ShortPolicy, holds *policy.HoldResolver, gate *hybrid.Gate, book *position.Book, metrics repository.Metrics, log *logger.Logger) *Evaluator {
	e := &Evaluator{
		cfg:     cfg,
		holds:   holds,
		gate:    gate,
		book:    book,
		metrics: metrics,
		log:     log,
	}
	e.reg.Store(reg)
	e.shorts.Store(&shorts)
	return e
}

// Registry returns the active condition table.
func (e *Evaluator) Registry() *conditions.Registry {
	return e.reg.Load()
}

// ShortPolicy returns the active short-trading policy.
func (e *Evaluator) ShortPolicy() models.ShortPolicy {
	return *e.shorts.Load()
}

// ApplyOverrides swaps in a registry with the given enable states. It
// returns the IDs that matched no known condition; unknown IDs are
// reported, not fatal.
func (e *Evaluator) ApplyOverrides(overrides map[int]bool) []int {
	next, unknown := e.reg.Load().WithOverrides(overrides)
	e.reg.Store(next)
	if len(unknown) > 0 {
		e.log.Warn("condition overrides referenced unknown ids", logger.Any("ids", unknown))
	}
	return unknown
}

// EvaluateEntry runs the enabled entry conditions over the finished
// row and returns the winning signal, or nil when no entry fires.
// When conditions from both directions fire on the same row, the
// lowest identifier wins globally; long blocks sit below short blocks
// so longs win those races.
func (e *Evaluator) EvaluateEntry(ctx context.Context, row pipeline.Row) *models.Signal {
	start := time.Now()
	defer func() {
		e.metrics.RecordEvalLatency(row.Pair(), time.Since(start).Seconds())
	}()

	if _, open := e.book.Get(row.Pair()); open {
		// The adjustment controller owns everything after the first fill.
		e.metrics.RecordRejection("duplicate_entry")
		e.log.Debug("entry skipped, position already open", logger.String("pair", row.Pair()))
		return nil
	}
	if e.cfg.MaxOpenPairs > 0 && e.book.Len() >= e.cfg.MaxOpenPairs {
		e.metrics.RecordRejection("max_open_pairs")
		return nil
	}

	reg := e.reg.Load()
	satisfied := reg.EvaluateEntry(row, models.DirLong)
	dir := models.DirLong
	if e.ShortPolicy().Allowed {
		if shortIDs := reg.EvaluateEntry(row, models.DirShort); len(satisfied) == 0 && len(shortIDs) > 0 {
			satisfied = shortIDs
			dir = models.DirShort
		}
	}
	if len(satisfied) == 0 {
		return nil
	}

	if e.gate != nil && !e.gate.Admit(ctx, row.Pair(), row.Features(), ruleScore(len(satisfied))) {
		return nil
	}

	winner := satisfied[0]
	mode, _ := reg.ModeOf(winner)
	close, _ := row.Value("close")

	e.metrics.RecordSignal(row.Pair(), "entry", string(dir), string(mode))
	e.metrics.RecordConditionHits(string(dir), string(mode), len(satisfied))

	return &models.Signal{
		Pair:        row.Pair(),
		Kind:        models.SignalEntry,
		Direction:   dir,
		ConditionID: winner,
		Satisfied:   satisfied,
		Mode:        string(mode),
		Tag:         entryTag(mode, winner),
		Timestamp:   row.Time(),
		Price:       close,
	}
}

// EvaluateExit runs the exit conditions for the position's direction
// and applies hold suppression. Holds swallow rule exits only; the
// caller still closes on external liquidation or manual action.
func (e *Evaluator) EvaluateExit(row pipeline.Row, pos models.OpenPosition) *models.Signal {
	reg := e.reg.Load()
	satisfied := reg.EvaluateExit(row, pos.Direction)
	if len(satisfied) == 0 {
		return nil
	}

	price, ok := row.Value("close")
	if !ok {
		return nil
	}
	if e.holds != nil && e.holds.Current().ShouldSuppressExit(pos.TradeID, pos.Pair, pos.ProfitRatio(price)) {
		e.metrics.RecordRejection("hold_override")
		e.log.Debug("exit suppressed by hold",
			logger.String("pair", pos.Pair), logger.String("trade_id", pos.TradeID))
		return nil
	}

	winner := satisfied[0]
	e.metrics.RecordSignal(pos.Pair, "exit", string(pos.Direction), string(conditions.ModeExit))
	e.metrics.RecordProfitRatio(pos.Pair, pos.ProfitRatio(price))

	return &models.Signal{
		Pair:        pos.Pair,
		Kind:        models.SignalExit,
		Direction:   pos.Direction,
		ConditionID: winner,
		Satisfied:   satisfied,
		Mode:        string(conditions.ModeExit),
		Tag:         fmt.Sprintf("exit_%d", winner),
		Timestamp:   row.Time(),
		Price:       price,
	}
}

// ConfirmEntry is the last check before an entry order goes out: the
// offered rate must not have slipped past the signal candle's close.
// Longs reject fills above the band, shorts below it.
func (e *Evaluator) ConfirmEntry(sig *models.Signal, rate float64) bool {
	if e.cfg.SlippageRatio <= 0 || sig.Price <= 0 {
		return true
	}
	var ok bool
	switch sig.Direction {
	case models.DirShort:
		ok = rate >= sig.Price*(1-e.cfg.SlippageRatio)
	default:
		ok = rate <= sig.Price*(1+e.cfg.SlippageRatio)
	}
	if !ok {
		e.metrics.RecordRejection("slippage")
		e.log.Warn("entry rejected on slippage",
			logger.String("pair", sig.Pair),
			logger.Any("signal_price", sig.Price),
			logger.Any("rate", rate))
	}
	return ok
}

// ruleScore maps a satisfied-condition count onto [0,1] for the
// hybrid gate. Three concurrent conditions is full conviction.
func ruleScore(n int) float64 {
	s := float64(n) / 3
	if s > 1 {
		return 1
	}
	return s
}

func entryTag(mode conditions.Mode, id int) string {
	return fmt.Sprintf("%s_%d", mode, id)
}
