package position

import (
	"time"

	"github.com/shopspring/decimal"

	"StratCore/internal/conditions"
	"StratCore/internal/domain/models"
	"StratCore/internal/domain/repository"
	"StratCore/pkg/logger"
)

// ControllerConfig bounds the averaging ladder. MaxStakeMultiple caps
// total committed stake as a multiple of the initial stake so a deep
// ladder cannot outgrow its risk budget even when MaxAdjustments would
// still permit fills.
type ControllerConfig struct {
	Enabled          bool
	MaxAdjustments   int
	StakeMultiplier  decimal.Decimal
	MaxStakeMultiple decimal.Decimal
}

// Controller proposes position adjustments from the registry's ladder
// conditions. It never mutates the book itself; fills are applied when
// the execution layer confirms them.
type Controller struct {
	cfg     ControllerConfig
	book    *Book
	metrics repository.Metrics
	log     *logger.Logger
}

func NewController(cfg ControllerConfig, book *Book, metrics repository.Metrics, log *logger.Logger) *Controller {
	return &Controller{cfg: cfg, book: book, metrics: metrics, log: log}
}

// Propose evaluates the adjustment ladder for one open position at the
// given mark price. It returns at most one order per call, attributed
// to the lowest satisfied condition. A position at either cap yields
// no order and no error: staying put is the normal outcome, and only
// the metrics record that a rung was declined.
func (c *Controller) Propose(reg *conditions.Registry, pos models.OpenPosition, price float64, now time.Time, interval time.Duration) *models.AdjustmentOrder {
	if !c.cfg.Enabled {
		return nil
	}

	st := conditions.AdjustState{
		ProfitRatio: pos.ProfitRatio(price),
		AgeCandles:  pos.AgeCandles(now, interval),
		Fills:       pos.Adjustments,
	}
	ids := reg.EvaluateAdjust(st, pos.Direction)
	if len(ids) == 0 {
		return nil
	}

	if pos.Adjustments >= c.cfg.MaxAdjustments {
		c.metrics.RecordAdjustment(pos.Pair, "capped_count")
		return nil
	}

	stake := nextStake(pos.InitialStake, c.cfg.StakeMultiplier, pos.Adjustments)
	budget := pos.InitialStake.Mul(c.cfg.MaxStakeMultiple)
	if pos.Stake.Add(stake).GreaterThan(budget) {
		c.metrics.RecordAdjustment(pos.Pair, "capped_stake")
		return nil
	}

	c.metrics.RecordAdjustment(pos.Pair, "proposed")
	c.log.Info("adjustment proposed",
		logger.String("pair", pos.Pair),
		logger.String("trade_id", pos.TradeID),
		logger.Int("condition_id", ids[0]),
		logger.Int("fill", pos.Adjustments+1),
		logger.String("stake", stake.String()))

	return &models.AdjustmentOrder{
		TradeID:     pos.TradeID,
		Pair:        pos.Pair,
		Direction:   pos.Direction,
		Side:        models.AdjustAdd,
		Stake:       stake,
		ConditionID: ids[0],
		Timestamp:   now,
	}
}

// nextStake returns the stake for fill number fills+1 on the
// geometric ladder: initial * multiplier^(fills+1).
func nextStake(initial, multiplier decimal.Decimal, fills int) decimal.Decimal {
	stake := initial
	for i := 0; i <= fills; i++ {
		stake = stake.Mul(multiplier)
	}
	return stake
}
