package position

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StratCore/internal/conditions"
	"StratCore/internal/domain/models"
	"StratCore/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string, string, string, string) {}
func (nopMetrics) RecordConditionHits(string, string, int)     {}
func (nopMetrics) RecordAdjustment(string, string)             {}
func (nopMetrics) RecordRejection(string)                      {}
func (nopMetrics) RecordError(string)                          {}
func (nopMetrics) RecordEvalLatency(string, float64)           {}
func (nopMetrics) RecordLatency(string, float64)               {}
func (nopMetrics) RecordPredictorFallback()                    {}
func (nopMetrics) SetOpenPositions(int)                        {}
func (nopMetrics) RecordProfitRatio(string, float64)           {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testController(t *testing.T, maxAdj int, maxMultiple float64) (*Controller, *Book) {
	t.Helper()
	book := NewBook(nopMetrics{})
	c := NewController(ControllerConfig{
		Enabled:          true,
		MaxAdjustments:   maxAdj,
		StakeMultiplier:  decimal.NewFromFloat(1.5),
		MaxStakeMultiple: decimal.NewFromFloat(maxMultiple),
	}, book, nopMetrics{}, testLogger(t))
	return c, book
}

func openDrawdown(t *testing.T, book *Book, age time.Duration) models.OpenPosition {
	t.Helper()
	pos, err := book.Open("BTC/USDT", models.DirLong, 100, decimal.NewFromInt(100), time.Now().Add(-age))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return *pos
}

func TestProposeFirstRung(t *testing.T) {
	reg, _ := conditions.NewRegistry()
	c, book := testController(t, 4, 10)
	pos := openDrawdown(t, book, time.Hour)

	// 3% drawdown, 12 candles old, no fills yet: rung 2001.
	order := c.Propose(reg, pos, 97, time.Now(), 5*time.Minute)
	if order == nil {
		t.Fatalf("expected an adjustment order")
	}
	if order.ConditionID != 2001 || order.Side != models.AdjustAdd {
		t.Fatalf("got id=%d side=%s", order.ConditionID, order.Side)
	}
	want := decimal.NewFromInt(150)
	if !order.Stake.Equal(want) {
		t.Fatalf("stake = %s, want %s", order.Stake, want)
	}
}

func TestProposeGeometricLadder(t *testing.T) {
	reg, _ := conditions.NewRegistry()
	c, book := testController(t, 4, 100)
	pos := openDrawdown(t, book, 4*time.Hour)

	first := c.Propose(reg, pos, 95, time.Now(), 5*time.Minute)
	if first == nil {
		t.Fatalf("first rung did not fire")
	}
	snap, err := book.ApplyFill(pos.Pair, first.Stake)
	if err != nil {
		t.Fatalf("apply fill: %v", err)
	}
	if snap.State != models.PositionAdjusting || snap.Adjustments != 1 {
		t.Fatalf("state=%s adjustments=%d", snap.State, snap.Adjustments)
	}

	second := c.Propose(reg, snap, 95, time.Now(), 5*time.Minute)
	if second == nil {
		t.Fatalf("second rung did not fire")
	}
	// 100 * 1.5^2
	want := decimal.NewFromInt(225)
	if !second.Stake.Equal(want) {
		t.Fatalf("stake = %s, want %s", second.Stake, want)
	}
}

func TestProposeRespectsAdjustmentCap(t *testing.T) {
	reg, _ := conditions.NewRegistry()
	c, book := testController(t, 2, 100)
	pos := openDrawdown(t, book, 12*time.Hour)
	pos.Adjustments = 2

	if order := c.Propose(reg, pos, 85, time.Now(), 5*time.Minute); order != nil {
		t.Fatalf("order past the adjustment cap: %+v", order)
	}
}

func TestProposeRespectsStakeBudget(t *testing.T) {
	reg, _ := conditions.NewRegistry()
	// Budget 2x initial: even the first rung (1.5x on top of the 1x
	// already staked) would push the total to 2.5x.
	c, book := testController(t, 4, 2)
	pos := openDrawdown(t, book, time.Hour)

	if order := c.Propose(reg, pos, 97, time.Now(), 5*time.Minute); order != nil {
		t.Fatalf("order past the stake budget: %+v", order)
	}
}

func TestProposeDisabledController(t *testing.T) {
	reg, _ := conditions.NewRegistry()
	book := NewBook(nopMetrics{})
	c := NewController(ControllerConfig{Enabled: false}, book, nopMetrics{}, testLogger(t))
	pos := openDrawdown(t, book, time.Hour)

	if order := c.Propose(reg, pos, 90, time.Now(), 5*time.Minute); order != nil {
		t.Fatalf("disabled controller proposed: %+v", order)
	}
}

func TestBookLifecycle(t *testing.T) {
	book := NewBook(nopMetrics{})
	pos, err := book.Open("ETH/USDT", models.DirShort, 200, decimal.NewFromInt(50), time.Now())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := book.Open("ETH/USDT", models.DirLong, 210, decimal.NewFromInt(50), time.Now()); err != ErrPositionExists {
		t.Fatalf("second open: %v", err)
	}
	if book.Len() != 1 {
		t.Fatalf("len = %d", book.Len())
	}
	closed, err := book.Close("ETH/USDT")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.TradeID != pos.TradeID || closed.State != models.PositionClosed {
		t.Fatalf("closed = %+v", closed)
	}
	if _, ok := book.Get("ETH/USDT"); ok {
		t.Fatalf("position survived close")
	}
}

func TestProfitRatioShortNegated(t *testing.T) {
	pos := models.OpenPosition{Direction: models.DirShort, EntryPrice: 100}
	if r := pos.ProfitRatio(90); r != 0.1 {
		t.Fatalf("short profit ratio = %v, want 0.1", r)
	}
	pos.Direction = models.DirLong
	if r := pos.ProfitRatio(90); r != -0.1 {
		t.Fatalf("long profit ratio = %v, want -0.1", r)
	}
}
