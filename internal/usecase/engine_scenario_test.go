package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StratCore/internal/conditions"
	"StratCore/internal/domain/models"
	domrepo "StratCore/internal/domain/repository"
	"StratCore/internal/evaluator"
	"StratCore/internal/position"
	"StratCore/pkg/cache"
)

// newScenarioEngine wires a complete engine over fakes: a daily
// informative frame, no reference pair, and a three-rung adjustment
// ladder. Higher warmup than the unit fixtures so the 200-period
// indicators come out of their not-ready window.
func newScenarioEngine(t *testing.T, pub *fakePublisher, m *fakeMetrics) *Engine {
	t.Helper()
	log := engineLogger(t)
	reg, err := conditions.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	book := position.NewBook(m)
	eval := evaluator.New(evaluator.Config{SlippageRatio: 0.0025}, reg,
		models.ShortPolicy{Allowed: false, Provenance: models.PolicyFromDefault},
		nil, nil, book, m, log)
	ctrl := position.NewController(position.ControllerConfig{
		Enabled:          true,
		MaxAdjustments:   3,
		StakeMultiplier:  decimal.NewFromFloat(1.5),
		MaxStakeMultiple: decimal.NewFromFloat(10),
	}, book, m, log)
	cfg := EngineConfig{
		Pairs:         []string{"ETH/USDT"},
		BaseTimeframe: domrepo.TF5m,
		Informative:   []domrepo.Timeframe{domrepo.TF1d},
		WarmupCandles: 300,
		BaseStake:     decimal.NewFromInt(100),
	}
	return NewEngine(cfg, &fakeStore{}, pub, eval, ctrl, book, cache.NewMemoryCache(), m, log)
}

// trendCandle is one bar of a slow grind upward: close-to-close gain of
// rate, a hair of wick on both sides, flat volume.
func trendCandle(pair string, at time.Time, open, rate float64) models.Candle {
	close := open * (1 + rate)
	return models.Candle{
		Pair: pair, OpenTime: at,
		Open: open, High: close * 1.0001, Low: open * 0.9999,
		Close: close, Volume: 1000,
	}
}

// washoutCandle is a single hard flush: opens at the prior close and
// dumps straight down, closing on its low.
func washoutCandle(pair string, at time.Time, open, drop float64) models.Candle {
	close := open * (1 - drop)
	return models.Candle{
		Pair: pair, OpenTime: at,
		Open: open, High: open, Low: close,
		Close: close, Volume: 1000,
	}
}

// TestEngineScenarioWashoutEntryAndLadder drives the full loop through
// OnCandle: a daily backdrop with an intact 200-day trend, 250 quiet
// base candles, then a washout bar. The washout must produce exactly
// one entry attributed to the lowest satisfied condition, the open
// position must suppress further entries, and holding the price three
// percent under the entry for six candles must produce exactly one
// first-rung adjustment order.
func TestEngineScenarioWashoutEntryAndLadder(t *testing.T) {
	pub := &fakePublisher{}
	m := newFakeMetrics()
	e := newScenarioEngine(t, pub, m)
	ctx := context.Background()
	baseStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// 210 daily candles ending right before the base series begins, so
	// every base row sees a closed daily bar and ema_200 on the daily
	// frame is warm. The slow climb keeps close above it.
	price := 90.0
	for i := 0; i < 210; i++ {
		at := baseStart.AddDate(0, 0, i-210)
		c := trendCandle("ETH/USDT", at, price, 0.001)
		if err := e.OnCandle(ctx, domrepo.TF1d, c); err != nil {
			t.Fatalf("daily candle %d: %v", i, err)
		}
		price = c.Close
	}

	// 250 base candles of steady upward drift. Nothing here is
	// oversold, so the evaluator must stay quiet.
	price = 100.0
	for i := 0; i < 250; i++ {
		at := baseStart.Add(time.Duration(i) * 5 * time.Minute)
		c := trendCandle("ETH/USDT", at, price, 0.0005)
		if err := e.OnCandle(ctx, domrepo.TF5m, c); err != nil {
			t.Fatalf("warmup candle %d: %v", i, err)
		}
		price = c.Close
	}
	if len(pub.signals) != 0 {
		t.Fatalf("quiet warmup produced %d signals", len(pub.signals))
	}

	// The washout bar: two percent straight down. Fast RSI collapses
	// while the daily trend and money flow stay intact, which is the
	// washout entry and nothing below it.
	crashAt := baseStart.Add(250 * 5 * time.Minute)
	crash := washoutCandle("ETH/USDT", crashAt, price, 0.02)
	if err := e.OnCandle(ctx, domrepo.TF5m, crash); err != nil {
		t.Fatalf("washout candle: %v", err)
	}

	if len(pub.signals) != 1 {
		t.Fatalf("signals after washout = %d, want 1", len(pub.signals))
	}
	sig := pub.signals[0]
	if sig.Kind != models.SignalEntry {
		t.Fatalf("signal kind = %s, want entry", sig.Kind)
	}
	if sig.Direction != models.DirLong {
		t.Fatalf("direction = %s, want long", sig.Direction)
	}
	if sig.ConditionID != 5 {
		t.Fatalf("condition id = %d, want 5 (satisfied %v)", sig.ConditionID, sig.Satisfied)
	}
	if sig.Tag != "normal_5" {
		t.Fatalf("tag = %q, want normal_5", sig.Tag)
	}
	if len(sig.Satisfied) == 0 || sig.Satisfied[0] != 5 {
		t.Fatalf("satisfied = %v, want lowest id first", sig.Satisfied)
	}
	entry := sig.Price

	// The executor confirms its fill rate against the cached signal:
	// inside the slippage band passes, a one percent overshoot does not.
	ok, err := e.ConfirmEntry(ctx, "ETH/USDT", entry*1.001)
	if err != nil {
		t.Fatalf("confirm in-band: %v", err)
	}
	if !ok {
		t.Fatalf("in-band rate rejected")
	}
	ok, err = e.ConfirmEntry(ctx, "ETH/USDT", entry*1.01)
	if err != nil {
		t.Fatalf("confirm slipped: %v", err)
	}
	if ok {
		t.Fatalf("slipped rate confirmed")
	}

	// Hold the close three percent under the entry. The open position
	// must block re-entry on every candle, no exit rule fires in an
	// oversold tape, and at six candles of age the first ladder rung
	// proposes exactly one add. Three percent never reaches the second
	// rung's trigger.
	held := entry * 0.97
	prevClose := entry
	for i := 1; i <= 8; i++ {
		at := crashAt.Add(time.Duration(i) * 5 * time.Minute)
		c := models.Candle{
			Pair: "ETH/USDT", OpenTime: at,
			Open: prevClose, High: prevClose, Low: held,
			Close: held, Volume: 1000,
		}
		if err := e.OnCandle(ctx, domrepo.TF5m, c); err != nil {
			t.Fatalf("hold candle %d: %v", i, err)
		}
		prevClose = held
	}

	if len(pub.signals) != 1 {
		t.Fatalf("signals after hold = %d, want the single entry", len(pub.signals))
	}
	if len(pub.adjustments) != 1 {
		t.Fatalf("adjustment orders = %d, want 1", len(pub.adjustments))
	}
	order := pub.adjustments[0]
	if order.ConditionID != 2001 {
		t.Fatalf("adjustment condition = %d, want 2001", order.ConditionID)
	}
	if order.Side != models.AdjustAdd {
		t.Fatalf("adjustment side = %s, want add", order.Side)
	}
	if !order.Stake.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("adjustment stake = %s, want 150", order.Stake)
	}

	// The fill landed on the book.
	pos, open := e.Positions(), false
	for _, p := range pos {
		if p.Pair == "ETH/USDT" {
			open = true
			if p.Adjustments != 1 {
				t.Fatalf("fills = %d, want 1", p.Adjustments)
			}
		}
	}
	if !open {
		t.Fatalf("position missing from the book")
	}
}

func TestConfirmEntryWithoutSignalIsCacheMiss(t *testing.T) {
	e := newTestEngine(t, &fakeStore{}, &fakePublisher{}, newFakeMetrics())
	if _, err := e.ConfirmEntry(context.Background(), "ETH/USDT", 100); err != cache.ErrCacheMiss {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
}
