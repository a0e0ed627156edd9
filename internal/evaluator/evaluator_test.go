package evaluator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StratCore/internal/conditions"
	"StratCore/internal/domain/models"
	domrepo "StratCore/internal/domain/repository"
	"StratCore/internal/pipeline"
	"StratCore/internal/policy"
	"StratCore/internal/position"
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

type recordingMetrics struct {
	nopMetrics
	rejections map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{rejections: map[string]int{}}
}

func (m *recordingMetrics) RecordRejection(kind string) { m.rejections[kind]++ }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestEvaluator(t *testing.T, shortsAllowed bool, holds *policy.HoldResolver) (*Evaluator, *position.Book) {
	t.Helper()
	reg, err := conditions.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	book := position.NewBook(nopMetrics{})
	e := New(Config{SlippageRatio: 0.0025},
		reg,
		models.ShortPolicy{Allowed: shortsAllowed, Provenance: models.PolicyFromDefault},
		holds, nil, book, nopMetrics{}, testLogger(t))
	return e, book
}

func entryRow(t *testing.T, cols map[string]float64) pipeline.Row {
	t.Helper()
	f, err := pipeline.NewFrame("BTC/USDT", domrepo.TF5m,
		[]time.Time{time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	for name, v := range cols {
		if err := f.SetColumn(name, []float64{v}); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	return f.LastRow()
}

// Features satisfying only long washout entry (id 5).
func longEntryCols() map[string]float64 {
	return map[string]float64{
		"close":        100,
		"rsi_3":        5,
		"pct_change_1": -0.02,
		"close_1d":     110,
		"ema_200_1d":   100,
		"mfi_14":       30,
	}
}

// Features satisfying only short blow-off entry (id 505).
func shortEntryCols() map[string]float64 {
	return map[string]float64{
		"close":        100,
		"rsi_3":        92,
		"pct_change_1": 0.02,
		"close_1d":     90,
		"ema_200_1d":   100,
		"mfi_14":       60,
	}
}

func TestEvaluateEntryEmitsLowestID(t *testing.T) {
	e, _ := newTestEvaluator(t, false, nil)
	sig := e.EvaluateEntry(context.Background(), entryRow(t, longEntryCols()))
	if sig == nil {
		t.Fatalf("expected entry signal")
	}
	if sig.Direction != models.DirLong || sig.ConditionID != 5 {
		t.Fatalf("got dir=%s id=%d", sig.Direction, sig.ConditionID)
	}
	if sig.Mode != string(conditions.ModeNormal) || sig.Tag != "normal_5" {
		t.Fatalf("got mode=%s tag=%s", sig.Mode, sig.Tag)
	}
	if sig.Price != 100 {
		t.Fatalf("got price %v", sig.Price)
	}
}

func TestEvaluateEntryNoSignalWhenNothingFires(t *testing.T) {
	e, _ := newTestEvaluator(t, true, nil)
	row := entryRow(t, map[string]float64{"close": 100, "rsi_14": 50})
	if sig := e.EvaluateEntry(context.Background(), row); sig != nil {
		t.Fatalf("unexpected signal %+v", sig)
	}
}

func TestShortEntryGatedByPolicy(t *testing.T) {
	row := entryRow(t, shortEntryCols())

	blocked, _ := newTestEvaluator(t, false, nil)
	if sig := blocked.EvaluateEntry(context.Background(), row); sig != nil {
		t.Fatalf("short emitted while policy forbids: %+v", sig)
	}

	allowed, _ := newTestEvaluator(t, true, nil)
	sig := allowed.EvaluateEntry(context.Background(), row)
	if sig == nil || sig.Direction != models.DirShort || sig.ConditionID != 505 {
		t.Fatalf("got %+v, want short 505", sig)
	}
}

func TestDuplicateEntryIsNoOp(t *testing.T) {
	reg, err := conditions.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	m := newRecordingMetrics()
	book := position.NewBook(m)
	e := New(Config{SlippageRatio: 0.0025}, reg,
		models.ShortPolicy{Allowed: false, Provenance: models.PolicyFromDefault},
		nil, nil, book, m, testLogger(t))
	if _, err := book.Open("BTC/USDT", models.DirLong, 100, decimal.NewFromInt(100), time.Now()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if sig := e.EvaluateEntry(context.Background(), entryRow(t, longEntryCols())); sig != nil {
		t.Fatalf("duplicate entry emitted: %+v", sig)
	}
	if got := m.rejections["duplicate_entry"]; got != 1 {
		t.Fatalf("duplicate_entry rejections = %d, want 1", got)
	}
}

func TestMaxOpenPairsBlocksNewEntries(t *testing.T) {
	reg, _ := conditions.NewRegistry()
	book := position.NewBook(nopMetrics{})
	e := New(Config{MaxOpenPairs: 1}, reg,
		models.ShortPolicy{Allowed: false}, nil, nil, book, nopMetrics{}, testLogger(t))
	if _, err := book.Open("ETH/USDT", models.DirLong, 50, decimal.NewFromInt(100), time.Now()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if sig := e.EvaluateEntry(context.Background(), entryRow(t, longEntryCols())); sig != nil {
		t.Fatalf("entry emitted past max open pairs: %+v", sig)
	}
}

func TestExitSuppressedByHold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holds.json")
	// Pair held until the trade shows at least +5% unrealized profit.
	if err := os.WriteFile(path, []byte(`{"trade_pairs":{"BTC/USDT":0.05}}`), 0o644); err != nil {
		t.Fatalf("write holds: %v", err)
	}
	holds := policy.NewHoldResolver(path, testLogger(t))
	if err := holds.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	e, book := newTestEvaluator(t, false, holds)
	pos, _ := book.Open("BTC/USDT", models.DirLong, 100, decimal.NewFromInt(100), time.Now())

	// +2% profit is still below the threshold: the exit is swallowed.
	exitRow := entryRow(t, map[string]float64{"close": 102, "rsi_14": 85, "rsi_3": 95})
	if sig := e.EvaluateExit(exitRow, *pos); sig != nil {
		t.Fatalf("held exit emitted: %+v", sig)
	}

	// At +8% the hold releases and the exit goes through.
	freeRow := entryRow(t, map[string]float64{"close": 108, "rsi_14": 85, "rsi_3": 95})
	sig := e.EvaluateExit(freeRow, *pos)
	if sig == nil || sig.ConditionID != 1001 || sig.Tag != "exit_1001" {
		t.Fatalf("got %+v, want exit 1001", sig)
	}
}

func TestConfirmEntrySlippageGuard(t *testing.T) {
	e, _ := newTestEvaluator(t, true, nil)

	long := &models.Signal{Pair: "BTC/USDT", Direction: models.DirLong, Price: 100}
	if !e.ConfirmEntry(long, 100.2) {
		t.Fatalf("fill inside the band rejected")
	}
	if e.ConfirmEntry(long, 100.3) {
		t.Fatalf("fill above the band accepted")
	}

	short := &models.Signal{Pair: "BTC/USDT", Direction: models.DirShort, Price: 100}
	if !e.ConfirmEntry(short, 99.8) {
		t.Fatalf("short fill inside the band rejected")
	}
	if e.ConfirmEntry(short, 99.7) {
		t.Fatalf("short fill below the band accepted")
	}
}

func TestApplyOverridesSwapsRegistry(t *testing.T) {
	e, _ := newTestEvaluator(t, false, nil)
	unknown := e.ApplyOverrides(map[int]bool{5: false, 424242: true})
	if len(unknown) != 1 || unknown[0] != 424242 {
		t.Fatalf("unknown = %v", unknown)
	}
	if sig := e.EvaluateEntry(context.Background(), entryRow(t, longEntryCols())); sig != nil {
		t.Fatalf("disabled condition still emitted: %+v", sig)
	}
}
