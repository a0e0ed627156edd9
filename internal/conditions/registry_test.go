package conditions

import (
	"testing"
	"time"

	"StratCore/internal/domain/models"
	domrepo "StratCore/internal/domain/repository"
	"StratCore/internal/pipeline"
)

func testRow(t *testing.T, cols map[string]float64) pipeline.Row {
	t.Helper()
	f, err := pipeline.NewFrame("BTC/USDT", domrepo.TF5m,
		[]time.Time{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	for name, v := range cols {
		if err := f.SetColumn(name, []float64{v}); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	return f.LastRow()
}

func TestRegistryIdentifiersUniqueAndAscending(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	all := reg.All()
	if len(all) == 0 {
		t.Fatalf("empty registry")
	}
	seen := make(map[int]bool)
	prev := 0
	for _, c := range all {
		if seen[c.ID] {
			t.Fatalf("duplicate id %d", c.ID)
		}
		seen[c.ID] = true
		if c.ID <= prev {
			t.Fatalf("ids not ascending: %d after %d", c.ID, prev)
		}
		prev = c.ID
	}
}

func TestRegistryEveryConditionHasKnownMode(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	known := make(map[Mode]bool)
	for _, m := range Modes() {
		known[m] = true
	}
	for _, c := range reg.All() {
		if !known[c.Mode] {
			t.Fatalf("condition %d has unknown mode %q", c.ID, c.Mode)
		}
		if mode, ok := reg.ModeOf(c.ID); !ok || mode != c.Mode {
			t.Fatalf("ModeOf(%d) = %q, %v; want %q", c.ID, mode, ok, c.Mode)
		}
	}
}

func TestEvaluateEntrySkipsNotReadyFeatures(t *testing.T) {
	reg, _ := NewRegistry()
	// Only the washout-candle features are present; every other entry
	// condition references at least one missing column and cannot fire.
	row := testRow(t, map[string]float64{
		"rsi_3":        5,
		"pct_change_1": -0.02,
		"close_1d":     110,
		"ema_200_1d":   100,
		"mfi_14":       30,
	})
	got := reg.EvaluateEntry(row, models.DirLong)
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("got %v, want [5]", got)
	}
	if ids := reg.EvaluateEntry(row, models.DirShort); len(ids) != 0 {
		t.Fatalf("short conditions fired on long washout row: %v", ids)
	}
}

func TestEvaluateExitAscendingOrder(t *testing.T) {
	reg, _ := NewRegistry()
	row := testRow(t, map[string]float64{
		"rsi_14":  85,
		"rsi_3":   95,
		"bb_pctb": 1.2,
		"cmf_20":  0.0,
	})
	got := reg.EvaluateExit(row, models.DirLong)
	if len(got) != 2 || got[0] != 1001 || got[1] != 1002 {
		t.Fatalf("got %v, want [1001 1002]", got)
	}
}

func TestWithOverridesDisablesAndReportsUnknown(t *testing.T) {
	reg, _ := NewRegistry()
	row := testRow(t, map[string]float64{
		"rsi_3":        5,
		"pct_change_1": -0.02,
		"close_1d":     110,
		"ema_200_1d":   100,
		"mfi_14":       30,
	})

	next, unknown := reg.WithOverrides(map[int]bool{5: false, 99999: true})
	if len(unknown) != 1 || unknown[0] != 99999 {
		t.Fatalf("unknown = %v, want [99999]", unknown)
	}
	if ids := next.EvaluateEntry(row, models.DirLong); len(ids) != 0 {
		t.Fatalf("disabled condition still fired: %v", ids)
	}
	// Original registry is untouched.
	if ids := reg.EvaluateEntry(row, models.DirLong); len(ids) != 1 {
		t.Fatalf("override mutated the source registry: %v", ids)
	}
}

func TestModeOverrideTogglesWholeMode(t *testing.T) {
	reg, _ := NewRegistry()
	flags := ModeOverride(reg, ModePump, false)
	if len(flags) == 0 {
		t.Fatalf("no pump conditions found")
	}
	next, _ := reg.WithOverrides(flags)
	for id := range flags {
		if next.Enabled(id) {
			t.Fatalf("pump condition %d still enabled", id)
		}
	}
}

func TestEvaluateAdjustLadder(t *testing.T) {
	reg, _ := NewRegistry()

	st := AdjustState{ProfitRatio: -0.05, AgeCandles: 15, Fills: 0}
	got := reg.EvaluateAdjust(st, models.DirLong)
	if len(got) != 2 || got[0] != 2001 || got[1] != 2002 {
		t.Fatalf("got %v, want [2001 2002]", got)
	}

	// A rung already filled cannot fire again.
	st.Fills = 2
	if ids := reg.EvaluateAdjust(st, models.DirLong); len(ids) != 0 {
		t.Fatalf("filled rungs fired: %v", ids)
	}
}
