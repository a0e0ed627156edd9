package pipeline

import (
	"testing"
	"time"

	domrepo "StratCore/internal/domain/repository"
)

// Base rows that start before the first closed informative bar must see
// the informative column as not ready, and every later row must see the
// last bar that had already closed at the row's open time.
func TestMergeUsesLastClosedBar(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	base, _ := NewFrame("ETH/USDT", domrepo.TF5m, frameTimes(start, 5*time.Minute, 24))
	closes := make([]float64, 24)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if err := base.SetColumn("close", closes); err != nil {
		t.Fatalf("base close: %v", err)
	}

	hourly, _ := NewFrame("ETH/USDT", domrepo.TF1h, frameTimes(start, time.Hour, 2))
	if err := hourly.SetColumn("rsi_14", []float64{30, 70}); err != nil {
		t.Fatalf("hourly rsi: %v", err)
	}

	merged, err := Merge(base, []Informative{{Frame: hourly, Suffix: "_1h"}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	// Rows 0..11 run inside the first hour: nothing has closed.
	for _, i := range []int{0, 6, 11} {
		if _, ok := merged.Value(i, "rsi_14_1h"); ok {
			t.Fatalf("row %d saw an unclosed hourly bar", i)
		}
	}
	// Row 12 opens at 01:00, exactly when the first hourly bar closes.
	if v, ok := merged.Value(12, "rsi_14_1h"); !ok || v != 30 {
		t.Fatalf("row 12: got %v ok=%v, want 30", v, ok)
	}
	// The second hourly bar never closes inside the base window: every
	// remaining row keeps the first bar's value.
	if v, ok := merged.Value(23, "rsi_14_1h"); !ok || v != 30 {
		t.Fatalf("row 23: got %v ok=%v, want 30", v, ok)
	}
}

func TestMergeReferencePrefix(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	base, _ := NewFrame("ETH/USDT", domrepo.TF5m, frameTimes(start.Add(2*time.Hour), 5*time.Minute, 3))
	_ = base.SetColumn("close", []float64{1, 2, 3})

	ref, _ := NewFrame("BTC/USDT", domrepo.TF1h, frameTimes(start, time.Hour, 2))
	_ = ref.SetColumn("rsi_14", []float64{40, 55})

	merged, err := Merge(base, []Informative{{Frame: ref, Prefix: "btc_", Suffix: "_1h"}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if v, ok := merged.Value(0, "btc_rsi_14_1h"); !ok || v != 55 {
		t.Fatalf("prefixed reference column: got %v ok=%v, want 55", v, ok)
	}
}

// Appending a new base candle must not change what earlier rows see:
// the merge reads only bars already closed at each row's own time.
func TestMergeAppendDoesNotRewriteHistory(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	hourly, _ := NewFrame("ETH/USDT", domrepo.TF1h, frameTimes(start, time.Hour, 3))
	_ = hourly.SetColumn("ema_200", []float64{10, 20, 30})

	build := func(n int) *Frame {
		base, _ := NewFrame("ETH/USDT", domrepo.TF5m, frameTimes(start, 5*time.Minute, n))
		closes := make([]float64, n)
		for i := range closes {
			closes[i] = float64(i)
		}
		_ = base.SetColumn("close", closes)
		merged, err := Merge(base, []Informative{{Frame: hourly, Suffix: "_1h"}})
		if err != nil {
			t.Fatalf("merge %d rows: %v", n, err)
		}
		return merged
	}

	short := build(20)
	long := build(30)
	for i := 0; i < 20; i++ {
		sv, sok := short.Value(i, "ema_200_1h")
		lv, lok := long.Value(i, "ema_200_1h")
		if sok != lok || (sok && sv != lv) {
			t.Fatalf("row %d changed after append: (%v,%v) vs (%v,%v)", i, sv, sok, lv, lok)
		}
	}
}
