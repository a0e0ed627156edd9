package pipeline

import (
	"errors"
	"math"
	"testing"
	"time"

	domrepo "StratCore/internal/domain/repository"
)

func frameTimes(start time.Time, step time.Duration, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * step)
	}
	return out
}

func TestNewFrameRejectsUnorderedTimes(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(5 * time.Minute), base.Add(5 * time.Minute)}
	if _, err := NewFrame("BTC/USDT", domrepo.TF5m, times); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
}

func TestSetColumnLengthMismatch(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f, err := NewFrame("BTC/USDT", domrepo.TF5m, frameTimes(base, 5*time.Minute, 3))
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	if err := f.SetColumn("close", []float64{1, 2}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestValueFoldsNaNIntoNotReady(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f, _ := NewFrame("BTC/USDT", domrepo.TF5m, frameTimes(base, 5*time.Minute, 2))
	if err := f.SetColumn("rsi_14", []float64{math.NaN(), 42.5}); err != nil {
		t.Fatalf("set column: %v", err)
	}

	if _, ok := f.Value(0, "rsi_14"); ok {
		t.Fatalf("NaN cell must report not ready")
	}
	if v, ok := f.Value(1, "rsi_14"); !ok || v != 42.5 {
		t.Fatalf("ready cell: got %v ok=%v", v, ok)
	}
	if _, ok := f.Value(0, "missing"); ok {
		t.Fatalf("missing column must report not ready")
	}
}

func TestLastClosedAtBoundaries(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f, _ := NewFrame("BTC/USDT", domrepo.TF1h, frameTimes(base, time.Hour, 3))

	// Before the first bar has closed.
	if _, ok := f.LastClosedAt(base.Add(59 * time.Minute)); ok {
		t.Fatalf("no bar is closed before the first close time")
	}
	// Exactly at the first close: the bar counts as closed.
	if i, ok := f.LastClosedAt(base.Add(time.Hour)); !ok || i != 0 {
		t.Fatalf("at first close: got %d ok=%v", i, ok)
	}
	// Mid second bar: still only the first is closed.
	if i, ok := f.LastClosedAt(base.Add(90 * time.Minute)); !ok || i != 0 {
		t.Fatalf("mid second bar: got %d ok=%v", i, ok)
	}
	// Far future: the last bar.
	if i, ok := f.LastClosedAt(base.Add(24 * time.Hour)); !ok || i != 2 {
		t.Fatalf("far future: got %d ok=%v", i, ok)
	}
}

func TestFeaturesSkipsNotReady(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f, _ := NewFrame("BTC/USDT", domrepo.TF5m, frameTimes(base, 5*time.Minute, 1))
	_ = f.SetColumn("close", []float64{100})
	_ = f.SetColumn("rsi_14", []float64{math.NaN()})

	feats := f.LastRow().Features()
	if _, ok := feats["rsi_14"]; ok {
		t.Fatalf("not-ready feature leaked into feature map")
	}
	if feats["close"] != 100 {
		t.Fatalf("ready feature missing: %v", feats)
	}
}
