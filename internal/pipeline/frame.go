package pipeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	domrepo "StratCore/internal/domain/repository"
)

var (
	// ErrOutOfOrder reports candle timestamps that are not strictly
	// increasing. This is a contract violation: every downstream signal
	// would be corrupted, so it must abort evaluation for the pair/row.
	ErrOutOfOrder = errors.New("pipeline: timestamps not strictly increasing")

	// ErrLengthMismatch reports a column whose length differs from the
	// frame's timestamp axis.
	ErrLengthMismatch = errors.New("pipeline: column length mismatch")
)

// Frame is an arena-style column store for one pair at one resolution:
// a shared timestamp axis plus named float64 columns. A NaN cell means
// the feature is not ready at that row (warm-up window not filled);
// callers must go through Row.Value which folds NaN into the ok=false
// branch, so a not-ready feature can never satisfy a condition.
type Frame struct {
	pair  string
	tf    domrepo.Timeframe
	times []time.Time
	cols  map[string][]float64
	order []string
}

// NewFrame builds a frame over the given timestamp axis. Timestamps must
// be strictly increasing.
func NewFrame(pair string, tf domrepo.Timeframe, times []time.Time) (*Frame, error) {
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("%w: %s %s row %d", ErrOutOfOrder, pair, tf, i)
		}
	}
	return &Frame{
		pair:  pair,
		tf:    tf,
		times: times,
		cols:  make(map[string][]float64),
	}, nil
}

// Pair returns the pair this frame belongs to.
func (f *Frame) Pair() string { return f.pair }

// Timeframe returns the frame's resolution.
func (f *Frame) Timeframe() domrepo.Timeframe { return f.tf }

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.times) }

// Time returns the open time of row i.
func (f *Frame) Time(i int) time.Time { return f.times[i] }

// SetColumn attaches a column. Length must match the timestamp axis.
func (f *Frame) SetColumn(name string, vals []float64) error {
	if len(vals) != len(f.times) {
		return fmt.Errorf("%w: col %s has %d rows, frame has %d", ErrLengthMismatch, name, len(vals), len(f.times))
	}
	if _, ok := f.cols[name]; !ok {
		f.order = append(f.order, name)
	}
	f.cols[name] = vals
	return nil
}

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Value returns the cell at row i for the named column. ok is false for
// a missing column or a not-ready (NaN) cell.
func (f *Frame) Value(i int, name string) (float64, bool) {
	col, ok := f.cols[name]
	if !ok || i < 0 || i >= len(col) {
		return 0, false
	}
	v := col[i]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// LastClosedAt returns the index of the last bar that is fully closed at
// or before t, i.e. openTime + interval <= t. This is the only lookup the
// merge step uses, which keeps the anti-look-ahead rule mechanically
// checkable. ok is false when no bar has closed yet.
func (f *Frame) LastClosedAt(t time.Time) (int, bool) {
	d := f.tf.Duration()
	// first index whose close time is after t
	i := sort.Search(len(f.times), func(i int) bool {
		return f.times[i].Add(d).After(t)
	})
	if i == 0 {
		return 0, false
	}
	return i - 1, true
}

// Row is a read-only view of one frame row; the unit the condition
// registry evaluates against.
type Row struct {
	frame *Frame
	idx   int
}

// RowAt returns the row view at index i.
func (f *Frame) RowAt(i int) Row { return Row{frame: f, idx: i} }

// LastRow returns the most recent row view.
func (f *Frame) LastRow() Row { return Row{frame: f, idx: len(f.times) - 1} }

// Pair returns the owning pair.
func (r Row) Pair() string { return r.frame.pair }

// Time returns the row's base open time.
func (r Row) Time() time.Time { return r.frame.times[r.idx] }

// Value returns a feature value; ok is false when not ready.
func (r Row) Value(name string) (float64, bool) {
	return r.frame.Value(r.idx, name)
}

// Features returns every ready feature as a map, used to build the
// predictor request. Not-ready cells are left out.
func (r Row) Features() map[string]float64 {
	out := make(map[string]float64, len(r.frame.order))
	for _, name := range r.frame.order {
		if v, ok := r.frame.Value(r.idx, name); ok {
			out[name] = v
		}
	}
	return out
}
