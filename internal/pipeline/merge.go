package pipeline

import (
	"fmt"
	"math"
	"time"
)

// Informative describes a higher-resolution frame to merge onto the base
// timeline. Suffix is appended to every merged column name ("rsi_14" at
// 1h becomes "rsi_14_1h"); Prefix is used for reference-pair frames
// ("btc_rsi_14_1h").
type Informative struct {
	Frame  *Frame
	Suffix string
	Prefix string
}

// Merge produces one feature row per base timestamp: the base frame's own
// columns plus, for every informative column, the value of the previous
// fully closed informative bar relative to each base row. A base row
// whose timestamp precedes the first closed informative bar gets NaN
// (not ready) for that column.
//
// The merged frame owns copies of the base columns, so later mutation of
// the inputs does not leak into an in-flight evaluation.
func Merge(base *Frame, informatives []Informative) (*Frame, error) {
	times := make([]time.Time, base.Len())
	for i := 0; i < base.Len(); i++ {
		times[i] = base.Time(i)
	}
	merged, err := NewFrame(base.pair, base.tf, times)
	if err != nil {
		return nil, err
	}

	for _, name := range base.Columns() {
		src := base.cols[name]
		dst := make([]float64, len(src))
		copy(dst, src)
		if err := merged.SetColumn(name, dst); err != nil {
			return nil, err
		}
	}

	for _, inf := range informatives {
		if err := mergeInformative(merged, inf); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

func mergeInformative(merged *Frame, inf Informative) error {
	f := inf.Frame
	if f == nil {
		return nil
	}
	d := f.tf.Duration()
	// Precompute the closed-bar index per base row with a single forward
	// walk; both axes are strictly increasing.
	idx := make([]int, merged.Len())
	j := -1
	for i := 0; i < merged.Len(); i++ {
		t := merged.Time(i)
		for j+1 < f.Len() && !f.Time(j+1).Add(d).After(t) {
			j++
		}
		idx[i] = j
	}

	for _, name := range f.Columns() {
		src := f.cols[name]
		dst := make([]float64, merged.Len())
		for i := range dst {
			k := idx[i]
			if k < 0 {
				dst[i] = math.NaN()
				continue
			}
			// Contract check: the chosen bar must be closed at the base
			// row's timestamp. A violation here means look-ahead and
			// invalidates every downstream signal.
			if f.Time(k).Add(d).After(merged.Time(i)) {
				return fmt.Errorf("pipeline: unclosed %s bar %s merged onto base row %s",
					f.tf, f.Time(k), merged.Time(i))
			}
			dst[i] = src[k]
		}
		if err := merged.SetColumn(inf.Prefix+name+inf.Suffix, dst); err != nil {
			return err
		}
	}
	return nil
}
