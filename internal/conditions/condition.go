package conditions

import (
	"StratCore/internal/domain/models"
	"StratCore/internal/pipeline"
)

// Predicate is a pure, side-effect-free test over one aligned feature
// row. Predicates must read features through Row.Value so that a
// not-ready feature can never satisfy them.
type Predicate func(r pipeline.Row) bool

// Condition is one independently toggleable entry or exit rule.
// Identifiers are globally unique and stable across versions; they are
// used for trade attribution and for the hold-override join, so an id is
// never reused even when its rule is retired.
type Condition struct {
	ID             int
	Direction      models.Direction
	Mode           Mode
	DefaultEnabled bool
	When           Predicate
}

// AdjustState is the position snapshot an adjustment condition sees.
type AdjustState struct {
	ProfitRatio float64
	AgeCandles  int
	Fills       int
}

// AdjustCondition is a toggleable position-adjustment rule, structurally
// an entry condition evaluated against open-position state rather than a
// feature row.
type AdjustCondition struct {
	ID             int
	Direction      models.Direction
	Mode           Mode
	DefaultEnabled bool
	When           func(st AdjustState) bool
}

// Comparison helpers. The rule tables below read as threshold grids;
// these keep each rule to one line per clause and centralize the
// not-ready handling.

func below(r pipeline.Row, col string, x float64) bool {
	v, ok := r.Value(col)
	return ok && v < x
}

func above(r pipeline.Row, col string, x float64) bool {
	v, ok := r.Value(col)
	return ok && v > x
}

func between(r pipeline.Row, col string, lo, hi float64) bool {
	v, ok := r.Value(col)
	return ok && v > lo && v < hi
}

// colBelow reports a < b for two feature columns.
func colBelow(r pipeline.Row, a, b string) bool {
	va, ok := r.Value(a)
	if !ok {
		return false
	}
	vb, ok := r.Value(b)
	return ok && va < vb
}

func colAbove(r pipeline.Row, a, b string) bool {
	return colBelow(r, b, a)
}

// ratioBelow reports a/b < x, guarding against a zero denominator.
func ratioBelow(r pipeline.Row, a, b string, x float64) bool {
	va, ok := r.Value(a)
	if !ok {
		return false
	}
	vb, ok := r.Value(b)
	if !ok || vb == 0 {
		return false
	}
	return va/vb < x
}

func ratioAbove(r pipeline.Row, a, b string, x float64) bool {
	va, ok := r.Value(a)
	if !ok {
		return false
	}
	vb, ok := r.Value(b)
	if !ok || vb == 0 {
		return false
	}
	return va/vb > x
}
