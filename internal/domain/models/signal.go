package models

import "time"

// Direction of a position or signal.
type Direction string

const (
	DirLong  Direction = "long"
	DirShort Direction = "short"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == DirLong {
		return DirShort
	}
	return DirLong
}

// SignalKind distinguishes entry from exit signals.
type SignalKind string

const (
	SignalEntry SignalKind = "entry"
	SignalExit  SignalKind = "exit"
)

// Signal is the evaluator's output for one pair at one base-resolution row.
// ConditionID is the attribution tag: the lowest satisfied identifier.
// Satisfied retains every satisfied identifier for analysis.
type Signal struct {
	Pair        string     `json:"pair"`
	Kind        SignalKind `json:"kind"`
	Direction   Direction  `json:"direction"`
	ConditionID int        `json:"condition_id"`
	Satisfied   []int      `json:"satisfied"`
	Mode        string     `json:"mode"`
	Tag         string     `json:"tag"`
	Timestamp   time.Time  `json:"timestamp"`
	Price       float64    `json:"price"`
}

// Prediction is the external predictor's output for one feature row.
type Prediction struct {
	ExpectedReturn float64 `json:"expected_return"`
	Confidence     float64 `json:"confidence"`
}
