package conditions

import (
	"fmt"
	"sort"

	"StratCore/internal/domain/models"
	"StratCore/internal/pipeline"
)

// Registry is the statically enumerated condition bank. A registry value
// is immutable after construction: enable-flag overrides produce a new
// registry that the evaluator swaps in atomically, so a row evaluation
// never observes half of the old and half of the new set.
type Registry struct {
	entry   []Condition
	exit    []Condition
	adjust  []AdjustCondition
	enabled map[int]bool
}

// ConditionInfo is the read-only registry dump entry used by the API.
type ConditionInfo struct {
	ID        int              `json:"id"`
	Direction models.Direction `json:"direction"`
	Mode      Mode             `json:"mode"`
	Kind      string           `json:"kind"`
	Enabled   bool             `json:"enabled"`
}

// NewRegistry builds the compiled-in registry and verifies its
// invariants: globally unique identifiers and ascending iteration order.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		enabled: make(map[int]bool),
	}
	r.entry = append(r.entry, longEntryConditions()...)
	r.entry = append(r.entry, shortEntryConditions()...)
	r.exit = append(r.exit, longExitConditions()...)
	r.exit = append(r.exit, shortExitConditions()...)
	r.adjust = append(r.adjust, longAdjustConditions()...)
	r.adjust = append(r.adjust, shortAdjustConditions()...)

	sort.Slice(r.entry, func(i, j int) bool { return r.entry[i].ID < r.entry[j].ID })
	sort.Slice(r.exit, func(i, j int) bool { return r.exit[i].ID < r.exit[j].ID })
	sort.Slice(r.adjust, func(i, j int) bool { return r.adjust[i].ID < r.adjust[j].ID })

	seen := make(map[int]bool)
	check := func(id int, enabled bool) error {
		if seen[id] {
			return fmt.Errorf("conditions: duplicate identifier %d", id)
		}
		seen[id] = true
		r.enabled[id] = enabled
		return nil
	}
	for _, c := range r.entry {
		if err := check(c.ID, c.DefaultEnabled); err != nil {
			return nil, err
		}
	}
	for _, c := range r.exit {
		if err := check(c.ID, c.DefaultEnabled); err != nil {
			return nil, err
		}
	}
	for _, c := range r.adjust {
		if err := check(c.ID, c.DefaultEnabled); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// WithOverrides returns a copy of the registry with the given enable
// flags applied. Identifiers absent from the map keep their compiled-in
// default. Unknown identifiers are returned for warning, never an error.
func (r *Registry) WithOverrides(overrides map[int]bool) (*Registry, []int) {
	next := &Registry{
		entry:   r.entry,
		exit:    r.exit,
		adjust:  r.adjust,
		enabled: make(map[int]bool, len(r.enabled)),
	}
	for id, on := range r.enabled {
		next.enabled[id] = on
	}
	var unknown []int
	for id, on := range overrides {
		if _, ok := next.enabled[id]; !ok {
			unknown = append(unknown, id)
			continue
		}
		next.enabled[id] = on
	}
	sort.Ints(unknown)
	return next, unknown
}

// Enabled reports whether the identifier is currently enabled.
func (r *Registry) Enabled(id int) bool { return r.enabled[id] }

// EvaluateEntry returns the satisfied entry condition identifiers for
// the direction, in ascending identifier order. Disabled conditions are
// skipped without evaluation.
func (r *Registry) EvaluateEntry(row pipeline.Row, dir models.Direction) []int {
	return evalConditions(r.entry, r.enabled, row, dir)
}

// EvaluateExit returns the satisfied exit condition identifiers for the
// direction, in ascending identifier order.
func (r *Registry) EvaluateExit(row pipeline.Row, dir models.Direction) []int {
	return evalConditions(r.exit, r.enabled, row, dir)
}

// EvaluateAdjust returns the satisfied adjustment condition identifiers
// for the direction against the position snapshot.
func (r *Registry) EvaluateAdjust(st AdjustState, dir models.Direction) []int {
	var out []int
	for _, c := range r.adjust {
		if c.Direction != dir || !r.enabled[c.ID] {
			continue
		}
		if c.When(st) {
			out = append(out, c.ID)
		}
	}
	return out
}

// ModeOf returns the mode tag for an identifier.
func (r *Registry) ModeOf(id int) (Mode, bool) {
	for _, c := range r.entry {
		if c.ID == id {
			return c.Mode, true
		}
	}
	for _, c := range r.exit {
		if c.ID == id {
			return c.Mode, true
		}
	}
	for _, c := range r.adjust {
		if c.ID == id {
			return c.Mode, true
		}
	}
	return "", false
}

// All returns the full registry dump in ascending identifier order.
func (r *Registry) All() []ConditionInfo {
	out := make([]ConditionInfo, 0, len(r.entry)+len(r.exit)+len(r.adjust))
	for _, c := range r.entry {
		out = append(out, ConditionInfo{ID: c.ID, Direction: c.Direction, Mode: c.Mode, Kind: "entry", Enabled: r.enabled[c.ID]})
	}
	for _, c := range r.exit {
		out = append(out, ConditionInfo{ID: c.ID, Direction: c.Direction, Mode: c.Mode, Kind: "exit", Enabled: r.enabled[c.ID]})
	}
	for _, c := range r.adjust {
		out = append(out, ConditionInfo{ID: c.ID, Direction: c.Direction, Mode: c.Mode, Kind: "adjust", Enabled: r.enabled[c.ID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func evalConditions(conds []Condition, enabled map[int]bool, row pipeline.Row, dir models.Direction) []int {
	var out []int
	for _, c := range conds {
		if c.Direction != dir || !enabled[c.ID] {
			continue
		}
		if c.When(row) {
			out = append(out, c.ID)
		}
	}
	return out
}
