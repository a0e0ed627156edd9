package policy

import (
	"encoding/json"
	"os"
	"strings"
	"sync/atomic"

	"StratCore/pkg/logger"
)

// holdsFile is the on-disk shape. Both maps record a minimum profit
// ratio: trade entries pin one open trade, pair entries pin every
// trade on the pair. An exit is held back until the trade's unrealized
// profit ratio reaches the recorded threshold.
type holdsFile struct {
	TradeIDs map[string]json.Number `json:"trade_ids"`
	Pairs    map[string]json.Number `json:"trade_pairs"`
}

// HoldTable is an immutable snapshot of the hold overrides.
type HoldTable struct {
	tradeIDs map[string]float64
	pairs    map[string]float64
}

// EmptyHoldTable suppresses nothing.
func EmptyHoldTable() *HoldTable {
	return &HoldTable{tradeIDs: map[string]float64{}, pairs: map[string]float64{}}
}

// ShouldSuppressExit reports whether a rule-based exit for the trade
// must be swallowed. A trade-id entry takes precedence over the pair
// entry; either way the exit is only suppressed while profitRatio is
// strictly below the recorded threshold.
func (t *HoldTable) ShouldSuppressExit(tradeID, pair string, profitRatio float64) bool {
	if threshold, ok := t.tradeIDs[tradeID]; ok {
		return profitRatio < threshold
	}
	if threshold, ok := t.pairs[normalizePair(pair)]; ok {
		return profitRatio < threshold
	}
	return false
}

// Size returns how many hold entries the table carries.
func (t *HoldTable) Size() int {
	return len(t.tradeIDs) + len(t.pairs)
}

func normalizePair(pair string) string {
	return strings.ToUpper(strings.TrimSpace(pair))
}

// HoldResolver owns the current hold table and swaps it atomically on
// reload. Readers never block on a reload in progress.
type HoldResolver struct {
	path string
	log  *logger.Logger
	tab  atomic.Pointer[HoldTable]
}

func NewHoldResolver(path string, log *logger.Logger) *HoldResolver {
	r := &HoldResolver{path: path, log: log}
	r.tab.Store(EmptyHoldTable())
	return r
}

// Current returns the active table.
func (r *HoldResolver) Current() *HoldTable {
	return r.tab.Load()
}

// Reload re-reads the hold file and swaps the table. A missing or
// malformed file is operational input, not a deployment error: the
// resolver logs, installs an empty table, and keeps running. The swap
// is all-or-nothing; a partially parsed file never becomes visible.
func (r *HoldResolver) Reload() error {
	if r.path == "" {
		r.tab.Store(EmptyHoldTable())
		return nil
	}
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.log.Warn("hold file missing, clearing holds", logger.String("path", r.path))
		} else {
			r.log.Error("hold file unreadable, clearing holds", logger.String("path", r.path), logger.Error(err))
		}
		r.tab.Store(EmptyHoldTable())
		return err
	}

	var f holdsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		r.log.Error("hold file malformed, clearing holds", logger.String("path", r.path), logger.Error(err))
		r.tab.Store(EmptyHoldTable())
		return err
	}

	tab := EmptyHoldTable()
	for id, n := range f.TradeIDs {
		if _, err := json.Number(id).Int64(); err != nil {
			r.log.Warn("skipping non-integer trade id in hold file", logger.String("value", id))
			continue
		}
		threshold, err := n.Float64()
		if err != nil {
			r.log.Warn("skipping invalid trade hold threshold",
				logger.String("trade_id", id), logger.String("value", n.String()))
			continue
		}
		tab.tradeIDs[id] = threshold
	}
	for pair, n := range f.Pairs {
		threshold, err := n.Float64()
		if err != nil {
			r.log.Warn("skipping invalid pair hold threshold",
				logger.String("pair", pair), logger.String("value", n.String()))
			continue
		}
		tab.pairs[normalizePair(pair)] = threshold
	}

	r.tab.Store(tab)
	r.log.Info("hold table reloaded",
		logger.String("path", r.path),
		logger.Int("trade_ids", len(tab.tradeIDs)),
		logger.Int("pairs", len(tab.pairs)))
	return nil
}
