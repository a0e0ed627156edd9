package position

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"StratCore/internal/domain/models"
	"StratCore/internal/domain/repository"
)

var (
	ErrPositionExists   = errors.New("position: pair already has an open position")
	ErrPositionNotFound = errors.New("position: no open position")
)

// Book tracks open positions, one per pair. It is the single writer
// of position state; the evaluator and the adjustment controller both
// read through it.
type Book struct {
	mu      sync.RWMutex
	byPair  map[string]*models.OpenPosition
	nextID  int64
	metrics repository.Metrics
}

func NewBook(metrics repository.Metrics) *Book {
	return &Book{byPair: map[string]*models.OpenPosition{}, nextID: 1, metrics: metrics}
}

// Open registers a new position. A pair with a live position cannot
// open another; the caller treats that as a duplicate entry no-op.
func (b *Book) Open(pair string, dir models.Direction, price float64, stake decimal.Decimal, at time.Time) (*models.OpenPosition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.byPair[pair]; ok {
		return nil, ErrPositionExists
	}
	pos := &models.OpenPosition{
		TradeID:      strconv.FormatInt(b.nextID, 10),
		Pair:         pair,
		Direction:    dir,
		EntryPrice:   price,
		InitialStake: stake,
		Stake:        stake,
		State:        models.PositionOpened,
		OpenedAt:     at,
	}
	b.nextID++
	b.byPair[pair] = pos
	b.metrics.SetOpenPositions(len(b.byPair))
	return pos, nil
}

// Get returns a copy of the open position on the pair, if any.
func (b *Book) Get(pair string) (models.OpenPosition, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pos, ok := b.byPair[pair]
	if !ok {
		return models.OpenPosition{}, false
	}
	return *pos, true
}

// All returns copies of every open position.
func (b *Book) All() []models.OpenPosition {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.OpenPosition, 0, len(b.byPair))
	for _, pos := range b.byPair {
		out = append(out, *pos)
	}
	return out
}

// Len reports the number of open positions.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byPair)
}

// ApplyFill records a confirmed adjustment fill: the stake grows and
// the fill counter advances. The position stays ADJUSTING afterwards
// so later rungs can see the prior fills.
func (b *Book) ApplyFill(pair string, add decimal.Decimal) (models.OpenPosition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, ok := b.byPair[pair]
	if !ok {
		return models.OpenPosition{}, ErrPositionNotFound
	}
	pos.Stake = pos.Stake.Add(add)
	pos.Adjustments++
	pos.State = models.PositionAdjusting
	return *pos, nil
}

// Close removes the position from the book and returns its final
// snapshot.
func (b *Book) Close(pair string) (models.OpenPosition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, ok := b.byPair[pair]
	if !ok {
		return models.OpenPosition{}, ErrPositionNotFound
	}
	delete(b.byPair, pair)
	pos.State = models.PositionClosed
	b.metrics.SetOpenPositions(len(b.byPair))
	return *pos, nil
}
