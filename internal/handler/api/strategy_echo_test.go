package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"StratCore/internal/domain/models"
	"StratCore/internal/domain/repository"
	xlogger "StratCore/pkg/logger"
)

type fakeCandleStore struct {
	candles  []models.Candle
	lastFrom time.Time
	lastTo   time.Time
	lastTF   repository.Timeframe
}

func (s *fakeCandleStore) GetCandles(_ context.Context, pair string, from, to time.Time, tf repository.Timeframe) ([]models.Candle, error) {
	s.lastFrom, s.lastTo, s.lastTF = from, to, tf
	return s.candles, nil
}

func (s *fakeCandleStore) GetLatestNCandles(context.Context, string, int, repository.Timeframe) ([]models.Candle, error) {
	return s.candles, nil
}

func (s *fakeCandleStore) Health(context.Context) error { return nil }

func candlesHandler(t *testing.T, store *fakeCandleStore) *StrategyHandler {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewStrategyHandler(log, nil, nil, nil, store)
}

type apiEnvelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func getCandles(t *testing.T, h *StrategyHandler, query string) apiEnvelope {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/candles?"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Candles(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var env apiEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestCandlesDefaultsToLastDay(t *testing.T) {
	store := &fakeCandleStore{}
	h := candlesHandler(t, store)

	env := getCandles(t, h, "pair=ETH/USDT&tf=5m")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", env.Status)
	}
	if store.lastTF != repository.TF5m {
		t.Fatalf("tf = %s, want 5m", store.lastTF)
	}
	window := store.lastTo.Sub(store.lastFrom)
	if window != 24*time.Hour {
		t.Fatalf("default window = %s, want 24h", window)
	}
}

func TestCandlesParsesRangeAndTrimsToLimit(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeCandleStore{}
	for i := 0; i < 5; i++ {
		store.candles = append(store.candles, models.Candle{
			Pair: "ETH/USDT", OpenTime: base.Add(time.Duration(i) * 5 * time.Minute),
			Open: 100, High: 101, Low: 99, Close: 100, Volume: 1,
		})
	}
	h := candlesHandler(t, store)

	env := getCandles(t, h,
		"pair=ETH/USDT&tf=5m&from=2024-03-01T00:00:00Z&to=2024-03-01T01:00:00Z&limit=2")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", env.Status)
	}
	if !store.lastFrom.Equal(base) {
		t.Fatalf("from = %s, want %s", store.lastFrom, base)
	}
	if !store.lastTo.Equal(base.Add(time.Hour)) {
		t.Fatalf("to = %s, want %s", store.lastTo, base.Add(time.Hour))
	}

	var got []models.Candle
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode candles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("candles = %d, want limit 2", len(got))
	}
	// The limit keeps the newest rows.
	if !got[0].OpenTime.Equal(base.Add(15 * time.Minute)) {
		t.Fatalf("first trimmed candle at %s, want %s", got[0].OpenTime, base.Add(15*time.Minute))
	}
}

func TestCandlesRejectsUnknownTimeframe(t *testing.T) {
	h := candlesHandler(t, &fakeCandleStore{})
	env := getCandles(t, h, "pair=ETH/USDT&tf=7m")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
}

func TestCandlesRequiresPair(t *testing.T) {
	h := candlesHandler(t, &fakeCandleStore{})
	env := getCandles(t, h, "tf=5m")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
}
