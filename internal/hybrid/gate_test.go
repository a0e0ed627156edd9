package hybrid

import (
	"context"
	"errors"
	"testing"
	"time"

	"StratCore/internal/domain/models"
	"StratCore/pkg/logger"
)

type fakeMetrics struct {
	fallbacks  int
	rejections []string
}

func (f *fakeMetrics) RecordSignal(string, string, string, string) {}
func (f *fakeMetrics) RecordConditionHits(string, string, int)     {}
func (f *fakeMetrics) RecordAdjustment(string, string)             {}
func (f *fakeMetrics) RecordRejection(kind string)                 { f.rejections = append(f.rejections, kind) }
func (f *fakeMetrics) RecordError(string)                          {}
func (f *fakeMetrics) RecordEvalLatency(string, float64)           {}
func (f *fakeMetrics) RecordLatency(string, float64)               {}
func (f *fakeMetrics) RecordPredictorFallback()                    { f.fallbacks++ }
func (f *fakeMetrics) SetOpenPositions(int)                        {}
func (f *fakeMetrics) RecordProfitRatio(string, float64)           {}

type predictorFunc func(ctx context.Context, pair string, features map[string]float64, horizon string) (models.Prediction, error)

func (f predictorFunc) Predict(ctx context.Context, pair string, features map[string]float64, horizon string) (models.Prediction, error) {
	return f(ctx, pair, features, horizon)
}

func fixedPrediction(er, conf float64) predictorFunc {
	return func(context.Context, string, map[string]float64, string) (models.Prediction, error) {
		return models.Prediction{ExpectedReturn: er, Confidence: conf}, nil
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func gateConfig() GateConfig {
	return GateConfig{
		Enabled:           true,
		Timeout:           time.Second,
		Horizon:           "1h",
		MinExpectedReturn: 0.005,
		MinConfidence:     0.55,
		RuleWeight:        0.6,
		AcceptThreshold:   0.7,
	}
}

func TestAdmitDisabledGatePassesThrough(t *testing.T) {
	m := &fakeMetrics{}
	cfg := gateConfig()
	cfg.Enabled = false
	// Predictor would reject everything, but a disabled gate never calls it.
	g := NewGate(cfg, fixedPrediction(-1, 0), m, testLogger(t))
	if !g.Admit(context.Background(), "BTC/USDT", nil, 0) {
		t.Fatalf("disabled gate rejected entry")
	}
	if m.fallbacks != 0 || len(m.rejections) != 0 {
		t.Fatalf("disabled gate touched metrics: %+v", m)
	}
}

func TestAdmitNilPredictorPassesThrough(t *testing.T) {
	g := NewGate(gateConfig(), nil, &fakeMetrics{}, testLogger(t))
	if !g.Admit(context.Background(), "BTC/USDT", nil, 0) {
		t.Fatalf("nil predictor blocked entry")
	}
}

func TestAdmitModelAgreement(t *testing.T) {
	m := &fakeMetrics{}
	g := NewGate(gateConfig(), fixedPrediction(0.01, 0.8), m, testLogger(t))
	// 0.6*1 + 0.4*1 = 1.0 >= 0.7
	if !g.Admit(context.Background(), "BTC/USDT", map[string]float64{"rsi_14": 30}, 1.0) {
		t.Fatalf("agreeing model rejected entry")
	}
	if len(m.rejections) != 0 {
		t.Fatalf("unexpected rejections: %v", m.rejections)
	}
}

func TestAdmitModelDisagreementBelowThreshold(t *testing.T) {
	m := &fakeMetrics{}
	// Confidence below the floor: mlScore 0; 0.6*1 + 0.4*0 = 0.6 < 0.7.
	g := NewGate(gateConfig(), fixedPrediction(0.01, 0.3), m, testLogger(t))
	if g.Admit(context.Background(), "BTC/USDT", nil, 1.0) {
		t.Fatalf("disagreeing model admitted entry")
	}
	if len(m.rejections) != 1 || m.rejections[0] != "hybrid_gate" {
		t.Fatalf("rejections = %v", m.rejections)
	}
	if m.fallbacks != 0 {
		t.Fatalf("counted a fallback on a clean rejection")
	}
}

func TestAdmitWeakRulesNeedModelBacking(t *testing.T) {
	// One condition fired (ruleScore 1/3): 0.6*0.333 + 0.4*1 = 0.6 < 0.7.
	g := NewGate(gateConfig(), fixedPrediction(0.01, 0.8), &fakeMetrics{}, testLogger(t))
	if g.Admit(context.Background(), "BTC/USDT", nil, 1.0/3.0) {
		t.Fatalf("weak rule score passed the gate")
	}
}

func TestAdmitFallsBackOnPredictorError(t *testing.T) {
	m := &fakeMetrics{}
	failing := predictorFunc(func(context.Context, string, map[string]float64, string) (models.Prediction, error) {
		return models.Prediction{}, errors.New("connection refused")
	})
	g := NewGate(gateConfig(), failing, m, testLogger(t))
	if !g.Admit(context.Background(), "BTC/USDT", nil, 1.0) {
		t.Fatalf("predictor error halted entries")
	}
	if m.fallbacks != 1 {
		t.Fatalf("fallbacks = %d, want 1", m.fallbacks)
	}
}

func TestAdmitFallsBackOnTimeout(t *testing.T) {
	m := &fakeMetrics{}
	slow := predictorFunc(func(ctx context.Context, _ string, _ map[string]float64, _ string) (models.Prediction, error) {
		<-ctx.Done()
		return models.Prediction{}, ctx.Err()
	})
	cfg := gateConfig()
	cfg.Timeout = 10 * time.Millisecond
	g := NewGate(cfg, slow, m, testLogger(t))
	if !g.Admit(context.Background(), "BTC/USDT", nil, 1.0) {
		t.Fatalf("predictor timeout halted entries")
	}
	if m.fallbacks != 1 {
		t.Fatalf("fallbacks = %d, want 1", m.fallbacks)
	}
}
