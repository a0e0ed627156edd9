package hybrid

import (
	"context"
	"time"

	"StratCore/internal/domain/repository"
	domsvc "StratCore/internal/domain/service"
	"StratCore/pkg/logger"
)

// GateConfig tunes the entry gate. RuleWeight blends the rule score
// with the model verdict; AcceptThreshold is the floor the combined
// score must reach.
type GateConfig struct {
	Enabled           bool
	Timeout           time.Duration
	Horizon           string
	MinExpectedReturn float64
	MinConfidence     float64
	RuleWeight        float64
	AcceptThreshold   float64
}

// Gate scores a proposed entry against the external predictor. The
// predictor is advisory: when it is disabled, times out, or errors,
// the gate admits the entry on rules alone and counts the fallback,
// so a model outage degrades to pure rule trading instead of halting
// entries.
type Gate struct {
	cfg       GateConfig
	predictor domsvc.Predictor
	metrics   repository.Metrics
	log       *logger.Logger
}

func NewGate(cfg GateConfig, predictor domsvc.Predictor, metrics repository.Metrics, log *logger.Logger) *Gate {
	return &Gate{cfg: cfg, predictor: predictor, metrics: metrics, log: log}
}

// Admit decides whether the entry proceeds. ruleScore is the rule
// engine's own conviction in [0,1], typically scaled from how many
// conditions fired.
func (g *Gate) Admit(ctx context.Context, pair string, features map[string]float64, ruleScore float64) bool {
	if !g.cfg.Enabled || g.predictor == nil {
		return true
	}

	cctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	pred, err := g.predictor.Predict(cctx, pair, features, g.cfg.Horizon)
	if err != nil {
		g.metrics.RecordPredictorFallback()
		g.log.Warn("predictor unavailable, admitting on rules",
			logger.String("pair", pair), logger.Error(err))
		return true
	}

	mlScore := 0.0
	if pred.ExpectedReturn >= g.cfg.MinExpectedReturn && pred.Confidence >= g.cfg.MinConfidence {
		mlScore = 1.0
	}
	combined := g.cfg.RuleWeight*ruleScore + (1-g.cfg.RuleWeight)*mlScore
	admitted := combined >= g.cfg.AcceptThreshold

	if !admitted {
		g.metrics.RecordRejection("hybrid_gate")
		g.log.Debug("entry rejected by hybrid gate",
			logger.String("pair", pair),
			logger.Any("expected_return", pred.ExpectedReturn),
			logger.Any("confidence", pred.Confidence),
			logger.Any("combined", combined))
	}
	return admitted
}
