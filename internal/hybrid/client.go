package hybrid

import (
	"context"
	"fmt"
	"time"

	"StratCore/internal/domain/models"
	domsvc "StratCore/internal/domain/service"
	xhttp "StratCore/pkg/http"
)

// HTTPPredictor talks to the external model service over JSON HTTP.
// The service owns feature scaling and model selection; this client
// only ships the raw feature row and reads back the scored result.
type HTTPPredictor struct {
	baseURL string
	client  *xhttp.Client
}

func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPPredictor{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type predictReq struct {
	Pair     string             `json:"pair"`
	Features map[string]float64 `json:"features"`
	Horizon  string             `json:"horizon"`
}

type predictResp struct {
	ExpectedReturn float64 `json:"expected_return"`
	Confidence     float64 `json:"confidence"`
}

func (p *HTTPPredictor) Predict(ctx context.Context, pair string, features map[string]float64, horizon string) (models.Prediction, error) {
	if p.client == nil || p.baseURL == "" {
		return models.Prediction{}, fmt.Errorf("hybrid: predictor not configured")
	}
	var resp predictResp
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    p.baseURL + "/predict",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: predictReq{Pair: pair, Features: features, Horizon: horizon},
	}, &resp)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("post predict: %w", err)
	}
	return models.Prediction{
		ExpectedReturn: resp.ExpectedReturn,
		Confidence:     resp.Confidence,
	}, nil
}

var _ domsvc.Predictor = (*HTTPPredictor)(nil)
