package service

import (
	"context"

	"StratCore/internal/domain/models"
)

// Predictor is the opaque external ML service boundary. It returns an
// expected forward return and a confidence measure per feature row.
// Retraining cadence and outlier filtering belong to that service.
type Predictor interface {
	Predict(ctx context.Context, pair string, features map[string]float64, horizon string) (models.Prediction, error)
}
