package models

import "time"

// Candle represents one OHLCV bar for a pair at a fixed resolution.
// OpenTime identifies the bar; the bar is closed at OpenTime + resolution.
type Candle struct {
	Pair     string
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}
