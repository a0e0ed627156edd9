package conditions

import (
	"StratCore/internal/domain/models"
	"StratCore/internal/pipeline"
)

// Exit conditions: 1001..1099 long, 1501..1599 short. Exits all carry
// ModeExit; the classifier distinguishes entry modes only.
func longExitConditions() []Condition {
	return []Condition{
		// Hard overbought.
		{ID: 1001, Direction: models.DirLong, Mode: ModeExit, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "rsi_14", 78) &&
				above(r, "rsi_3", 90)
		}},
		// Upper-band blowout with fading money flow.
		{ID: 1002, Direction: models.DirLong, Mode: ModeExit, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "bb_pctb", 1.0) &&
				below(r, "cmf_20", 0.05) &&
				above(r, "rsi_14", 68)
		}},
		// Higher-timeframe exhaustion.
		{ID: 1003, Direction: models.DirLong, Mode: ModeExit, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "rsi_14_1h", 78) &&
				above(r, "rsi_14", 62) &&
				colBelow(r, "stochrsi_k", "stochrsi_d")
		}},
		// Trend collapse: wave oscillator rolls hard negative while the
		// fast EMA loses the mid EMA.
		{ID: 1004, Direction: models.DirLong, Mode: ModeExit, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "ewo", -6.0) &&
				colBelow(r, "ema_12", "ema_26") &&
				below(r, "macd_hist", 0)
		}},
	}
}

func shortExitConditions() []Condition {
	return []Condition{
		// Hard oversold: cover.
		{ID: 1501, Direction: models.DirShort, Mode: ModeExit, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "rsi_14", 22) &&
				below(r, "rsi_3", 10)
		}},
		// Lower-band blowout with returning money flow.
		{ID: 1502, Direction: models.DirShort, Mode: ModeExit, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "bb_pctb", 0.0) &&
				above(r, "cmf_20", -0.05) &&
				below(r, "rsi_14", 32)
		}},
		// Trend resumption against the short.
		{ID: 1503, Direction: models.DirShort, Mode: ModeExit, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "ewo", 6.0) &&
				colAbove(r, "ema_12", "ema_26") &&
				above(r, "macd_hist", 0)
		}},
	}
}
