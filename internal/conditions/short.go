package conditions

import (
	"StratCore/internal/domain/models"
	"StratCore/internal/pipeline"
)

// Short entry conditions mirror the long tables at +500: 501..519
// normal, 521..539 pump, 541..559 quick. Shorts carry fewer variants
// than longs; rebuy and grind accumulation is long-only.
func shortEntryConditions() []Condition {
	return []Condition{
		// Overbought spike inside an intact downtrend.
		{ID: 501, Direction: models.DirShort, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "rsi_14", 70) &&
				below(r, "rsi_3", 96) &&
				colBelow(r, "ema_50", "ema_200") &&
				below(r, "rsi_14_1h", 64) &&
				below(r, "cmf_20", 0.25)
		}},
		// Bollinger upper-band touch against a weak higher timeframe.
		{ID: 502, Direction: models.DirShort, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "bb_pctb", 0.95) &&
				above(r, "rsi_14", 64) &&
				colBelow(r, "close_1h", "ema_200_1h") &&
				below(r, "mfi_14", 80)
		}},
		// Extended rally into the slow SMA from below.
		{ID: 503, Direction: models.DirShort, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return ratioAbove(r, "close", "sma_75", 1.018) &&
				above(r, "rsi_14", 66) &&
				below(r, "rsi_14_4h", 60) &&
				below(r, "ewo", 4.0)
		}},
		// MACD histogram peak with distribution volume.
		{ID: 504, Direction: models.DirShort, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "macd_hist", 0) &&
				above(r, "rsi_14", 62) &&
				above(r, "rel_volume", 1.2) &&
				colBelow(r, "ema_26", "ema_100") &&
				below(r, "cmf_20_1h", 0.1)
		}},
		// Blow-off candle with a weak daily trend.
		{ID: 505, Direction: models.DirShort, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "rsi_3", 88) &&
				above(r, "pct_change_1", 0.010) &&
				colBelow(r, "close_1d", "ema_200_1d") &&
				below(r, "mfi_14", 84)
		}},
		// Range-top distribution near the 48-bar high.
		{ID: 506, Direction: models.DirShort, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return ratioAbove(r, "close", "close_max_48", 0.99) &&
				below(r, "cmf_20", 0.0) &&
				above(r, "rsi_14", 60) &&
				above(r, "adx_14", 20)
		}},

		// Pump mode shorts fade exhaustion after a vertical move.
		{ID: 521, Direction: models.DirShort, Mode: ModePump, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "rel_volume", 3.0) &&
				above(r, "roc_9", 8.0) &&
				above(r, "rsi_14", 80) &&
				above(r, "bb_pctb", 1.0)
		}},
		{ID: 522, Direction: models.DirShort, Mode: ModePump, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "pct_change_6", 0.08) &&
				above(r, "rsi_3", 92) &&
				below(r, "cmf_20", 0.1) &&
				below(r, "btc_rsi_14_1h", 60)
		}},
		{ID: 523, Direction: models.DirShort, Mode: ModePump, DefaultEnabled: false, When: func(r pipeline.Row) bool {
			return above(r, "roc_9", 12.0) &&
				above(r, "rel_volume", 5.0) &&
				above(r, "willr_14", -8)
		}},

		// Quick mode shorts on oscillator rollovers.
		{ID: 541, Direction: models.DirShort, Mode: ModeQuick, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "stochrsi_k", 88) &&
				colBelow(r, "stochrsi_k", "stochrsi_d") &&
				above(r, "rsi_14", 58) &&
				above(r, "adx_14", 24)
		}},
		{ID: 542, Direction: models.DirShort, Mode: ModeQuick, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "willr_14", -8) &&
				above(r, "cci_20", 180) &&
				colBelow(r, "ema_12", "ema_26") &&
				below(r, "rsi_14_15m", 70)
		}},
	}
}
