package conditions

import (
	"StratCore/internal/domain/models"
	"StratCore/internal/pipeline"
)

// Long entry conditions. Identifier blocks by mode: 1..19 normal,
// 21..39 pump, 41..59 quick, 61..79 rebuy, 81..99 grind, 101..119 top.
// Lower-numbered conditions are higher priority for signal attribution.
func longEntryConditions() []Condition {
	return []Condition{
		// Oversold dip inside an intact uptrend: the classic entry.
		{ID: 1, Direction: models.DirLong, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "rsi_14", 30) &&
				above(r, "rsi_3", 4) &&
				colAbove(r, "ema_50", "ema_200") &&
				above(r, "rsi_14_1h", 36) &&
				above(r, "cmf_20", -0.25)
		}},
		// Bollinger lower-band touch with healthy higher-timeframe trend.
		{ID: 2, Direction: models.DirLong, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "bb_pctb", 0.05) &&
				below(r, "rsi_14", 36) &&
				colAbove(r, "close_1h", "ema_200_1h") &&
				above(r, "mfi_14", 20)
		}},
		// Deep pullback to the slow SMA while 4h momentum holds.
		{ID: 3, Direction: models.DirLong, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return ratioBelow(r, "close", "sma_75", 0.982) &&
				between(r, "rsi_14", 15, 34) &&
				above(r, "rsi_14_4h", 40) &&
				above(r, "ewo", -4.0)
		}},
		// MACD histogram trough with volume confirmation.
		{ID: 4, Direction: models.DirLong, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "macd_hist", 0) &&
				below(r, "rsi_14", 38) &&
				above(r, "rel_volume", 1.2) &&
				colAbove(r, "ema_26", "ema_100") &&
				above(r, "cmf_20_1h", -0.1)
		}},
		// Washout candle: fast RSI floor with daily trend intact.
		{ID: 5, Direction: models.DirLong, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "rsi_3", 12) &&
				below(r, "pct_change_1", -0.010) &&
				colAbove(r, "close_1d", "ema_200_1d") &&
				above(r, "mfi_14", 16)
		}},
		// Range-bottom accumulation: price near the 48-bar low with
		// improving money flow.
		{ID: 6, Direction: models.DirLong, Mode: ModeNormal, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return ratioBelow(r, "close", "close_min_48", 1.01) &&
				above(r, "cmf_20", 0.0) &&
				below(r, "rsi_14", 40) &&
				above(r, "adx_14", 20)
		}},

		// Pump mode: high-velocity moves where the normal guards are too
		// slow. Disabled by default on volatile quote markets.
		{ID: 21, Direction: models.DirLong, Mode: ModePump, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "rel_volume", 3.0) &&
				above(r, "roc_9", 3.0) &&
				below(r, "rsi_14", 62) &&
				colAbove(r, "close", "bb_mid")
		}},
		{ID: 22, Direction: models.DirLong, Mode: ModePump, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "pct_change_6", 0.03) &&
				above(r, "rel_volume", 2.0) &&
				below(r, "bb_pctb", 0.95) &&
				above(r, "rsi_14_15m", 50)
		}},
		{ID: 23, Direction: models.DirLong, Mode: ModePump, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "ewo", 6.0) &&
				below(r, "rsi_14", 55) &&
				above(r, "rel_volume", 1.5) &&
				above(r, "btc_rsi_14_1h", 45)
		}},
		{ID: 24, Direction: models.DirLong, Mode: ModePump, DefaultEnabled: false, When: func(r pipeline.Row) bool {
			return above(r, "roc_9", 6.0) &&
				above(r, "rel_volume", 4.0) &&
				below(r, "willr_14", -10)
		}},

		// Quick mode: short-horizon oscillator reversals.
		{ID: 41, Direction: models.DirLong, Mode: ModeQuick, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "stochrsi_k", 12) &&
				colAbove(r, "stochrsi_k", "stochrsi_d") &&
				below(r, "rsi_14", 42) &&
				above(r, "adx_14", 24)
		}},
		{ID: 42, Direction: models.DirLong, Mode: ModeQuick, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "willr_14", -92) &&
				above(r, "rsi_3", 6) &&
				colAbove(r, "ema_12", "ema_26") &&
				above(r, "cmf_20", -0.15)
		}},
		{ID: 43, Direction: models.DirLong, Mode: ModeQuick, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "cci_20", -180) &&
				above(r, "mfi_14", 12) &&
				above(r, "rsi_14_15m", 30) &&
				below(r, "atr_pct", 4.0)
		}},
		{ID: 44, Direction: models.DirLong, Mode: ModeQuick, DefaultEnabled: false, When: func(r pipeline.Row) bool {
			return below(r, "stochrsi_k", 5) &&
				below(r, "bb_pctb", 0.1) &&
				above(r, "rsi_14_1h", 30)
		}},

		// Rebuy mode: deeper oversold entries meant to be averaged into
		// by the adjustment controller.
		{ID: 61, Direction: models.DirLong, Mode: ModeRebuy, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "rsi_14", 26) &&
				below(r, "bb_pctb", 0.0) &&
				above(r, "rsi_14_1h", 26) &&
				above(r, "cmf_20_1h", -0.3)
		}},
		{ID: 62, Direction: models.DirLong, Mode: ModeRebuy, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return below(r, "rsi_3", 8) &&
				ratioBelow(r, "close", "ema_200", 0.97) &&
				above(r, "rsi_14_4h", 34) &&
				below(r, "atr_pct", 5.0)
		}},
		{ID: 63, Direction: models.DirLong, Mode: ModeRebuy, DefaultEnabled: false, When: func(r pipeline.Row) bool {
			return below(r, "rsi_14", 22) &&
				below(r, "pct_change_6", -0.05) &&
				above(r, "mfi_14", 10)
		}},

		// Grind mode: downtrend accumulation where exits are expected to
		// come from the adjustment ladder rather than trend resumption.
		{ID: 81, Direction: models.DirLong, Mode: ModeGrind, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return colBelow(r, "close", "ema_200") &&
				below(r, "rsi_14", 32) &&
				above(r, "ewo", -8.0) &&
				above(r, "cmf_20", -0.2) &&
				above(r, "rsi_14_1d", 30)
		}},
		{ID: 82, Direction: models.DirLong, Mode: ModeGrind, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return colBelow(r, "ema_50", "ema_200") &&
				below(r, "rsi_14", 30) &&
				below(r, "bb_pctb", 0.1) &&
				above(r, "mfi_14_1h", 24)
		}},
		{ID: 83, Direction: models.DirLong, Mode: ModeGrind, DefaultEnabled: false, When: func(r pipeline.Row) bool {
			return below(r, "ewo", -10.0) &&
				below(r, "rsi_14", 26) &&
				above(r, "rsi_3", 4)
		}},

		// Top mode: entries allowed only with supportive market context
		// from the reference pair.
		{ID: 101, Direction: models.DirLong, Mode: ModeTop, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "btc_rsi_14_1h", 50) &&
				above(r, "btc_pct_change_6_1h", 0.0) &&
				below(r, "rsi_14", 40) &&
				colAbove(r, "ema_26", "ema_50")
		}},
		{ID: 102, Direction: models.DirLong, Mode: ModeTop, DefaultEnabled: true, When: func(r pipeline.Row) bool {
			return above(r, "btc_cmf_20_1h", 0.05) &&
				below(r, "rsi_14", 44) &&
				below(r, "bb_pctb", 0.3) &&
				above(r, "adx_14", 18)
		}},
	}
}
