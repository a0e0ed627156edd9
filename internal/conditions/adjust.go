package conditions

import "StratCore/internal/domain/models"

// Adjustment conditions: 2001..2099 long, 2501..2599 short. Each rung
// of the ladder requires a deeper drawdown, more age, and a fill count
// below its slot, so a position walks the ladder at most once per rung.
func longAdjustConditions() []AdjustCondition {
	return []AdjustCondition{
		{ID: 2001, Direction: models.DirLong, Mode: ModeRebuy, DefaultEnabled: true, When: func(st AdjustState) bool {
			return st.ProfitRatio <= -0.02 && st.AgeCandles >= 6 && st.Fills < 1
		}},
		{ID: 2002, Direction: models.DirLong, Mode: ModeRebuy, DefaultEnabled: true, When: func(st AdjustState) bool {
			return st.ProfitRatio <= -0.04 && st.AgeCandles >= 12 && st.Fills < 2
		}},
		{ID: 2003, Direction: models.DirLong, Mode: ModeRebuy, DefaultEnabled: true, When: func(st AdjustState) bool {
			return st.ProfitRatio <= -0.06 && st.AgeCandles >= 24 && st.Fills < 3
		}},
		{ID: 2004, Direction: models.DirLong, Mode: ModeRebuy, DefaultEnabled: false, When: func(st AdjustState) bool {
			return st.ProfitRatio <= -0.09 && st.AgeCandles >= 36 && st.Fills < 4
		}},
	}
}

func shortAdjustConditions() []AdjustCondition {
	return []AdjustCondition{
		{ID: 2501, Direction: models.DirShort, Mode: ModeRebuy, DefaultEnabled: true, When: func(st AdjustState) bool {
			return st.ProfitRatio <= -0.03 && st.AgeCandles >= 6 && st.Fills < 1
		}},
		{ID: 2502, Direction: models.DirShort, Mode: ModeRebuy, DefaultEnabled: true, When: func(st AdjustState) bool {
			return st.ProfitRatio <= -0.06 && st.AgeCandles >= 18 && st.Fills < 2
		}},
	}
}
