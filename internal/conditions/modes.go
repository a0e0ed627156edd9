package conditions

// Mode groups related conditions for reporting and bulk enable/disable.
// The classifier is a static lookup: it performs no logic beyond
// grouping.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModePump   Mode = "pump"
	ModeQuick  Mode = "quick"
	ModeRebuy  Mode = "rebuy"
	ModeGrind  Mode = "grind"
	ModeTop    Mode = "top"
	ModeExit   Mode = "exit"
)

// Modes lists every known mode tag in registry order.
func Modes() []Mode {
	return []Mode{ModeNormal, ModePump, ModeQuick, ModeRebuy, ModeGrind, ModeTop, ModeExit}
}

// ModeOverride expands a whole-mode toggle into per-condition enable
// flags for the given registry, e.g. disabling "pump" flips every pump
// condition in one atomic swap.
func ModeOverride(reg *Registry, mode Mode, enabled bool) map[int]bool {
	out := make(map[int]bool)
	for _, c := range reg.All() {
		if c.Mode == mode {
			out[c.ID] = enabled
		}
	}
	return out
}
