package policy

import "strings"

// Tristate distinguishes an explicit boolean from an absent one.
type Tristate int

const (
	Unset Tristate = iota
	True
	False
)

// ParseBool reads the permissive boolean vocabulary used in
// environment variables. Anything unrecognized, including the empty
// string, parses as Unset rather than an error so a typo degrades to
// the next precedence tier instead of flipping the policy.
func ParseBool(s string) Tristate {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return True
	case "false", "0", "no", "off":
		return False
	default:
		return Unset
	}
}
