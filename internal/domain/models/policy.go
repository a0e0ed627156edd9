package models

// ShortPolicy is the process-wide decision on whether short entries are
// permitted. Resolved once at startup (and on explicit config reload),
// immutable afterwards. Provenance names the layer that decided and is
// kept for logging only.
type ShortPolicy struct {
	Allowed    bool   `json:"allowed"`
	Provenance string `json:"provenance"`
}

// Provenance values for ShortPolicy.
const (
	PolicyFromOverride = "override"
	PolicyFromEnv      = "environment"
	PolicyFromDefault  = "default"
)
