package policy

import (
	"os"
	"strings"

	"StratCore/internal/domain/models"
)

// EnvAllowShorts overrides the market-mode default when the config
// file leaves the short flag unset.
const EnvAllowShorts = "STRATCORE_ALLOW_SHORTS"

// Market modes. Futures and margin venues support borrowing, so they
// default shorts to permitted; spot cannot short at all.
const (
	MarketSpot    = "spot"
	MarketFutures = "futures"
	MarketMargin  = "margin"
)

// ResolveShortPolicy resolves whether short trading is active.
// Precedence: explicit config override, then environment variable,
// then the market-mode default. The losing tiers are ignored even
// when they disagree with the winner.
func ResolveShortPolicy(override *bool, envValue, marketMode string) models.ShortPolicy {
	if override != nil {
		return models.ShortPolicy{Allowed: *override, Provenance: models.PolicyFromOverride}
	}
	switch ParseBool(envValue) {
	case True:
		return models.ShortPolicy{Allowed: true, Provenance: models.PolicyFromEnv}
	case False:
		return models.ShortPolicy{Allowed: false, Provenance: models.PolicyFromEnv}
	}
	allowed := false
	switch strings.ToLower(strings.TrimSpace(marketMode)) {
	case MarketFutures, MarketMargin:
		allowed = true
	}
	return models.ShortPolicy{Allowed: allowed, Provenance: models.PolicyFromDefault}
}

// ResolveShortPolicyFromEnv is the production entry point; tests call
// ResolveShortPolicy directly with an injected env value.
func ResolveShortPolicyFromEnv(override *bool, marketMode string) models.ShortPolicy {
	return ResolveShortPolicy(override, os.Getenv(EnvAllowShorts), marketMode)
}
