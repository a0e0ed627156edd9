package policy

import (
	"testing"

	"StratCore/internal/domain/models"
)

func boolPtr(b bool) *bool { return &b }

func TestParseBool(t *testing.T) {
	cases := []struct {
		in   string
		want Tristate
	}{
		{"true", True},
		{"TRUE", True},
		{" 1 ", True},
		{"yes", True},
		{"On", True},
		{"false", False},
		{"0", False},
		{"no", False},
		{"OFF", False},
		{"", Unset},
		{"maybe", Unset},
		{"2", Unset},
	}
	for _, c := range cases {
		if got := ParseBool(c.in); got != c.want {
			t.Errorf("ParseBool(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestResolveShortPolicyPrecedence(t *testing.T) {
	cases := []struct {
		name       string
		override   *bool
		env        string
		market     string
		allowed    bool
		provenance string
	}{
		{"override wins over everything", boolPtr(false), "true", MarketFutures, false, models.PolicyFromOverride},
		{"override enables on spot", boolPtr(true), "false", MarketSpot, true, models.PolicyFromOverride},
		{"env wins over market default", nil, "false", MarketFutures, false, models.PolicyFromEnv},
		{"env enables on spot", nil, "yes", MarketSpot, true, models.PolicyFromEnv},
		{"unparseable env falls through", nil, "banana", MarketFutures, true, models.PolicyFromDefault},
		{"futures default allows", nil, "", MarketFutures, true, models.PolicyFromDefault},
		{"margin default allows", nil, "", MarketMargin, true, models.PolicyFromDefault},
		{"spot default denies", nil, "", MarketSpot, false, models.PolicyFromDefault},
		{"unknown market denies", nil, "", "otc", false, models.PolicyFromDefault},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ResolveShortPolicy(c.override, c.env, c.market)
			if got.Allowed != c.allowed || got.Provenance != c.provenance {
				t.Fatalf("got %+v, want allowed=%v provenance=%s", got, c.allowed, c.provenance)
			}
		})
	}
}

func TestResolveShortPolicyFromEnv(t *testing.T) {
	t.Setenv(EnvAllowShorts, "off")
	got := ResolveShortPolicyFromEnv(nil, MarketFutures)
	if got.Allowed || got.Provenance != models.PolicyFromEnv {
		t.Fatalf("got %+v, want env denial", got)
	}
}
