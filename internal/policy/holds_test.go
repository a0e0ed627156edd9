package policy

import (
	"os"
	"path/filepath"
	"testing"

	"StratCore/pkg/logger"
)

func holdsLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func writeHolds(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holds.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write holds: %v", err)
	}
	return path
}

func TestHoldTableSuppression(t *testing.T) {
	path := writeHolds(t, `{"trade_ids": {"7": 0.02}, "trade_pairs": {"btc/usdt": 0.005}}`)
	r := NewHoldResolver(path, holdsLogger(t))
	if err := r.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	tab := r.Current()
	if tab.Size() != 2 {
		t.Fatalf("size = %d, want 2", tab.Size())
	}

	// Trade-id threshold wins over the pair threshold: trade 7 is held
	// until +2% even though the pair entry would release it at +0.5%.
	if !tab.ShouldSuppressExit("7", "BTC/USDT", 0.01) {
		t.Fatalf("trade-id hold did not suppress below its threshold")
	}
	if tab.ShouldSuppressExit("7", "BTC/USDT", 0.02) {
		t.Fatalf("trade-id hold suppressed at its threshold")
	}
	// Other trades on the pair use the pair threshold, case-insensitively.
	if !tab.ShouldSuppressExit("99", "BTC/USDT", -0.01) {
		t.Fatalf("pair hold did not suppress below threshold")
	}
	if tab.ShouldSuppressExit("99", "BTC/USDT", 0.005) {
		t.Fatalf("pair hold suppressed at threshold")
	}
	if tab.ShouldSuppressExit("99", "ETH/USDT", -0.5) {
		t.Fatalf("unrelated pair suppressed")
	}
}

func TestReloadMissingFileClearsTable(t *testing.T) {
	path := writeHolds(t, `{"trade_ids": {"7": 0.01}}`)
	r := NewHoldResolver(path, holdsLogger(t))
	if err := r.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if r.Current().Size() != 1 {
		t.Fatalf("size = %d, want 1", r.Current().Size())
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := r.Reload(); err == nil {
		t.Fatalf("expected an error for the missing file")
	}
	if r.Current().Size() != 0 {
		t.Fatalf("stale table survived a failed reload")
	}
}

func TestReloadMalformedFileClearsTable(t *testing.T) {
	path := writeHolds(t, `{"trade_ids": {"7": 0.01}}`)
	r := NewHoldResolver(path, holdsLogger(t))
	if err := r.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"trade_ids": {`), 0o644); err != nil {
		t.Fatalf("corrupt file: %v", err)
	}
	if err := r.Reload(); err == nil {
		t.Fatalf("expected a parse error")
	}
	if r.Current().Size() != 0 {
		t.Fatalf("partial table became visible")
	}
}

func TestReloadIdempotent(t *testing.T) {
	path := writeHolds(t, `{"trade_ids": {"3": 0.01}, "trade_pairs": {"ETH/USDT": 0.002}}`)
	r := NewHoldResolver(path, holdsLogger(t))
	for i := 0; i < 2; i++ {
		if err := r.Reload(); err != nil {
			t.Fatalf("reload %d: %v", i, err)
		}
		tab := r.Current()
		if tab.Size() != 2 {
			t.Fatalf("reload %d: size = %d", i, tab.Size())
		}
		if !tab.ShouldSuppressExit("3", "X/Y", 0.005) {
			t.Fatalf("reload %d: decision changed", i)
		}
	}
}

func TestReloadSkipsInvalidEntries(t *testing.T) {
	path := writeHolds(t, `{"trade_ids": {"3": 0.01, "x": 0.02}, "trade_pairs": {"ETH/USDT": 0.002}}`)
	r := NewHoldResolver(path, holdsLogger(t))
	if err := r.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	tab := r.Current()
	if tab.Size() != 2 {
		t.Fatalf("size = %d, want 2", tab.Size())
	}
	if tab.ShouldSuppressExit("x", "A/B", -1) {
		t.Fatalf("non-integer trade id was kept")
	}
	if !tab.ShouldSuppressExit("3", "A/B", -1) {
		t.Fatalf("valid trade id was dropped")
	}
}

func TestEmptyPathNeverSuppresses(t *testing.T) {
	r := NewHoldResolver("", holdsLogger(t))
	if err := r.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if r.Current().ShouldSuppressExit("1", "BTC/USDT", -1) {
		t.Fatalf("empty resolver suppressed an exit")
	}
}
