package cachefront

import "testing"

func TestChainHooksFansOut(t *testing.T) {
	a, b := &recHooks{}, &recHooks{}
	h := ChainHooks(a, nil, b)

	h.SelfHeal("k", "corrupt")
	h.PopulateSkipped("k")
	h.LoadShared("k")

	for i, r := range []*recHooks{a, b} {
		if got := r.healReasons(); len(got) != 1 || got[0] != "corrupt" {
			t.Fatalf("hooks %d: heals = %v", i, got)
		}
		if r.skipped != 1 || r.shared.Load() != 1 {
			t.Fatalf("hooks %d: skipped=%d shared=%d", i, r.skipped, r.shared.Load())
		}
	}
}
