package game

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"mercgacha.ai/internal/sim/catalogs"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/rng"
	"mercgacha.ai/internal/sim/tuning"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestReducer(t *testing.T, src rng.Source) (*Reducer, *FixedClock) {
	t.Helper()
	clk := NewFixedClock(t0)
	r, err := New(Config{
		Tuning:   tuning.Defaults(),
		Catalogs: catalogs.MustDefault(),
		Rand:     src,
		Clock:    clk,
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, clk
}

func plainMerc(id string, rarity model.Rarity, level int) model.Mercenary {
	return model.Mercenary{
		ID:     id,
		Name:   "Merc " + id,
		Rarity: rarity,
		Level:  level,
		Stats:  model.Stats{Efficiency: 5, Resilience: 5, Skill: 5},
		Status: model.StatusAvailable,
	}
}

// withMercs appends mercs to a fresh state.
func withMercs(r *Reducer, mercs ...model.Mercenary) model.GameState {
	s := r.NewState()
	s.Roster = append(s.Roster, mercs...)
	s.SyncFavorites()
	return s
}

func assertNoop(t *testing.T, r *Reducer, s model.GameState, a Action) {
	t.Helper()
	next, changed := r.Step(s, a)
	if changed {
		t.Fatalf("%s: expected no-op", a.Kind())
	}
	if diff := cmp.Diff(s, next, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("%s: state changed on no-op (-want +got):\n%s", a.Kind(), diff)
	}
}

func assertLedger(t *testing.T, s model.GameState) {
	t.Helper()
	if s.Gold < 0 {
		t.Fatalf("negative gold %d", s.Gold)
	}
	if s.Gold != s.Stats.TotalGoldEarned-s.Stats.TotalGoldSpent {
		t.Fatalf("gold %d != earned %d - spent %d", s.Gold, s.Stats.TotalGoldEarned, s.Stats.TotalGoldSpent)
	}
}

func mustFind(t *testing.T, s model.GameState, id string) model.Mercenary {
	t.Helper()
	i, ok := s.FindMercenary(id)
	if !ok {
		t.Fatalf("mercenary %s not in roster", id)
	}
	return s.Roster[i]
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
