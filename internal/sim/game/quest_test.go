package game

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mercgacha.ai/internal/sim/catalogs"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/rng"
	"mercgacha.ai/internal/sim/tuning"
)

func TestDispatchQuestMath(t *testing.T) {
	r, _ := newTestReducer(t, rng.NewScripted())
	s := withMercs(r, plainMerc("m", model.RarityCommon, 5))
	s = r.Apply(s, DispatchQuest{MercenaryID: "m", Hours: 6})

	if len(s.ActiveQuests) != 1 {
		t.Fatalf("active quests: %d", len(s.ActiveQuests))
	}
	q := s.ActiveQuests[0]
	if q.InjuryChance != 10 || q.DeathChance != 2 {
		t.Fatalf("risk: injury=%v death=%v", q.InjuryChance, q.DeathChance)
	}
	if q.BaseGold != 150 || q.MinGold != 60 || q.MaxGold != 240 {
		t.Fatalf("reward: base=%d min=%d max=%d", q.BaseGold, q.MinGold, q.MaxGold)
	}
	if q.StartTime != t0.UnixMilli() || q.EndTime != t0.Add(6*time.Hour).UnixMilli() || q.Duration != 6 {
		t.Fatalf("timing: %+v", q)
	}
	if q.ID == "" || q.MercenaryID != "m" || q.Status != model.QuestActive || q.IsFavorite {
		t.Fatalf("identity: %+v", q)
	}
	m := mustFind(t, s, "m")
	if m.Status != model.StatusQuesting || m.Career.QuestsAttempted != 1 || s.Stats.TotalQuestsSent != 1 {
		t.Fatalf("merc after dispatch: %+v", m)
	}
}

func TestDispatchRiskAdjustments(t *testing.T) {
	r, _ := newTestReducer(t, rng.NewScripted())
	cases := []struct {
		name           string
		level          int
		favorite       bool
		injury, death  float64
		minGold, maxGd int
	}{
		{"seasoned", 11, false, 8, 1.6, 60, 240},
		{"veteran", 21, false, 6, 1.2, 60, 240},
		{"favorite", 5, true, 8, 0, 66, 264},
		{"favorite veteran", 25, true, 4.8, 0, 66, 264},
	}
	for _, tc := range cases {
		m := plainMerc("m", model.RarityCommon, tc.level)
		m.IsFavorite = tc.favorite
		q, ok := r.PreviewQuest(withMercs(r, m), "m", 6)
		if !ok {
			t.Fatalf("%s: preview refused", tc.name)
		}
		if !approx(q.InjuryChance, tc.injury) || !approx(q.DeathChance, tc.death) {
			t.Fatalf("%s: injury=%v death=%v", tc.name, q.InjuryChance, q.DeathChance)
		}
		if q.MinGold != tc.minGold || q.MaxGold != tc.maxGd {
			t.Fatalf("%s: min=%d max=%d", tc.name, q.MinGold, q.MaxGold)
		}
	}
}

func TestDispatchAppliesTraitModifiers(t *testing.T) {
	r, _ := newTestReducer(t, rng.NewScripted())
	m := plainMerc("m", model.RarityCommon, 5)
	m.Traits = []model.Trait{
		{Name: "Swift", IsPositive: true, QuestSpeedModifier: -15},
		{Name: "Lucky", IsPositive: true, GoldModifier: 10, DeathModifier: -20},
		{Name: "Fragile", InjuryModifier: 30},
	}
	q, ok := r.PreviewQuest(withMercs(r, m), "m", 4)
	if !ok {
		t.Fatalf("preview refused")
	}
	if !approx(q.EffectiveHours, 3.4) {
		t.Fatalf("effective hours: %v", q.EffectiveHours)
	}
	if q.EndTime != q.StartTime+int64(q.EffectiveHours*float64(time.Hour/time.Millisecond)) {
		t.Fatalf("end time uses effective hours: %d", q.EndTime-q.StartTime)
	}
	if !approx(q.InjuryChance, 13) || !approx(q.DeathChance, 1.6) {
		t.Fatalf("risk: %v %v", q.InjuryChance, q.DeathChance)
	}
	// base 100, variance 60 -> 40..160, then +10%
	if q.MinGold != 44 || q.MaxGold != 176 || q.Duration != 4 {
		t.Fatalf("reward: %+v", q)
	}
}

func TestDefaultTraitsKeepQuestTerms(t *testing.T) {
	r, _ := newTestReducer(t, rng.NewScripted())
	cats := r.Catalogs()
	for _, pos := range cats.Traits.Positive {
		for _, neg := range cats.Traits.Negative {
			m := plainMerc("m", model.RarityCommon, 5)
			m.Traits = []model.Trait{pos, neg}
			q, ok := r.PreviewQuest(withMercs(r, m), "m", 6)
			if !ok {
				t.Fatalf("%s+%s: preview refused", pos.Name, neg.Name)
			}
			if q.InjuryChance != 10 || q.DeathChance != 2 || q.MinGold != 60 || q.MaxGold != 240 || q.EffectiveHours != 6 {
				t.Fatalf("%s+%s: injury=%v death=%v gold=%d..%d hours=%v",
					pos.Name, neg.Name, q.InjuryChance, q.DeathChance, q.MinGold, q.MaxGold, q.EffectiveHours)
			}
		}
	}

	q, ok := r.PreviewQuest(r.NewState(), "starter", 6)
	if !ok {
		t.Fatalf("starter preview refused")
	}
	if !approx(q.InjuryChance, 6.4) || q.DeathChance != 0 || q.MinGold != 66 || q.MaxGold != 264 {
		t.Fatalf("starter terms: %+v", q)
	}
}

func TestMinHoursComesFromTuning(t *testing.T) {
	tune := tuning.Defaults()
	tune.Quest.MinHours = 2
	r, err := New(Config{
		Tuning:   tune,
		Catalogs: catalogs.MustDefault(),
		Rand:     rng.NewScripted(),
		Clock:    NewFixedClock(t0),
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m := plainMerc("m", model.RarityCommon, 5)
	m.Traits = []model.Trait{{Name: "Blink", IsPositive: true, QuestSpeedModifier: -90}}
	q, ok := r.PreviewQuest(withMercs(r, m), "m", 4)
	if !ok {
		t.Fatalf("preview refused")
	}
	if q.EffectiveHours != 2 || q.EndTime != q.StartTime+2*int64(time.Hour/time.Millisecond) {
		t.Fatalf("effective hours %v, end offset %d", q.EffectiveHours, q.EndTime-q.StartTime)
	}
}

func TestDispatchNoops(t *testing.T) {
	r, _ := newTestReducer(t, rng.NewScripted())
	injured := plainMerc("hurt", model.RarityCommon, 1)
	injured.Status = model.StatusInjured
	dead := plainMerc("dead", model.RarityCommon, 1)
	dead.Status = model.StatusDead
	s := withMercs(r, plainMerc("m", model.RarityCommon, 1), injured, dead)

	assertNoop(t, r, s, DispatchQuest{MercenaryID: "m", Hours: 0})
	assertNoop(t, r, s, DispatchQuest{MercenaryID: "m", Hours: 25})
	assertNoop(t, r, s, DispatchQuest{MercenaryID: "hurt", Hours: 1})
	assertNoop(t, r, s, DispatchQuest{MercenaryID: "dead", Hours: 1})
	assertNoop(t, r, s, DispatchQuest{MercenaryID: "missing", Hours: 1})

	s = r.Apply(s, DispatchQuest{MercenaryID: "m", Hours: 1})
	assertNoop(t, r, s, DispatchQuest{MercenaryID: "m", Hours: 1})

	s.QuestSlots = 1
	assertNoop(t, r, s, DispatchQuest{MercenaryID: "starter", Hours: 1})
}

func dispatched(t *testing.T, r *Reducer, m model.Mercenary, hours int) (model.GameState, string) {
	t.Helper()
	s := r.Apply(withMercs(r, m), DispatchQuest{MercenaryID: m.ID, Hours: hours})
	if len(s.ActiveQuests) != 1 {
		t.Fatalf("dispatch failed")
	}
	return s, s.ActiveQuests[0].ID
}

func TestResolveSuccess(t *testing.T) {
	src := rng.NewScripted()
	r, clk := newTestReducer(t, src)
	s, qid := dispatched(t, r, plainMerc("m", model.RarityCommon, 5), 6)

	clk.Advance(6 * time.Hour)
	src.Push(0.5, 0.5, 0.0) // injury roll, death roll, gold draw
	s = r.Apply(s, ResolveQuest{QuestID: qid})

	m := mustFind(t, s, "m")
	if m.Status != model.StatusResting || m.RestUntilTime != clk.Now().Add(time.Hour).UnixMilli() {
		t.Fatalf("status: %s rest=%d", m.Status, m.RestUntilTime)
	}
	if m.Experience != 18 || m.Career.QuestsCompleted != 1 || m.Career.ConsecutiveSuccesses != 1 {
		t.Fatalf("career: xp=%d %+v", m.Experience, m.Career)
	}
	if m.Career.QuestGoldEarned != 60 || m.Career.TotalQuestHours != 6 || m.Career.LastQuestTime != clk.Now().UnixMilli() {
		t.Fatalf("ledger: %+v", m.Career)
	}
	if s.Gold != 660 || s.TotalQuestsCompleted != 1 || s.TotalQuestGold != 60 || s.TotalQuestTime != 6 {
		t.Fatalf("aggregates: gold=%d done=%d qgold=%d qtime=%d", s.Gold, s.TotalQuestsCompleted, s.TotalQuestGold, s.TotalQuestTime)
	}
	if len(s.ActiveQuests) != 0 {
		t.Fatalf("quest not removed")
	}
	assertLedger(t, s)

	// Resolving the same id again is a no-op.
	assertNoop(t, r, s, ResolveQuest{QuestID: qid})
}

func TestResolveInjury(t *testing.T) {
	src := rng.NewScripted()
	r, clk := newTestReducer(t, src)
	m := plainMerc("m", model.RarityCommon, 5)
	m.Career.ConsecutiveSuccesses = 4
	s, qid := dispatched(t, r, m, 6)

	clk.Advance(7 * time.Hour)
	src.Push(0.05, 0.5)
	s = r.Apply(s, ResolveQuest{QuestID: qid})

	got := mustFind(t, s, "m")
	if got.Status != model.StatusInjured || got.InjuryRecoveryTime != clk.Now().Add(2*time.Hour).UnixMilli() || got.RestUntilTime != 0 {
		t.Fatalf("injured: %+v", got)
	}
	if got.Career.TimesInjured != 1 || got.Career.ConsecutiveSuccesses != 0 || got.Career.QuestsCompleted != 1 {
		t.Fatalf("career: %+v", got.Career)
	}
	if s.Gold != 630 || s.Stats.TotalInjuries != 1 || s.TotalQuestsCompleted != 1 {
		t.Fatalf("gold=%d injuries=%d", s.Gold, s.Stats.TotalInjuries)
	}
	assertLedger(t, s)
}

func TestResolveDeath(t *testing.T) {
	src := rng.NewScripted()
	r, clk := newTestReducer(t, src)
	s, qid := dispatched(t, r, plainMerc("m", model.RarityCommon, 5), 6)

	clk.Advance(6 * time.Hour)
	src.Push(0.5, 0.01)
	s = r.Apply(s, ResolveQuest{QuestID: qid})

	got := mustFind(t, s, "m")
	if got.Status != model.StatusDead || got.Experience != 0 || got.Career.QuestsCompleted != 0 {
		t.Fatalf("dead: %+v", got)
	}
	if s.Gold != 630 || s.Stats.TotalDeaths != 1 || s.TotalQuestsCompleted != 0 || s.TotalQuestTime != 6 {
		t.Fatalf("aggregates: gold=%d deaths=%d done=%d", s.Gold, s.Stats.TotalDeaths, s.TotalQuestsCompleted)
	}

	// Dead units stay in the roster but are out of play.
	assertNoop(t, r, s, DispatchQuest{MercenaryID: "m", Hours: 1})
	assertNoop(t, r, s, Sell{ID: "m"})
	assertLedger(t, s)
}

func TestResolveBeforeEndIsNoop(t *testing.T) {
	r, clk := newTestReducer(t, rng.NewScripted())
	s, qid := dispatched(t, r, plainMerc("m", model.RarityCommon, 5), 6)
	clk.Advance(6*time.Hour - time.Millisecond)
	assertNoop(t, r, s, ResolveQuest{QuestID: qid})
}

func TestResolveMissingMercenaryDropsQuest(t *testing.T) {
	r, clk := newTestReducer(t, rng.NewScripted())
	s, qid := dispatched(t, r, plainMerc("m", model.RarityCommon, 5), 1)
	i, _ := s.FindMercenary("m")
	s.Roster = append(s.Roster[:i], s.Roster[i+1:]...)
	clk.Advance(time.Hour)
	next := r.Apply(s, ResolveQuest{QuestID: qid})
	if len(next.ActiveQuests) != 0 || next.Gold != s.Gold {
		t.Fatalf("orphan quest: %+v", next.ActiveQuests)
	}
}

func TestFavoriteNeverDies(t *testing.T) {
	src := rng.NewScripted()
	r, clk := newTestReducer(t, src)
	m := plainMerc("m", model.RarityCommon, 1)
	m.IsFavorite = true
	s, qid := dispatched(t, r, m, 6)
	if s.ActiveQuests[0].DeathChance != 0 {
		t.Fatalf("favorite death chance %v", s.ActiveQuests[0].DeathChance)
	}
	clk.Advance(6 * time.Hour)
	src.Push(0.99, 0.0, 0.0) // the lowest possible death roll
	s = r.Apply(s, ResolveQuest{QuestID: qid})
	if got := mustFind(t, s, "m"); got.Status == model.StatusDead {
		t.Fatalf("favorite died")
	}
}

func TestLevelUpAtMostOncePerResolution(t *testing.T) {
	src := rng.NewScripted()
	r, clk := newTestReducer(t, src)
	m := plainMerc("m", model.RarityCommon, 1)
	m.Experience = 290
	s, qid := dispatched(t, r, m, 24)

	clk.Advance(24 * time.Hour)
	src.Push(0.99, 0.99, 0.5)
	s = r.Apply(s, ResolveQuest{QuestID: qid})

	got := mustFind(t, s, "m")
	// 290 + 72 = 362: one level (-100) leaves 262, enough for another, which is not granted.
	if got.Level != 2 || got.Experience != 262 {
		t.Fatalf("level=%d xp=%d", got.Level, got.Experience)
	}
	if diff := cmp.Diff(model.Stats{Efficiency: 6, Resilience: 6, Skill: 6}, got.Stats); diff != "" {
		t.Fatalf("stats (-want +got):\n%s", diff)
	}
}

func TestLevelCapAndStatCap(t *testing.T) {
	src := rng.NewScripted()
	r, clk := newTestReducer(t, src)
	m := plainMerc("m", model.RarityLegendary, 29)
	m.Stats = model.Stats{Efficiency: 75, Resilience: 74, Skill: 70}
	m.Experience = 2899
	s, qid := dispatched(t, r, m, 1)
	clk.Advance(time.Hour)
	src.Push(0.99, 0.99, 0.5)
	s = r.Apply(s, ResolveQuest{QuestID: qid})
	got := mustFind(t, s, "m")
	if got.Level != 30 || got.Stats.Efficiency != 75 || got.Stats.Resilience != 75 || got.Stats.Skill != 71 {
		t.Fatalf("capped level-up: %+v", got)
	}

	// At level 30 experience accumulates without levelling.
	got.Status = model.StatusAvailable
	got.RestUntilTime = 0
	s, qid = dispatched(t, r, got, 24)
	clk.Advance(24 * time.Hour)
	src.Push(0.99, 0.99, 0.5)
	s = r.Apply(s, ResolveQuest{QuestID: qid})
	if again := mustFind(t, s, "m"); again.Level != 30 {
		t.Fatalf("level past cap: %d", again.Level)
	}
}

func TestQuestSlotsBoundActiveQuests(t *testing.T) {
	r, _ := newTestReducer(t, rng.New(21))
	var mercs []model.Mercenary
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		mercs = append(mercs, plainMerc(id, model.RarityCommon, 1))
	}
	s := withMercs(r, mercs...)
	for _, m := range mercs {
		s = r.Apply(s, DispatchQuest{MercenaryID: m.ID, Hours: 2})
	}
	if len(s.ActiveQuests) != s.QuestSlots {
		t.Fatalf("active=%d slots=%d", len(s.ActiveQuests), s.QuestSlots)
	}
	seen := map[string]bool{}
	for _, q := range s.ActiveQuests {
		if seen[q.MercenaryID] {
			t.Fatalf("mercenary %s on two quests", q.MercenaryID)
		}
		seen[q.MercenaryID] = true
	}
}

func TestDueQuestsOrder(t *testing.T) {
	s := model.GameState{ActiveQuests: []model.Quest{
		{ID: "late", EndTime: 300},
		{ID: "b", EndTime: 100},
		{ID: "future", EndTime: 1000},
		{ID: "a", EndTime: 100},
	}}
	if diff := cmp.Diff([]string{"a", "b", "late"}, DueQuests(s, 500)); diff != "" {
		t.Fatalf("due (-want +got):\n%s", diff)
	}
	if got := DueQuests(s, 50); len(got) != 0 {
		t.Fatalf("nothing due yet: %v", got)
	}
}
