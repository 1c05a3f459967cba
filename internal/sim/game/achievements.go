package game

import (
	"slices"

	"mercgacha.ai/internal/sim/catalogs"
	"mercgacha.ai/internal/sim/model"
)

type predicate func(r *Reducer, s model.GameState, now int64) bool

func pulledAtLeast(tier model.Rarity) predicate {
	return func(_ *Reducer, s model.GameState, _ int64) bool {
		if s.Stats.RarestPull.Rank() >= tier.Rank() {
			return true
		}
		for _, m := range s.Roster {
			if m.Rarity == tier {
				return true
			}
		}
		return false
	}
}

// predicates are keyed by achievement id. Catalog entries without a predicate can never
// be claimed.
var predicates = map[string]predicate{
	"first_pull":        firstPull,
	"first_sale":        firstSale,
	"first_rare":        pulledAtLeast(model.RarityRare),
	"first_epic":        pulledAtLeast(model.RarityEpic),
	"first_legendary":   pulledAtLeast(model.RarityLegendary),
	"first_quest":       firstQuest,
	"quest_master_25":   questsWithoutInjury,
	"quest_master_50":   questMaster,
	"risk_taker":        riskTaker,
	"perfectionist":     perfectionist,
	"collector_80":      collector,
	"favorites_30_days": longFavorites,
}

func firstPull(_ *Reducer, s model.GameState, _ int64) bool { return s.TotalPulls >= 1 }

func firstSale(_ *Reducer, s model.GameState, _ int64) bool { return s.Stats.HighestSellPrice > 0 }

func firstQuest(_ *Reducer, s model.GameState, _ int64) bool { return s.Stats.TotalQuestsSent >= 1 }

func questsWithoutInjury(_ *Reducer, s model.GameState, _ int64) bool {
	return s.TotalQuestsCompleted >= 25 && s.Stats.TotalInjuries == 0
}

func questMaster(_ *Reducer, s model.GameState, _ int64) bool { return s.TotalQuestsCompleted >= 50 }

// riskTaker counts lifetime quest hours in eight-hour units.
func riskTaker(_ *Reducer, s model.GameState, _ int64) bool { return s.TotalQuestTime/8 >= 10 }

func perfectionist(r *Reducer, s model.GameState, _ int64) bool {
	floor := r.tune.Safety.PerfectionistStatFloor
	for _, m := range s.Roster {
		if m.Stats.Efficiency >= floor && m.Stats.Resilience >= floor && m.Stats.Skill >= floor {
			return true
		}
	}
	return false
}

func collector(r *Reducer, s model.GameState, _ int64) bool {
	need := float64(r.cats.Traits.Count()) * r.tune.Safety.CollectorThresholdPct / 100
	return float64(len(s.Collection.TraitsDiscovered)) >= need
}

func longFavorites(r *Reducer, s model.GameState, now int64) bool {
	if len(s.Favorites) < r.tune.Safety.MaxFavorites {
		return false
	}
	period := int64(r.tune.Safety.FavoritePeriodDays) * 24 * msPerHour
	for _, m := range s.Roster {
		if m.IsFavorite && !m.IsStarter && now-m.Career.HireDate < period {
			return false
		}
	}
	return true
}

func (r *Reducer) achieved(id string, s model.GameState, now int64) bool {
	p, ok := predicates[id]
	return ok && p(r, s, now)
}

func (r *Reducer) claimAchievement(s model.GameState, id string, now int64) (model.GameState, bool) {
	def, ok := r.cats.Achievements.ByID[id]
	if !ok || slices.Contains(s.Stats.AchievementsUnlocked, id) || !r.achieved(id, s, now) {
		return s, false
	}
	n := s.Clone()
	n.Gold += def.Reward
	n.Stats.TotalGoldEarned += def.Reward
	n.Stats.AchievementsUnlocked = append(n.Stats.AchievementsUnlocked, id)
	return n, true
}

// PendingAchievements lists unclaimed achievements whose predicate holds, in catalog order.
func (r *Reducer) PendingAchievements(s model.GameState) []catalogs.AchievementDef {
	now := r.nowMillis()
	var out []catalogs.AchievementDef
	for _, d := range r.cats.Achievements.Defs {
		if !slices.Contains(s.Stats.AchievementsUnlocked, d.ID) && r.achieved(d.ID, s, now) {
			out = append(out, d)
		}
	}
	return out
}
