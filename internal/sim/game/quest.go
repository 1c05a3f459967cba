package game

import (
	"math"
	"slices"

	"mercgacha.ai/internal/sim/gen"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/traits"
)

// questTerms computes the frozen reward envelope and risk for a dispatch. The quest id is
// left empty.
func (r *Reducer) questTerms(m model.Mercenary, hours int, now int64) model.Quest {
	qt := r.tune.Quest
	fx := traits.Resolve(m.Traits)

	risk := r.tune.QuestRisk[m.Rarity]
	injury, death := risk.Injury, risk.Death
	switch {
	case m.Level >= qt.VeteranLevel:
		injury *= qt.VeteranRisk
		death *= qt.VeteranRisk
	case m.Level >= qt.SeasonedLevel:
		injury *= qt.SeasonedRisk
		death *= qt.SeasonedRisk
	}
	injury = traits.ApplyRisk(injury, fx.Injury)
	death = traits.ApplyRisk(death, fx.Death)

	base := hours * qt.GoldPerHour
	variance := hours * qt.VariancePerHour
	minGold := traits.ApplyGold(base-variance, fx.Gold)
	maxGold := traits.ApplyGold(base+variance, fx.Gold)

	if m.IsFavorite {
		injury *= qt.FavoriteInjury
		death = 0
		minGold = int(math.Floor(float64(minGold) * qt.FavoriteGoldBonus))
		maxGold = int(math.Floor(float64(maxGold) * qt.FavoriteGoldBonus))
	}

	effective := traits.ApplySpeed(float64(hours), fx.Speed, qt.MinHours)
	return model.Quest{
		MercenaryID:    m.ID,
		StartTime:      now,
		Duration:       hours,
		EffectiveHours: effective,
		EndTime:        now + hoursToMillis(effective),
		BaseGold:       base,
		MinGold:        minGold,
		MaxGold:        maxGold,
		InjuryChance:   injury,
		DeathChance:    death,
		IsFavorite:     m.IsFavorite,
		Status:         model.QuestActive,
	}
}

func (r *Reducer) canDispatch(s model.GameState, mercID string, hours int) (int, bool) {
	if hours < 1 || hours > r.tune.Quest.MaxDuration {
		return -1, false
	}
	i, ok := s.FindMercenary(mercID)
	if !ok || s.Roster[i].Status != model.StatusAvailable {
		return -1, false
	}
	if len(s.ActiveQuests) >= s.QuestSlots {
		return -1, false
	}
	return i, true
}

func (r *Reducer) dispatch(s model.GameState, mercID string, hours int, now int64) (model.GameState, bool) {
	i, ok := r.canDispatch(s, mercID, hours)
	if !ok {
		return s, false
	}
	q := r.questTerms(s.Roster[i], hours, now)
	q.ID = gen.ID("quest", r.rand)

	n := s.Clone()
	n.ActiveQuests = append(n.ActiveQuests, q)
	m := &n.Roster[i]
	m.Status = model.StatusQuesting
	m.Career.QuestsAttempted++
	n.Stats.TotalQuestsSent++
	return n, true
}

// resolve settles a due quest. A quest that is unknown or not yet due is a no-op.
func (r *Reducer) resolve(s model.GameState, questID string, now int64) (model.GameState, bool) {
	qi, ok := s.FindQuest(questID)
	if !ok || now < s.ActiveQuests[qi].EndTime {
		return s, false
	}
	q := s.ActiveQuests[qi]

	n := s.Clone()
	n.ActiveQuests = slices.Delete(n.ActiveQuests, qi, qi+1)

	mi, ok := n.FindMercenary(q.MercenaryID)
	if !ok {
		return n, true
	}

	out := gen.QuestOutcome(r.tune, q, r.rand)
	qt := r.tune.Quest
	m := &n.Roster[mi]
	fx := traits.Resolve(m.Traits)

	m.InjuryRecoveryTime = 0
	m.RestUntilTime = 0
	switch {
	case out.Died:
		m.Status = model.StatusDead
		m.IsFavorite = false
	case out.Injured:
		m.Status = model.StatusInjured
		m.InjuryRecoveryTime = now + hoursToMillis(qt.InjuryHours)
	default:
		m.Status = model.StatusResting
		m.RestUntilTime = now + hoursToMillis(qt.RestHours)
	}

	if !out.Died {
		m.Experience += traits.ApplyXP(q.Duration*qt.XPPerHour, fx.XP)
		m.Career.QuestsCompleted++
	}
	m.Career.QuestGoldEarned += out.Gold
	if out.Injured {
		m.Career.TimesInjured++
	}
	if out.Died || out.Injured {
		m.Career.ConsecutiveSuccesses = 0
	} else {
		m.Career.ConsecutiveSuccesses++
	}
	m.Career.TotalQuestHours += q.Duration
	m.Career.LastQuestTime = now

	// At most one level per resolution.
	if need := m.Level * 100; m.Experience >= need && m.Level < model.MaxLevel {
		m.Level++
		m.Experience -= need
		m.Stats = model.Stats{
			Efficiency: model.ClampStat(m.Stats.Efficiency + 1),
			Resilience: model.ClampStat(m.Stats.Resilience + 1),
			Skill:      model.ClampStat(m.Stats.Skill + 1),
		}
	}

	n.Gold += out.Gold
	n.Stats.TotalGoldEarned += out.Gold
	n.TotalQuestGold += out.Gold
	n.TotalQuestTime += q.Duration
	if !out.Died {
		n.TotalQuestsCompleted++
	}
	if out.Injured {
		n.Stats.TotalInjuries++
	}
	if out.Died {
		n.Stats.TotalDeaths++
	}
	n.SyncFavorites()
	return n, true
}
