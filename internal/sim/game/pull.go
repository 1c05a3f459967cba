package game

import (
	"slices"

	"mercgacha.ai/internal/sim/gen"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/value"
)

func (r *Reducer) recruit(s model.GameState, now int64) (model.GameState, bool) {
	cost := r.PullCost(s)
	if s.Gold < cost || len(s.Roster) >= s.RosterSlots {
		return s, false
	}

	m := gen.Mercenary(r.tune, r.cats, gen.RecruitInput{
		Roll: gen.RollInput{
			Market:    s.MarketState,
			Pity:      s.PityCounter,
			NewPlayer: s.NewPlayerPhase,
		},
		HireCost: cost,
		Now:      now,
	}, r.rand)

	n := s.Clone()
	n.Gold -= cost
	n.Roster = append(n.Roster, m)

	if n.NewPlayerPhase.Active {
		n.NewPlayerPhase.PullsRemaining--
		if n.NewPlayerPhase.PullsRemaining <= 0 || m.Rarity.High() {
			n.NewPlayerPhase.Active = false
		}
	}

	n.FatigueMultiplier = value.NextFatigue(r.tune.Economy, s.FatigueMultiplier, s.TotalPulls)
	n.FatigueAtLastPull = n.FatigueMultiplier
	n.LastPullTime = now

	if m.Rarity.High() {
		n.PityCounter = 0
	} else {
		n.PityCounter++
	}

	n.DailyDiscountUsed = true
	n.TotalPulls++
	n.EmergencyLiquidationAvailable = n.TotalPulls >= r.tune.Safety.LiquidationMinPulls

	recordDiscovery(&n.Collection, m)
	if m.Rarity.Rank() > n.Stats.RarestPull.Rank() {
		n.Stats.RarestPull = m.Rarity
	}
	n.Stats.TotalGoldSpent += cost
	n.Stats.TotalPulls++
	return n, true
}

func recordDiscovery(c *model.Collection, m model.Mercenary) {
	for _, t := range m.Traits {
		if !slices.Contains(c.TraitsDiscovered, t.Name) {
			c.TraitsDiscovered = append(c.TraitsDiscovered, t.Name)
		}
	}
	if c.HighestStats == nil {
		c.HighestStats = make(map[model.Rarity]model.Stats, len(model.Rarities))
	}
	best := c.HighestStats[m.Rarity]
	best.Efficiency = max(best.Efficiency, m.Stats.Efficiency)
	best.Resilience = max(best.Resilience, m.Stats.Resilience)
	best.Skill = max(best.Skill, m.Stats.Skill)
	c.HighestStats[m.Rarity] = best
}
