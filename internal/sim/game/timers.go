package game

import (
	"math"

	"mercgacha.ai/internal/sim/gen"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/rng"
	"mercgacha.ai/internal/sim/value"
)

// tick runs the periodic update. Every step is a function of absolute timestamps, so one
// tick after a long gap lands where many short ticks would (up to the random draws).
func (r *Reducer) tick(s model.GameState, now int64) (model.GameState, bool) {
	n := s.Clone()

	if n.LastPullTime > 0 {
		anchor := n.FatigueAtLastPull
		if anchor < 1 {
			// Saves without an anchor decay from the stored multiplier.
			anchor = n.FatigueMultiplier
			n.FatigueAtLastPull = anchor
		}
		minutes := float64(now-n.LastPullTime) / float64(msPerMinute)
		n.FatigueMultiplier = value.DecayedFatigue(r.tune.Economy, anchor, minutes)
	}

	if !r.sameDay(now, n.LastDailyReset) {
		n.DailyDiscountUsed = false
		n.LastDailyReset = now
	}

	if now >= n.MarketStateEndTime {
		n.MarketState = gen.RollMarket(r.tune, r.rand)
		n.MarketStateEndTime = now + int64(r.tune.MarketHours)*msPerHour
	}

	for i := range n.Roster {
		m := &n.Roster[i]
		switch {
		case m.Status == model.StatusInjured && m.InjuryRecoveryTime > 0 && now >= m.InjuryRecoveryTime:
			m.Status = model.StatusAvailable
			m.InjuryRecoveryTime = 0
		case m.Status == model.StatusResting && m.RestUntilTime > 0 && now >= m.RestUntilTime:
			m.Status = model.StatusAvailable
			m.RestUntilTime = 0
		}
	}

	if !r.sameDay(now, n.LastWagePayment) {
		r.settleWages(&n)
		n.LastWagePayment = now
	}

	n.SyncFavorites()

	if equalTick(s, n) {
		return s, false
	}
	return n, true
}

// settleWages pays every living unit in full, or, when the total cannot be covered, takes
// all remaining gold and lets each unprotected unit roll to desert.
func (r *Reducer) settleWages(n *model.GameState) {
	total := 0
	for _, m := range n.Roster {
		if m.Alive() {
			total += value.DailyWage(r.tune, m)
		}
	}
	if n.Gold >= total {
		n.Gold -= total
		n.Stats.TotalGoldSpent += total
		return
	}

	n.Stats.TotalGoldSpent += n.Gold
	n.Gold = 0

	sf := r.tune.Safety
	kept := n.Roster[:0]
	for _, m := range n.Roster {
		if m.Protected() {
			kept = append(kept, m)
			continue
		}
		chance := r.rand.Float64()*(sf.DesertionMaxPct-sf.DesertionMinPct) + sf.DesertionMinPct
		if rng.Percent(r.rand) < chance {
			continue
		}
		kept = append(kept, m)
	}
	n.Roster = kept
}

// fatigueEpsilon is the smallest fatigue move a tick reports on its own. Decay is computed
// from absolute times, so smaller moves accumulate until a later tick commits them.
const fatigueEpsilon = 1e-3

// equalTick compares the fields a tick may touch.
func equalTick(a, b model.GameState) bool {
	if math.Abs(a.FatigueMultiplier-b.FatigueMultiplier) >= fatigueEpsilon ||
		a.FatigueAtLastPull != b.FatigueAtLastPull ||
		a.DailyDiscountUsed != b.DailyDiscountUsed ||
		a.LastDailyReset != b.LastDailyReset ||
		a.MarketState != b.MarketState ||
		a.MarketStateEndTime != b.MarketStateEndTime ||
		a.LastWagePayment != b.LastWagePayment ||
		a.Gold != b.Gold ||
		len(a.Roster) != len(b.Roster) ||
		len(a.Favorites) != len(b.Favorites) {
		return false
	}
	for i := range a.Roster {
		if a.Roster[i].ID != b.Roster[i].ID || a.Roster[i].Status != b.Roster[i].Status {
			return false
		}
	}
	for i := range a.Favorites {
		if a.Favorites[i] != b.Favorites[i] {
			return false
		}
	}
	return true
}
