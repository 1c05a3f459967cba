package game

import (
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/value"
)

// liquidatable is every unit an emergency liquidation would sell.
func liquidatable(s model.GameState) []model.Mercenary {
	var out []model.Mercenary
	for _, m := range s.Roster {
		if !m.Protected() {
			out = append(out, m)
		}
	}
	return out
}

func (r *Reducer) liquidationCoolingDown(s model.GameState, now int64) bool {
	window := int64(r.tune.Safety.LiquidationCooldownH) * msPerHour
	return s.LastEmergencyUse > 0 && now-s.LastEmergencyUse < window
}

// liquidate runs even when nothing is sellable; the use still starts the cooldown.
func (r *Reducer) liquidate(s model.GameState, now int64) (model.GameState, bool) {
	if !s.EmergencyLiquidationAvailable || r.liquidationCoolingDown(s, now) {
		return s, false
	}
	payout := value.LiquidationValue(r.tune, liquidatable(s))

	n := s.Clone()
	kept := n.Roster[:0]
	for _, m := range n.Roster {
		if m.Protected() {
			kept = append(kept, m)
		}
	}
	n.Roster = kept
	n.SyncFavorites()
	n.Gold += payout
	n.Stats.TotalGoldEarned += payout
	n.LastEmergencyUse = now
	return n, true
}

// bankruptcy fires once per game, only when gold and sellable value are both low and
// emergency liquidation is not an option right now.
func (r *Reducer) bankruptcy(s model.GameState, now int64) (model.GameState, bool) {
	sf := r.tune.Safety
	if s.BankruptcyResetUsed || s.Gold >= sf.BankruptcyGoldBelow {
		return s, false
	}
	if r.RosterValue(s) >= sf.BankruptcyValueBelow {
		return s, false
	}
	if s.EmergencyLiquidationAvailable && !r.liquidationCoolingDown(s, now) {
		return s, false
	}
	n := s.Clone()
	n.Gold += sf.BankruptcyGrant
	n.Stats.TotalGoldEarned += sf.BankruptcyGrant
	n.FatigueMultiplier = 1
	n.FatigueAtLastPull = 1
	n.BankruptcyResetUsed = true
	return n, true
}
