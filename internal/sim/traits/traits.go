// Package traits folds a mercenary's trait list into quest modifiers.
package traits

import (
	"math"

	"mercgacha.ai/internal/sim/model"
)

// Effects are summed percentage modifiers. Negative speed is faster; negative risk is safer.
type Effects struct {
	Speed  float64
	Injury float64
	Death  float64
	Gold   float64
	XP     float64
}

func Resolve(ts []model.Trait) Effects {
	var e Effects
	for _, t := range ts {
		e.Speed += t.QuestSpeedModifier
		e.Injury += t.InjuryModifier
		e.Death += t.DeathModifier
		e.Gold += t.GoldModifier
		e.XP += t.XPModifier
	}
	return e
}

func factor(mod float64) float64 { return 1 + mod/100 }

// ApplySpeed never returns less than minHours.
func ApplySpeed(hours, mod, minHours float64) float64 {
	return math.Max(minHours, hours*factor(mod))
}

func ApplyRisk(chance, mod float64) float64 {
	return math.Max(0, chance*factor(mod))
}

func ApplyGold(gold int, mod float64) int {
	return max(0, int(math.Floor(float64(gold)*factor(mod))))
}

func ApplyXP(xp int, mod float64) int {
	return max(0, int(math.Floor(float64(xp)*factor(mod))))
}
