// Package value prices mercenaries and the player's purchases. Every function is pure.
package value

import (
	"math"

	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/tuning"
)

// SellValue never drops below max(floor(hireCost*0.3), 20).
func SellValue(t tuning.Tuning, m model.Mercenary) int {
	base := 100 + float64(m.Level)*20 + float64(m.Stats.Sum())*3

	traitMult := 1.0
	for _, tr := range m.Traits {
		traitMult += tr.ValueModifier / 100
	}

	calc := int(math.Floor(base * traitMult * t.ValueMultiplier[m.Rarity] *
		careerMultiplier(m.Career) * injuryPenalty(m) * t.Economy.SellRatio))

	floor := int(math.Floor(float64(m.HireCost) * t.Economy.SellFloorRatio))
	return max(calc, floor, t.Economy.SellFloor)
}

func careerMultiplier(c model.Career) float64 {
	mult := 1.0
	if c.QuestsAttempted > 0 && float64(c.QuestsCompleted)/float64(c.QuestsAttempted) > 0.9 {
		mult += 0.1
	}
	if c.TimesInjured == 0 && c.QuestsCompleted > 0 {
		mult += 0.05
	}
	if c.TotalQuestHours > 0 && float64(c.QuestGoldEarned)/float64(c.TotalQuestHours) > 100 {
		mult += 0.08
	}
	return mult
}

func injuryPenalty(m model.Mercenary) float64 {
	switch {
	case m.Status == model.StatusInjured:
		return 0.9
	case m.Career.TimesInjured > 0:
		return 0.95
	}
	return 1
}

func DailyWage(t tuning.Tuning, m model.Mercenary) int {
	return int(math.Floor(float64(m.Stats.Sum()) * t.WageMultiplier[m.Rarity]))
}

// LiquidationValue is the batch price paid for mercs: their summed sell value with the
// liquidation premium, floored once.
func LiquidationValue(t tuning.Tuning, mercs []model.Mercenary) int {
	sum := 0
	for _, m := range mercs {
		sum += SellValue(t, m)
	}
	return int(math.Floor(float64(sum) * t.Safety.LiquidationPremium))
}

// PullCost is the discount price until the daily discount is used, then base × fatigue.
func PullCost(e tuning.Economy, discountUsed bool, fatigue float64) int {
	if !discountUsed {
		return e.PullDiscountCost
	}
	return int(math.Floor(float64(e.PullBaseCost) * fatigue))
}

// QuestSlotCost grows linearly with the number of expansions already bought.
func QuestSlotCost(e tuning.Economy, expansions int) int {
	return int(math.Floor(float64(e.QuestSlotBaseCost) * (1 + e.QuestSlotCostStep*float64(expansions))))
}

// NextFatigue is the multiplier right after a pull, given lifetime pulls before it.
func NextFatigue(e tuning.Economy, fatigue float64, pullsBefore int) float64 {
	step := e.FatigueStep
	if pullsBefore < e.FatigueEarlyPull {
		step = e.FatigueEarlyStep
	}
	return math.Min(e.FatigueMax, fatigue+step)
}

// DecayedFatigue decays the post-pull anchor continuously over minutes since that pull.
func DecayedFatigue(e tuning.Economy, anchor, minutes float64) float64 {
	if minutes < 0 {
		minutes = 0
	}
	return math.Max(1, 1+(anchor-1)*math.Pow(e.FatigueDecay, minutes))
}

// MinutesToBaseCost is how long until fatigue decays to within 1% of base.
func MinutesToBaseCost(e tuning.Economy, fatigue float64) int {
	if fatigue <= 1.01 {
		return 0
	}
	m := math.Log(0.01/(fatigue-1)) / math.Log(e.FatigueDecay)
	return max(0, int(math.Ceil(m)))
}
