package game

import (
	"sort"
	"time"

	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/value"
)

func (r *Reducer) PullCost(s model.GameState) int {
	return value.PullCost(r.tune.Economy, s.DailyDiscountUsed, s.FatigueMultiplier)
}

func (r *Reducer) CanRecruit(s model.GameState) bool {
	return s.Gold >= r.PullCost(s) && len(s.Roster) < s.RosterSlots
}

func (r *Reducer) QuestSlotCost(s model.GameState) int {
	return value.QuestSlotCost(r.tune.Economy, s.QuestSlotExpansions)
}

// TimeUntilBaseCost is zero once fatigue is within 1% of the base multiplier.
func (r *Reducer) TimeUntilBaseCost(s model.GameState) time.Duration {
	return time.Duration(value.MinutesToBaseCost(r.tune.Economy, s.FatigueMultiplier)) * time.Minute
}

func (r *Reducer) MarketTimeRemaining(s model.GameState) time.Duration {
	left := s.MarketStateEndTime - r.nowMillis()
	if left <= 0 {
		return 0
	}
	return time.Duration(left) * time.Millisecond
}

// PreviewQuest returns the terms a dispatch would freeze right now, without an id.
func (r *Reducer) PreviewQuest(s model.GameState, mercID string, hours int) (model.Quest, bool) {
	i, ok := r.canDispatch(s, mercID, hours)
	if !ok {
		return model.Quest{}, false
	}
	return r.questTerms(s.Roster[i], hours, r.nowMillis()), true
}

func (r *Reducer) TotalWages(s model.GameState) int {
	total := 0
	for _, m := range s.Roster {
		if m.Alive() {
			total += value.DailyWage(r.tune, m)
		}
	}
	return total
}

// RosterValue is the summed sell value of every liquidatable unit.
func (r *Reducer) RosterValue(s model.GameState) int {
	sum := 0
	for _, m := range liquidatable(s) {
		sum += value.SellValue(r.tune, m)
	}
	return sum
}

// LiquidationValue is what an emergency liquidation would pay right now.
func (r *Reducer) LiquidationValue(s model.GameState) int {
	return value.LiquidationValue(r.tune, liquidatable(s))
}

func (r *Reducer) SellValue(m model.Mercenary) int { return value.SellValue(r.tune, m) }
func (r *Reducer) DailyWage(m model.Mercenary) int { return value.DailyWage(r.tune, m) }

// DueQuests lists ids of active quests whose end time has passed, earliest first.
func DueQuests(s model.GameState, now int64) []string {
	var due []model.Quest
	for _, q := range s.ActiveQuests {
		if now >= q.EndTime {
			due = append(due, q)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].EndTime != due[j].EndTime {
			return due[i].EndTime < due[j].EndTime
		}
		return due[i].ID < due[j].ID
	})
	ids := make([]string, len(due))
	for i, q := range due {
		ids[i] = q.ID
	}
	return ids
}
