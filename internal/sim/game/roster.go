package game

import (
	"strings"
	"unicode/utf8"

	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/value"
)

func (r *Reducer) sell(s model.GameState, id string) (model.GameState, bool) {
	i, ok := s.FindMercenary(id)
	if !ok {
		return s, false
	}
	m := s.Roster[i]
	if m.IsLocked || m.IsStarter || m.Status == model.StatusQuesting || !m.Alive() {
		return s, false
	}
	price := value.SellValue(r.tune, m)

	n := s.Clone()
	n.Roster = append(n.Roster[:i], n.Roster[i+1:]...)
	n.SyncFavorites()
	n.Gold += price
	n.Stats.TotalGoldEarned += price
	n.Stats.HighestSellPrice = max(n.Stats.HighestSellPrice, price)
	return n, true
}

func (r *Reducer) toggleLock(s model.GameState, id string) (model.GameState, bool) {
	i, ok := s.FindMercenary(id)
	if !ok || s.Roster[i].IsStarter || !s.Roster[i].Alive() {
		return s, false
	}
	n := s.Clone()
	n.Roster[i].IsLocked = !n.Roster[i].IsLocked
	return n, true
}

// toggleFavorite enforces the non-starter cap. A questing unit cannot be favorited.
func (r *Reducer) toggleFavorite(s model.GameState, id string) (model.GameState, bool) {
	i, ok := s.FindMercenary(id)
	if !ok {
		return s, false
	}
	m := s.Roster[i]
	if m.IsStarter || !m.Alive() {
		return s, false
	}
	if !m.IsFavorite {
		if m.Status == model.StatusQuesting || s.NonStarterFavorites() >= r.tune.Safety.MaxFavorites {
			return s, false
		}
	}
	n := s.Clone()
	n.Roster[i].IsFavorite = !m.IsFavorite
	n.SyncFavorites()
	return n, true
}

func (r *Reducer) rename(s model.GameState, id, name string) (model.GameState, bool) {
	i, ok := s.FindMercenary(id)
	if !ok {
		return s, false
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > r.tune.Safety.RenameMaxRunes || name == s.Roster[i].Name {
		return s, false
	}
	n := s.Clone()
	n.Roster[i].Name = name
	return n, true
}

// expandRoster recomputes quest capacity as newRosterSlots/RosterPerQuestSlot + 1, except
// that it never lowers the current value: bought quest slots are kept and active quests
// always fit.
func (r *Reducer) expandRoster(s model.GameState) (model.GameState, bool) {
	e := r.tune.Economy
	if s.Gold < e.RosterExpansionCost {
		return s, false
	}
	n := s.Clone()
	n.Gold -= e.RosterExpansionCost
	n.Stats.TotalGoldSpent += e.RosterExpansionCost
	n.RosterSlots += e.RosterExpansionSlots
	n.QuestSlots = max(n.QuestSlots, n.RosterSlots/e.RosterPerQuestSlot+1)
	return n, true
}

func (r *Reducer) expandQuestSlots(s model.GameState) (model.GameState, bool) {
	cost := r.QuestSlotCost(s)
	if s.Gold < cost {
		return s, false
	}
	n := s.Clone()
	n.Gold -= cost
	n.Stats.TotalGoldSpent += cost
	n.QuestSlots++
	n.QuestSlotExpansions++
	return n, true
}
