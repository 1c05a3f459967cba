package game

import (
	"mercgacha.ai/internal/sim/catalogs"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/tuning"
)

// NewState is a fresh game: starting gold, the starter unit (locked and favorite),
// the start market scheduled to rotate after MarketHours.
func NewState(t tuning.Tuning, c *catalogs.Catalogs, now int64) model.GameState {
	st := c.Starter
	starter := model.Mercenary{
		ID:            st.ID,
		Name:          st.Name,
		Rarity:        st.Rarity,
		Level:         st.Level,
		Stats:         st.Stats,
		Traits:        c.StarterTraits(),
		Morale:        st.Morale,
		IsLocked:      true,
		IsStarter:     true,
		IsFavorite:    true,
		Status:        model.StatusAvailable,
		Career:        model.Career{HireDate: now},
		PullTimestamp: now,
	}

	highest := make(map[model.Rarity]model.Stats, len(model.Rarities))
	for _, r := range model.Rarities {
		highest[r] = model.Stats{}
	}
	highest[st.Rarity] = st.Stats

	discovered := make([]string, 0, len(st.Traits))
	discovered = append(discovered, st.Traits...)

	return model.GameState{
		Gold:              t.Economy.StartGold,
		RosterSlots:       t.Economy.RosterSlots,
		QuestSlots:        t.Economy.QuestSlots,
		Roster:            []model.Mercenary{starter},
		ActiveQuests:      []model.Quest{},
		FatigueMultiplier: 1,
		FatigueAtLastPull: 1,
		LastDailyReset:    now,
		LastWagePayment:   now,

		MarketState:        t.StartMarket,
		MarketStateEndTime: now + int64(t.MarketHours)*msPerHour,

		NewPlayerPhase: model.NewPlayerPhase{Active: true, PullsRemaining: t.NewPlayer.Pulls},

		Favorites: []string{starter.ID},
		Collection: model.Collection{
			TraitsDiscovered: discovered,
			HighestStats:     highest,
		},
		Stats: model.LifetimeStats{
			AchievementsUnlocked: []string{},
			TotalGoldEarned:      t.Economy.StartGold,
			RarestPull:           model.RarityCommon,
		},
		LastSaveTime:  now,
		GameStartTime: now,
	}
}
