package model

type Market string

const (
	MarketSlow    Market = "slow"
	MarketAverage Market = "average"
	MarketVeteran Market = "veteran"
	MarketHeroes  Market = "heroes"
)

var Markets = []Market{MarketSlow, MarketAverage, MarketVeteran, MarketHeroes}

type QuestStatus string

const QuestActive QuestStatus = "active"

// Quest terms (reward envelope and risk) are frozen at dispatch.
type Quest struct {
	ID             string      `json:"id"`
	MercenaryID    string      `json:"mercenaryId"`
	StartTime      int64       `json:"startTime"`
	Duration       int         `json:"duration"`
	EffectiveHours float64     `json:"effectiveHours,omitempty"`
	EndTime        int64       `json:"endTime"`
	BaseGold       int         `json:"baseGold"`
	MinGold        int         `json:"minGold"`
	MaxGold        int         `json:"maxGold"`
	InjuryChance   float64     `json:"injuryChance"`
	DeathChance    float64     `json:"deathChance"`
	IsFavorite     bool        `json:"isFavoriteQuest"`
	Status         QuestStatus `json:"status"`
}

type NewPlayerPhase struct {
	Active         bool `json:"active"`
	PullsRemaining int  `json:"pullsRemaining"`
}

type Collection struct {
	TraitsDiscovered []string         `json:"traitsDiscovered"`
	HighestStats     map[Rarity]Stats `json:"highestStats"`
}

type LifetimeStats struct {
	AchievementsUnlocked []string `json:"achievementsUnlocked"`
	TotalGoldEarned      int      `json:"totalGoldEarned"`
	TotalGoldSpent       int      `json:"totalGoldSpent"`
	TotalPulls           int      `json:"totalPulls"`
	TotalQuestsSent      int      `json:"totalQuestsSent"`
	TotalInjuries        int      `json:"totalInjuries"`
	TotalDeaths          int      `json:"totalDeaths"`
	HighestSellPrice     int      `json:"highestSellPrice"`
	RarestPull           Rarity   `json:"rarestPull"`
}

// GameState is the root aggregate. It is replaced wholesale by every reducer call; values
// handed out by the reducer never share slices or maps with their predecessor.
type GameState struct {
	Gold                int `json:"gold"`
	RosterSlots         int `json:"rosterSlots"`
	QuestSlots          int `json:"questSlots"`
	QuestSlotExpansions int `json:"questSlotExpansions"`

	Roster       []Mercenary `json:"roster"`
	ActiveQuests []Quest     `json:"activeQuests"`

	FatigueMultiplier float64 `json:"fatigueMultiplier"`
	FatigueAtLastPull float64 `json:"fatigueAtLastPull,omitempty"`
	LastPullTime      int64   `json:"lastPullTime,omitempty"`
	PityCounter       int     `json:"pityCounter"`
	TotalPulls        int     `json:"totalPulls"`
	DailyDiscountUsed bool    `json:"dailyDiscountUsed"`
	LastDailyReset    int64   `json:"lastDailyReset"`
	LastWagePayment   int64   `json:"lastWagePayment"`

	MarketState        Market `json:"marketState"`
	MarketStateEndTime int64  `json:"marketStateEndTime"`

	NewPlayerPhase NewPlayerPhase `json:"newPlayerPhase"`

	EmergencyLiquidationAvailable bool  `json:"emergencyLiquidationAvailable"`
	LastEmergencyUse              int64 `json:"lastEmergencyUse,omitempty"`
	BankruptcyResetUsed           bool  `json:"bankruptcyResetUsed"`

	TotalQuestsCompleted int `json:"totalQuestsCompleted"`
	TotalQuestGold       int `json:"totalQuestGold"`
	TotalQuestTime       int `json:"totalQuestTime"`

	Favorites  []string      `json:"favorites"`
	Collection Collection    `json:"collection"`
	Stats      LifetimeStats `json:"stats"`

	LastSaveTime  int64 `json:"lastSaveTime"`
	GameStartTime int64 `json:"gameStartTime"`
}

func (s *GameState) FindMercenary(id string) (int, bool) {
	for i := range s.Roster {
		if s.Roster[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *GameState) FindQuest(id string) (int, bool) {
	for i := range s.ActiveQuests {
		if s.ActiveQuests[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// NonStarterFavorites counts favorites that count against the favorite cap.
func (s *GameState) NonStarterFavorites() int {
	n := 0
	for _, id := range s.Favorites {
		if i, ok := s.FindMercenary(id); ok && !s.Roster[i].IsStarter {
			n++
		}
	}
	return n
}

// SyncFavorites rebuilds the favorites list from the roster flags, keeping the existing
// order for ids that survive and appending newly flagged ones in roster order.
func (s *GameState) SyncFavorites() {
	flagged := make(map[string]bool, len(s.Roster))
	for _, m := range s.Roster {
		if m.IsFavorite {
			flagged[m.ID] = true
		}
	}
	out := make([]string, 0, len(flagged))
	seen := make(map[string]bool, len(flagged))
	for _, id := range s.Favorites {
		if flagged[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	for _, m := range s.Roster {
		if m.IsFavorite && !seen[m.ID] {
			out = append(out, m.ID)
			seen[m.ID] = true
		}
	}
	s.Favorites = out
}

func (s GameState) Clone() GameState {
	out := s
	if s.Roster != nil {
		out.Roster = make([]Mercenary, len(s.Roster))
		for i, m := range s.Roster {
			out.Roster[i] = m.Clone()
		}
	}
	out.ActiveQuests = cloneSlice(s.ActiveQuests)
	out.Favorites = cloneSlice(s.Favorites)
	out.Collection.TraitsDiscovered = cloneSlice(s.Collection.TraitsDiscovered)
	if s.Collection.HighestStats != nil {
		out.Collection.HighestStats = make(map[Rarity]Stats, len(s.Collection.HighestStats))
		for k, v := range s.Collection.HighestStats {
			out.Collection.HighestStats[k] = v
		}
	}
	out.Stats.AchievementsUnlocked = cloneSlice(s.Stats.AchievementsUnlocked)
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
