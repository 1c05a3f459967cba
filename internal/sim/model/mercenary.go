package model

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rarities lists the tiers from lowest to highest.
var Rarities = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}

// Rank returns the tier index (0 = common), or -1 for an unknown tier.
func (r Rarity) Rank() int {
	for i, x := range Rarities {
		if x == r {
			return i
		}
	}
	return -1
}

// High reports whether the tier resets the pity counter.
func (r Rarity) High() bool { return r == RarityEpic || r == RarityLegendary }

type Status string

const (
	StatusAvailable Status = "available"
	StatusQuesting  Status = "questing"
	StatusInjured   Status = "injured"
	StatusResting   Status = "resting"
	StatusDead      Status = "dead"
)

type Stat string

const (
	StatEfficiency Stat = "efficiency"
	StatResilience Stat = "resilience"
	StatSkill      Stat = "skill"
)

const (
	MinStat  = 1
	MaxStat  = 75
	MaxLevel = 30
)

type Stats struct {
	Efficiency int `json:"efficiency"`
	Resilience int `json:"resilience"`
	Skill      int `json:"skill"`
}

func (s Stats) Sum() int { return s.Efficiency + s.Resilience + s.Skill }

// Add shifts one stat by delta and clamps it into [MinStat, MaxStat].
func (s Stats) Add(stat Stat, delta int) Stats {
	switch stat {
	case StatEfficiency:
		s.Efficiency = ClampStat(s.Efficiency + delta)
	case StatResilience:
		s.Resilience = ClampStat(s.Resilience + delta)
	case StatSkill:
		s.Skill = ClampStat(s.Skill + delta)
	}
	return s
}

func ClampStat(v int) int {
	if v < MinStat {
		return MinStat
	}
	if v > MaxStat {
		return MaxStat
	}
	return v
}

type StatModifier struct {
	Stat  Stat `json:"stat"`
	Value int  `json:"value"`
}

// Trait is immutable once assigned to a mercenary. All percentage modifiers are optional;
// zero means "no effect".
type Trait struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	IsPositive   bool          `json:"isPositive"`
	StatModifier *StatModifier `json:"statModifier,omitempty"`

	ValueModifier      float64 `json:"valueModifier,omitempty"`
	QuestSpeedModifier float64 `json:"questSpeedModifier,omitempty"`
	InjuryModifier     float64 `json:"injuryModifier,omitempty"`
	DeathModifier      float64 `json:"deathModifier,omitempty"`
	GoldModifier       float64 `json:"goldModifier,omitempty"`
	XPModifier         float64 `json:"xpModifier,omitempty"`
}

type Career struct {
	HireDate             int64 `json:"hireDate"`
	QuestsCompleted      int   `json:"questsCompleted"`
	QuestsAttempted      int   `json:"questsAttempted"`
	QuestGoldEarned      int   `json:"questGoldEarned"`
	TimesInjured         int   `json:"timesInjured"`
	ConsecutiveSuccesses int   `json:"consecutiveSuccesses"`
	TotalQuestHours      int   `json:"totalQuestHours"`
	LastQuestTime        int64 `json:"lastQuestTime,omitempty"`
}

// Mercenary timestamps are unix milliseconds; 0 means unset.
type Mercenary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Rarity     Rarity  `json:"rarity"`
	Level      int     `json:"level"`
	Experience int     `json:"experience"`
	Stats      Stats   `json:"stats"`
	Traits     []Trait `json:"traits"`
	Morale     string  `json:"morale,omitempty"`

	IsLocked   bool `json:"isLocked"`
	IsStarter  bool `json:"isStarter"`
	IsFavorite bool `json:"isFavorite"`

	Status             Status `json:"status"`
	InjuryRecoveryTime int64  `json:"injuryRecoveryTime,omitempty"`
	RestUntilTime      int64  `json:"restUntilTime,omitempty"`

	Career        Career `json:"career"`
	HireCost      int    `json:"hireCost"`
	PullTimestamp int64  `json:"pullTimestamp"`
}

func (m *Mercenary) Alive() bool { return m.Status != StatusDead }

// Protected mercenaries never leave over unpaid wages and are skipped by liquidation.
func (m *Mercenary) Protected() bool {
	return m.IsStarter || m.IsLocked || m.IsFavorite || m.Status == StatusQuesting || m.Status == StatusDead
}

func (m Mercenary) Clone() Mercenary {
	out := m
	if m.Traits != nil {
		out.Traits = make([]Trait, len(m.Traits))
		for i, t := range m.Traits {
			out.Traits[i] = t.Clone()
		}
	}
	return out
}

func (t Trait) Clone() Trait {
	out := t
	if t.StatModifier != nil {
		sm := *t.StatModifier
		out.StatModifier = &sm
	}
	return out
}
