package tuning

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mercgacha.ai/internal/sim/model"
)

var ErrInvalid = errors.New("invalid tuning")

type Tuning struct {
	// Drop-rate tables per market regime, in percent.
	Markets        map[model.Market]RarityWeights `yaml:"markets"`
	MarketRotation map[model.Market]float64       `yaml:"market_rotation"`
	MarketHours    int                            `yaml:"market_hours"`
	StartMarket    model.Market                   `yaml:"start_market"`

	PityThreshold int            `yaml:"pity_threshold"`
	NewPlayer     NewPlayerRules `yaml:"new_player"`

	StatRanges  map[model.Rarity][2]int     `yaml:"stat_ranges"`
	TraitCounts map[model.Rarity]TraitCount `yaml:"trait_counts"`

	ValueMultiplier map[model.Rarity]float64  `yaml:"value_multiplier"`
	WageMultiplier  map[model.Rarity]float64  `yaml:"wage_multiplier"`
	QuestRisk       map[model.Rarity]RiskPair `yaml:"quest_risk"`

	Economy Economy `yaml:"economy"`
	Quest   Quest   `yaml:"quest"`
	Safety  Safety  `yaml:"safety"`
}

type RarityWeights struct {
	Common    float64 `yaml:"common"`
	Uncommon  float64 `yaml:"uncommon"`
	Rare      float64 `yaml:"rare"`
	Epic      float64 `yaml:"epic"`
	Legendary float64 `yaml:"legendary"`
}

func (w RarityWeights) Total() float64 {
	return w.Common + w.Uncommon + w.Rare + w.Epic + w.Legendary
}

type NewPlayerRules struct {
	Pulls int `yaml:"pulls"`
	// Table used after the first protected pull. Common weight is ignored.
	Followup RarityWeights `yaml:"followup"`
}

type TraitCount struct {
	Total    int `yaml:"total"`
	Positive int `yaml:"positive"`
}

type RiskPair struct {
	Injury float64 `yaml:"injury"`
	Death  float64 `yaml:"death"`
}

type Economy struct {
	StartGold   int `yaml:"start_gold"`
	RosterSlots int `yaml:"roster_slots"`
	QuestSlots  int `yaml:"quest_slots"`

	PullBaseCost     int     `yaml:"pull_base_cost"`
	PullDiscountCost int     `yaml:"pull_discount_cost"`
	FatigueEarlyStep float64 `yaml:"fatigue_early_step"`
	FatigueStep      float64 `yaml:"fatigue_step"`
	FatigueEarlyPull int     `yaml:"fatigue_early_pulls"`
	FatigueMax       float64 `yaml:"fatigue_max"`
	FatigueDecay     float64 `yaml:"fatigue_decay_per_minute"`

	RosterExpansionCost  int     `yaml:"roster_expansion_cost"`
	RosterExpansionSlots int     `yaml:"roster_expansion_slots"`
	RosterPerQuestSlot   int     `yaml:"roster_per_quest_slot"`
	QuestSlotBaseCost    int     `yaml:"quest_slot_base_cost"`
	QuestSlotCostStep    float64 `yaml:"quest_slot_cost_step"`
	SellRatio            float64 `yaml:"sell_ratio"`
	SellFloorRatio       float64 `yaml:"sell_floor_ratio"`
	SellFloor            int     `yaml:"sell_floor"`
}

type Quest struct {
	GoldPerHour       int     `yaml:"gold_per_hour"`
	VariancePerHour   int     `yaml:"variance_per_hour"`
	FavoriteGoldBonus float64 `yaml:"favorite_gold_bonus"`
	FavoriteInjury    float64 `yaml:"favorite_injury"`
	XPPerHour         int     `yaml:"xp_per_hour"`
	FailurePayout     float64 `yaml:"failure_payout"`
	InjuryHours       float64 `yaml:"injury_hours"`
	RestHours         float64 `yaml:"rest_hours"`
	MinHours          float64 `yaml:"min_hours"`
	MaxDuration       int     `yaml:"max_duration"`
	VeteranLevel      int     `yaml:"veteran_level"`
	VeteranRisk       float64 `yaml:"veteran_risk"`
	SeasonedLevel     int     `yaml:"seasoned_level"`
	SeasonedRisk      float64 `yaml:"seasoned_risk"`
}

type Safety struct {
	MaxFavorites           int     `yaml:"max_favorites"`
	LiquidationMinPulls    int     `yaml:"liquidation_min_pulls"`
	LiquidationCooldownH   int     `yaml:"liquidation_cooldown_hours"`
	LiquidationPremium     float64 `yaml:"liquidation_premium"`
	BankruptcyGrant        int     `yaml:"bankruptcy_grant"`
	BankruptcyGoldBelow    int     `yaml:"bankruptcy_gold_below"`
	BankruptcyValueBelow   int     `yaml:"bankruptcy_value_below"`
	DesertionMinPct        float64 `yaml:"desertion_min_pct"`
	DesertionMaxPct        float64 `yaml:"desertion_max_pct"`
	RenameMaxRunes         int     `yaml:"rename_max_runes"`
	FavoritePeriodDays     int     `yaml:"favorite_period_days"`
	CollectorThresholdPct  float64 `yaml:"collector_threshold_pct"`
	PerfectionistStatFloor int     `yaml:"perfectionist_stat_floor"`
}

func Defaults() Tuning {
	return Tuning{
		Markets: map[model.Market]RarityWeights{
			model.MarketSlow:    {Common: 70, Uncommon: 22, Rare: 7, Epic: 0.8, Legendary: 0.2},
			model.MarketAverage: {Common: 50, Uncommon: 30, Rare: 15, Epic: 4, Legendary: 1},
			model.MarketVeteran: {Common: 35, Uncommon: 35, Rare: 20, Epic: 7, Legendary: 3},
			model.MarketHeroes:  {Common: 25, Uncommon: 30, Rare: 25, Epic: 15, Legendary: 5},
		},
		MarketRotation: map[model.Market]float64{
			model.MarketSlow:    30,
			model.MarketAverage: 40,
			model.MarketVeteran: 20,
			model.MarketHeroes:  10,
		},
		MarketHours:   8,
		StartMarket:   model.MarketAverage,
		PityThreshold: 40,
		NewPlayer: NewPlayerRules{
			Pulls:    3,
			Followup: RarityWeights{Uncommon: 70, Rare: 25, Epic: 5, Legendary: 0},
		},
		StatRanges: map[model.Rarity][2]int{
			model.RarityCommon:    {2, 8},
			model.RarityUncommon:  {4, 12},
			model.RarityRare:      {8, 18},
			model.RarityEpic:      {15, 30},
			model.RarityLegendary: {25, 45},
		},
		TraitCounts: map[model.Rarity]TraitCount{
			model.RarityCommon:    {Total: 2, Positive: 1},
			model.RarityUncommon:  {Total: 3, Positive: 2},
			model.RarityRare:      {Total: 4, Positive: 3},
			model.RarityEpic:      {Total: 5, Positive: 4},
			model.RarityLegendary: {Total: 5, Positive: 5},
		},
		ValueMultiplier: map[model.Rarity]float64{
			model.RarityCommon:    1.0,
			model.RarityUncommon:  1.3,
			model.RarityRare:      1.8,
			model.RarityEpic:      2.5,
			model.RarityLegendary: 4.0,
		},
		WageMultiplier: map[model.Rarity]float64{
			model.RarityCommon:    0.5,
			model.RarityUncommon:  0.7,
			model.RarityRare:      1.0,
			model.RarityEpic:      1.3,
			model.RarityLegendary: 1.5,
		},
		QuestRisk: map[model.Rarity]RiskPair{
			model.RarityCommon:    {Injury: 10, Death: 2},
			model.RarityUncommon:  {Injury: 8, Death: 1.5},
			model.RarityRare:      {Injury: 7, Death: 1},
			model.RarityEpic:      {Injury: 6, Death: 0.8},
			model.RarityLegendary: {Injury: 5, Death: 0.5},
		},
		Economy: Economy{
			StartGold:            600,
			RosterSlots:          15,
			QuestSlots:           3,
			PullBaseCost:         100,
			PullDiscountCost:     50,
			FatigueEarlyStep:     0.20,
			FatigueStep:          0.25,
			FatigueEarlyPull:     10,
			FatigueMax:           5.0,
			FatigueDecay:         0.985,
			RosterExpansionCost:  1000,
			RosterExpansionSlots: 5,
			RosterPerQuestSlot:   5,
			QuestSlotBaseCost:    500,
			QuestSlotCostStep:    0.5,
			SellRatio:            0.4,
			SellFloorRatio:       0.3,
			SellFloor:            20,
		},
		Quest: Quest{
			GoldPerHour:       25,
			VariancePerHour:   15,
			FavoriteGoldBonus: 1.1,
			FavoriteInjury:    0.8,
			XPPerHour:         3,
			FailurePayout:     0.5,
			InjuryHours:       2,
			RestHours:         1,
			MinHours:          0.5,
			MaxDuration:       24,
			VeteranLevel:      21,
			VeteranRisk:       0.6,
			SeasonedLevel:     11,
			SeasonedRisk:      0.8,
		},
		Safety: Safety{
			MaxFavorites:           3,
			LiquidationMinPulls:    10,
			LiquidationCooldownH:   24,
			LiquidationPremium:     1.1,
			BankruptcyGrant:        200,
			BankruptcyGoldBelow:    100,
			BankruptcyValueBelow:   200,
			DesertionMinPct:        1,
			DesertionMaxPct:        15,
			RenameMaxRunes:         30,
			FavoritePeriodDays:     30,
			CollectorThresholdPct:  80,
			PerfectionistStatFloor: 70,
		},
	}
}

// Load overlays a YAML file onto Defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	for _, m := range model.Markets {
		w, ok := t.Markets[m]
		if !ok {
			return fmt.Errorf("%w: missing market %s", ErrInvalid, m)
		}
		if math.Abs(w.Total()-100) > 1e-6 {
			return fmt.Errorf("%w: market %s weights sum to %v", ErrInvalid, m, w.Total())
		}
	}
	var rot float64
	for _, m := range model.Markets {
		rot += t.MarketRotation[m]
	}
	if rot <= 0 {
		return fmt.Errorf("%w: market rotation weights are empty", ErrInvalid)
	}
	if _, ok := t.Markets[t.StartMarket]; !ok {
		return fmt.Errorf("%w: unknown start market %q", ErrInvalid, t.StartMarket)
	}
	for _, r := range model.Rarities {
		sr, ok := t.StatRanges[r]
		if !ok || sr[0] < model.MinStat || sr[1] > model.MaxStat || sr[0] > sr[1] {
			return fmt.Errorf("%w: bad stat range for %s", ErrInvalid, r)
		}
		tc := t.TraitCounts[r]
		if tc.Positive < 0 || tc.Positive > tc.Total {
			return fmt.Errorf("%w: bad trait count for %s", ErrInvalid, r)
		}
		if _, ok := t.QuestRisk[r]; !ok {
			return fmt.Errorf("%w: missing quest risk for %s", ErrInvalid, r)
		}
	}
	if t.MarketHours <= 0 || t.PityThreshold <= 0 || t.NewPlayer.Pulls < 0 {
		return fmt.Errorf("%w: market_hours, pity_threshold and new_player.pulls must be positive", ErrInvalid)
	}
	if t.Economy.FatigueDecay <= 0 || t.Economy.FatigueDecay >= 1 {
		return fmt.Errorf("%w: fatigue_decay_per_minute must be in (0,1)", ErrInvalid)
	}
	if t.Economy.RosterExpansionSlots <= 0 || t.Economy.RosterPerQuestSlot <= 0 || t.Quest.MaxDuration <= 0 {
		return fmt.Errorf("%w: roster_expansion_slots, roster_per_quest_slot and max_duration must be positive", ErrInvalid)
	}
	if t.Quest.MinHours <= 0 || t.Quest.MinHours > float64(t.Quest.MaxDuration) {
		return fmt.Errorf("%w: min_hours must be in (0, max_duration]", ErrInvalid)
	}
	if t.Safety.DesertionMinPct < 0 || t.Safety.DesertionMaxPct < t.Safety.DesertionMinPct {
		return fmt.Errorf("%w: bad desertion range", ErrInvalid)
	}
	return nil
}
