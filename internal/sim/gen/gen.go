// Package gen holds the randomized generation algorithms: rarity, stats, traits,
// names and ids for recruits, market rotation, and quest outcome rolls.
// All randomness comes from the rng.Source passed in.
package gen

import (
	"math"

	"github.com/google/uuid"

	"mercgacha.ai/internal/sim/catalogs"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/rng"
	"mercgacha.ai/internal/sim/tuning"
)

// RollInput is the slice of state a rarity roll depends on.
type RollInput struct {
	Market    model.Market
	Pity      int
	NewPlayer model.NewPlayerPhase
}

// RollRarity draws one tier. Pity doubles epic and legendary weights; otherwise an active
// new-player phase disables commons; otherwise the market table applies unchanged.
func RollRarity(t tuning.Tuning, in RollInput, src rng.Source) model.Rarity {
	w := t.Markets[in.Market]
	roll := rng.Percent(src)

	if in.Pity >= t.PityThreshold {
		return walk(roll, []tier{
			{model.RarityLegendary, w.Legendary * 2},
			{model.RarityEpic, w.Epic * 2},
			{model.RarityRare, w.Rare},
			{model.RarityUncommon, w.Uncommon},
		}, model.RarityCommon)
	}

	if in.NewPlayer.Active && in.NewPlayer.PullsRemaining > 0 {
		pullNumber := t.NewPlayer.Pulls + 1 - in.NewPlayer.PullsRemaining
		if pullNumber <= 1 {
			return walk(roll, []tier{
				{model.RarityLegendary, w.Legendary},
				{model.RarityEpic, w.Epic},
				{model.RarityRare, w.Rare},
			}, model.RarityUncommon)
		}
		f := t.NewPlayer.Followup
		return walk(roll, []tier{
			{model.RarityLegendary, f.Legendary},
			{model.RarityEpic, f.Epic},
			{model.RarityRare, f.Rare},
		}, model.RarityUncommon)
	}

	return walk(roll, []tier{
		{model.RarityLegendary, w.Legendary},
		{model.RarityEpic, w.Epic},
		{model.RarityRare, w.Rare},
		{model.RarityUncommon, w.Uncommon},
	}, model.RarityCommon)
}

type tier struct {
	rarity model.Rarity
	weight float64
}

// walk subtracts weights from roll in order and returns the first tier the roll lands in.
func walk(roll float64, tiers []tier, fallback model.Rarity) model.Rarity {
	for _, x := range tiers {
		if roll < x.weight {
			return x.rarity
		}
		roll -= x.weight
	}
	return fallback
}

func RollStats(t tuning.Tuning, r model.Rarity, src rng.Source) model.Stats {
	sr := t.StatRanges[r]
	return model.Stats{
		Efficiency: rng.Between(src, sr[0], sr[1]),
		Resilience: rng.Between(src, sr[0], sr[1]),
		Skill:      rng.Between(src, sr[0], sr[1]),
	}
}

// RollTraits draws positives then negatives, each without replacement. An exhausted pool
// yields fewer traits.
func RollTraits(t tuning.Tuning, pool catalogs.TraitCatalog, r model.Rarity, src rng.Source) []model.Trait {
	tc := t.TraitCounts[r]
	out := make([]model.Trait, 0, tc.Total)
	out = append(out, drawWithoutReplacement(pool.Positive, tc.Positive, src)...)
	out = append(out, drawWithoutReplacement(pool.Negative, tc.Total-tc.Positive, src)...)
	return out
}

func drawWithoutReplacement(pool []model.Trait, n int, src rng.Source) []model.Trait {
	avail := make([]model.Trait, len(pool))
	copy(avail, pool)
	var out []model.Trait
	for i := 0; i < n && len(avail) > 0; i++ {
		idx := src.Intn(len(avail))
		out = append(out, avail[idx].Clone())
		avail = append(avail[:idx], avail[idx+1:]...)
	}
	return out
}

// ApplyStatModifiers returns stats with every trait stat modifier applied and clamped.
func ApplyStatModifiers(s model.Stats, traits []model.Trait) model.Stats {
	for _, tr := range traits {
		if tr.StatModifier != nil {
			s = s.Add(tr.StatModifier.Stat, tr.StatModifier.Value)
		}
	}
	return s
}

// Level derives the level from the stat sum.
func Level(s model.Stats) int {
	lvl := 1 + int(math.Floor(float64(s.Sum()-6)/10))
	if lvl > model.MaxLevel {
		return model.MaxLevel
	}
	if lvl < 1 {
		return 1
	}
	return lvl
}

func Name(names catalogs.NameCatalog, src rng.Source) string {
	first := rng.Pick(src, names.FirstNames)
	if src.Float64() > 0.5 && len(names.Epithets) > 0 {
		return first + " " + rng.Pick(src, names.Epithets)
	}
	return first
}

// ID returns prefix + "-" + a v4 uuid whose entropy is read from src.
func ID(prefix string, src rng.Source) string {
	u, err := uuid.NewRandomFromReader(src)
	if err != nil {
		// rng sources never fail to read; keep ids non-empty regardless.
		return prefix + "-" + uuid.Nil.String()
	}
	return prefix + "-" + u.String()
}

// RecruitInput carries the pull context for one new mercenary.
type RecruitInput struct {
	Roll     RollInput
	HireCost int
	Now      int64
}

// Mercenary generates a fresh recruit. Draw order: rarity, stats, traits, name, morale, id.
func Mercenary(t tuning.Tuning, c *catalogs.Catalogs, in RecruitInput, src rng.Source) model.Mercenary {
	rarity := RollRarity(t, in.Roll, src)
	stats := RollStats(t, rarity, src)
	traits := RollTraits(t, c.Traits, rarity, src)
	stats = ApplyStatModifiers(stats, traits)
	name := Name(c.Names, src)
	morale := rng.Pick(src, c.Names.Morale)
	return model.Mercenary{
		ID:            ID("merc", src),
		Name:          name,
		Rarity:        rarity,
		Level:         Level(stats),
		Stats:         stats,
		Traits:        traits,
		Morale:        morale,
		Status:        model.StatusAvailable,
		Career:        model.Career{HireDate: in.Now},
		HireCost:      in.HireCost,
		PullTimestamp: in.Now,
	}
}

// RollMarket picks the next regime from the rotation weights.
func RollMarket(t tuning.Tuning, src rng.Source) model.Market {
	var total float64
	for _, m := range model.Markets {
		total += t.MarketRotation[m]
	}
	roll := src.Float64() * total
	for _, m := range model.Markets {
		w := t.MarketRotation[m]
		if roll < w {
			return m
		}
		roll -= w
	}
	return model.MarketAverage
}

type Outcome struct {
	Died    bool
	Injured bool
	Gold    int
}

// QuestOutcome rolls injury then death, checks death first, then draws gold. A failed
// quest pays a fraction of the frozen minimum and skips the gold draw.
func QuestOutcome(t tuning.Tuning, q model.Quest, src rng.Source) Outcome {
	injuryRoll := rng.Percent(src)
	deathRoll := rng.Percent(src)
	var o Outcome
	o.Died = deathRoll < q.DeathChance
	o.Injured = !o.Died && injuryRoll < q.InjuryChance
	if o.Died || o.Injured {
		o.Gold = int(math.Floor(float64(q.MinGold) * t.Quest.FailurePayout))
	} else {
		o.Gold = rng.Between(src, q.MinGold, q.MaxGold)
	}
	return o
}
