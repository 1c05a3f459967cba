package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"mercgacha.ai/internal/persistence/snapshot"
	"mercgacha.ai/internal/sim/catalogs"
	"mercgacha.ai/internal/sim/game"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/rng"
	"mercgacha.ai/internal/sim/tuning"
)

// newReducer builds a reducer for read-only queries; its random source is never drawn from.
func newReducer(configDir, tuningPath string) (*game.Reducer, error) {
	tune := tuning.Defaults()
	if strings.TrimSpace(tuningPath) != "" {
		t, err := tuning.Load(tuningPath)
		if err != nil {
			return nil, err
		}
		tune = t
	}
	cats, err := catalogs.Load(configDir)
	if err != nil {
		return nil, err
	}
	return game.New(game.Config{Tuning: tune, Catalogs: cats, Rand: rng.New(1)})
}

func printState(w io.Writer, r *game.Reducer, h snapshot.Header, s model.GameState, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	saved := time.UnixMilli(h.SavedAt)
	fmt.Fprintf(tw, "saved\t%s (%s)\n", humanize.RelTime(saved, now, "ago", "from now"), saved.Format(time.RFC3339))
	fmt.Fprintf(tw, "digest\t%s\n", h.Digest)
	fmt.Fprintf(tw, "gold\t%s\n", humanize.Comma(int64(s.Gold)))
	fmt.Fprintf(tw, "roster\t%d/%d (value %s, wages %s/day)\n", len(s.Roster), s.RosterSlots,
		humanize.Comma(int64(r.RosterValue(s))), humanize.Comma(int64(r.TotalWages(s))))
	fmt.Fprintf(tw, "quests\t%d/%d active, %s completed\n", len(s.ActiveQuests), s.QuestSlots, humanize.Comma(int64(s.TotalQuestsCompleted)))
	fmt.Fprintf(tw, "pulls\t%s (pity %d, next pull %s gold)\n", humanize.Comma(int64(s.TotalPulls)), s.PityCounter, humanize.Comma(int64(r.PullCost(s))))
	fmt.Fprintf(tw, "fatigue\tx%.2f\n", s.FatigueMultiplier)
	fmt.Fprintf(tw, "market\t%s until %s\n", s.MarketState, time.UnixMilli(s.MarketStateEndTime).Format(time.RFC3339))
	fmt.Fprintf(tw, "achievements\t%d unlocked, %d claimable\n", len(s.Stats.AchievementsUnlocked), len(r.PendingAchievements(s)))
	fmt.Fprintf(tw, "earned/spent\t%s / %s\n", humanize.Comma(int64(s.Stats.TotalGoldEarned)), humanize.Comma(int64(s.Stats.TotalGoldSpent)))

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "ID\tNAME\tRARITY\tLV\tSTATUS\tSELL\tFLAGS")
	for _, m := range s.Roster {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n", shortID(m.ID), m.Name, m.Rarity, m.Level, m.Status,
			humanize.Comma(int64(r.SellValue(m))), flags(m))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func flags(m model.Mercenary) string {
	var f []string
	if m.IsStarter {
		f = append(f, "starter")
	}
	if m.IsLocked {
		f = append(f, "locked")
	}
	if m.IsFavorite {
		f = append(f, "favorite")
	}
	return strings.Join(f, ",")
}
