// Package archive keeps the games a reset or a loaded save replaced.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"mercgacha.ai/internal/persistence/snapshot"
	"mercgacha.ai/internal/sim/model"
)

type RunMeta struct {
	Run             int    `json:"run"`
	Reason          string `json:"reason"`
	StartedAt       string `json:"started_at"`
	EndedAt         string `json:"ended_at"`
	Save            string `json:"save"`
	Digest          string `json:"digest"`
	Gold            int    `json:"gold"`
	Roster          int    `json:"roster"`
	TotalPulls      int    `json:"total_pulls"`
	QuestsCompleted int    `json:"quests_completed"`
	Achievements    int    `json:"achievements"`
}

// ArchiveRun writes prev as a save file into `dataDir/archives/run_<NNN>/` next to a
// meta.json summary. Run numbers start at 1 and only grow.
func ArchiveRun(dataDir string, prev model.GameState, reason string, at time.Time) (RunMeta, error) {
	base := filepath.Join(dataDir, "archives")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return RunMeta{}, err
	}
	run, err := nextRun(base)
	if err != nil {
		return RunMeta{}, err
	}
	dir := filepath.Join(base, fmt.Sprintf("run_%03d", run))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return RunMeta{}, err
	}

	path := filepath.Join(dir, snapshot.FileName(at))
	h, err := snapshot.WriteFile(path, prev, at)
	if err != nil {
		return RunMeta{}, err
	}
	meta := RunMeta{
		Run:             run,
		Reason:          reason,
		StartedAt:       time.UnixMilli(prev.GameStartTime).UTC().Format(time.RFC3339),
		EndedAt:         at.UTC().Format(time.RFC3339Nano),
		Save:            filepath.Base(path),
		Digest:          h.Digest,
		Gold:            prev.Gold,
		Roster:          len(prev.Roster),
		TotalPulls:      prev.TotalPulls,
		QuestsCompleted: prev.TotalQuestsCompleted,
		Achievements:    len(prev.Stats.AchievementsUnlocked),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return RunMeta{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644); err != nil {
		return RunMeta{}, err
	}
	return meta, nil
}

// Runs lists archived runs, oldest first. A missing archive directory is empty.
func Runs(dataDir string) ([]RunMeta, error) {
	base := filepath.Join(dataDir, "archives")
	ents, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []RunMeta
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(base, e.Name(), "meta.json"))
		if err != nil {
			continue
		}
		var m RunMeta
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Run < out[j].Run })
	return out, nil
}

// SavePath is the archived save file of m.
func SavePath(dataDir string, m RunMeta) string {
	return filepath.Join(dataDir, "archives", fmt.Sprintf("run_%03d", m.Run), m.Save)
}

func nextRun(base string) (int, error) {
	ents, err := os.ReadDir(base)
	if err != nil {
		return 0, err
	}
	last := 0
	for _, e := range ents {
		var n int
		if _, err := fmt.Sscanf(e.Name(), "run_%d", &n); err == nil && n > last {
			last = n
		}
	}
	return last + 1, nil
}
