package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	persistlog "mercgacha.ai/internal/persistence/log"
)

func journalCmd(args []string) {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	hour := fs.String("hour", "", "UTC hour to read, 2006-01-02-15 (optional; defaults to the newest file)")
	asJSON := fs.Bool("json", false, "print raw entries")
	kind := fs.String("kind", "", "only entries of this action kind")
	_ = fs.Parse(args)

	dir := filepath.Join(*dataDir, "journal")
	path := ""
	if h := strings.TrimSpace(*hour); h != "" {
		path = persistlog.NewJSONLZstdWriter(dir, "actions").PathForHour(h)
	} else {
		files, err := journalFiles(dir)
		if err != nil {
			fail(1, "journal:", err)
		}
		if len(files) == 0 {
			fail(2, "no journal files under", dir)
		}
		path = files[len(files)-1]
	}
	if err := printJournal(os.Stdout, path, strings.ToUpper(*kind), *asJSON); err != nil {
		fail(1, "journal:", err)
	}
}

// journalFiles lists action journal files oldest first.
func journalFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "actions-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func printJournal(w io.Writer, path, kind string, asJSON bool) error {
	entries, err := persistlog.ReadActions(path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if kind != "" && e.Action.Action != kind {
			continue
		}
		if asJSON {
			printJSON(w, e)
			continue
		}
		at := time.UnixMilli(e.At).UTC().Format("15:04:05.000")
		fmt.Fprintf(w, "%6d  %s  %-20s gold=%s roster=%d quests=%d%s\n", e.Seq, at, e.Action.Action,
			humanize.Comma(int64(e.Gold)), e.Roster, e.Quests, target(e))
	}
	return nil
}

func target(e persistlog.ActionEntry) string {
	var b strings.Builder
	if e.Action.MercenaryID != "" {
		fmt.Fprintf(&b, " merc=%s", shortID(e.Action.MercenaryID))
	}
	if e.Action.Hours != 0 {
		fmt.Fprintf(&b, " hours=%d", e.Action.Hours)
	}
	if e.Action.QuestID != "" {
		fmt.Fprintf(&b, " quest=%s", shortID(e.Action.QuestID))
	}
	if e.Action.AchievementID != "" {
		fmt.Fprintf(&b, " achievement=%s", e.Action.AchievementID)
	}
	return b.String()
}
