// Command admin inspects and edits mercd data offline: save files, the action journal and
// the index.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mercgacha.ai/internal/persistence/archive"
	"mercgacha.ai/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "state":
			stateCmd(os.Args[2:])
			return
		case "export":
			exportCmd(os.Args[2:])
			return
		case "import":
			importCmd(os.Args[2:])
			return
		case "journal":
			journalCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "archives":
			archivesCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func fail(code int, args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(code)
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	if err := listSaves(os.Stdout, filepath.Join(*dataDir, "saves"), time.Now()); err != nil {
		fail(1, "list:", err)
	}
}

func listSaves(w io.Writer, dir string, now time.Time) error {
	files, err := snapshot.List(dir)
	if err != nil {
		return err
	}
	for _, p := range files {
		fi, err := os.Stat(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", filepath.Base(p), humanize.Bytes(uint64(fi.Size())), humanize.RelTime(fi.ModTime(), now, "ago", "from now"))
	}
	return nil
}

// resolveSave returns path when set, else the newest save under dataDir.
func resolveSave(dataDir, path string) (string, error) {
	if p := strings.TrimSpace(path); p != "" {
		return p, nil
	}
	latest, err := snapshot.Latest(filepath.Join(dataDir, "saves"))
	if err != nil {
		return "", err
	}
	if latest == "" {
		return "", fmt.Errorf("no save found under %s", dataDir)
	}
	return latest, nil
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	savePath := fs.String("save", "", "save file (optional; defaults to latest)")
	configDir := fs.String("configs", "./configs", "catalog directory")
	tuningPath := fs.String("tuning", "", "path to tuning.yaml (optional)")
	_ = fs.Parse(args)

	path, err := resolveSave(*dataDir, *savePath)
	if err != nil {
		fail(2, err)
	}
	r, err := newReducer(*configDir, *tuningPath)
	if err != nil {
		fail(1, "load config:", err)
	}
	h, st, err := snapshot.ReadFile(path)
	if err != nil {
		fail(1, "read save:", err)
	}
	printState(os.Stdout, r, h, st, time.Now())
}

func exportCmd(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	savePath := fs.String("save", "", "save file (optional; defaults to latest)")
	_ = fs.Parse(args)

	path, err := resolveSave(*dataDir, *savePath)
	if err != nil {
		fail(2, err)
	}
	_, st, err := snapshot.ReadFile(path)
	if err != nil {
		fail(1, "read save:", err)
	}
	s, err := snapshot.Export(st)
	if err != nil {
		fail(1, "export:", err)
	}
	fmt.Println(s)
}

func importCmd(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	inPath := fs.String("in", "-", "export string file ('-' reads stdin)")
	_ = fs.Parse(args)

	var in io.Reader = os.Stdin
	if *inPath != "-" {
		f, err := os.Open(*inPath)
		if err != nil {
			fail(1, "open:", err)
		}
		defer f.Close()
		in = f
	}
	path, err := importSave(in, filepath.Join(*dataDir, "saves"), time.Now())
	if err != nil {
		fail(1, "import:", err)
	}
	fmt.Println("wrote", path)
}

// importSave validates an export string and writes it as the newest save, which mercd loads
// on its next start.
func importSave(in io.Reader, saveDir string, now time.Time) (string, error) {
	b, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	st, err := snapshot.Import(string(b))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(saveDir, snapshot.FileName(now))
	if _, err := snapshot.WriteFile(path, st, now); err != nil {
		return "", err
	}
	return path, nil
}

func archivesCmd(args []string) {
	fs := flag.NewFlagSet("archives", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	if err := listArchives(os.Stdout, *dataDir); err != nil {
		fail(1, "archives:", err)
	}
}

func listArchives(w io.Writer, dataDir string) error {
	runs, err := archive.Runs(dataDir)
	if err != nil {
		return err
	}
	for _, m := range runs {
		fmt.Fprintf(w, "run %d\t%s\t%s\tgold=%s pulls=%s quests=%d\t%s\n", m.Run, m.Reason, m.EndedAt,
			humanize.Comma(int64(m.Gold)), humanize.Comma(int64(m.TotalPulls)), m.QuestsCompleted, archive.SavePath(dataDir, m))
	}
	return nil
}
