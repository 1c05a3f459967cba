// Command mercd hosts one mercenary-gacha game: it loads the newest save, drives the timers,
// takes JSON actions on stdin, and autosaves while the state changes.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"mercgacha.ai/internal/persistence/archive"
	"mercgacha.ai/internal/persistence/indexdb"
	persistlog "mercgacha.ai/internal/persistence/log"
	"mercgacha.ai/internal/persistence/snapshot"
	"mercgacha.ai/internal/sim/catalogs"
	"mercgacha.ai/internal/sim/game"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/rng"
	"mercgacha.ai/internal/sim/scheduler"
	"mercgacha.ai/internal/sim/tuning"
)

func main() {
	flags := flag.NewFlagSet("mercd", flag.ExitOnError)
	cfg, err := ParseConfig(flags, os.Args[1:])
	if err != nil {
		log.Fatalf("[mercd] %v", err)
	}

	// stdout carries protocol lines.
	logger := log.New(os.Stderr, "[mercd] ", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := signalContext()
	defer cancel()

	if err := run(ctx, cfg, os.Stdin, os.Stdout, logger); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg Config, in io.Reader, out io.Writer, logger *log.Logger) error {
	tune, err := tuning.Load(cfg.tuningPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cfg.TuningPath != "" {
			return err
		}
		tune = tuning.Defaults()
		logger.Printf("tuning: %s not found, using defaults", cfg.tuningPath())
	}
	cats, err := catalogs.Load(cfg.ConfigDir)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r, err := game.New(game.Config{
		Tuning:   tune,
		Catalogs: cats,
		Rand:     rng.New(seed),
		Clock:    game.SystemClock{},
		Location: loc,
	})
	if err != nil {
		return err
	}

	saveDir := filepath.Join(cfg.DataDir, "saves")
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return err
	}
	initial, err := loadInitial(cfg.Load, saveDir, r, logger)
	if err != nil {
		return err
	}

	idx, err := indexdb.Open(cfg.IndexBackend, cfg.indexTarget())
	if err != nil {
		return err
	}
	defer idx.Close()
	if err := idx.UpsertCatalogs(cats, tune); err != nil {
		logger.Printf("index catalogs: %v", err)
	}

	journal := persistlog.NewActionLogger(filepath.Join(cfg.DataDir, "journal"))
	defer journal.Close()

	sch, err := scheduler.New(scheduler.Config{TickInterval: cfg.TickInterval, Logger: logger}, r, initial)
	if err != nil {
		return err
	}
	sv := &saver{dir: saveDir, keep: cfg.KeepSaves, idx: idx, logger: logger}
	sch.Observe(func(c scheduler.Change) {
		sv.dirty.Store(true)
		if k := c.Action.Kind(); k == game.KindResetGame || k == game.KindLoadState {
			if m, err := archive.ArchiveRun(cfg.DataDir, c.Prev, k, c.At); err != nil {
				logger.Printf("archive: %v", err)
			} else {
				logger.Printf("archived run %d (%d pulls) before %s", m.Run, m.TotalPulls, k)
			}
		}
		if err := journal.WriteChange(c); err != nil {
			logger.Printf("journal: %v", err)
		}
		if err := idx.WriteAction(c); err != nil {
			logger.Printf("index: %v", err)
		}
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- sch.Run(ctx) }()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sv.loop(ctx, sch, cfg.AutosaveInterval)
	}()

	go func() {
		d := newDriver(r, sch, out, logger)
		if err := d.serve(ctx, in); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("input: %v", err)
		}
		cancel()
	}()

	<-ctx.Done()
	sch.Stop()
	err = <-runErr
	wg.Wait()

	sv.save(sch, time.Now())
	if ferr := journal.Flush(); ferr != nil {
		logger.Printf("journal flush: %v", ferr)
	}
	st := idx.Stats()
	if st.DropActionTotal > 0 || st.DropSaveTotal > 0 {
		logger.Printf("index dropped %d actions, %d saves", st.DropActionTotal, st.DropSaveTotal)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadInitial reads the named save, else the newest one in saveDir, else starts a new game.
func loadInitial(path, saveDir string, r *game.Reducer, logger *log.Logger) (model.GameState, error) {
	if path == "" {
		latest, err := snapshot.Latest(saveDir)
		if err != nil {
			return model.GameState{}, err
		}
		path = latest
	}
	if path == "" {
		logger.Printf("no save found, starting a new game")
		return r.NewState(), nil
	}
	h, st, err := snapshot.ReadFile(path)
	if err != nil {
		return model.GameState{}, err
	}
	logger.Printf("loaded %s (saved %s, %d mercenaries)", filepath.Base(path), time.UnixMilli(h.SavedAt).Format(time.RFC3339), len(st.Roster))
	return st, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
