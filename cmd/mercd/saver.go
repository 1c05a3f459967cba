package main

import (
	"context"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"mercgacha.ai/internal/persistence/indexdb"
	"mercgacha.ai/internal/persistence/snapshot"
	"mercgacha.ai/internal/sim/model"
)

// stateSource is satisfied by *scheduler.Scheduler.
type stateSource interface {
	State() model.GameState
}

// saver writes a save file whenever the state changed since the last one.
type saver struct {
	dir    string
	keep   int
	idx    *indexdb.Index
	logger *log.Logger

	dirty atomic.Bool
	saved atomic.Uint64
}

func (s *saver) loop(ctx context.Context, src stateSource, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.save(src, now)
		}
	}
}

// save is a no-op unless the state is dirty. The flag is cleared before the state is read,
// so a change published in between marks the next save dirty again.
func (s *saver) save(src stateSource, now time.Time) {
	if !s.dirty.Swap(false) {
		return
	}
	st := src.State()
	path := filepath.Join(s.dir, snapshot.FileName(now))
	h, err := snapshot.WriteFile(path, st, now)
	if err != nil {
		s.dirty.Store(true)
		s.logger.Printf("save: %v", err)
		return
	}
	if n := s.saved.Add(1); n == 1 || n%500 == 0 {
		s.logger.Printf("save #%s: %s (%s gold)", humanize.Comma(int64(n)), filepath.Base(path), humanize.Comma(int64(st.Gold)))
	}
	s.idx.RecordSave(path, h, st)
	if s.keep > 0 {
		if _, err := snapshot.Prune(s.dir, s.keep); err != nil {
			s.logger.Printf("prune saves: %v", err)
		}
	}
}
