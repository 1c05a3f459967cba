// Package indexdb keeps a queryable index of applied actions, save files and the catalogs in
// use. Writes are queued and committed in batches off the scheduler goroutine; the journal
// and save files remain the source of truth.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercgacha.ai/internal/persistence/snapshot"
	"mercgacha.ai/internal/protocol"
	"mercgacha.ai/internal/sim/catalogs"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/scheduler"
	"mercgacha.ai/internal/sim/tuning"
)

type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectPostgres dialect = "postgres"
)

const schemaVersion = "1"

// Open picks a backend by name. An empty or "none" backend returns a nil index, whose
// methods are all no-ops.
func Open(backend, target string) (*Index, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "none":
		return nil, nil
	case string(dialectSQLite):
		return OpenSQLite(target)
	case string(dialectPostgres), "postgresql", "pgx":
		return OpenPostgres(target)
	default:
		return nil, fmt.Errorf("unsupported index backend %q", backend)
	}
}

type Index struct {
	db      *sql.DB
	dialect dialect
	runID   string

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropAction atomic.Uint64
	dropSave   atomic.Uint64
}

type reqKind int

const (
	reqAction reqKind = iota + 1
	reqSave
)

type req struct {
	kind   reqKind
	action actionRow
	save   SaveRow
}

type actionRow struct {
	Seq    uint64
	At     int64
	Kind   string
	JSON   string
	Gold   int
	Roster int
	Quests int
}

type SaveRow struct {
	Path       string `json:"path"`
	SavedAt    int64  `json:"saved_at"`
	Digest     string `json:"digest"`
	Gold       int    `json:"gold"`
	Roster     int    `json:"roster"`
	TotalPulls int    `json:"total_pulls"`
	RecordedAt string `json:"recorded_at"`
}

type QueueStats struct {
	DropActionTotal uint64
	DropSaveTotal   uint64
	QueueDepth      int
	QueueCapacity   int
}

func newIndex(db *sql.DB, d dialect) (*Index, error) {
	if err := initSchema(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Index{
		db:      db,
		dialect: d,
		runID:   uuid.NewString(),
		ch:      make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initSchema(db *sql.DB, d dialect) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS actions (
			run_id TEXT NOT NULL,
			seq BIGINT NOT NULL,
			at BIGINT NOT NULL,
			kind TEXT NOT NULL,
			act_json TEXT NOT NULL,
			gold BIGINT NOT NULL,
			roster INTEGER NOT NULL,
			quests INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_kind_at ON actions(kind, at);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_at ON actions(at);`,
		`CREATE TABLE IF NOT EXISTS saves (
			path TEXT PRIMARY KEY,
			saved_at BIGINT NOT NULL,
			digest TEXT NOT NULL,
			gold BIGINT NOT NULL,
			roster INTEGER NOT NULL,
			total_pulls INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saves_saved_at ON saves(saved_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("%s schema: %w", d, err)
		}
	}
	_, err := db.Exec(rebind(d, `INSERT INTO meta(key,value) VALUES('schema_version',?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`), schemaVersion)
	return err
}

func (s *Index) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RunID identifies this process's action rows; scheduler sequence numbers restart per run.
func (s *Index) RunID() string {
	if s == nil {
		return ""
	}
	return s.runID
}

// WriteAction queues one applied action. It never blocks the caller.
func (s *Index) WriteAction(c scheduler.Change) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	msg, err := protocol.FromAction(c.Action)
	if err != nil {
		return err
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	r := actionRow{
		Seq:    c.Seq,
		At:     c.At.UnixMilli(),
		Kind:   c.Action.Kind(),
		JSON:   string(b),
		Gold:   c.State.Gold,
		Roster: len(c.State.Roster),
		Quests: len(c.State.ActiveQuests),
	}
	select {
	case s.ch <- req{kind: reqAction, action: r}:
	default:
		s.dropAction.Add(1)
	}
	return nil
}

func (s *Index) RecordSave(path string, h snapshot.Header, st model.GameState) {
	if s == nil || s.closed.Load() {
		return
	}
	r := SaveRow{
		Path:       path,
		SavedAt:    h.SavedAt,
		Digest:     h.Digest,
		Gold:       st.Gold,
		Roster:     len(st.Roster),
		TotalPulls: st.TotalPulls,
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqSave, save: r}:
	default:
		s.dropSave.Add(1)
	}
}

func (s *Index) Stats() QueueStats {
	if s == nil {
		return QueueStats{}
	}
	return QueueStats{
		DropActionTotal: s.dropAction.Load(),
		DropSaveTotal:   s.dropSave.Load(),
		QueueDepth:      len(s.ch),
		QueueCapacity:   cap(s.ch),
	}
}

// UpsertCatalogs stores the catalogs and tuning the engine is running with, keyed by name.
func (s *Index) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil || cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		v      any
	}
	rows := []kv{
		{"traits", cats.Traits.Digest, struct {
			Positive []model.Trait `json:"positive"`
			Negative []model.Trait `json:"negative"`
		}{cats.Traits.Positive, cats.Traits.Negative}},
		{"names", cats.Names.Digest, cats.Names},
		{"achievements", cats.Achievements.Digest, cats.Achievements.Defs},
		{"starter", cats.Starter.Digest, cats.Starter},
	}
	tb, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(tb)
	rows = append(rows, kv{"tuning", hex.EncodeToString(sum[:]), json.RawMessage(tb)})

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(rebind(s.dialect, `INSERT INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)
		ON CONFLICT(name) DO UPDATE SET digest=excluded.digest, json=excluded.json, updated_at=excluded.updated_at`))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		b, err := json.Marshal(r.v)
		if err != nil {
			return fmt.Errorf("catalog %s: %w", r.name, err)
		}
		if r.digest == "" || len(b) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(b), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Index) loop() {
	ctx := context.Background()

	insertAction, _ := s.db.Prepare(rebind(s.dialect, `INSERT INTO actions(run_id,seq,at,kind,act_json,gold,roster,quests)
		VALUES(?,?,?,?,?,?,?,?) ON CONFLICT DO NOTHING`))
	insertSave, _ := s.db.Prepare(rebind(s.dialect, `INSERT INTO saves(path,saved_at,digest,gold,roster,total_pulls,recorded_at)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(path) DO UPDATE SET saved_at=excluded.saved_at, digest=excluded.digest, gold=excluded.gold,
			roster=excluded.roster, total_pulls=excluded.total_pulls, recorded_at=excluded.recorded_at`))
	defer func() {
		if insertAction != nil {
			_ = insertAction.Close()
		}
		if insertSave != nil {
			_ = insertSave.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	// A quiet queue still commits within commitMaxWait.
	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()

	for {
		var r req
		var ok bool
		select {
		case r, ok = <-s.ch:
			if !ok {
				commit()
				return
			}
		case <-ticker.C:
			commit()
			continue
		}

		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqAction:
			a := r.action
			if insertAction == nil {
				break
			}
			if _, err := tx.Stmt(insertAction).Exec(s.runID, int64(a.Seq), a.At, a.Kind, a.JSON, a.Gold, a.Roster, a.Quests); err != nil {
				rollback()
				continue
			}
			opCount++
		case reqSave:
			sv := r.save
			if insertSave == nil {
				break
			}
			if _, err := tx.Stmt(insertSave).Exec(sv.Path, sv.SavedAt, sv.Digest, sv.Gold, sv.Roster, sv.TotalPulls, sv.RecordedAt); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
}
