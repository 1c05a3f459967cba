package indexdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mercgacha.ai/internal/persistence/snapshot"
	"mercgacha.ai/internal/sim/catalogs"
	"mercgacha.ai/internal/sim/game"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/scheduler"
	"mercgacha.ai/internal/sim/tuning"
)

func TestSQLiteIndexRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := Open("sqlite", path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	changes := []scheduler.Change{
		{Seq: 1, Action: game.Recruit{}, State: model.GameState{Gold: 550, Roster: make([]model.Mercenary, 2)}, At: at},
		{Seq: 2, Action: game.Recruit{}, State: model.GameState{Gold: 430, Roster: make([]model.Mercenary, 3)}, At: at.Add(time.Second)},
		{Seq: 3, Action: game.Sell{ID: "m1"}, State: model.GameState{Gold: 488, Roster: make([]model.Mercenary, 2)}, At: at.Add(2 * time.Second)},
	}
	for _, c := range changes {
		if err := idx.WriteAction(c); err != nil {
			t.Fatal(err)
		}
	}
	idx.RecordSave("/saves/a.json.zst", snapshot.Header{Version: 1, SavedAt: at.UnixMilli(), Digest: "abc"}, model.GameState{Gold: 488, TotalPulls: 2})
	if err := idx.UpsertCatalogs(catalogs.MustDefault(), tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	recent, err := idx.RecentActions(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 || recent[0].Kind != game.KindSell || recent[0].Seq != 3 || recent[0].Gold != 488 {
		t.Fatalf("recent: %+v", recent)
	}
	counts, err := idx.CountByKind(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[game.KindRecruit] != 2 || counts[game.KindSell] != 1 {
		t.Fatalf("counts: %v", counts)
	}
	saves, err := idx.Saves(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(saves) != 1 || saves[0].Digest != "abc" || saves[0].TotalPulls != 2 {
		t.Fatalf("saves: %+v", saves)
	}
	d, err := idx.CatalogDigest(ctx, "traits")
	if err != nil || d != catalogs.MustDefault().Traits.Digest {
		t.Fatalf("traits digest %q: %v", d, err)
	}
	if d, _ := idx.CatalogDigest(ctx, "tuning"); len(d) != 64 {
		t.Fatalf("tuning digest %q", d)
	}
	if d, _ := idx.CatalogDigest(ctx, "missing"); d != "" {
		t.Fatalf("missing digest %q", d)
	}
}

func TestNilIndexIsNoop(t *testing.T) {
	idx, err := Open("none", "")
	if err != nil || idx != nil {
		t.Fatalf("Open none: %v %v", idx, err)
	}
	if err := idx.WriteAction(scheduler.Change{Action: game.Tick{}}); err != nil {
		t.Fatal(err)
	}
	idx.RecordSave("x", snapshot.Header{}, model.GameState{})
	if err := idx.UpsertCatalogs(catalogs.MustDefault(), tuning.Defaults()); err != nil {
		t.Fatal(err)
	}
	if got, err := idx.RecentActions(context.Background(), 1); err != nil || got != nil {
		t.Fatalf("%v %v", got, err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestQueueDropStats(t *testing.T) {
	s := &Index{ch: make(chan req, 1)}
	s.ch <- req{kind: reqAction}

	_ = s.WriteAction(scheduler.Change{Action: game.Recruit{}})
	s.RecordSave("/tmp/x", snapshot.Header{}, model.GameState{})

	st := s.Stats()
	if st.DropActionTotal != 1 || st.DropSaveTotal != 1 {
		t.Fatalf("drops: %+v", st)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open("mongo", "x"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Open("postgres", " "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestRebind(t *testing.T) {
	q := `INSERT INTO t(a,b) VALUES(?,?)`
	if got := rebind(dialectPostgres, q); got != `INSERT INTO t(a,b) VALUES($1,$2)` {
		t.Fatalf("postgres: %s", got)
	}
	if got := rebind(dialectSQLite, q); got != q {
		t.Fatalf("sqlite: %s", got)
	}
}
