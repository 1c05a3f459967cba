package snapshot

import (
	"encoding/base64"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"mercgacha.ai/internal/sim/catalogs"
	"mercgacha.ai/internal/sim/game"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/rng"
	"mercgacha.ai/internal/sim/tuning"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

// playedState is a state with recruits, a quest in flight and some history.
func playedState(t *testing.T) model.GameState {
	t.Helper()
	clk := game.NewFixedClock(t0)
	r, err := game.New(game.Config{
		Tuning:   tuning.Defaults(),
		Catalogs: catalogs.MustDefault(),
		Rand:     rng.New(42),
		Clock:    clk,
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	s := r.NewState()
	s = r.Apply(s, game.Recruit{})
	s = r.Apply(s, game.Recruit{})
	s = r.Apply(s, game.DispatchQuest{MercenaryID: s.Roster[1].ID, Hours: 4})
	clk.Advance(10 * time.Minute)
	s = r.Apply(s, game.Tick{})
	if len(s.ActiveQuests) != 1 || len(s.Roster) != 3 {
		t.Fatalf("fixture: roster=%d quests=%d", len(s.Roster), len(s.ActiveQuests))
	}
	return s
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := playedState(t)
	b, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(s, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s := playedState(t)
	blob, err := Export(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Import(blob)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if diff := cmp.Diff(s, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestImportAcceptsPlainJSON(t *testing.T) {
	s := playedState(t)
	b, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := ImportOK(base64.StdEncoding.EncodeToString(b))
	if !ok {
		t.Fatalf("plain json rejected")
	}
	if got.Gold != s.Gold || len(got.Roster) != len(s.Roster) {
		t.Fatalf("gold=%d roster=%d", got.Gold, len(got.Roster))
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	b64 := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }
	cases := map[string]string{
		"not base64":     "%%%",
		"not json":       b64("hello"),
		"missing gold":   b64(`{"roster":[]}`),
		"gold is string": b64(`{"gold":"10","roster":[]}`),
		"roster object":  b64(`{"gold":10,"roster":{}}`),
		"fractional":     b64(`{"gold":1.5,"roster":[]}`),
		"array root":     b64(`[1,2,3]`),
		"corrupt zstd":   base64.StdEncoding.EncodeToString(append([]byte{0x28, 0xb5, 0x2f, 0xfd}, 1, 2, 3)),
	}
	for name, in := range cases {
		if _, err := Import(in); !errors.Is(err, ErrInvalidSave) {
			t.Fatalf("%s: err=%v", name, err)
		}
		if _, ok := ImportOK(in); ok {
			t.Fatalf("%s: ImportOK accepted", name)
		}
	}
}

func TestDecodeFillsMissingCollections(t *testing.T) {
	s, err := Decode([]byte(`{"gold":5,"roster":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Gold != 5 || s.FatigueMultiplier != 1 || s.Stats.RarestPull != model.RarityCommon {
		t.Fatalf("state: %+v", s)
	}
	if s.ActiveQuests == nil || s.Favorites == nil || s.Stats.AchievementsUnlocked == nil {
		t.Fatalf("nil collections")
	}
	if len(s.Collection.HighestStats) != len(model.Rarities) {
		t.Fatalf("highest stats: %v", s.Collection.HighestStats)
	}
}

func TestDigestIsStable(t *testing.T) {
	s := playedState(t)
	a, err := Digest(s)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Digest(s.Clone())
	if a != b || len(a) != 64 {
		t.Fatalf("digests %s %s", a, b)
	}
	s.Gold++
	c, _ := Digest(s)
	if c == a {
		t.Fatalf("digest ignored gold")
	}
}

func TestWriteReadFile(t *testing.T) {
	dir := t.TempDir()
	s := playedState(t)
	savedAt := t0.Add(time.Hour)
	path := filepath.Join(dir, FileName(savedAt))

	h, err := WriteFile(path, s, savedAt)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	gotH, got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if gotH != h || h.SavedAt != savedAt.UnixMilli() || h.Version != Version {
		t.Fatalf("header %+v vs %+v", gotH, h)
	}
	if got.LastSaveTime != savedAt.UnixMilli() {
		t.Fatalf("LastSaveTime=%d", got.LastSaveTime)
	}
	want := s.Clone()
	want.LastSaveTime = savedAt.UnixMilli()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("file round trip (-want +got):\n%s", diff)
	}
	if d, _ := Digest(want); d != h.Digest {
		t.Fatalf("digest %s != %s", h.Digest, d)
	}
	if s.LastSaveTime == savedAt.UnixMilli() {
		t.Fatalf("WriteFile mutated its input")
	}
}

func TestLatestAndPrune(t *testing.T) {
	dir := t.TempDir()
	if p, err := Latest(filepath.Join(dir, "missing")); err != nil || p != "" {
		t.Fatalf("missing dir: %q %v", p, err)
	}
	s := playedState(t)
	var last string
	for i := 0; i < 4; i++ {
		at := t0.Add(time.Duration(i) * time.Minute)
		last = filepath.Join(dir, FileName(at))
		if _, err := WriteFile(last, s, at); err != nil {
			t.Fatal(err)
		}
	}
	if p, err := Latest(dir); err != nil || p != last {
		t.Fatalf("Latest=%q want %q (%v)", p, last, err)
	}
	n, err := Prune(dir, 2)
	if err != nil || n != 2 {
		t.Fatalf("Prune: %d %v", n, err)
	}
	files, _ := List(dir)
	if len(files) != 2 || files[1] != last {
		t.Fatalf("after prune: %v", files)
	}
}
