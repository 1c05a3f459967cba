package log

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"mercgacha.ai/internal/protocol"
	"mercgacha.ai/internal/sim/game"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/scheduler"
)

func TestActionLoggerRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	l := NewActionLogger(dir)
	base := time.Date(2026, 3, 2, 10, 59, 0, 0, time.UTC)

	changes := []scheduler.Change{
		{Seq: 1, Action: game.Recruit{}, State: model.GameState{Gold: 550}, At: base},
		{Seq: 2, Action: game.DispatchQuest{MercenaryID: "m1", Hours: 2}, State: model.GameState{Gold: 550, ActiveQuests: []model.Quest{{ID: "q"}}}, At: base.Add(30 * time.Second)},
		{Seq: 3, Action: game.Tick{}, State: model.GameState{Gold: 530}, At: base.Add(2 * time.Minute)},
	}
	for _, c := range changes {
		if err := l.WriteChange(c); err != nil {
			t.Fatalf("WriteChange: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	first, err := ReadActions(filepath.Join(dir, "actions-2026-03-02-10.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 {
		t.Fatalf("hour 10 entries: %d", len(first))
	}
	if first[1].Action.Action != game.KindDispatchQuest || first[1].Action.Hours != 2 || first[1].Quests != 1 {
		t.Fatalf("entry: %+v", first[1])
	}
	_, a, err := protocol.Parse(mustJSON(t, first[1].Action))
	if err != nil || a != (game.DispatchQuest{MercenaryID: "m1", Hours: 2}) {
		t.Fatalf("journal entry does not replay: %v %v", a, err)
	}

	second, err := ReadActions(filepath.Join(dir, "actions-2026-03-02-11.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 || second[0].Seq != 3 || second[0].Gold != 530 {
		t.Fatalf("hour 11: %+v", second)
	}
}

func TestWriterAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		l := NewActionLogger(dir)
		if err := l.WriteChange(scheduler.Change{Seq: uint64(i + 1), Action: game.Recruit{}, At: at}); err != nil {
			t.Fatal(err)
		}
		if err := l.Close(); err != nil {
			t.Fatal(err)
		}
	}
	got, err := ReadActions(filepath.Join(dir, "actions-2026-03-02-10.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Seq != 1 || got[1].Seq != 2 {
		t.Fatalf("entries: %+v", got)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
