package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"mercgacha.ai/internal/persistence/snapshot"
	"mercgacha.ai/internal/sim/game"
	"mercgacha.ai/internal/sim/model"
)

func TestParseActions(t *testing.T) {
	cases := []struct {
		line string
		want game.Action
	}{
		{`{"action":"RECRUIT"}`, game.Recruit{}},
		{`{"type":"ACT","action":"recruit"}`, game.Recruit{}},
		{`{"action":"SELL","mercenary_id":"m1"}`, game.Sell{ID: "m1"}},
		{`{"action":"toggle-lock","mercenary_id":"m1"}`, game.ToggleLock{ID: "m1"}},
		{`{"action":"TOGGLE_FAVORITE","mercenary_id":"m1"}`, game.ToggleFavorite{ID: "m1"}},
		{`{"action":"DISPATCH_QUEST","mercenary_id":"m1","hours":6}`, game.DispatchQuest{MercenaryID: "m1", Hours: 6}},
		{`{"action":"RESOLVE_QUEST","quest_id":"q1"}`, game.ResolveQuest{QuestID: "q1"}},
		{`{"action":"TICK"}`, game.Tick{}},
		{`{"action":"EMERGENCY_LIQUIDATE"}`, game.EmergencyLiquidate{}},
		{`{"action":"BANKRUPTCY_RESET"}`, game.BankruptcyReset{}},
		{`{"action":"EXPAND_ROSTER"}`, game.ExpandRoster{}},
		{`{"action":"EXPAND_QUEST_SLOTS"}`, game.ExpandQuestSlots{}},
		{`{"action":"RENAME","mercenary_id":"m1","name":"Brakka"}`, game.Rename{ID: "m1", Name: "Brakka"}},
		{`{"action":"RESET_GAME"}`, game.ResetGame{}},
		{`{"action":"CLAIM_ACHIEVEMENT","achievement_id":"first_pull"}`, game.ClaimAchievement{ID: "first_pull"}},
	}
	for _, tc := range cases {
		_, got, err := Parse([]byte(tc.line))
		if err != nil {
			t.Fatalf("%s: %v", tc.line, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %#v want %#v", tc.line, got, tc.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		line string
		err  error
		code string
	}{
		{`not json`, ErrMalformed, ErrProtoBadRequest},
		{`{"mercenary_id":"m1"}`, ErrMalformed, ErrProtoBadRequest},
		{`{"action":"DISPATCH_QUEST","mercenary_id":"m1","hours":"6"}`, ErrMalformed, ErrProtoBadRequest},
		{`{"action":"SELL"}`, ErrMissingField, ErrBadRequest},
		{`{"action":"DISPATCH_QUEST","mercenary_id":"m1"}`, ErrMissingField, ErrBadRequest},
		{`{"action":"RENAME","mercenary_id":"m1"}`, ErrMissingField, ErrBadRequest},
		{`{"action":"LOAD_STATE","save":"@@@"}`, snapshot.ErrInvalidSave, ErrInvalidSave},
		{`{"action":"RECRUT"}`, ErrUnknownType, ErrUnknownAction},
	}
	for _, tc := range cases {
		_, _, err := Parse([]byte(tc.line))
		if !errors.Is(err, tc.err) {
			t.Fatalf("%s: err=%v want %v", tc.line, err, tc.err)
		}
		if got := Code(err); got != tc.code || !IsKnownCode(got) {
			t.Fatalf("%s: code=%s want %s", tc.line, got, tc.code)
		}
	}
}

func TestUnknownTypeSuggestion(t *testing.T) {
	m, _, err := Parse([]byte(`{"id":"r7","action":"RECRUT"}`))
	ack := Reject(m, err)
	if ack.Accepted || ack.AckFor != "r7" || ack.Suggestion != game.KindRecruit {
		t.Fatalf("ack: %+v", ack)
	}

	cases := map[string]string{
		"dispatch":        game.KindDispatchQuest,
		"RENAM":           game.KindRename,
		"BANKRUPTCY":      game.KindBankruptcyReset,
		"CLAIM_ACHIVMENT": game.KindClaimAchievement,
		"XYZZY":           "",
		"":                "",
	}
	for in, want := range cases {
		if got := Suggest(in); got != want {
			t.Fatalf("Suggest(%q)=%q want %q", in, got, want)
		}
	}
}

func TestFromActionRoundTrip(t *testing.T) {
	actions := []game.Action{
		game.Recruit{},
		game.Sell{ID: "m1"},
		game.DispatchQuest{MercenaryID: "m1", Hours: 3},
		game.ResolveQuest{QuestID: "q1"},
		game.Rename{ID: "m1", Name: "Vex"},
		game.ClaimAchievement{ID: "first_sale"},
		game.Tick{},
	}
	for _, a := range actions {
		m, err := FromAction(a)
		if err != nil {
			t.Fatal(err)
		}
		b, err := json.Marshal(m)
		if err != nil {
			t.Fatal(err)
		}
		_, got, err := Parse(b)
		if err != nil {
			t.Fatalf("%s: %v", b, err)
		}
		if got != a {
			t.Fatalf("%s: got %#v", b, got)
		}
	}
}

func TestLoadStateCarriesExport(t *testing.T) {
	st := model.GameState{
		Gold:   321,
		Roster: []model.Mercenary{{ID: "m1", Name: "Vex", Rarity: model.RarityRare, Level: 4, Status: model.StatusAvailable}},
	}
	m, err := FromAction(game.LoadState{State: st})
	if err != nil {
		t.Fatal(err)
	}
	if m.Save == "" {
		t.Fatalf("empty save")
	}
	a, err := m.ToAction()
	if err != nil {
		t.Fatal(err)
	}
	got := a.(game.LoadState).State
	if diff := cmp.Diff(st, got, cmpopts.EquateEmpty(), cmpopts.IgnoreFields(model.GameState{}, "FatigueMultiplier", "Collection", "Stats")); diff != "" {
		t.Fatalf("state (-want +got):\n%s", diff)
	}
}

func TestAccept(t *testing.T) {
	if ack := Accept(ActMsg{ID: "a"}, true); !ack.Accepted || ack.Code != "" {
		t.Fatalf("%+v", ack)
	}
	if ack := Accept(ActMsg{ID: "a"}, false); ack.Accepted || ack.Code != ErrRejected {
		t.Fatalf("%+v", ack)
	}
}

func TestDecodeBaseDefaultsToAct(t *testing.T) {
	b, err := DecodeBase([]byte(`{"action":"TICK"}`))
	if err != nil || b.Type != TypeAct {
		t.Fatalf("%+v %v", b, err)
	}
	b, err = DecodeBase([]byte(`{"type":"STATUS"}`))
	if err != nil || b.Type != TypeStatus {
		t.Fatalf("%+v %v", b, err)
	}
}
