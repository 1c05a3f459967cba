package protocol

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"mercgacha.ai/internal/persistence/snapshot"
	"mercgacha.ai/internal/sim/game"
)

//go:embed schemas/act.schema.json
var actSchemaJSON string

var actSchema = jsonschema.MustCompileString("mercgacha://act.schema.json", actSchemaJSON)

var (
	ErrMalformed    = errors.New("malformed message")
	ErrUnknownType  = errors.New("unknown action type")
	ErrMissingField = errors.New("missing field")
)

// UnknownTypeError carries the closest known action kind, when one is close enough.
type UnknownTypeError struct {
	Type       string
	Suggestion string
}

func (e *UnknownTypeError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown action type %q (did you mean %s?)", e.Type, e.Suggestion)
	}
	return fmt.Sprintf("unknown action type %q", e.Type)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// DecodeAct validates one ACT line against the message schema.
func DecodeAct(b []byte) (ActMsg, error) {
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return ActMsg{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := actSchema.Validate(doc); err != nil {
		return ActMsg{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var m ActMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return ActMsg{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

// Parse decodes an ACT line straight to a game action.
func Parse(b []byte) (ActMsg, game.Action, error) {
	m, err := DecodeAct(b)
	if err != nil {
		return m, nil, err
	}
	a, err := m.ToAction()
	return m, a, err
}

func normalizeKind(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

func (m ActMsg) ToAction() (game.Action, error) {
	need := func(field, v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
		return nil
	}

	switch kind := normalizeKind(m.Action); kind {
	case game.KindRecruit:
		return game.Recruit{}, nil
	case game.KindSell:
		if err := need("mercenary_id", m.MercenaryID); err != nil {
			return nil, err
		}
		return game.Sell{ID: m.MercenaryID}, nil
	case game.KindToggleLock:
		if err := need("mercenary_id", m.MercenaryID); err != nil {
			return nil, err
		}
		return game.ToggleLock{ID: m.MercenaryID}, nil
	case game.KindToggleFavorite:
		if err := need("mercenary_id", m.MercenaryID); err != nil {
			return nil, err
		}
		return game.ToggleFavorite{ID: m.MercenaryID}, nil
	case game.KindDispatchQuest:
		if err := need("mercenary_id", m.MercenaryID); err != nil {
			return nil, err
		}
		if m.Hours == 0 {
			return nil, fmt.Errorf("%w: hours", ErrMissingField)
		}
		return game.DispatchQuest{MercenaryID: m.MercenaryID, Hours: m.Hours}, nil
	case game.KindResolveQuest:
		if err := need("quest_id", m.QuestID); err != nil {
			return nil, err
		}
		return game.ResolveQuest{QuestID: m.QuestID}, nil
	case game.KindTick:
		return game.Tick{}, nil
	case game.KindEmergencyLiquidate:
		return game.EmergencyLiquidate{}, nil
	case game.KindBankruptcyReset:
		return game.BankruptcyReset{}, nil
	case game.KindLoadState:
		if err := need("save", m.Save); err != nil {
			return nil, err
		}
		st, err := snapshot.Import(m.Save)
		if err != nil {
			return nil, err
		}
		return game.LoadState{State: st}, nil
	case game.KindExpandRoster:
		return game.ExpandRoster{}, nil
	case game.KindExpandQuestSlots:
		return game.ExpandQuestSlots{}, nil
	case game.KindRename:
		if err := need("mercenary_id", m.MercenaryID); err != nil {
			return nil, err
		}
		if err := need("name", m.Name); err != nil {
			return nil, err
		}
		return game.Rename{ID: m.MercenaryID, Name: m.Name}, nil
	case game.KindResetGame:
		return game.ResetGame{}, nil
	case game.KindClaimAchievement:
		if err := need("achievement_id", m.AchievementID); err != nil {
			return nil, err
		}
		return game.ClaimAchievement{ID: m.AchievementID}, nil
	default:
		return nil, &UnknownTypeError{Type: m.Action, Suggestion: Suggest(kind)}
	}
}

// FromAction is the inverse of ToAction. LOAD_STATE carries the state as an export string.
func FromAction(a game.Action) (ActMsg, error) {
	m := ActMsg{Type: TypeAct, ProtocolVersion: Version, Action: a.Kind()}
	switch act := a.(type) {
	case game.Sell:
		m.MercenaryID = act.ID
	case game.ToggleLock:
		m.MercenaryID = act.ID
	case game.ToggleFavorite:
		m.MercenaryID = act.ID
	case game.DispatchQuest:
		m.MercenaryID = act.MercenaryID
		m.Hours = act.Hours
	case game.ResolveQuest:
		m.QuestID = act.QuestID
	case game.LoadState:
		save, err := snapshot.Export(act.State)
		if err != nil {
			return ActMsg{}, err
		}
		m.Save = save
	case game.Rename:
		m.MercenaryID = act.ID
		m.Name = act.Name
	case game.ClaimAchievement:
		m.AchievementID = act.ID
	}
	return m, nil
}

// Suggest returns the known action kind closest to kind, or "" when none is close.
func Suggest(kind string) string {
	kind = normalizeKind(kind)
	if kind == "" {
		return ""
	}
	best, bestDist := "", -1
	for _, cand := range game.Kinds {
		if strings.HasPrefix(cand, kind) && len(kind) >= 3 {
			return cand
		}
		d := levenshtein.ComputeDistance(kind, cand)
		if d > suggestLimit(len(cand)) {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// Code maps a decode error to its wire code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownType):
		return ErrUnknownAction
	case errors.Is(err, snapshot.ErrInvalidSave):
		return ErrInvalidSave
	case errors.Is(err, ErrMalformed):
		return ErrProtoBadRequest
	case errors.Is(err, ErrMissingField):
		return ErrBadRequest
	default:
		return ErrInternal
	}
}

// Reject builds the ACK for a message that never reached the game.
func Reject(m ActMsg, err error) AckMsg {
	ack := AckMsg{
		Type:            TypeAck,
		ProtocolVersion: Version,
		AckFor:          m.ID,
		Code:            Code(err),
		Message:         err.Error(),
	}
	var ute *UnknownTypeError
	if errors.As(err, &ute) {
		ack.Suggestion = ute.Suggestion
	}
	return ack
}

// Accept builds the ACK for an action the game applied (changed) or ignored.
func Accept(m ActMsg, changed bool) AckMsg {
	ack := AckMsg{Type: TypeAck, ProtocolVersion: Version, AckFor: m.ID, Accepted: changed}
	if !changed {
		ack.Code = ErrRejected
		ack.Message = "preconditions not met"
	}
	return ack
}
