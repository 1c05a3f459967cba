package game

import "mercgacha.ai/internal/sim/model"

const (
	KindRecruit            = "RECRUIT"
	KindSell               = "SELL"
	KindToggleLock         = "TOGGLE_LOCK"
	KindToggleFavorite     = "TOGGLE_FAVORITE"
	KindDispatchQuest      = "DISPATCH_QUEST"
	KindResolveQuest       = "RESOLVE_QUEST"
	KindTick               = "TICK"
	KindEmergencyLiquidate = "EMERGENCY_LIQUIDATE"
	KindBankruptcyReset    = "BANKRUPTCY_RESET"
	KindLoadState          = "LOAD_STATE"
	KindExpandRoster       = "EXPAND_ROSTER"
	KindExpandQuestSlots   = "EXPAND_QUEST_SLOTS"
	KindRename             = "RENAME"
	KindResetGame          = "RESET_GAME"
	KindClaimAchievement   = "CLAIM_ACHIEVEMENT"
)

// Kinds lists every action kind in declaration order.
var Kinds = []string{
	KindRecruit,
	KindSell,
	KindToggleLock,
	KindToggleFavorite,
	KindDispatchQuest,
	KindResolveQuest,
	KindTick,
	KindEmergencyLiquidate,
	KindBankruptcyReset,
	KindLoadState,
	KindExpandRoster,
	KindExpandQuestSlots,
	KindRename,
	KindResetGame,
	KindClaimAchievement,
}

// Action is the closed set of state transitions. Only types in this package implement it.
type Action interface {
	Kind() string
	isAction()
}

type Recruit struct{}

type Sell struct{ ID string }

type ToggleLock struct{ ID string }

type ToggleFavorite struct{ ID string }

// DispatchQuest sends a mercenary out for Hours declared hours.
type DispatchQuest struct {
	MercenaryID string
	Hours       int
}

type ResolveQuest struct{ QuestID string }

type Tick struct{}

type EmergencyLiquidate struct{}

type BankruptcyReset struct{}

// LoadState replaces the whole state with an already-validated snapshot.
type LoadState struct{ State model.GameState }

type ExpandRoster struct{}

type ExpandQuestSlots struct{}

type Rename struct {
	ID   string
	Name string
}

type ResetGame struct{}

type ClaimAchievement struct{ ID string }

func (Recruit) Kind() string { return KindRecruit }
func (Sell) Kind() string { return KindSell }
func (ToggleLock) Kind() string { return KindToggleLock }
func (ToggleFavorite) Kind() string { return KindToggleFavorite }
func (DispatchQuest) Kind() string { return KindDispatchQuest }
func (ResolveQuest) Kind() string { return KindResolveQuest }
func (Tick) Kind() string { return KindTick }
func (EmergencyLiquidate) Kind() string { return KindEmergencyLiquidate }
func (BankruptcyReset) Kind() string { return KindBankruptcyReset }
func (LoadState) Kind() string { return KindLoadState }
func (ExpandRoster) Kind() string { return KindExpandRoster }
func (ExpandQuestSlots) Kind() string { return KindExpandQuestSlots }
func (Rename) Kind() string { return KindRename }
func (ResetGame) Kind() string { return KindResetGame }
func (ClaimAchievement) Kind() string { return KindClaimAchievement }

func (Recruit) isAction() {}
func (Sell) isAction() {}
func (ToggleLock) isAction() {}
func (ToggleFavorite) isAction() {}
func (DispatchQuest) isAction() {}
func (ResolveQuest) isAction() {}
func (Tick) isAction() {}
func (EmergencyLiquidate) isAction() {}
func (BankruptcyReset) isAction() {}
func (LoadState) isAction() {}
func (ExpandRoster) isAction() {}
func (ExpandQuestSlots) isAction() {}
func (Rename) isAction() {}
func (ResetGame) isAction() {}
func (ClaimAchievement) isAction() {}
