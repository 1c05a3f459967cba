// Package game is the state machine: a Reducer turns (GameState, Action) into the next
// GameState. Unsatisfied preconditions are silent no-ops that return the input unchanged.
package game

import (
	"fmt"
	"sync"
	"time"

	"mercgacha.ai/internal/sim/catalogs"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/rng"
	"mercgacha.ai/internal/sim/tuning"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock only moves when told to.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixedClock(t time.Time) *FixedClock { return &FixedClock{t: t} }

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type Config struct {
	Tuning   tuning.Tuning
	Catalogs *catalogs.Catalogs
	Rand     rng.Source
	Clock    Clock
	// Location decides calendar-day boundaries for the daily discount and wages.
	Location *time.Location
}

type Reducer struct {
	tune  tuning.Tuning
	cats  *catalogs.Catalogs
	rand  rng.Source
	clock Clock
	loc   *time.Location
}

func New(cfg Config) (*Reducer, error) {
	if cfg.Catalogs == nil {
		return nil, fmt.Errorf("game: catalogs are required")
	}
	if cfg.Rand == nil {
		return nil, fmt.Errorf("game: random source is required")
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Reducer{
		tune:  cfg.Tuning,
		cats:  cfg.Catalogs,
		rand:  cfg.Rand,
		clock: cfg.Clock,
		loc:   cfg.Location,
	}, nil
}

func (r *Reducer) Tuning() tuning.Tuning { return r.tune }
func (r *Reducer) Catalogs() *catalogs.Catalogs { return r.cats }
func (r *Reducer) Now() time.Time { return r.clock.Now() }
func (r *Reducer) nowMillis() int64 { return r.clock.Now().UnixMilli() }
func (r *Reducer) Location() *time.Location { return r.loc }

// Apply returns the state after a. On a no-op the input value is returned as is.
func (r *Reducer) Apply(s model.GameState, a Action) model.GameState {
	next, _ := r.Step(s, a)
	return next
}

// Step is Apply that also reports whether anything changed.
func (r *Reducer) Step(s model.GameState, a Action) (model.GameState, bool) {
	now := r.nowMillis()
	var (
		next model.GameState
		ok   bool
	)
	switch a := a.(type) {
	case Recruit:
		next, ok = r.recruit(s, now)
	case Sell:
		next, ok = r.sell(s, a.ID)
	case ToggleLock:
		next, ok = r.toggleLock(s, a.ID)
	case ToggleFavorite:
		next, ok = r.toggleFavorite(s, a.ID)
	case DispatchQuest:
		next, ok = r.dispatch(s, a.MercenaryID, a.Hours, now)
	case ResolveQuest:
		next, ok = r.resolve(s, a.QuestID, now)
	case Tick:
		next, ok = r.tick(s, now)
	case EmergencyLiquidate:
		next, ok = r.liquidate(s, now)
	case BankruptcyReset:
		next, ok = r.bankruptcy(s, now)
	case LoadState:
		next, ok = a.State.Clone(), true
	case ExpandRoster:
		next, ok = r.expandRoster(s)
	case ExpandQuestSlots:
		next, ok = r.expandQuestSlots(s)
	case Rename:
		next, ok = r.rename(s, a.ID, a.Name)
	case ResetGame:
		next, ok = NewState(r.tune, r.cats, now), true
	case ClaimAchievement:
		next, ok = r.claimAchievement(s, a.ID, now)
	default:
		return s, false
	}
	if !ok {
		return s, false
	}
	return next, true
}

// NewState builds a fresh game at the reducer's current time.
func (r *Reducer) NewState() model.GameState {
	return NewState(r.tune, r.cats, r.nowMillis())
}

func (r *Reducer) sameDay(a, b int64) bool {
	ta := time.UnixMilli(a).In(r.loc)
	tb := time.UnixMilli(b).In(r.loc)
	ya, ma, da := ta.Date()
	yb, mb, db := tb.Date()
	return ya == yb && ma == mb && da == db
}

const (
	msPerMinute = int64(time.Minute / time.Millisecond)
	msPerHour   = int64(time.Hour / time.Millisecond)
)

func hoursToMillis(h float64) int64 { return int64(h * float64(msPerHour)) }
