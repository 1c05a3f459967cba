// Package scheduler serializes every state transition of one game onto a single goroutine:
// submitted actions, the periodic tick, and the quest resolutions they make due.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"mercgacha.ai/internal/sim/game"
	"mercgacha.ai/internal/sim/model"
)

type Config struct {
	TickInterval time.Duration // default 1s
	InboxSize    int           // default 256
	Logger       *log.Logger   // nil disables logging
}

// Change is delivered to observers after every action that changed the state.
// Prev and State must be treated as read-only.
type Change struct {
	Seq    uint64
	Action game.Action
	Prev   model.GameState
	State  model.GameState
	At     time.Time
}

type Observer func(Change)

// ErrInboxFull is returned by Do when the action could not be queued.
var ErrInboxFull = errors.New("scheduler: inbox full")

type envelope struct {
	action game.Action
	reply  chan<- bool
}

type Scheduler struct {
	cfg Config
	r   *game.Reducer

	inbox    chan envelope
	stop     chan struct{}
	stopOnce sync.Once

	// state is owned by the goroutine running Run (or the caller of Step).
	state  model.GameState
	latest atomic.Pointer[model.GameState]

	seq     atomic.Uint64
	dropped atomic.Uint64

	obsMu     sync.RWMutex
	observers []Observer
}

func New(cfg Config, r *game.Reducer, initial model.GameState) (*Scheduler, error) {
	if r == nil {
		return nil, errors.New("scheduler: nil reducer")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 256
	}
	s := &Scheduler{
		cfg:   cfg,
		r:     r,
		inbox: make(chan envelope, cfg.InboxSize),
		stop:  make(chan struct{}),
		state: initial.Clone(),
	}
	s.publish()
	return s, nil
}

// Observe registers fn. Observers run synchronously on the scheduler goroutine.
func (s *Scheduler) Observe(fn Observer) {
	if fn == nil {
		return
	}
	s.obsMu.Lock()
	s.observers = append(s.observers, fn)
	s.obsMu.Unlock()
}

// Submit queues a for the running loop. It never blocks and reports false when the inbox is full.
func (s *Scheduler) Submit(a game.Action) bool {
	if a == nil {
		return false
	}
	select {
	case s.inbox <- envelope{action: a}:
		return true
	default:
		s.dropped.Add(1)
		s.logf("inbox full, dropped %s", a.Kind())
		return false
	}
}

// Do queues a and waits until the running loop has applied it. The result reports whether
// a itself changed the state.
func (s *Scheduler) Do(ctx context.Context, a game.Action) (bool, error) {
	if a == nil {
		return false, errors.New("scheduler: nil action")
	}
	reply := make(chan bool, 1)
	select {
	case s.inbox <- envelope{action: a, reply: reply}:
	default:
		s.dropped.Add(1)
		return false, ErrInboxFull
	}
	select {
	case changed := <-reply:
		return changed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.stop:
		return false, errors.New("scheduler: stopped")
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	// Catch up on anything that fell due while the state was at rest.
	s.apply(game.Tick{})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case env := <-s.inbox:
			changed := s.apply(env.action)
			if env.reply != nil {
				env.reply <- changed
			}
		case <-ticker.C:
			s.apply(game.Tick{})
		}
	}
}

func (s *Scheduler) Stop() { s.stopOnce.Do(func() { close(s.stop) }) }

// Step applies a synchronously, followed by any quest resolutions it makes due. It must not
// be used while Run is active.
func (s *Scheduler) Step(a game.Action) bool {
	return s.apply(a)
}

// State returns a deep copy of the latest published state.
func (s *Scheduler) State() model.GameState {
	p := s.latest.Load()
	if p == nil {
		return model.GameState{}
	}
	return p.Clone()
}

func (s *Scheduler) Seq() uint64     { return s.seq.Load() }
func (s *Scheduler) Dropped() uint64 { return s.dropped.Load() }

// apply reports whether a itself changed the state; due resolutions that follow it are not
// counted.
func (s *Scheduler) apply(a game.Action) bool {
	changed := s.applyOne(a)
	for _, id := range game.DueQuests(s.state, s.r.Now().UnixMilli()) {
		s.applyOne(game.ResolveQuest{QuestID: id})
	}
	return changed
}

func (s *Scheduler) applyOne(a game.Action) bool {
	prev := s.state
	next, changed := s.r.Step(prev, a)
	if !changed {
		return false
	}
	s.state = next
	s.describe(prev, next, a)
	s.publish()

	c := Change{Seq: s.seq.Add(1), Action: a, Prev: prev, State: next, At: s.r.Now()}
	s.obsMu.RLock()
	obs := s.observers
	s.obsMu.RUnlock()
	for _, fn := range obs {
		fn(c)
	}
	return true
}

func (s *Scheduler) publish() {
	snap := s.state.Clone()
	s.latest.Store(&snap)
}

// describe logs the transitions a player would want to hear about.
func (s *Scheduler) describe(prev, next model.GameState, a game.Action) {
	if s.cfg.Logger == nil {
		return
	}
	switch act := a.(type) {
	case game.ResolveQuest:
		qi, ok := prev.FindQuest(act.QuestID)
		if !ok {
			return
		}
		q := prev.ActiveQuests[qi]
		mi, ok := next.FindMercenary(q.MercenaryID)
		if !ok {
			s.logf("quest %s resolved without its mercenary", q.ID)
			return
		}
		m := next.Roster[mi]
		gold := next.Gold - prev.Gold
		switch m.Status {
		case model.StatusDead:
			s.logf("%s died on a %dh quest", m.Name, q.Duration)
		case model.StatusInjured:
			s.logf("%s returned injured from a %dh quest (+%s gold)", m.Name, q.Duration, humanize.Comma(int64(gold)))
		default:
			s.logf("%s completed a %dh quest (+%s gold)", m.Name, q.Duration, humanize.Comma(int64(gold)))
		}
	case game.Tick:
		if next.LastWagePayment == prev.LastWagePayment {
			return
		}
		paid := next.Stats.TotalGoldSpent - prev.Stats.TotalGoldSpent
		left := len(prev.Roster) - len(next.Roster)
		if left > 0 {
			s.logf("wages unpaid (took %s gold), %d mercenaries deserted", humanize.Comma(int64(paid)), left)
			return
		}
		s.logf("wages paid: %s gold, %s gold left", humanize.Comma(int64(paid)), humanize.Comma(int64(next.Gold)))
	}
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Printf(format, args...)
	}
}
