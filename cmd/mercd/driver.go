package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"mercgacha.ai/internal/protocol"
	"mercgacha.ai/internal/sim/game"
	"mercgacha.ai/internal/sim/model"
	"mercgacha.ai/internal/sim/scheduler"
)

const maxLine = 4 << 20

// driver reads one JSON message per line and answers each with one line.
type driver struct {
	r      *game.Reducer
	sch    *scheduler.Scheduler
	enc    *json.Encoder
	logger *log.Logger
}

func newDriver(r *game.Reducer, sch *scheduler.Scheduler, out io.Writer, logger *log.Logger) *driver {
	return &driver{r: r, sch: sch, enc: json.NewEncoder(out), logger: logger}
}

// serve returns when in is exhausted or ctx is done.
func (d *driver) serve(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		d.handle(ctx, line)
	}
	return sc.Err()
}

func (d *driver) handle(ctx context.Context, line []byte) {
	base, err := protocol.DecodeBase(line)
	if err != nil {
		d.write(protocol.Reject(protocol.ActMsg{}, fmt.Errorf("%w: %v", protocol.ErrMalformed, err)))
		return
	}
	switch strings.ToUpper(base.Type) {
	case protocol.TypeStatus:
		d.write(statusOf(d.r, d.sch.State(), d.sch.Seq()))
	case protocol.TypeAct:
		m, a, err := protocol.Parse(line)
		if err != nil {
			d.write(protocol.Reject(m, err))
			return
		}
		changed, err := d.sch.Do(ctx, a)
		switch {
		case errors.Is(err, scheduler.ErrInboxFull):
			d.write(protocol.AckMsg{Type: protocol.TypeAck, ProtocolVersion: protocol.Version, AckFor: m.ID, Code: protocol.ErrBusy, Message: "inbox full, retry"})
		case err != nil:
			d.write(protocol.AckMsg{Type: protocol.TypeAck, ProtocolVersion: protocol.Version, AckFor: m.ID, Code: protocol.ErrInternal, Message: err.Error()})
		default:
			d.write(protocol.Accept(m, changed))
		}
	default:
		d.write(protocol.Reject(protocol.ActMsg{}, fmt.Errorf("%w: unknown message type %q", protocol.ErrMalformed, base.Type)))
	}
}

func (d *driver) write(v any) {
	if err := d.enc.Encode(v); err != nil && d.logger != nil {
		d.logger.Printf("write: %v", err)
	}
}

func statusOf(r *game.Reducer, s model.GameState, seq uint64) protocol.StatusMsg {
	msg := protocol.StatusMsg{
		Type:            protocol.TypeStatus,
		ProtocolVersion: protocol.Version,
		Seq:             seq,
		Gold:            s.Gold,
		PullCost:        r.PullCost(s),
		Fatigue:         s.FatigueMultiplier,
		RosterSize:      len(s.Roster),
		RosterSlots:     s.RosterSlots,
		ActiveQuests:    len(s.ActiveQuests),
		QuestSlots:      s.QuestSlots,
		Market:          string(s.MarketState),
		MarketEndsAt:    s.MarketStateEndTime,
	}
	for _, a := range r.PendingAchievements(s) {
		msg.Pending = append(msg.Pending, a.ID)
	}
	return msg
}
