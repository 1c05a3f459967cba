package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"mercgacha.ai/internal/protocol"
	"mercgacha.ai/internal/sim/scheduler"
)

// JSONLZstdWriter appends JSON lines to one zstd file per UTC hour.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Write appends v to the file for the hour containing at.
func (w *JSONLZstdWriter) Write(at time.Time, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := at.UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Flush pushes buffered frames to disk without closing the current file.
func (w *JSONLZstdWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.enc == nil {
		return nil
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.PathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

// PathForHour is the file an hour key ("2006-01-02-15") is written to.
func (w *JSONLZstdWriter) PathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// ActionEntry is one journal line: an applied action and a summary of its result.
type ActionEntry struct {
	Seq    uint64          `json:"seq"`
	At     int64           `json:"at"`
	Action protocol.ActMsg `json:"action"`
	Gold   int             `json:"gold"`
	Roster int             `json:"roster"`
	Quests int             `json:"quests"`
}

// ActionLogger journals every state-changing action (compressed).
type ActionLogger struct{ w *JSONLZstdWriter }

func NewActionLogger(dir string) *ActionLogger {
	return &ActionLogger{w: NewJSONLZstdWriter(dir, "actions")}
}

func (l *ActionLogger) WriteChange(c scheduler.Change) error {
	msg, err := protocol.FromAction(c.Action)
	if err != nil {
		return err
	}
	return l.w.Write(c.At, ActionEntry{
		Seq:    c.Seq,
		At:     c.At.UnixMilli(),
		Action: msg,
		Gold:   c.State.Gold,
		Roster: len(c.State.Roster),
		Quests: len(c.State.ActiveQuests),
	})
}

func (l *ActionLogger) Flush() error { return l.w.Flush() }
func (l *ActionLogger) Close() error { return l.w.Close() }

// ReadActions decodes every entry of one journal file.
func ReadActions(path string) ([]ActionEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []ActionEntry
	jd := json.NewDecoder(bufio.NewReader(dec))
	for {
		var e ActionEntry
		if err := jd.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("%s: entry %d: %w", path, len(out), err)
		}
		out = append(out, e)
	}
}
