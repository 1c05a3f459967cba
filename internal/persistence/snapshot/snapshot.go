// Package snapshot is the save format: JSON text for the game state, a base64 export
// string for copy and paste, and zstd save files with a JSON header line.
package snapshot

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"mercgacha.ai/internal/sim/model"
)

const Version = 1

// ErrInvalidSave is wrapped by every decode failure.
var ErrInvalidSave = errors.New("invalid save")

// saveSchema is the minimum a save must look like before it is decoded.
const saveSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["gold", "roster"],
  "properties": {
    "gold": {"type": "number"},
    "roster": {"type": "array", "items": {"type": "object"}},
    "activeQuests": {"type": ["array", "null"]},
    "favorites": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

var schema = jsonschema.MustCompileString("mercgacha://save.schema.json", saveSchema)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
	})
	return encoder, decoder, codecErr
}

type Header struct {
	Version int    `json:"version"`
	SavedAt int64  `json:"saved_at"`
	Digest  string `json:"digest"`
}

func Encode(s model.GameState) ([]byte, error) {
	return json.Marshal(s)
}

// Decode validates the shape of b and decodes it. Collections a save omits come back empty.
func Decode(b []byte) (model.GameState, error) {
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return model.GameState{}, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	if err := schema.Validate(doc); err != nil {
		return model.GameState{}, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	var s model.GameState
	if err := json.Unmarshal(b, &s); err != nil {
		return model.GameState{}, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	normalize(&s)
	return s, nil
}

func normalize(s *model.GameState) {
	if s.Roster == nil {
		s.Roster = []model.Mercenary{}
	}
	if s.ActiveQuests == nil {
		s.ActiveQuests = []model.Quest{}
	}
	if s.Favorites == nil {
		s.Favorites = []string{}
	}
	if s.Collection.TraitsDiscovered == nil {
		s.Collection.TraitsDiscovered = []string{}
	}
	if s.Collection.HighestStats == nil {
		s.Collection.HighestStats = map[model.Rarity]model.Stats{}
	}
	for _, r := range model.Rarities {
		if _, ok := s.Collection.HighestStats[r]; !ok {
			s.Collection.HighestStats[r] = model.Stats{}
		}
	}
	if s.Stats.AchievementsUnlocked == nil {
		s.Stats.AchievementsUnlocked = []string{}
	}
	if s.Stats.RarestPull == "" {
		s.Stats.RarestPull = model.RarityCommon
	}
	if s.FatigueMultiplier < 1 {
		s.FatigueMultiplier = 1
	}
}

// Digest is the sha256 of the state's JSON text.
func Digest(s model.GameState) (string, error) {
	b, err := Encode(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Export is the portable save string: base64 of zstd-compressed JSON.
func Export(s model.GameState) (string, error) {
	b, err := Encode(s)
	if err != nil {
		return "", err
	}
	enc, _, err := codecs()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(enc.EncodeAll(b, nil)), nil
}

// Import accepts an Export string or base64 of plain JSON.
func Import(data string) (model.GameState, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return model.GameState{}, fmt.Errorf("%w: base64: %v", ErrInvalidSave, err)
	}
	if bytes.HasPrefix(raw, zstdMagic) {
		_, dec, err := codecs()
		if err != nil {
			return model.GameState{}, err
		}
		raw, err = dec.DecodeAll(raw, nil)
		if err != nil {
			return model.GameState{}, fmt.Errorf("%w: zstd: %v", ErrInvalidSave, err)
		}
	}
	return Decode(raw)
}

func ImportOK(data string) (model.GameState, bool) {
	s, err := Import(data)
	return s, err == nil
}

const (
	filePrefix = "save-"
	fileSuffix = ".json.zst"
)

// FileName is the save file name for savedAt; names sort in time order.
func FileName(savedAt time.Time) string {
	return filePrefix + savedAt.UTC().Format("20060102-150405.000") + fileSuffix
}

// WriteFile stamps LastSaveTime and writes the state to path, replacing any previous file
// only once the new one is complete.
func WriteFile(path string, s model.GameState, savedAt time.Time) (Header, error) {
	st := s.Clone()
	st.LastSaveTime = savedAt.UnixMilli()

	body, err := Encode(st)
	if err != nil {
		return Header{}, err
	}
	sum := sha256.Sum256(body)
	h := Header{Version: Version, SavedAt: st.LastSaveTime, Digest: hex.EncodeToString(sum[:])}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Header{}, err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return Header{}, err
	}
	if err := writeBody(f, h, body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return Header{}, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return Header{}, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return Header{}, err
	}
	return h, nil
}

func writeBody(w io.Writer, h Header, body []byte) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	hb, _ := json.Marshal(h)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := bw.Write(body); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

// ReadFile reads a save file and checks its digest.
func ReadFile(path string) (Header, model.GameState, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, model.GameState{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Header{}, model.GameState{}, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return Header{}, model.GameState{}, fmt.Errorf("%w: header: %v", ErrInvalidSave, err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return Header{}, model.GameState{}, fmt.Errorf("%w: header: %v", ErrInvalidSave, err)
	}
	if h.Version != Version {
		return h, model.GameState{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidSave, h.Version)
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return h, model.GameState{}, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	sum := sha256.Sum256(body)
	if got := hex.EncodeToString(sum[:]); got != h.Digest {
		return h, model.GameState{}, fmt.Errorf("%w: digest mismatch", ErrInvalidSave)
	}
	s, err := Decode(body)
	return h, s, err
}

// List returns the save files in dir, oldest first.
func List(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// Latest returns the newest save in dir, or "" when there is none.
func Latest(dir string) (string, error) {
	files, err := List(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	if len(files) == 0 {
		return "", nil
	}
	return files[len(files)-1], nil
}

// Prune keeps the newest keep saves in dir and removes the rest.
func Prune(dir string, keep int) (int, error) {
	files, err := List(dir)
	if err != nil || len(files) <= keep {
		return 0, err
	}
	removed := 0
	for _, p := range files[:len(files)-keep] {
		if err := os.Remove(p); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
