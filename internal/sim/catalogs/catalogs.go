package catalogs

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	"mercgacha.ai/internal/sim/model"
)

//go:embed data/*.json
var builtin embed.FS

type Catalogs struct {
	Traits       TraitCatalog
	Names        NameCatalog
	Achievements AchievementCatalog
	Starter      StarterDef
}

type TraitCatalog struct {
	Positive []model.Trait `json:"positive"`
	Negative []model.Trait `json:"negative"`
	ByName   map[string]model.Trait
	Digest   string
}

// Count is the number of distinct traits across both pools.
func (c TraitCatalog) Count() int { return len(c.ByName) }

type NameCatalog struct {
	FirstNames []string `json:"first_names"`
	Epithets   []string `json:"epithets"`
	Morale     []string `json:"morale"`
	Digest     string
}

type AchievementCatalog struct {
	Defs   []AchievementDef
	ByID   map[string]AchievementDef
	Digest string
}

type AchievementDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Reward      int    `json:"reward"`
}

type StarterDef struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Rarity model.Rarity `json:"rarity"`
	Level  int          `json:"level"`
	Stats  model.Stats  `json:"stats"`
	Traits []string     `json:"traits"`
	Morale string       `json:"morale"`
	Digest string       `json:"-"`
}

// Default returns the catalogs compiled into the binary.
func Default() (*Catalogs, error) {
	sub, err := fs.Sub(builtin, "data")
	if err != nil {
		return nil, err
	}
	return load(sub)
}

// MustDefault is Default for tests and static initialisation.
func MustDefault() *Catalogs {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads traits.json, names.json, achievements.json and starter.json from configDir.
// Files missing from the directory fall back to the built-in copies.
func Load(configDir string) (*Catalogs, error) {
	if configDir == "" {
		return Default()
	}
	sub, err := fs.Sub(builtin, "data")
	if err != nil {
		return nil, err
	}
	return load(overlayFS{dir: os.DirFS(configDir), fallback: sub})
}

type overlayFS struct {
	dir      fs.FS
	fallback fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.dir.Open(name)
	if err == nil {
		return f, nil
	}
	return o.fallback.Open(name)
}

func load(fsys fs.FS) (*Catalogs, error) {
	var c Catalogs
	if err := loadTraits(fsys, "traits.json", &c.Traits); err != nil {
		return nil, err
	}
	if err := loadNames(fsys, "names.json", &c.Names); err != nil {
		return nil, err
	}
	if err := loadAchievements(fsys, "achievements.json", &c.Achievements); err != nil {
		return nil, err
	}
	if err := loadStarter(fsys, "starter.json", &c.Starter, c.Traits); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadTraits(fsys fs.FS, name string, out *TraitCatalog) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	out.Digest = sha256Hex(raw)
	out.ByName = map[string]model.Trait{}
	add := func(t model.Trait, positive bool) error {
		if t.Name == "" {
			return fmt.Errorf("%s: empty trait name", name)
		}
		if t.IsPositive != positive {
			return fmt.Errorf("%s: trait %q is in the wrong pool", name, t.Name)
		}
		if _, dup := out.ByName[t.Name]; dup {
			return fmt.Errorf("%s: duplicate trait %q", name, t.Name)
		}
		out.ByName[t.Name] = t
		return nil
	}
	for _, t := range out.Positive {
		if err := add(t, true); err != nil {
			return err
		}
	}
	for _, t := range out.Negative {
		if err := add(t, false); err != nil {
			return err
		}
	}
	return nil
}

func loadNames(fsys fs.FS, name string, out *NameCatalog) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if len(out.FirstNames) == 0 {
		return fmt.Errorf("%s: no first names", name)
	}
	out.Digest = sha256Hex(raw)
	return nil
}

func loadAchievements(fsys fs.FS, name string, out *AchievementCatalog) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, &out.Defs); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	out.ByID = make(map[string]AchievementDef, len(out.Defs))
	for _, d := range out.Defs {
		if d.ID == "" {
			return fmt.Errorf("%s: empty id", name)
		}
		if d.Reward < 0 {
			return fmt.Errorf("%s: negative reward for %s", name, d.ID)
		}
		out.ByID[d.ID] = d
	}
	out.Digest = sha256Hex(raw)
	return nil
}

func loadStarter(fsys fs.FS, name string, out *StarterDef, traits TraitCatalog) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if out.ID == "" || out.Rarity.Rank() < 0 {
		return fmt.Errorf("%s: bad starter id or rarity", name)
	}
	for _, t := range out.Traits {
		if _, ok := traits.ByName[t]; !ok {
			return fmt.Errorf("%s: unknown trait %q", name, t)
		}
	}
	out.Digest = sha256Hex(raw)
	return nil
}

// StarterTraits resolves the starter's trait names against the trait catalog.
func (c *Catalogs) StarterTraits() []model.Trait {
	out := make([]model.Trait, 0, len(c.Starter.Traits))
	for _, n := range c.Starter.Traits {
		out = append(out, c.Traits.ByName[n].Clone())
	}
	return out
}

// Files lists the catalog file names, for digest indexing.
func Files() []string {
	return []string{"traits.json", "names.json", "achievements.json", "starter.json"}
}
