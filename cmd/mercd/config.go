package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds mercd configuration. Environment variables override the defaults and flags
// override both.
type Config struct {
	DataDir    string `env:"MERC_DATA_DIR" envDefault:"./data"`
	ConfigDir  string `env:"MERC_CONFIGS" envDefault:"./configs"`
	TuningPath string `env:"MERC_TUNING"`
	TZ         string `env:"MERC_TZ" envDefault:"Local"`
	Seed       int64  `env:"MERC_SEED"`
	Load       string `env:"MERC_LOAD"`

	IndexBackend string `env:"MERC_INDEX_BACKEND" envDefault:"sqlite"`
	IndexTarget  string `env:"MERC_INDEX_DSN"`

	TickInterval     time.Duration `env:"MERC_TICK" envDefault:"1s"`
	AutosaveInterval time.Duration `env:"MERC_AUTOSAVE" envDefault:"5s"`
	KeepSaves        int           `env:"MERC_KEEP_SAVES" envDefault:"20"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "runtime data directory (saves, journal, index)")
	fs.StringVar(&cfg.ConfigDir, "configs", cfg.ConfigDir, "catalog directory; missing files fall back to the built-in copies")
	fs.StringVar(&cfg.TuningPath, "tuning", cfg.TuningPath, "path to tuning.yaml (default: <configs>/tuning.yaml)")
	fs.StringVar(&cfg.TZ, "tz", cfg.TZ, "IANA time zone that defines the calendar day")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (0 seeds from the clock)")
	fs.StringVar(&cfg.Load, "load", cfg.Load, "save file to load (default: newest save in <data>/saves)")
	fs.StringVar(&cfg.IndexBackend, "index", cfg.IndexBackend, "index backend: sqlite|postgres|none")
	fs.StringVar(&cfg.IndexTarget, "index_dsn", cfg.IndexTarget, "sqlite path or postgres dsn (default: <data>/index.sqlite)")
	fs.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "timer tick interval")
	fs.DurationVar(&cfg.AutosaveInterval, "autosave", cfg.AutosaveInterval, "autosave interval")
	fs.IntVar(&cfg.KeepSaves, "keep_saves", cfg.KeepSaves, "number of save files to keep (0 keeps all)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.AutosaveInterval <= 0 {
		return Config{}, fmt.Errorf("autosave interval must be positive, got %s", cfg.AutosaveInterval)
	}
	return cfg, nil
}

func (c Config) tuningPath() string {
	if p := strings.TrimSpace(c.TuningPath); p != "" {
		return p
	}
	return filepath.Join(c.ConfigDir, "tuning.yaml")
}

func (c Config) indexTarget() string {
	if t := strings.TrimSpace(c.IndexTarget); t != "" {
		return t
	}
	if strings.EqualFold(strings.TrimSpace(c.IndexBackend), "sqlite") {
		return filepath.Join(c.DataDir, "index.sqlite")
	}
	return ""
}
