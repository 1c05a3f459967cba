package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mercgacha.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	backend := fs.String("backend", "sqlite", "index backend: sqlite|postgres")
	dsn := fs.String("dsn", "", "sqlite path or postgres dsn (default: <data>/index.sqlite)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "actions"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	target := strings.TrimSpace(*dsn)
	if target == "" && strings.EqualFold(*backend, "sqlite") {
		target = filepath.Join(*dataDir, "index.sqlite")
	}
	idx, err := indexdb.Open(*backend, target)
	if err != nil {
		fail(1, "open:", err)
	}
	if idx == nil {
		fail(2, "no index backend configured")
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := queryIndex(ctx, os.Stdout, idx, q, *limit); err != nil {
		fail(1, q+":", err)
	}
}

var catalogNames = []string{"traits", "names", "achievements", "starter", "tuning"}

func queryIndex(ctx context.Context, w io.Writer, idx *indexdb.Index, q string, limit int) error {
	switch q {
	case "actions":
		recs, err := idx.RecentActions(ctx, limit)
		if err != nil {
			return err
		}
		for _, r := range recs {
			printJSON(w, r)
		}
	case "kinds":
		counts, err := idx.CountByKind(ctx)
		if err != nil {
			return err
		}
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(w, "%s\t%d\n", k, counts[k])
		}
	case "saves":
		rows, err := idx.Saves(ctx, limit)
		if err != nil {
			return err
		}
		for _, r := range rows {
			printJSON(w, r)
		}
	case "catalogs":
		for _, name := range catalogNames {
			d, err := idx.CatalogDigest(ctx, name)
			if err != nil {
				return err
			}
			if d == "" {
				d = "-"
			}
			fmt.Fprintf(w, "%s\t%s\n", name, d)
		}
	default:
		return fmt.Errorf("unknown query %q (want actions|kinds|saves|catalogs)", q)
	}
	return nil
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
