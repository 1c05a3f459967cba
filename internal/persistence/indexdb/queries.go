package indexdb

import (
	"context"
	"database/sql"
	"errors"
)

type ActionRecord struct {
	RunID  string `json:"run_id"`
	Seq    uint64 `json:"seq"`
	At     int64  `json:"at"`
	Kind   string `json:"kind"`
	JSON   string `json:"act_json"`
	Gold   int    `json:"gold"`
	Roster int    `json:"roster"`
	Quests int    `json:"quests"`
}

// RecentActions returns the newest actions first.
func (s *Index) RecentActions(ctx context.Context, limit int) ([]ActionRecord, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect,
		`SELECT run_id, seq, at, kind, act_json, gold, roster, quests FROM actions ORDER BY at DESC, seq DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var r ActionRecord
		var seq int64
		if err := rows.Scan(&r.RunID, &seq, &r.At, &r.Kind, &r.JSON, &r.Gold, &r.Roster, &r.Quests); err != nil {
			return nil, err
		}
		r.Seq = uint64(seq)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountByKind tallies indexed actions per kind.
func (s *Index) CountByKind(ctx context.Context) (map[string]int, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM actions GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, rows.Err()
}

// Saves returns the newest recorded saves first.
func (s *Index) Saves(ctx context.Context, limit int) ([]SaveRow, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect,
		`SELECT path, saved_at, digest, gold, roster, total_pulls, recorded_at FROM saves ORDER BY saved_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaveRow
	for rows.Next() {
		var r SaveRow
		if err := rows.Scan(&r.Path, &r.SavedAt, &r.Digest, &r.Gold, &r.Roster, &r.TotalPulls, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CatalogDigest returns the stored digest for a catalog, or "" if it was never recorded.
func (s *Index) CatalogDigest(ctx context.Context, name string) (string, error) {
	if s == nil {
		return "", nil
	}
	var digest string
	err := s.db.QueryRowContext(ctx, rebind(s.dialect, `SELECT digest FROM catalogs WHERE name = ?`), name).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return digest, err
}
