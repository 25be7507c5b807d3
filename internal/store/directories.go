package store

import (
	"fmt"

	"github.com/shirk33y/lv/internal/pathutil"
)

// Track marks path as tracked (inserting the row if absent) with the given
// recursive flag. Idempotent.
func (s *Store) Track(path string, recursive bool) error {
	path = pathutil.Clean(path)
	_, err := s.db.Exec(
		`INSERT INTO directories (path, tracked, recursive) VALUES (?, 1, ?)
		 ON CONFLICT(path) DO UPDATE SET tracked = 1, recursive = excluded.recursive`,
		path, boolToInt(recursive),
	)
	if err != nil {
		logFailure("Track", err)
		return fmt.Errorf("tracking %s: %w", path, err)
	}
	return nil
}

// Untrack clears both tracked and watched on path — watching a directory
// that is no longer tracked is meaningless.
func (s *Store) Untrack(path string) error {
	path = pathutil.Clean(path)
	_, err := s.db.Exec(
		`UPDATE directories SET tracked = 0, watched = 0 WHERE path = ?`, path,
	)
	if err != nil {
		logFailure("Untrack", err)
		return fmt.Errorf("untracking %s: %w", path, err)
	}
	return nil
}

// Watch sets watched=1 on path. Fails silently (spec.md §4.1) if path is
// not tracked.
func (s *Store) Watch(path string) {
	path = pathutil.Clean(path)
	_, err := s.db.Exec(
		`UPDATE directories SET watched = 1 WHERE path = ? AND tracked = 1`, path,
	)
	logFailure("Watch", err)
}

// Unwatch clears watched on path.
func (s *Store) Unwatch(path string) {
	path = pathutil.Clean(path)
	_, err := s.db.Exec(`UPDATE directories SET watched = 0 WHERE path = ?`, path)
	logFailure("Unwatch", err)
}

// ListTracked returns every tracked directory.
func (s *Store) ListTracked() []Directory {
	rows, err := s.db.Query(
		`SELECT id, path, tracked, watched, recursive FROM directories WHERE tracked = 1 ORDER BY path`,
	)
	if err != nil {
		logFailure("ListTracked", err)
		return nil
	}
	defer rows.Close()

	var out []Directory
	for rows.Next() {
		var d Directory
		var tracked, watched, recursive int
		if err := rows.Scan(&d.ID, &d.Path, &tracked, &watched, &recursive); err != nil {
			logFailure("ListTracked scan", err)
			continue
		}
		d.Tracked, d.Watched, d.Recursive = tracked != 0, watched != 0, recursive != 0
		out = append(out, d)
	}
	return out
}

// ListWatched returns every watched directory, used by the FS Watcher at
// startup to decide what to register with the OS notification API.
func (s *Store) ListWatched() []Directory {
	rows, err := s.db.Query(
		`SELECT id, path, tracked, watched, recursive FROM directories WHERE watched = 1 ORDER BY path`,
	)
	if err != nil {
		logFailure("ListWatched", err)
		return nil
	}
	defer rows.Close()

	var out []Directory
	for rows.Next() {
		var d Directory
		var tracked, watched, recursive int
		if err := rows.Scan(&d.ID, &d.Path, &tracked, &watched, &recursive); err != nil {
			logFailure("ListWatched scan", err)
			continue
		}
		d.Tracked, d.Watched, d.Recursive = tracked != 0, watched != 0, recursive != 0
		out = append(out, d)
	}
	return out
}

// IsTracked reports whether path has an exact tracked directory row.
func (s *Store) IsTracked(path string) bool {
	path = pathutil.Clean(path)
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM directories WHERE path = ? AND tracked = 1`, path,
	).Scan(&n)
	if err != nil {
		logFailure("IsTracked", err)
		return false
	}
	return n > 0
}

// IsRecursive reports whether path is tracked with the recursive flag set,
// used by the FS Watcher to decide whether a dynamic Watch call should
// register the whole subtree or just path itself.
func (s *Store) IsRecursive(path string) bool {
	path = pathutil.Clean(path)
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM directories WHERE path = ? AND tracked = 1 AND recursive = 1`, path,
	).Scan(&n)
	if err != nil {
		logFailure("IsRecursive", err)
		return false
	}
	return n > 0
}

// IsCovered implements the "covered by ancestor" relation from spec.md §3:
// true iff some tracked, recursive directory q has p == q or p is a
// separator-bounded descendant of q.
func (s *Store) IsCovered(path string) bool {
	path = pathutil.Clean(path)
	rows, err := s.db.Query(
		`SELECT path FROM directories WHERE tracked = 1 AND recursive = 1`,
	)
	if err != nil {
		logFailure("IsCovered", err)
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			continue
		}
		if pathutil.IsCovered(path, q) {
			return true
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
