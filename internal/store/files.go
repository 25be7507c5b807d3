package store

import (
	"database/sql"
	"time"

	"github.com/shirk33y/lv/internal/pathutil"
)

// LookupResult is the narrow projection lookup() returns per spec.md §4.1.
type LookupResult struct {
	ID         int64
	Size       *int64
	ModifiedAt *time.Time
}

// Lookup returns the stored (id, size, mtime) for path, or nil if absent.
func (s *Store) Lookup(path string) *LookupResult {
	path = pathutil.Clean(path)
	var r LookupResult
	var size sql.NullInt64
	var mtime sql.NullString
	err := s.db.QueryRow(
		`SELECT id, size, modified_at FROM files WHERE path = ?`, path,
	).Scan(&r.ID, &size, &mtime)
	if err != nil {
		if err != sql.ErrNoRows {
			logFailure("Lookup", err)
		}
		return nil
	}
	if size.Valid {
		r.Size = &size.Int64
	}
	if mtime.Valid {
		if t, perr := time.Parse(time.RFC3339Nano, mtime.String); perr == nil {
			r.ModifiedAt = &t
		}
	}
	return &r
}

// Insert adds a new file row. Idempotent: returns (0, false) if path is
// already present, matching the "returns None if already present"
// contract in spec.md §4.1.
func (s *Store) Insert(path, dir, filename string, size *int64, modifiedAt *time.Time) (int64, bool) {
	path = pathutil.Clean(path)
	if s.Lookup(path) != nil {
		return 0, false
	}
	res, err := s.db.Exec(
		`INSERT INTO files (path, dir, filename, size, modified_at) VALUES (?, ?, ?, ?, ?)`,
		path, dir, filename, nullInt64(size), nullTimeStr(modifiedAt),
	)
	if err != nil {
		logFailure("Insert", err)
		return 0, false
	}
	id, err := res.LastInsertId()
	if err != nil {
		logFailure("Insert LastInsertId", err)
		return 0, false
	}
	return id, true
}

// UpdateSizeMtime updates the stored size/mtime for id and, per spec.md
// §3, nulls content_hash and content_meta_ref — byte content at this path
// may have changed and its derived metadata is no longer trustworthy.
func (s *Store) UpdateSizeMtime(id int64, size *int64, modifiedAt *time.Time) {
	_, err := s.db.Exec(
		`UPDATE files SET size = ?, modified_at = ?, hash = NULL, content_meta_ref = NULL WHERE id = ?`,
		nullInt64(size), nullTimeStr(modifiedAt), id,
	)
	logFailure("UpdateSizeMtime", err)
}

// RemoveByPath deletes the file row at path, a no-op if none exists
// (spec.md §8-B5).
func (s *Store) RemoveByPath(path string) {
	path = pathutil.Clean(path)
	_, err := s.db.Exec(`DELETE FROM files WHERE path = ?`, path)
	logFailure("RemoveByPath", err)
}

// RemoveByID deletes the file row with the given id.
func (s *Store) RemoveByID(id int64) {
	_, err := s.db.Exec(`DELETE FROM files WHERE id = ?`, id)
	logFailure("RemoveByID", err)
}

// ListByDir returns every file whose dir is exactly dir, sorted by path;
// files in subdirectories of dir are not included.
func (s *Store) ListByDir(dir string) []File {
	rows, err := s.db.Query(selectFileColumns+`
		FROM files f LEFT JOIN content_meta m ON f.content_meta_ref = m.id
		WHERE f.dir = ? ORDER BY f.path`, dir)
	if err != nil {
		logFailure("ListByDir", err)
		return nil
	}
	defer rows.Close()
	return scanFiles(rows)
}

// ListDirs returns every distinct directory that has at least one file,
// sorted.
func (s *Store) ListDirs() []string {
	rows, err := s.db.Query(`SELECT DISTINCT dir FROM files ORDER BY dir`)
	if err != nil {
		logFailure("ListDirs", err)
		return nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

// FirstDir returns the lexicographically first directory with files, or
// "" if the store is empty.
func (s *Store) FirstDir() string {
	var d string
	err := s.db.QueryRow(`SELECT dir FROM files ORDER BY dir LIMIT 1`).Scan(&d)
	if err != nil {
		logFailure("FirstDir", err)
		return ""
	}
	return d
}

// Count returns the total number of indexed files.
func (s *Store) Count() int64 {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		logFailure("Count", err)
		return 0
	}
	return n
}

// NavigateDir returns the directory adjacent to current in sorted order,
// delta steps away (delta is +1 or -1), or "" at a boundary.
func (s *Store) NavigateDir(current string, delta int) string {
	dirs := s.ListDirs()
	if len(dirs) == 0 {
		return ""
	}
	curIdx := -1
	for i, d := range dirs {
		if d == current {
			curIdx = i
			break
		}
	}
	if curIdx < 0 {
		curIdx = 0
	}
	newIdx := curIdx + delta
	if newIdx < 0 || newIdx >= len(dirs) || newIdx == curIdx {
		return ""
	}
	return dirs[newIdx]
}

const selectFileColumns = `SELECT f.id, f.path, f.dir, f.filename, f.size, f.modified_at,
	f.hash, f.content_meta_ref, f.temporary,
	(COALESCE(m.tags_json, '[]') LIKE '%"like"%')`

func scanFiles(rows *sql.Rows) []File {
	var out []File
	for rows.Next() {
		f, err := scanFileRow(rows)
		if err != nil {
			logFailure("scanFiles", err)
			continue
		}
		out = append(out, f)
	}
	return out
}

func scanFileRow(rows *sql.Rows) (File, error) {
	var f File
	var size sql.NullInt64
	var mtime sql.NullString
	var hash sql.NullString
	var metaRef sql.NullInt64
	var temporary int
	var liked int
	if err := rows.Scan(&f.ID, &f.Path, &f.Dir, &f.Filename, &size, &mtime,
		&hash, &metaRef, &temporary, &liked); err != nil {
		return File{}, err
	}
	if size.Valid {
		f.Size = &size.Int64
	}
	if mtime.Valid {
		if t, err := time.Parse(time.RFC3339Nano, mtime.String); err == nil {
			f.ModifiedAt = &t
		}
	}
	if hash.Valid {
		f.ContentHash = &hash.String
	}
	if metaRef.Valid {
		f.ContentMetaRef = &metaRef.Int64
	}
	f.Temporary = temporary != 0
	f.Liked = liked != 0
	return f, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTimeStr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
