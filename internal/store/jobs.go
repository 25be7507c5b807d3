package store

import (
	"database/sql"

	"github.com/shirk33y/lv/internal/pathutil"
)

// imageExts implements the per-layer file-type filters from spec.md §4.1:
// Dimensions only considers image extensions, GeneratorInfo only PNG.
// Filtering happens in Go via pathutil.Ext (last-dot convention) rather
// than in SQL: a SQL `instr(filename, '.')` finds the first dot, which
// misclassifies multi-dot names like "vacation.2024.01.15.jpg".
var imageExts = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true,
	"webp": true, "tiff": true, "tif": true, "heic": true, "heif": true, "ico": true,
}

// NextMissing returns one random file still missing layer, excluding any
// (file, layer) pair already recorded in job_failures, or nil if none
// remain (spec.md §4.1, invariant I5).
func (s *Store) NextMissing(layer Layer) *NextMissingResult {
	switch layer {
	case LayerHash:
		var r NextMissingResult
		err := s.db.QueryRow(`
			SELECT f.id, f.path FROM files f
			WHERE f.hash IS NULL
			AND NOT EXISTS (SELECT 1 FROM job_failures jf WHERE jf.file_ref = f.id AND jf.layer = ?)
			ORDER BY RANDOM() LIMIT 1`, string(layer)).Scan(&r.FileID, &r.Path)
		if err != nil {
			if err != sql.ErrNoRows {
				logFailure("NextMissing", err)
			}
			return nil
		}
		return &r

	case LayerDimensions:
		return s.nextMissingByExt(`
			SELECT f.id, f.path FROM files f
			LEFT JOIN content_meta m ON f.content_meta_ref = m.id
			WHERE f.content_meta_ref IS NOT NULL AND m.width IS NULL
			AND NOT EXISTS (SELECT 1 FROM job_failures jf WHERE jf.file_ref = f.id AND jf.layer = ?)
			ORDER BY RANDOM()`, layer, func(ext string) bool { return imageExts[ext] })

	case LayerGeneratorInfo:
		return s.nextMissingByExt(`
			SELECT f.id, f.path FROM files f
			LEFT JOIN content_meta m ON f.content_meta_ref = m.id
			WHERE f.content_meta_ref IS NOT NULL AND m.generator_info IS NULL
			AND NOT EXISTS (SELECT 1 FROM job_failures jf WHERE jf.file_ref = f.id AND jf.layer = ?)
			ORDER BY RANDOM()`, layer, func(ext string) bool { return ext == "png" })

	default:
		return nil
	}
}

// nextMissingByExt runs query (already randomly ordered, one (?) placeholder
// for the layer), returning the first row whose path extension satisfies
// keep — the extension match happens here rather than in SQL.
func (s *Store) nextMissingByExt(query string, layer Layer, keep func(ext string) bool) *NextMissingResult {
	rows, err := s.db.Query(query, string(layer))
	if err != nil {
		logFailure("NextMissing", err)
		return nil
	}
	defer rows.Close()

	for rows.Next() {
		var r NextMissingResult
		if err := rows.Scan(&r.FileID, &r.Path); err != nil {
			logFailure("NextMissing", err)
			return nil
		}
		if keep(pathutil.Ext(r.Path)) {
			return &r
		}
	}
	return nil
}

// NextMissingResult is the (file_id, path) pair returned by NextMissing.
type NextMissingResult struct {
	FileID int64
	Path   string
}

// RecordFailure upserts a job_failures row for (fileID, layer), marking
// that pair permanently skipped until explicitly cleared.
func (s *Store) RecordFailure(fileID int64, layer Layer, errText string) {
	_, err := s.db.Exec(
		`INSERT INTO job_failures (file_ref, layer, error) VALUES (?, ?, ?)
		 ON CONFLICT(file_ref, layer) DO UPDATE SET error = excluded.error, created_at = excluded.created_at`,
		fileID, string(layer), errText,
	)
	logFailure("RecordFailure", err)
}

// ClearFailure removes a job_failures row, the only way layer work on
// fileID is retried (spec.md §3: "cleared only by explicit admin action").
func (s *Store) ClearFailure(fileID int64, layer Layer) {
	_, err := s.db.Exec(`DELETE FROM job_failures WHERE file_ref = ? AND layer = ?`, fileID, string(layer))
	logFailure("ClearFailure", err)
}
