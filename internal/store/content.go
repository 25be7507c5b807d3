package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// EnsureMetaForHash returns the ContentMeta id for hash, creating an empty
// row if none exists yet.
func (s *Store) EnsureMetaForHash(hash string) int64 {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM content_meta WHERE hash = ?`, hash).Scan(&id)
	if err == nil {
		return id
	}
	if err != sql.ErrNoRows {
		logFailure("EnsureMetaForHash select", err)
	}
	res, err := s.db.Exec(`INSERT INTO content_meta (hash) VALUES (?)`, hash)
	if err != nil {
		// Lost the race against a concurrent insert; re-read.
		logFailure("EnsureMetaForHash insert", err)
		if err2 := s.db.QueryRow(`SELECT id FROM content_meta WHERE hash = ?`, hash).Scan(&id); err2 == nil {
			return id
		}
		return 0
	}
	id, err = res.LastInsertId()
	if err != nil {
		logFailure("EnsureMetaForHash LastInsertId", err)
		return 0
	}
	return id
}

// LinkFileToHash creates a ContentMeta for hash if needed and points
// fileID's content_hash/content_meta_ref at it (spec.md §3 invariant I3).
func (s *Store) LinkFileToHash(fileID int64, hash string) {
	metaID := s.EnsureMetaForHash(hash)
	if metaID == 0 {
		return
	}
	_, err := s.db.Exec(
		`UPDATE files SET hash = ?, content_meta_ref = ? WHERE id = ?`,
		hash, metaID, fileID,
	)
	logFailure("LinkFileToHash", err)
}

// SetDimensions records decoded width/height/format for the file's
// ContentMeta. If the file has no ContentMeta yet (which does not happen
// in normal operation, since Hash runs before Dimensions), nothing is
// recorded and the failure is only logged.
func (s *Store) SetDimensions(fileID int64, width, height int64, format string) {
	metaID := s.metaRefFor(fileID)
	if metaID == nil {
		logFailure("SetDimensions", errNoContentMeta(fileID))
		return
	}
	_, err := s.db.Exec(
		`UPDATE content_meta SET width = ?, height = ?, format = ? WHERE id = ?`,
		width, height, format, *metaID,
	)
	logFailure("SetDimensions", err)
}

// SetGeneratorInfo records the extracted generator text blob on the
// file's ContentMeta.
func (s *Store) SetGeneratorInfo(fileID int64, text string) {
	metaID := s.metaRefFor(fileID)
	if metaID == nil {
		logFailure("SetGeneratorInfo", errNoContentMeta(fileID))
		return
	}
	_, err := s.db.Exec(
		`UPDATE content_meta SET generator_info = ? WHERE id = ?`, text, *metaID,
	)
	logFailure("SetGeneratorInfo", err)
}

// GetTags returns the tag set for a ContentMeta row.
func (s *Store) GetTags(metaID int64) []string {
	var raw string
	err := s.db.QueryRow(`SELECT COALESCE(tags_json, '[]') FROM content_meta WHERE id = ?`, metaID).Scan(&raw)
	if err != nil {
		logFailure("GetTags", err)
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		logFailure("GetTags unmarshal", err)
		return nil
	}
	return tags
}

// SetTags replaces the tag set for a ContentMeta row. Round-trips through
// GetTags/SetTags are a no-op (spec.md §8-R2): the JSON array is
// serialized without caring about element order changes beyond what the
// caller supplied.
func (s *Store) SetTags(metaID int64, tags []string) {
	raw, err := json.Marshal(tags)
	if err != nil {
		logFailure("SetTags marshal", err)
		return
	}
	_, err = s.db.Exec(`UPDATE content_meta SET tags_json = ? WHERE id = ?`, string(raw), metaID)
	logFailure("SetTags", err)
}

// GetMetadata returns the full denormalized record for the info sidebar.
func (s *Store) GetMetadata(fileID int64) *FileMetadata {
	var m FileMetadata
	var size sql.NullInt64
	var mtimeStr sql.NullString
	var hash sql.NullString
	var width, height, duration, bitrate sql.NullInt64
	var format, codecs, genInfo sql.NullString
	var tagsJSON string

	err := s.db.QueryRow(`
		SELECT f.filename, f.path, f.dir, f.size, f.modified_at, f.hash,
		       m.width, m.height, m.format, m.duration_ms, m.bitrate, m.codecs, m.generator_info,
		       COALESCE(m.tags_json, '[]')
		FROM files f LEFT JOIN content_meta m ON f.content_meta_ref = m.id
		WHERE f.id = ?`, fileID,
	).Scan(&m.Filename, &m.Path, &m.Dir, &size, &mtimeStr, &hash,
		&width, &height, &format, &duration, &bitrate, &codecs, &genInfo, &tagsJSON)
	if err != nil {
		logFailure("GetMetadata", err)
		return nil
	}

	if size.Valid {
		m.Size = &size.Int64
	}
	if mtimeStr.Valid {
		if t, perr := time.Parse(time.RFC3339Nano, mtimeStr.String); perr == nil {
			m.ModifiedAt = &t
		}
	}
	if hash.Valid {
		m.ContentHash = &hash.String
	}
	if width.Valid {
		m.Width = &width.Int64
	}
	if height.Valid {
		m.Height = &height.Int64
	}
	if format.Valid {
		m.Format = &format.String
	}
	if duration.Valid {
		m.DurationMS = &duration.Int64
	}
	if bitrate.Valid {
		m.Bitrate = &bitrate.Int64
	}
	if codecs.Valid {
		m.Codecs = &codecs.String
	}
	if genInfo.Valid {
		m.GeneratorInfo = &genInfo.String
	}
	_ = json.Unmarshal([]byte(tagsJSON), &m.Tags)
	return &m
}

type noContentMetaError struct{ fileID int64 }

func (e noContentMetaError) Error() string { return "file has no content meta yet" }

func errNoContentMeta(fileID int64) error { return noContentMetaError{fileID: fileID} }
