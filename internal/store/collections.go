package store

import (
	"database/sql"

	"github.com/doug-martin/goqu/v8"
)

// collectionWhere builds the goqu predicate implementing the virtual
// partition rules from spec.md §3 for collection c.
func collectionWhere(c Collection) goqu.Expression {
	switch {
	case c == CollectionPermanent:
		return goqu.C("temporary").Eq(0)
	case c == CollectionTemporary:
		return goqu.C("temporary").Eq(1)
	case c == CollectionLiked || c.IsTagCollection():
		return goqu.L(`m.tags_json LIKE ?`, "%\""+c.tag()+"\"%")
	default:
		return goqu.L("0 = 1")
	}
}

type collectionQueryOpts struct {
	order goqu.Expression
	limit uint
	extra []goqu.Expression
}

func (s *Store) collectionQuery(c Collection, cols string, opts collectionQueryOpts) (string, error) {
	where := append([]goqu.Expression{collectionWhere(c)}, opts.extra...)
	sel := s.dialect.From(goqu.T("files").As("f")).
		Select(goqu.L(cols)).
		LeftJoin(goqu.T("content_meta").As("m"), goqu.On(goqu.I("f.content_meta_ref").Eq(goqu.I("m.id")))).
		Where(where...)
	if opts.order != nil {
		sel = sel.Order(opts.order)
	}
	if opts.limit > 0 {
		sel = sel.Limit(opts.limit)
	}
	sql, _, err := sel.ToSQL()
	return sql, err
}

// FilesInCollection returns every file belonging to virtual collection c.
func (s *Store) FilesInCollection(c Collection) []File {
	q, err := s.collectionQuery(c, selectFileColumnsForGoqu, collectionQueryOpts{order: goqu.I("f.path").Asc()})
	if err != nil {
		logFailure("FilesInCollection build", err)
		return nil
	}
	rows, err := s.db.Query(q)
	if err != nil {
		logFailure("FilesInCollection", err)
		return nil
	}
	defer rows.Close()
	return scanFiles(rows)
}

// RandomInCollection returns one uniformly-random file from collection c.
func (s *Store) RandomInCollection(c Collection) *File {
	q, err := s.collectionQuery(c, selectFileColumnsForGoqu, collectionQueryOpts{order: goqu.L("RANDOM()"), limit: 1})
	if err != nil {
		logFailure("RandomInCollection build", err)
		return nil
	}
	return s.queryOneFile(q)
}

// CountAndSizeOfCollection returns the number of files in c and their
// total byte size (NULL sizes counted as 0).
func (s *Store) CountAndSizeOfCollection(c Collection) (count int64, totalBytes int64) {
	q, err := s.collectionQuery(c, "COUNT(*), COALESCE(SUM(f.size), 0)", collectionQueryOpts{})
	if err != nil {
		logFailure("CountAndSizeOfCollection build", err)
		return 0, 0
	}
	if err := s.db.QueryRow(q).Scan(&count, &totalBytes); err != nil {
		logFailure("CountAndSizeOfCollection", err)
		return 0, 0
	}
	return count, totalBytes
}

// IsInCollection reports whether fileID belongs to virtual collection c.
func (s *Store) IsInCollection(fileID int64, c Collection) bool {
	q, err := s.collectionQuery(c, "COUNT(*)", collectionQueryOpts{
		extra: []goqu.Expression{goqu.I("f.id").Eq(fileID)},
	})
	if err != nil {
		logFailure("IsInCollection build", err)
		return false
	}
	var n int64
	if err := s.db.QueryRow(q).Scan(&n); err != nil {
		logFailure("IsInCollection", err)
		return false
	}
	return n > 0
}

// ToggleCollectionTag toggles tag cN (2 <= c <= 8) on the file's
// ContentMeta, returning the new membership state. A file with no
// ContentMeta cannot carry tags and the call is a no-op returning false
// (spec.md §8-B4).
func (s *Store) ToggleCollectionTag(fileID int64, c Collection) bool {
	if !c.IsTagCollection() {
		return false
	}
	return s.toggleTag(fileID, c.tag())
}

// ToggleLike toggles the "like" tag and additionally records a like/unlike
// HistoryEvent (spec.md §4.1).
func (s *Store) ToggleLike(fileID int64) bool {
	metaID := s.metaRefFor(fileID)
	if metaID == nil {
		return false
	}
	tags := s.GetTags(*metaID)
	liked := containsStr(tags, "like")
	var action string
	if liked {
		tags = removeStr(tags, "like")
		action = "unlike"
	} else {
		tags = append(tags, "like")
		action = "like"
	}
	s.SetTags(*metaID, tags)
	s.recordHistory(fileID, action)
	return !liked
}

func (s *Store) toggleTag(fileID int64, tag string) bool {
	metaID := s.metaRefFor(fileID)
	if metaID == nil {
		return false
	}
	tags := s.GetTags(*metaID)
	member := containsStr(tags, tag)
	if member {
		tags = removeStr(tags, tag)
	} else {
		tags = append(tags, tag)
	}
	s.SetTags(*metaID, tags)
	return !member
}

func (s *Store) metaRefFor(fileID int64) *int64 {
	var ref sql.NullInt64
	err := s.db.QueryRow(`SELECT content_meta_ref FROM files WHERE id = ?`, fileID).Scan(&ref)
	if err != nil || !ref.Valid {
		if err != nil && err != sql.ErrNoRows {
			logFailure("metaRefFor", err)
		}
		return nil
	}
	return &ref.Int64
}

// SetTemporary sets the denormalized temporary flag on fileID.
func (s *Store) SetTemporary(fileID int64, temporary bool) {
	_, err := s.db.Exec(`UPDATE files SET temporary = ? WHERE id = ?`, boolToInt(temporary), fileID)
	logFailure("SetTemporary", err)
}

func (s *Store) recordHistory(fileID int64, action string) {
	_, err := s.db.Exec(`INSERT INTO history (file_ref, action) VALUES (?, ?)`, fileID, action)
	logFailure("recordHistory", err)
}

func containsStr(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func removeStr(xs []string, v string) []string {
	out := xs[:0:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

const selectFileColumnsForGoqu = `f.id, f.path, f.dir, f.filename, f.size, f.modified_at,
	f.hash, f.content_meta_ref, f.temporary,
	(COALESCE(m.tags_json, '[]') LIKE '%"like"%')`
