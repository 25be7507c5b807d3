package store

// RandomFile returns one uniformly-random file from the whole catalogue.
func (s *Store) RandomFile() *File {
	return s.queryOneFile(selectFileColumns + `
		FROM files f LEFT JOIN content_meta m ON f.content_meta_ref = m.id
		ORDER BY RANDOM() LIMIT 1`)
}

// NewestFile returns the file with the most recent modified_at.
func (s *Store) NewestFile() *File {
	return s.queryOneFile(selectFileColumns + `
		FROM files f LEFT JOIN content_meta m ON f.content_meta_ref = m.id
		ORDER BY f.modified_at DESC LIMIT 1`)
}

// RandomLiked returns a uniformly-random file among those currently
// tagged "like".
func (s *Store) RandomLiked() *File {
	return s.queryOneFile(selectFileColumns + `
		FROM files f JOIN content_meta m ON f.content_meta_ref = m.id
		WHERE m.tags_json LIKE '%"like"%'
		ORDER BY RANDOM() LIMIT 1`)
}

// LatestLiked returns the most recently liked file, by history event id
// descending, among action='like' events.
func (s *Store) LatestLiked() *File {
	return s.queryOneFile(selectFileColumns + `
		FROM files f JOIN content_meta m ON f.content_meta_ref = m.id
		JOIN history h ON h.file_ref = f.id AND h.action = 'like'
		WHERE m.tags_json LIKE '%"like"%'
		ORDER BY h.id DESC LIMIT 1`)
}

func (s *Store) queryOneFile(query string) *File {
	rows, err := s.db.Query(query)
	if err != nil {
		logFailure("queryOneFile", err)
		return nil
	}
	defer rows.Close()
	if !rows.Next() {
		return nil
	}
	f, err := scanFileRow(rows)
	if err != nil {
		logFailure("queryOneFile scan", err)
		return nil
	}
	return &f
}
