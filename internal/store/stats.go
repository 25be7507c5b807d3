package store

// CollectionStats returns the aggregate counts C9's stats section and the
// `status` CLI subcommand report.
func (s *Store) CollectionStats() Stats {
	var st Stats
	row := s.db.QueryRow(`SELECT COUNT(*) FROM files`)
	if err := row.Scan(&st.TotalFiles); err != nil {
		logFailure("CollectionStats total_files", err)
	}
	row = s.db.QueryRow(`SELECT COUNT(DISTINCT dir) FROM files`)
	if err := row.Scan(&st.TotalDirs); err != nil {
		logFailure("CollectionStats total_dirs", err)
	}
	row = s.db.QueryRow(`SELECT COUNT(*) FROM files WHERE hash IS NOT NULL`)
	if err := row.Scan(&st.Hashed); err != nil {
		logFailure("CollectionStats hashed", err)
	}
	row = s.db.QueryRow(`
		SELECT COUNT(*) FROM files f
		JOIN content_meta m ON f.content_meta_ref = m.id
		WHERE m.width IS NOT NULL`)
	if err := row.Scan(&st.WithDimensions); err != nil {
		logFailure("CollectionStats with_dimensions", err)
	}
	row = s.db.QueryRow(`SELECT COUNT(*) FROM job_failures`)
	if err := row.Scan(&st.Failed); err != nil {
		logFailure("CollectionStats failed", err)
	}
	return st
}
