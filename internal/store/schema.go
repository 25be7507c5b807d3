package store

const schemaV1 = `
CREATE TABLE IF NOT EXISTS directories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	tracked INTEGER NOT NULL DEFAULT 0,
	watched INTEGER NOT NULL DEFAULT 0,
	recursive INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS content_meta (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hash TEXT NOT NULL UNIQUE,
	width INTEGER,
	height INTEGER,
	format TEXT,
	generator_info TEXT,
	duration_ms INTEGER,
	bitrate INTEGER,
	codecs TEXT,
	tags_json TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	dir TEXT NOT NULL,
	filename TEXT NOT NULL,
	size INTEGER,
	modified_at TEXT,
	hash TEXT,
	content_meta_ref INTEGER REFERENCES content_meta(id),
	temporary INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_files_dir ON files(dir);
CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);

CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_ref INTEGER NOT NULL REFERENCES files(id),
	action TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_history_file_ref ON history(file_ref);

CREATE TABLE IF NOT EXISTS job_failures (
	file_ref INTEGER NOT NULL REFERENCES files(id),
	layer TEXT NOT NULL,
	error TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
	PRIMARY KEY (file_ref, layer)
);

CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
`

// migration is one forward-only schema step, numbered from 1. Steps run
// inside a single transaction and are skipped if schema_migrations already
// records that version — this is how an older lv.db snapshot (missing the
// temporary column, or carrying a pre-merge watch table) catches up.
type migration struct {
	version int
	name    string
	stmts   []string
}

// Versions 2 and 3 have custom Go logic in migrate.go (column-presence and
// table-presence probes) rather than a fixed stmts list, because both are
// only meaningful against an older on-disk snapshot and must be no-ops
// against a database schemaV1 just created from scratch.
var migrations = []migration{
	{version: 1, name: "base schema", stmts: []string{schemaV1}},
	{version: 2, name: "add files.temporary if missing"},
	{version: 3, name: "merge legacy watched_dirs table into directories"},
}
