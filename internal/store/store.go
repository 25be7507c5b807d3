// Package store implements the Index Store (C1): the persistent catalogue
// of files, directories, derived content metadata, history and
// per-layer job failures that every navigation and background-job query
// consults. All structured access to the on-disk database goes through
// this package.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v8"
	_ "github.com/doug-martin/goqu/v8/dialect/sqlite3"
	_ "modernc.org/sqlite"
)

// Layer names a background metadata producer, ordered Hash < Dimensions <
// GeneratorInfo per spec.md §4.4.
type Layer string

const (
	LayerHash           Layer = "hash"
	LayerDimensions     Layer = "dimensions"
	LayerGeneratorInfo  Layer = "generator_info"
)

// Layers lists the ordered layer set a Job Engine worker walks looking for
// the first available unit of work.
var Layers = []Layer{LayerHash, LayerDimensions, LayerGeneratorInfo}

// Collection identifies a virtual partition (spec.md §3): 0 = permanent
// files, 1 = temporary files, 2..8 = tag "cN", 9 = liked.
type Collection int

const (
	CollectionPermanent Collection = 0
	CollectionTemporary Collection = 1
	CollectionLiked     Collection = 9
)

// IsTagCollection reports whether c is one of the numbered tag collections
// 2..=8 (spec.md §4.1 toggle_collection_tag domain).
func (c Collection) IsTagCollection() bool { return c >= 2 && c <= 8 }

// tag returns the string form stored in content_meta.tags_json for c, per
// spec.md §6: "like" for 9, "cN" for 2..8.
func (c Collection) tag() string {
	if c == CollectionLiked {
		return "like"
	}
	return fmt.Sprintf("c%d", int(c))
}

// File mirrors one row of the files table, denormalized with the liked
// flag that every selector in spec.md §4.1 is required to surface.
type File struct {
	ID             int64
	Path           string
	Dir            string
	Filename       string
	Size           *int64
	ModifiedAt     *time.Time
	ContentHash    *string
	ContentMetaRef *int64
	Temporary      bool
	Liked          bool
}

// ContentMeta mirrors one row of the content_meta table.
type ContentMeta struct {
	ID            int64
	Hash          string
	Width         *int64
	Height        *int64
	Format        *string
	GeneratorInfo *string
	DurationMS    *int64
	Bitrate       *int64
	Codecs        *string
	Tags          []string
}

// FileMetadata is the full denormalized record the info sidebar (C9)
// renders, joining files and content_meta.
type FileMetadata struct {
	Filename      string
	Path          string
	Dir           string
	Size          *int64
	ModifiedAt    *time.Time
	ContentHash   *string
	Width         *int64
	Height        *int64
	Format        *string
	DurationMS    *int64
	Bitrate       *int64
	Codecs        *string
	GeneratorInfo *string
	Tags          []string
}

// Directory mirrors one row of the directories table.
type Directory struct {
	ID        int64
	Path      string
	Tracked   bool
	Watched   bool
	Recursive bool
}

// Stats is the aggregate snapshot collection_stats() returns for C9's stats
// section.
type Stats struct {
	TotalFiles     int64
	TotalDirs      int64
	Hashed         int64
	WithDimensions int64
	Failed         int64
}

// Store is the Index Store. Safe for concurrent use by the UI goroutine,
// the watcher goroutine, and N job workers: database/sql pools connections
// internally and SQLite's WAL journal mode lets readers proceed
// concurrently with the single writer.
type Store struct {
	db      *sql.DB
	goqu    *goqu.Database
	dialect goqu.DialectWrapper
}

// Open opens (creating if absent) the SQLite database at path, enables WAL
// journaling and foreign keys, and brings the schema up to date.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	// A single writer model: cap open connections low so WAL readers never
	// starve the writer, matching the "single writer lock, transactional
	// reader snapshots" guarantee in spec.md §5.
	db.SetMaxOpenConns(4)

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %s: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store %s: %w", path, err)
	}

	dialect := goqu.Dialect("sqlite3")
	return &Store{db: db, goqu: dialect.DB(db), dialect: dialect}, nil
}

// OpenMemory opens an in-memory database, useful for tests and ephemeral
// CLI invocations. A shared cache keeps all pooled connections pointed at
// the same in-memory database.
func OpenMemory() (*Store, error) {
	return Open("file::memory:?cache=shared")
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// logFailure is the uniform "transient store error" surfacing point for
// kind-1 errors in spec.md §7: swallow, log, return the zero value.
func logFailure(op string, err error) {
	if err != nil {
		slog.Debug("store operation failed", "op", op, "err", err)
	}
}
