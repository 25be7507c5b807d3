// Package watcher implements the FS Watcher (C3): a background goroutine
// that watches directories marked `watched=1` in the Index Store and keeps
// it synced as files are created, modified, or removed.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shirk33y/lv/internal/pathutil"
	"github.com/shirk33y/lv/internal/scanner"
	"github.com/shirk33y/lv/internal/store"
)

// FsEvent is sent from the watcher goroutine to the main loop so it can
// refresh whatever directory changed.
type FsEvent struct {
	Dir     string
	Removed bool
}

// Watcher is a running filesystem watcher. Call Stop to tear it down.
type Watcher struct {
	events  chan FsEvent
	watchCh chan watchCmd
	quit    chan struct{}
	done    chan struct{}

	fsw *fsnotify.Watcher
	// recursiveRoots holds every top-level directory watched recursively;
	// only the run goroutine touches it, so it needs no lock. fsnotify has
	// no native recursive mode, so each subdirectory under a recursive root
	// gets its own explicit watch (spec.md §4.3).
	recursiveRoots map[string]bool
}

type watchCmd struct {
	dir     string
	unwatch bool
}

// Events returns the channel FsEvents are delivered on.
func (w *Watcher) Events() <-chan FsEvent { return w.events }

// Watch dynamically adds dir to the watch set. If the store has dir
// tracked with the recursive flag, dir and every subdirectory beneath it
// are watched and dir becomes a recursive root; otherwise only dir itself
// is watched.
func (w *Watcher) Watch(dir string) {
	select {
	case w.watchCh <- watchCmd{dir: dir}:
	case <-w.quit:
	}
}

// Unwatch removes dir from the watch set.
func (w *Watcher) Unwatch(dir string) {
	select {
	case w.watchCh <- watchCmd{dir: dir, unwatch: true}:
	case <-w.quit:
	}
}

// Stop shuts the watcher goroutine down and blocks until it exits.
func (w *Watcher) Stop() {
	close(w.quit)
	<-w.done
}

// Start launches the watcher goroutine, seeding it from db.ListWatched()
// with nested-directory dedup (spec.md §4.3).
func Start(db *store.Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		events:         make(chan FsEvent, 64),
		watchCh:        make(chan watchCmd, 16),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		fsw:            fsw,
		recursiveRoots: make(map[string]bool),
	}

	watched := db.ListWatched()
	effective := dedupNested(watched)
	for _, d := range effective {
		if d.Recursive {
			w.recursiveRoots[d.Path] = true
			for _, sub := range walkDirs(d.Path) {
				w.addWatch(sub, d.Recursive)
			}
		} else {
			w.addWatch(d.Path, false)
		}
	}
	if len(effective) < len(watched) {
		slog.Debug("watcher: deduped watches", "before", len(watched), "after", len(effective))
	}

	go w.run(db)
	return w, nil
}

// addWatch registers a single fsnotify watch, logging failures the same
// way for both the initial walk and dynamic Watch calls.
func (w *Watcher) addWatch(dir string, recursive bool) {
	if err := w.fsw.Add(dir); err != nil {
		slog.Debug("watcher: failed to watch", "dir", dir, "err", err)
	} else {
		slog.Debug("watcher: watching", "dir", dir, "recursive", recursive)
	}
}

func (w *Watcher) run(db *store.Store) {
	defer close(w.done)
	defer w.fsw.Close()

	for {
		select {
		case <-w.quit:
			slog.Debug("watcher: stopped")
			return
		case cmd := <-w.watchCh:
			if cmd.unwatch {
				delete(w.recursiveRoots, cmd.dir)
				if err := w.fsw.Remove(cmd.dir); err != nil {
					slog.Debug("watcher: failed to unwatch", "dir", cmd.dir, "err", err)
				} else {
					slog.Debug("watcher: -watch", "dir", cmd.dir)
				}
			} else if db.IsRecursive(cmd.dir) {
				w.recursiveRoots[cmd.dir] = true
				for _, sub := range walkDirs(cmd.dir) {
					w.addWatch(sub, true)
				}
			} else {
				w.addWatch(cmd.dir, false)
			}
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(db, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Debug("watcher: fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) emit(ev FsEvent) {
	select {
	case w.events <- ev:
	case <-w.quit:
	default:
		// Drop if the consumer is behind; a later event will re-trigger
		// the same directory refresh.
	}
}

func (w *Watcher) handleEvent(db *store.Store, ev fsnotify.Event) {
	isRemove := ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0
	raw := ev.Name
	pathStr := pathutil.Clean(raw)

	if ev.Op&fsnotify.Create != 0 && !isRemove {
		if info, err := os.Stat(pathStr); err == nil && info.IsDir() {
			w.handleDirCreate(db, pathStr)
			return
		}
	}

	if !hasMediaExt(pathStr) {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && !isRemove:
		handleChange(db, w, raw)
	case isRemove:
		if db.Lookup(pathStr) != nil {
			db.RemoveByPath(pathStr)
			dir := strParent(pathStr)
			slog.Debug("watcher: removed", "path", pathStr)
			w.emit(FsEvent{Dir: dir, Removed: true})
		}
	}
}

// handleDirCreate registers watches on a newly created subdirectory, and
// any subdirectories already nested inside it (a whole tree can appear at
// once via a move), when it falls under a recursive watch root. It also
// scans the new subtree immediately, since files can already be present
// inside a moved-in directory before any per-file event fires.
func (w *Watcher) handleDirCreate(db *store.Store, dir string) {
	if !w.underRecursiveRoot(dir) {
		return
	}
	for _, sub := range walkDirs(dir) {
		w.addWatch(sub, true)
	}
	if n := scanner.Scan(db, dir); n > 0 {
		slog.Debug("watcher: scanned new directory", "dir", dir, "files", n)
	}
	w.emit(FsEvent{Dir: dir})
}

func (w *Watcher) underRecursiveRoot(dir string) bool {
	for root := range w.recursiveRoots {
		if pathutil.IsCovered(dir, root) {
			return true
		}
	}
	return false
}

// walkDirs returns dir and every subdirectory beneath it, without
// following symlinks — fsnotify watches are registered per real directory,
// and following symlinked directories here risks the same watch being
// added twice or a watch cycle.
func walkDirs(dir string) []string {
	out := []string{dir}
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("watcher: cannot read directory", "dir", dir, "err", err)
		return out
	}
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, walkDirs(filepath.Join(dir, entry.Name()))...)
		}
	}
	return out
}

func handleChange(db *store.Store, w *Watcher, raw string) {
	absClean := pathutil.Clean(raw)
	if !hasMediaExt(absClean) {
		return
	}

	dir := strParent(absClean)
	filename := pathutil.Base(absClean)

	info, err := statFile(absClean)
	if err != nil {
		return
	}
	size := info.size
	mtime := info.mtime

	if existing := db.Lookup(absClean); existing != nil {
		changed := existing.Size == nil || *existing.Size != size ||
			existing.ModifiedAt == nil || !existing.ModifiedAt.Equal(mtime)
		if changed {
			db.UpdateSizeMtime(existing.ID, &size, &mtime)
			slog.Debug("watcher: updated", "path", absClean)
		}
	} else {
		db.Insert(absClean, dir, filename, &size, &mtime)
		slog.Debug("watcher: added", "path", absClean)
	}

	w.emit(FsEvent{Dir: dir})
}

type fileInfo struct {
	size  int64
	mtime time.Time
}

func statFile(path string) (fileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return fileInfo{}, err
	}
	return fileInfo{size: fi.Size(), mtime: fi.ModTime().UTC()}, nil
}

// strParent extracts the parent directory from a path string, handling
// both `/` and `\` separators (fsnotify delivers OS-native separators but
// a cleaned path may still mix them on import from another platform).
func strParent(p string) string {
	i := strings.LastIndexAny(p, `/\`)
	if i < 0 {
		return ""
	}
	return p[:i]
}

// hasMediaExt checks a path string's extension against the media
// allow-list, string-level so it works regardless of which separator
// convention produced the path.
func hasMediaExt(p string) bool {
	return scanner.IsMedia(p)
}

type watchedDir struct {
	Path      string
	Recursive bool
}

// dedupNested drops any watched directory that is a strict descendant of
// another *recursive* watched directory, since the ancestor's watch
// already covers it.
func dedupNested(dirs []store.Directory) []watchedDir {
	var recursive []string
	for _, d := range dirs {
		if d.Recursive {
			recursive = append(recursive, d.Path)
		}
	}

	var out []watchedDir
	for _, d := range dirs {
		covered := false
		for _, ancestor := range recursive {
			if ancestor == d.Path {
				continue
			}
			if strings.HasPrefix(d.Path, ancestor+"/") {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, watchedDir{Path: d.Path, Recursive: d.Recursive})
		}
	}
	return out
}
