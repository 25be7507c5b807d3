// Package scanner implements the Scanner (C2): a recursive directory walk
// that discovers media files and upserts/prunes them against the Index
// Store.
package scanner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/moby/sys/symlink"

	"github.com/shirk33y/lv/internal/pathutil"
	"github.com/shirk33y/lv/internal/store"
)

// ImageExtensions and VideoExtensions are the supported media extension
// allow-lists (spec.md §6). MediaExtensions is their union, the set the
// scanner and watcher both filter against.
var (
	ImageExtensions = []string{
		"jpg", "jpeg", "png", "gif", "bmp", "webp", "tiff", "tif", "heic", "heif", "ico",
	}
	VideoExtensions = []string{
		"mp4", "avi", "mov", "mkv", "webm", "flv", "wmv", "m4v", "3gp",
	}
)

var mediaExtensionSet = buildExtensionSet(ImageExtensions, VideoExtensions)

func buildExtensionSet(sets ...[]string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, set := range sets {
		for _, e := range set {
			m[e] = struct{}{}
		}
	}
	return m
}

// IsMedia reports whether path's extension is in the union allow-list.
func IsMedia(path string) bool {
	_, ok := mediaExtensionSet[pathutil.Ext(path)]
	return ok
}

// IsImage reports whether path's extension is a supported image type.
func IsImage(path string) bool {
	ext := pathutil.Ext(path)
	for _, e := range ImageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// IsVideo reports whether path's extension is a supported video type.
func IsVideo(path string) bool {
	ext := pathutil.Ext(path)
	for _, e := range VideoExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Scan walks root recursively, following symlinks with cycle detection via
// the realpath of each directory it would descend into, and upserts every
// discovered media file into db. It returns the count of newly inserted or
// changed (size/mtime differs) files.
func Scan(db *store.Store, root string) int {
	count := 0
	visited := map[string]struct{}{}

	var walk func(dir string)
	walk = func(dir string) {
		real, err := symlink.FollowSymlinkInScope(dir, dir)
		if err != nil {
			real = dir
		}
		if _, seen := visited[real]; seen {
			return
		}
		visited[real] = struct{}{}

		entries, err := os.ReadDir(dir)
		if err != nil {
			slog.Debug("scanner: cannot read directory", "dir", dir, "err", err)
			return
		}
		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil {
				slog.Debug("scanner: cannot stat entry", "path", full, "err", err)
				continue
			}
			if info.Mode()&os.ModeSymlink != 0 {
				target, err := filepath.EvalSymlinks(full)
				if err != nil {
					continue
				}
				targetInfo, err := os.Stat(target)
				if err != nil {
					continue
				}
				if targetInfo.IsDir() {
					walk(target)
					continue
				}
				full = target
				info = targetInfo
			}
			if info.IsDir() {
				walk(full)
				continue
			}
			if processFile(db, full, info) {
				count++
			}
		}
	}

	walk(root)
	return count
}

func processFile(db *store.Store, path string, info fs.FileInfo) bool {
	if !IsMedia(path) {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	clean := pathutil.Clean(abs)
	dir := pathutil.Parent(clean)
	filename := pathutil.Base(clean)

	size := info.Size()
	mtime := info.ModTime().UTC()

	if existing := db.Lookup(clean); existing != nil {
		if existing.Size == nil || *existing.Size != size ||
			existing.ModifiedAt == nil || !existing.ModifiedAt.Equal(mtime) {
			db.UpdateSizeMtime(existing.ID, &size, &mtime)
			return true
		}
		return false
	}

	_, inserted := db.Insert(clean, dir, filename, &size, &mtime)
	return inserted
}

// Rescan runs Scan then prunes any previously-indexed file under root's
// canonical directory that no longer exists on disk. Returns
// (added_or_changed, pruned).
func Rescan(db *store.Store, root string) (addedOrChanged int, pruned int) {
	addedOrChanged = Scan(db, root)

	abs, err := filepath.Abs(root)
	canonDir := root
	if err == nil {
		canonDir = pathutil.Clean(abs)
	}

	for _, f := range db.ListByDir(canonDir) {
		if _, err := os.Stat(f.Path); os.IsNotExist(err) {
			db.RemoveByID(f.ID)
			pruned++
		}
	}
	return addedOrChanged, pruned
}
