// Package pathutil is the single sanctioned site for normalizing paths that
// cross a store boundary (disk, watcher, drag-and-drop). Every mutator of
// the index store must route incoming paths through Clean before anything
// is persisted, or duplicate rows appear.
package pathutil

import (
	"path/filepath"
	"strings"
)

// winLongPrefix is the Windows extended-length path prefix that
// filepath.Abs/EvalSymlinks can produce on that platform. It must never
// reach the store.
const winLongPrefix = `\\?\`

// Clean canonicalizes p: it strips a Windows long-path prefix, converts to
// an absolute path rooted at the process cwd when relative, and runs
// filepath.Clean so ".." / "." segments and duplicate separators collapse.
// It does not touch the filesystem and does not resolve symlinks — callers
// that need a realpath (the scanner, for cycle detection) do that
// separately and pass the result back through Clean.
func Clean(p string) string {
	p = strings.TrimPrefix(p, winLongPrefix)
	if !filepath.IsAbs(p) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	return strings.TrimPrefix(filepath.Clean(p), winLongPrefix)
}

// Parent returns the directory component of a cleaned path the way the
// store expects it: Dir of the empty string is "", never ".".
func Parent(cleanPath string) string {
	dir := filepath.Dir(cleanPath)
	if dir == "." {
		return ""
	}
	return dir
}

// Base returns the filename component of a cleaned path.
func Base(cleanPath string) string {
	return filepath.Base(cleanPath)
}

// Ext returns the lowercased extension (without the dot) of a path, parsed
// at the string level so it works uniformly regardless of the OS path
// separator convention the path string happens to use — this matters for
// watcher events, which may carry either separator depending on backend.
func Ext(p string) string {
	lastSep := strings.LastIndexAny(p, `/\`)
	name := p
	if lastSep >= 0 {
		name = p[lastSep+1:]
	}
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return ""
	}
	return strings.ToLower(name[dot+1:])
}

// IsCovered reports whether directory p is covered by tracked, recursive
// directory q: p == q, or p is a strict descendant of q under the path
// separator, never a mere string-prefix collision ("/photo" must not cover
// "/photos").
func IsCovered(p, q string) bool {
	p = filepath.Clean(p)
	q = filepath.Clean(q)
	if p == q {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(q, sep) {
		q += sep
	}
	return strings.HasPrefix(p, q)
}
