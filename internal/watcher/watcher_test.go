package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shirk33y/lv/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "lv.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHasMediaExt_RecognizesImages(t *testing.T) {
	for _, p := range []string{"/a/photo.jpg", "/a/photo.PNG", "/a/photo.webp"} {
		if !hasMediaExt(p) {
			t.Errorf("%s should be media", p)
		}
	}
}

func TestHasMediaExt_RecognizesVideos(t *testing.T) {
	for _, p := range []string{"/a/clip.mp4", "/a/clip.MKV"} {
		if !hasMediaExt(p) {
			t.Errorf("%s should be media", p)
		}
	}
}

func TestHasMediaExt_RejectsNonMedia(t *testing.T) {
	for _, p := range []string{"/a/readme.txt", "/a/script.go", "/a/.gitignore"} {
		if hasMediaExt(p) {
			t.Errorf("%s should NOT be media", p)
		}
	}
}

func TestHasMediaExt_NoExtension(t *testing.T) {
	for _, p := range []string{"/a/noext", "/a/"} {
		if hasMediaExt(p) {
			t.Errorf("%s should NOT be media", p)
		}
	}
}

func TestHasMediaExt_WindowsBackslash(t *testing.T) {
	if !hasMediaExt(`C:\Users\test\photo.jpg`) {
		t.Error(`C:\Users\test\photo.jpg should be media`)
	}
	if !hasMediaExt(`C:\Users\test\clip.mp4`) {
		t.Error(`C:\Users\test\clip.mp4 should be media`)
	}
	if hasMediaExt(`C:\Users\test\readme.txt`) {
		t.Error(`C:\Users\test\readme.txt should NOT be media`)
	}
}

func TestStrParent_Unix(t *testing.T) {
	if got := strParent("/a/b/c.jpg"); got != "/a/b" {
		t.Errorf("strParent(/a/b/c.jpg) = %q, want /a/b", got)
	}
	if got := strParent("/photo.jpg"); got != "" {
		t.Errorf("strParent(/photo.jpg) = %q, want empty", got)
	}
}

func TestStrParent_Windows(t *testing.T) {
	if got := strParent(`C:\Users\test\photo.jpg`); got != `C:\Users\test` {
		t.Errorf("strParent = %q, want C:\\Users\\test", got)
	}
}

func TestStrParent_NoSeparator(t *testing.T) {
	if got := strParent("photo.jpg"); got != "" {
		t.Errorf("strParent(photo.jpg) = %q, want empty", got)
	}
}

func TestStrParent_MixedSeparators(t *testing.T) {
	if got := strParent(`/mnt/c\Users\test\photo.jpg`); got != `/mnt/c\Users\test` {
		t.Errorf("strParent = %q, want /mnt/c\\Users\\test", got)
	}
}

func d(path string, recursive bool) store.Directory {
	return store.Directory{Path: path, Watched: true, Recursive: recursive}
}

func TestDedupNested_NoOverlap(t *testing.T) {
	dirs := []store.Directory{d("/a", true), d("/b", true)}
	result := dedupNested(dirs)
	if len(result) != 2 {
		t.Errorf("len = %d, want 2", len(result))
	}
}

func TestDedupNested_ChildOfRecursiveRemoved(t *testing.T) {
	dirs := []store.Directory{d("/photos", true), d("/photos/vacation", true)}
	result := dedupNested(dirs)
	if len(result) != 1 || result[0].Path != "/photos" {
		t.Errorf("result = %+v, want only /photos", result)
	}
}

func TestDedupNested_NonrecursiveChildOfRecursiveRemoved(t *testing.T) {
	dirs := []store.Directory{d("/photos", true), d("/photos/vacation", false)}
	result := dedupNested(dirs)
	if len(result) != 1 || result[0].Path != "/photos" {
		t.Errorf("result = %+v, want only /photos", result)
	}
}

func TestDedupNested_NonrecursiveDoesNotCoverChildren(t *testing.T) {
	dirs := []store.Directory{d("/photos", false), d("/photos/vacation", true)}
	result := dedupNested(dirs)
	if len(result) != 2 {
		t.Errorf("len = %d, want 2 (non-recursive parent doesn't subsume children)", len(result))
	}
}

// TestWatcher_StartStop covers spec scenario 6's lifecycle requirement:
// the watcher must start cleanly with no watched dirs and stop without
// leaking its goroutine.
func TestWatcher_StartStop(t *testing.T) {
	s := newTestStore(t)
	w, err := Start(s)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
}

// TestWatcher_WatchUnwatchCommandsDoNotBlock covers I7: commands issued
// after Stop must not hang the caller.
func TestWatcher_WatchUnwatchCommandsDoNotBlock(t *testing.T) {
	s := newTestStore(t)
	w, err := Start(s)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	dir := t.TempDir()
	w.Watch(dir)
	w.Unwatch(dir)
	w.Stop()
	// Issuing a command after Stop must return promptly, not deadlock.
	w.Watch(dir)
}

// TestWatcher_DetectsFileInNewSubdirectoryOfRecursiveRoot covers the
// recursive-watch gap: fsnotify only fires on directories it has been
// explicitly told about, so a file appearing inside a brand-new
// subdirectory of a recursive root must still be picked up without
// waiting for a rescan.
func TestWatcher_DetectsFileInNewSubdirectoryOfRecursiveRoot(t *testing.T) {
	s := newTestStore(t)
	root := t.TempDir()
	if err := s.Track(root, true); err != nil {
		t.Fatal(err)
	}
	s.Watch(root)

	w, err := Start(s)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	sub := filepath.Join(root, "vacation")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Lookup(filepath.Join(sub, "a.jpg")) != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected the file inside the new subdirectory to be indexed")
}
