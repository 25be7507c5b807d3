package nav

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shirk33y/lv/internal/gl"
	"github.com/shirk33y/lv/internal/preload"
	"github.com/shirk33y/lv/internal/store"
	"github.com/shirk33y/lv/internal/texture"
	"github.com/shirk33y/lv/internal/videoengine"
	"github.com/shirk33y/lv/internal/watcher"
)

type countingEngine struct {
	*videoengine.Null
	loads []string
}

func newCountingEngine() *countingEngine {
	return &countingEngine{Null: videoengine.NewNull()}
}

func (e *countingEngine) Load(path string) error {
	e.loads = append(e.loads, path)
	return e.Null.Load(path)
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestCore(t *testing.T, engine videoengine.Engine, events <-chan watcher.FsEvent) (*Core, *store.Store, string) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "lv.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		p := filepath.Join(dir, name)
		writeFile(t, p)
		if _, ok := s.Insert(p, dir, name, nil, nil); !ok {
			t.Fatalf("insert %s failed", p)
		}
	}

	if events == nil {
		ch := make(chan watcher.FsEvent)
		events = ch
	}
	if engine == nil {
		engine = videoengine.NewNull()
	}

	textures := texture.New(gl.NewNull(), texture.DefaultCapacity)
	c := New(s, events, preload.New(), textures, nil, engine, nil, &NullClipboard{}, dir)
	return c, s, dir
}

func TestJThenK_ReturnsToSameFile(t *testing.T) {
	c, _, _ := newTestCore(t, nil, nil)
	start := c.CurrentFile()
	if start == nil {
		t.Fatal("expected a current file")
	}
	startID := start.ID

	c.HandleKey(KeyEvent{Rune: 'j'})
	c.HandleKey(KeyEvent{Rune: 'k'})

	got := c.CurrentFile()
	if got == nil || got.ID != startID {
		t.Errorf("after j then k, current file id = %v, want %d", got, startID)
	}
}

func TestHL_NoOpAtDirectoryBoundaries(t *testing.T) {
	c, _, dir := newTestCore(t, nil, nil)
	if c.Mode.Dir != dir {
		t.Fatalf("expected single-directory store, mode dir = %q", c.Mode.Dir)
	}

	c.HandleKey(KeyEvent{Rune: 'l'})
	if c.Mode.Dir != dir {
		t.Errorf("l at the only directory changed mode.Dir to %q", c.Mode.Dir)
	}
	c.HandleKey(KeyEvent{Rune: 'h'})
	if c.Mode.Dir != dir {
		t.Errorf("h at the only directory changed mode.Dir to %q", c.Mode.Dir)
	}
}

func TestVideoDebounce_LoadInvokedOnceAfterRapidNavigation(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "lv.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	dir := t.TempDir()
	var ids []int64
	for i := 0; i < 5; i++ {
		name := string(rune('a'+i)) + ".mp4"
		p := filepath.Join(dir, name)
		writeFile(t, p)
		id, ok := s.Insert(p, dir, name, nil, nil)
		if !ok {
			t.Fatalf("insert %s failed", p)
		}
		ids = append(ids, id)
	}
	_ = ids

	engine := newCountingEngine()
	textures := texture.New(gl.NewNull(), texture.DefaultCapacity)
	events := make(chan watcher.FsEvent)
	c := New(s, events, preload.New(), textures, nil, engine, nil, &NullClipboard{}, dir)

	// Simulate 'j' at 50ms intervals across the 5 videos, ticking the
	// per-frame loop between keys as a real UI loop would.
	for i := 0; i < 4; i++ {
		c.HandleKey(KeyEvent{Rune: 'j'})
		c.Tick(time.Now())
		time.Sleep(50 * time.Millisecond)
	}
	c.Tick(time.Now())

	if len(engine.loads) != 0 {
		t.Fatalf("expected no load before the debounce window elapses, got %v", engine.loads)
	}

	time.Sleep(200 * time.Millisecond)
	c.Tick(time.Now())

	if len(engine.loads) != 1 {
		t.Fatalf("loads = %v, want exactly one", engine.loads)
	}
	if got := filepath.Base(engine.loads[0]); got != "e.mp4" {
		t.Errorf("loaded %q, want the last-navigated file e.mp4", got)
	}
}

func TestTick_DecodeFailureSetsExactErrorMessage(t *testing.T) {
	c, _, _ := newTestCore(t, nil, nil)

	// newTestCore seeds files with garbage bytes, so the cold-load decode
	// scheduled by New's initial updateDisplay is guaranteed to fail.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && c.pendingColdLoad != nil {
		c.Tick(time.Now())
		time.Sleep(time.Millisecond)
	}

	if c.Error == nil {
		t.Fatal("expected a decode-failure DisplayError")
	}
	if c.Error.Message != "Failed to decode image" {
		t.Errorf("Error.Message = %q, want exactly %q", c.Error.Message, "Failed to decode image")
	}
}

func TestHandleDrop_UntrackedDirMarksTemporaryAndEntersCollection(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "lv.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	startDir := t.TempDir()
	writeFile(t, filepath.Join(startDir, "seed.png"))
	if _, ok := s.Insert(filepath.Join(startDir, "seed.png"), startDir, "seed.png", nil, nil); !ok {
		t.Fatal("seed insert failed")
	}

	dropDir := t.TempDir()
	dropPath := filepath.Join(dropDir, "dropped.png")
	writeFile(t, dropPath)

	textures := texture.New(gl.NewNull(), texture.DefaultCapacity)
	events := make(chan watcher.FsEvent)
	c := New(s, events, preload.New(), textures, nil, videoengine.NewNull(), nil, &NullClipboard{}, startDir)

	c.HandleDrop(dropPath)

	if c.Mode.Kind != ModeCollection || c.Mode.Collection != store.CollectionTemporary {
		t.Fatalf("mode = %+v, want Collection(temporary)", c.Mode)
	}
	cur := c.CurrentFile()
	if cur == nil || cur.Path != dropPath {
		t.Fatalf("cursor file = %+v, want %s", cur, dropPath)
	}
	if !cur.Temporary {
		t.Error("expected the dropped file to be marked temporary")
	}
}

func TestHandleWatchEvent_SameFileIDDoesNotInterruptVideo(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "lv.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	dir := t.TempDir()
	vidPath := filepath.Join(dir, "clip.mp4")
	writeFile(t, vidPath)
	if _, ok := s.Insert(vidPath, dir, "clip.mp4", nil, nil); !ok {
		t.Fatal("insert failed")
	}

	engine := newCountingEngine()
	textures := texture.New(gl.NewNull(), texture.DefaultCapacity)
	events := make(chan watcher.FsEvent, 1)
	c := New(s, events, preload.New(), textures, nil, engine, nil, &NullClipboard{}, dir)

	c.Tick(time.Now().Add(200 * time.Millisecond))
	if len(engine.loads) != 1 {
		t.Fatalf("expected the initial video load, got %v", engine.loads)
	}

	// A second file appears in the same directory; the watched event
	// fires but the cursor's file id is unchanged, so no reload/display
	// update should occur.
	newPath := filepath.Join(dir, "other.mp4")
	writeFile(t, newPath)
	if _, ok := s.Insert(newPath, dir, "other.mp4", nil, nil); !ok {
		t.Fatal("insert failed")
	}
	events <- watcher.FsEvent{Dir: dir}

	c.Tick(time.Now().Add(400 * time.Millisecond))

	if len(engine.loads) != 1 {
		t.Errorf("loads = %v, want still exactly one (video undisturbed)", engine.loads)
	}
	if len(c.Files) != 2 {
		t.Errorf("len(Files) = %d, want 2 after the watcher event", len(c.Files))
	}
}
