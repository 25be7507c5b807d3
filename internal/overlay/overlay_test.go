package overlay

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shirk33y/lv/internal/gl"
	"github.com/shirk33y/lv/internal/nav"
	"github.com/shirk33y/lv/internal/preload"
	"github.com/shirk33y/lv/internal/store"
	"github.com/shirk33y/lv/internal/texture"
	"github.com/shirk33y/lv/internal/videoengine"
	"github.com/shirk33y/lv/internal/watcher"
)

func newTestCore(t *testing.T) (*nav.Core, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "lv.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Insert(path, dir, "a.png", nil, nil); !ok {
		t.Fatal("insert failed")
	}

	textures := texture.New(gl.NewNull(), texture.DefaultCapacity)
	events := make(chan watcher.FsEvent)
	c := nav.New(s, events, preload.New(), textures, nil, videoengine.NewNull(), nil, &nav.NullClipboard{}, dir)
	return c, s
}

func TestStatusLine_FormatsIndexAndPath(t *testing.T) {
	c, _ := newTestCore(t)
	line := StatusLine(c, nil)
	if !strings.HasPrefix(line, "[1/1] ") {
		t.Errorf("StatusLine() = %q, want prefix [1/1]", line)
	}
	if !strings.Contains(line, "a.png") {
		t.Errorf("StatusLine() = %q, want the file path", line)
	}
}

func TestWindowTitle_UsesLastDirComponentOnly(t *testing.T) {
	c, _ := newTestCore(t)
	title := WindowTitle(c)
	f := c.CurrentFile()
	dirBase := filepath.Base(f.Dir)
	if !strings.Contains(title, dirBase) {
		t.Errorf("WindowTitle() = %q, want it to contain %q", title, dirBase)
	}
	if strings.Contains(title, string(filepath.Separator)+dirBase) {
		t.Errorf("WindowTitle() = %q, want only the last path component, not a full path", title)
	}
}

func TestErrorBanner_EmptyWhenNoError(t *testing.T) {
	c, _ := newTestCore(t)
	if _, show := ErrorBanner(c); show {
		t.Error("expected no error banner on a healthy core")
	}
}

func TestSidebar_HiddenUnlessShowInfo(t *testing.T) {
	c, s := newTestCore(t)
	if lines := Sidebar(s, nil, c); lines != nil {
		t.Errorf("Sidebar() = %v, want nil when ShowInfo is false", lines)
	}
	c.HandleKey(nav.KeyEvent{Rune: 'i'})
	if lines := Sidebar(s, nil, c); len(lines) == 0 {
		t.Error("expected sidebar lines once ShowInfo is toggled on")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{0: "00:00", 65_000_000_000: "01:05"}
	for ns, want := range cases {
		got := formatDuration(time.Duration(ns))
		if got != want {
			t.Errorf("formatDuration(%d) = %q, want %q", ns, got, want)
		}
	}
}
