// Package nav implements the Navigation/Display Core (C8): the mode and
// cursor state machine, the key-binding table, and the per-frame
// decision tree that drives the Preloader, Texture Cache, and Video
// Render Worker from the currently selected file.
package nav

import (
	"os"
	"time"

	"github.com/shirk33y/lv/internal/jobs"
	"github.com/shirk33y/lv/internal/preload"
	"github.com/shirk33y/lv/internal/render"
	"github.com/shirk33y/lv/internal/scanner"
	"github.com/shirk33y/lv/internal/store"
	"github.com/shirk33y/lv/internal/texture"
	"github.com/shirk33y/lv/internal/videoengine"
	"github.com/shirk33y/lv/internal/watcher"
)

// videoLoadDebounce is the reference 150ms coalescing window from
// spec.md §4.8: rapid navigation through videos only triggers one load,
// on the file the cursor settles on.
const videoLoadDebounce = 150 * time.Millisecond

// mouseIdleHide is how long without mouse motion before the cursor is
// auto-hidden (spec.md §4.8).
const mouseIdleHide = 2 * time.Second

// ModeKind distinguishes the two navigation modes spec.md §4.8 defines.
type ModeKind int

const (
	ModeDirectory ModeKind = iota
	ModeCollection
)

// Mode is the navigation mode: a directory listing, or one of the ten
// virtual collections.
type Mode struct {
	Kind       ModeKind
	Dir        string
	Collection store.Collection
}

// DisplayError is the error-banner state spec.md §4.8/§4.9 render.
type DisplayError struct {
	Message  string
	Filename string
}

type pendingVideo struct {
	path string
	t0   time.Time
}

// Core holds the Navigation/Display Core's entire in-memory state.
// Not safe for concurrent use: every method is meant to be called from
// the UI goroutine only (spec.md §5).
type Core struct {
	db           *store.Store
	watchEvents  <-chan watcher.FsEvent
	preloader    *preload.Preloader
	textures     *texture.Cache
	jobsEngine   *jobs.Engine
	videoEngine  videoengine.Engine
	renderWorker *render.Worker
	clipboard    Clipboard

	Mode          Mode
	Files         []store.File
	Cursor        int
	Error         *DisplayError
	ShowInfo      bool
	Fullscreen    bool
	CursorVisible bool

	pendingColdLoad *string
	pendingVideo    *pendingVideo
	activeVideoPath string
	videoPaused     bool

	lastMouseMove time.Time
	lastDir       string
}

// New builds a Core rooted at startDir (Directory mode) or, if startDir
// is "", at the first directory the store knows about.
func New(
	db *store.Store,
	watchEvents <-chan watcher.FsEvent,
	preloader *preload.Preloader,
	textures *texture.Cache,
	jobsEngine *jobs.Engine,
	videoEngine videoengine.Engine,
	renderWorker *render.Worker,
	clipboard Clipboard,
	startDir string,
) *Core {
	if clipboard == nil {
		clipboard = ExecClipboard{}
	}
	if startDir == "" {
		startDir = db.FirstDir()
	}
	c := &Core{
		db:            db,
		watchEvents:   watchEvents,
		preloader:     preloader,
		textures:      textures,
		jobsEngine:    jobsEngine,
		videoEngine:   videoEngine,
		renderWorker:  renderWorker,
		clipboard:     clipboard,
		Mode:          Mode{Kind: ModeDirectory, Dir: startDir},
		CursorVisible: true,
		lastMouseMove: time.Now(),
		lastDir:       startDir,
	}
	c.loadFilesForMode()
	c.updateDisplay()
	return c
}

// CurrentFile returns the file the cursor is on, or nil if the list is
// empty.
func (c *Core) CurrentFile() *store.File {
	if c.Cursor < 0 || c.Cursor >= len(c.Files) {
		return nil
	}
	return &c.Files[c.Cursor]
}

func (c *Core) loadFilesForMode() {
	switch c.Mode.Kind {
	case ModeDirectory:
		c.Files = c.db.ListByDir(c.Mode.Dir)
		c.lastDir = c.Mode.Dir
	case ModeCollection:
		c.Files = c.db.FilesInCollection(c.Mode.Collection)
	}
}

// rederivePreservingCursor reloads Files for the current mode, keeping
// the cursor on the same file by id where possible, else clamping
// (spec.md §4.8 per-frame logic).
func (c *Core) rederivePreservingCursor() {
	var curID int64 = -1
	if f := c.CurrentFile(); f != nil {
		curID = f.ID
	}
	c.loadFilesForMode()
	if curID != -1 {
		if idx := indexByID(c.Files, curID); idx >= 0 {
			c.Cursor = idx
			return
		}
	}
	c.Cursor = clampIndex(c.Cursor, len(c.Files))
}

func indexByID(files []store.File, id int64) int {
	for i, f := range files {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func findByPath(files []store.File, path string) *store.File {
	for i := range files {
		if files[i].Path == path {
			return &files[i]
		}
	}
	return nil
}

func clampIndex(cursor, n int) int {
	if n == 0 {
		return 0
	}
	if cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

// updateDisplay runs the display-step decision tree from spec.md §4.8
// against the current cursor file.
func (c *Core) updateDisplay() {
	c.Error = nil
	c.pendingColdLoad = nil

	f := c.CurrentFile()
	if f == nil {
		return
	}
	path := f.Path

	if _, err := os.Stat(path); err != nil {
		c.Error = &DisplayError{Message: "File not found", Filename: f.Filename}
		return
	}

	switch {
	case scanner.IsImage(path):
		c.stopVideo()
		if _, ok := c.textures.Get(path); ok {
			// cache hit, nothing further to do this frame
		} else if img, ok := c.preloader.TryTake(path); ok {
			c.textures.Upload(path, img)
		} else {
			c.preloader.Schedule(path)
			p := path
			c.pendingColdLoad = &p
		}
		c.schedulePreloadWindow()

	case scanner.IsVideo(path):
		c.stopVideo()
		c.pendingVideo = &pendingVideo{path: path, t0: time.Now()}

	default:
		c.Error = &DisplayError{Message: "Unsupported file type", Filename: f.Filename}
	}
}

func (c *Core) stopVideo() {
	c.pendingVideo = nil
	c.activeVideoPath = ""
	if c.videoEngine != nil {
		c.videoEngine.Stop()
	}
	if c.renderWorker != nil {
		c.renderWorker.HasFrame.Store(false)
	}
}

// schedulePreloadWindow schedules decode of every image file within
// [cursor-10, cursor+10] excluding the cursor itself, which updateDisplay
// has already handled directly.
func (c *Core) schedulePreloadWindow() {
	const window = 10
	for i := c.Cursor - window; i <= c.Cursor+window; i++ {
		if i == c.Cursor || i < 0 || i >= len(c.Files) {
			continue
		}
		if scanner.IsImage(c.Files[i].Path) {
			c.preloader.Schedule(c.Files[i].Path)
		}
	}
}

// Tick runs the per-frame logic from spec.md §4.8: drain watcher events,
// resolve a pending cold-load, resolve the video debounce, and auto-hide
// the mouse cursor. Call it once per UI frame.
func (c *Core) Tick(now time.Time) {
	c.drainWatcherEvents()

	if c.pendingColdLoad != nil {
		path := *c.pendingColdLoad
		if img, ok := c.preloader.TryTake(path); ok {
			c.textures.Upload(path, img)
			c.pendingColdLoad = nil
		} else if !c.preloader.IsPending(path) {
			c.pendingColdLoad = nil
			if f := c.CurrentFile(); f != nil && f.Path == path {
				c.Error = &DisplayError{Message: "Failed to decode image", Filename: f.Filename}
			}
		}
	}

	if c.pendingVideo != nil && now.Sub(c.pendingVideo.t0) >= videoLoadDebounce {
		path := c.pendingVideo.path
		c.pendingVideo = nil
		c.activeVideoPath = path
		_ = c.videoEngine.Load(path)
	}

	if now.Sub(c.lastMouseMove) >= mouseIdleHide {
		c.CursorVisible = false
	}
}

func (c *Core) drainWatcherEvents() {
	for {
		select {
		case ev, ok := <-c.watchEvents:
			if !ok {
				return
			}
			c.handleWatchEvent(ev)
		default:
			return
		}
	}
}

func (c *Core) handleWatchEvent(ev watcher.FsEvent) {
	matches := c.Mode.Kind == ModeCollection ||
		(c.Mode.Kind == ModeDirectory && ev.Dir == c.Mode.Dir)
	if !matches {
		return
	}

	var beforeID int64 = -1
	if f := c.CurrentFile(); f != nil {
		beforeID = f.ID
	}
	c.rederivePreservingCursor()
	var afterID int64 = -1
	if f := c.CurrentFile(); f != nil {
		afterID = f.ID
	}
	if afterID != beforeID {
		c.updateDisplay()
	}
}

// NotifyMouseMove resets the auto-hide timer and shows the cursor.
func (c *Core) NotifyMouseMove(now time.Time) {
	c.lastMouseMove = now
	c.CursorVisible = true
}

// dropError surfaces the error banner drag-and-drop uses for rejected
// drops (unsupported file type or a canonicalization failure).
func (c *Core) dropError() {
	c.Error = &DisplayError{Message: "Unsupported file type"}
}

// IsVideoActive reports whether the current file is a video with playback
// loaded (as opposed to still within the 150ms pending-load debounce).
func (c *Core) IsVideoActive() bool {
	return c.activeVideoPath != ""
}

// IsColdLoading reports whether the display is waiting on an
// out-of-window image decode, the spinner-visible condition from
// spec.md §4.9.
func (c *Core) IsColdLoading() bool {
	return c.pendingColdLoad != nil
}

// VideoPosition reports the active video's (elapsed, total) duration, or
// (0, 0) if no video is active.
func (c *Core) VideoPosition() (time.Duration, time.Duration) {
	if c.videoEngine == nil || c.activeVideoPath == "" {
		return 0, 0
	}
	return c.videoEngine.Position()
}

// VideoVolume reports the active video engine's volume, or 0 if none.
func (c *Core) VideoVolume() int {
	if c.videoEngine == nil {
		return 0
	}
	return c.videoEngine.Volume()
}

// VideoPaused reports whether video playback is currently paused.
func (c *Core) VideoPaused() bool {
	return c.videoPaused
}

// HasFrame reports whether the render worker has a composited frame
// ready, used by the spinner condition in spec.md §4.9.
func (c *Core) HasFrame() bool {
	if c.renderWorker == nil {
		return false
	}
	return c.renderWorker.HasFrame.Load()
}
