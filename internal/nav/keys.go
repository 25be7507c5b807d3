package nav

import (
	"time"

	"github.com/shirk33y/lv/internal/store"
)

// SpecialKey names the non-character keys the binding table references.
type SpecialKey int

const (
	SpecialNone SpecialKey = iota
	SpecialEscape
	SpecialSpace
	SpecialLeft
	SpecialRight
	SpecialUp
	SpecialDown
)

// KeyEvent is the input-layer-agnostic key press Core.HandleKey consumes.
// cmd/lv translates tcell's key events into this shape so nav stays free
// of any particular terminal/windowing dependency.
type KeyEvent struct {
	// Rune holds the lowercase character for plain letter/digit keys
	// ('j','k','l','h','u','n','m','y','i','f','-','r','c','q','2'..'9').
	Rune rune
	// Ctrl is set for Ctrl+0..Ctrl+9 combinations; Rune holds '0'..'9'.
	Ctrl    bool
	Special SpecialKey
}

const seekBack = -5
const seekForward = 15

// HandleKey dispatches one key press per the table in spec.md §4.8.
// It returns true when the key requests the application quit.
func (c *Core) HandleKey(ev KeyEvent) bool {
	if ev.Ctrl && ev.Rune >= '0' && ev.Rune <= '9' {
		c.enterOrExitCollection(store.Collection(ev.Rune - '0'))
		return false
	}

	switch ev.Special {
	case SpecialEscape:
		return true
	case SpecialSpace:
		c.toggleVideoPause()
		return false
	case SpecialLeft:
		c.seekVideo(seekBack)
		return false
	case SpecialRight:
		c.seekVideo(seekForward)
		return false
	case SpecialUp:
		c.adjustVolume(5)
		return false
	case SpecialDown:
		c.adjustVolume(-5)
		return false
	}

	switch ev.Rune {
	case 'j':
		c.moveCursor(1)
	case 'k':
		c.moveCursor(-1)
	case 'l':
		c.navigateDirStep(1)
	case 'h':
		c.keyH()
	case 'u':
		c.keyU()
	case 'n':
		c.jumpToFileOrNoop(c.db.NewestFile())
	case 'm':
		c.jumpToFileOrNoop(c.db.RandomLiked())
	case 'b':
		c.jumpToFileOrNoop(c.db.LatestLiked())
	case 'y', '9':
		c.toggleLike()
	case '2', '3', '4', '5', '6', '7', '8':
		c.toggleTag(store.Collection(ev.Rune - '0'))
	case 'i':
		c.ShowInfo = !c.ShowInfo
	case 'f':
		c.Fullscreen = !c.Fullscreen
	case '-':
		c.toggleTurbo()
	case 'r':
		c.rederivePreservingCursor()
		c.updateDisplay()
	case 'c':
		c.copyCurrentPath()
	case 'q':
		return true
	}
	return false
}

func (c *Core) moveCursor(delta int) {
	if len(c.Files) == 0 {
		return
	}
	newCursor := c.Cursor + delta
	if newCursor >= 0 && newCursor < len(c.Files) {
		c.Cursor = newCursor
		c.updateDisplay()
		return
	}
	if c.Mode.Kind != ModeDirectory {
		return
	}
	nextDir := c.db.NavigateDir(c.Mode.Dir, delta)
	if nextDir == "" {
		return
	}
	c.Mode = Mode{Kind: ModeDirectory, Dir: nextDir}
	c.loadFilesForMode()
	if delta > 0 {
		c.Cursor = 0
	} else {
		c.Cursor = clampIndex(len(c.Files)-1, len(c.Files))
	}
	c.updateDisplay()
}

func (c *Core) keyH() {
	if c.Mode.Kind == ModeDirectory && c.Cursor > 0 {
		c.Cursor = 0
		c.updateDisplay()
		return
	}
	c.navigateDirStep(-1)
}

// navigateDirStep moves Directory mode to the adjacent tracked directory,
// a no-op at either boundary (spec.md §8-B1) and in Collection mode.
func (c *Core) navigateDirStep(delta int) {
	if c.Mode.Kind != ModeDirectory {
		return
	}
	nextDir := c.db.NavigateDir(c.Mode.Dir, delta)
	if nextDir == "" {
		return
	}
	c.Mode = Mode{Kind: ModeDirectory, Dir: nextDir}
	c.Cursor = 0
	c.loadFilesForMode()
	c.updateDisplay()
}

func (c *Core) keyU() {
	if c.Mode.Kind == ModeCollection {
		c.jumpToFileOrNoop(c.db.RandomInCollection(c.Mode.Collection))
		return
	}
	c.jumpToFileOrNoop(c.db.RandomFile())
}

func (c *Core) jumpToFileOrNoop(f *store.File) {
	if f == nil {
		return
	}
	if c.Mode.Kind != ModeCollection {
		c.Mode = Mode{Kind: ModeDirectory, Dir: f.Dir}
	}
	c.loadFilesForMode()
	if idx := indexByID(c.Files, f.ID); idx >= 0 {
		c.Cursor = idx
	} else {
		c.Cursor = 0
	}
	c.updateDisplay()
}

func (c *Core) toggleLike() {
	f := c.CurrentFile()
	if f == nil {
		return
	}
	liked := c.db.ToggleLike(f.ID)
	c.Files[c.Cursor].Liked = liked
}

func (c *Core) toggleTag(col store.Collection) {
	f := c.CurrentFile()
	if f == nil {
		return
	}
	c.db.ToggleCollectionTag(f.ID, col)
}

func (c *Core) enterOrExitCollection(col store.Collection) {
	if c.Mode.Kind == ModeCollection && c.Mode.Collection == col {
		dir := c.lastDir
		if f := c.CurrentFile(); f != nil {
			dir = f.Dir
		}
		c.Mode = Mode{Kind: ModeDirectory, Dir: dir}
		c.loadFilesForMode()
		c.Cursor = clampIndex(c.Cursor, len(c.Files))
		c.updateDisplay()
		return
	}
	c.Mode = Mode{Kind: ModeCollection, Collection: col}
	c.loadFilesForMode()
	c.Cursor = 0
	c.updateDisplay()
}

func (c *Core) toggleTurbo() {
	if c.jobsEngine == nil {
		return
	}
	c.jobsEngine.SetTurbo(!c.jobsEngine.Stats.Turbo())
}

func (c *Core) copyCurrentPath() {
	f := c.CurrentFile()
	if f == nil || c.clipboard == nil {
		return
	}
	_ = c.clipboard.Set(f.Path)
}

func (c *Core) toggleVideoPause() {
	if c.videoEngine == nil || c.activeVideoPath == "" {
		return
	}
	if c.videoPaused {
		c.videoEngine.Resume()
	} else {
		c.videoEngine.Pause()
	}
	c.videoPaused = !c.videoPaused
}

func (c *Core) seekVideo(deltaSeconds int) {
	if c.videoEngine == nil || c.activeVideoPath == "" {
		return
	}
	c.videoEngine.Seek(secondsToDuration(deltaSeconds))
}

func (c *Core) adjustVolume(delta int) {
	if c.videoEngine == nil || c.activeVideoPath == "" {
		return
	}
	c.videoEngine.SetVolume(c.videoEngine.Volume() + delta)
}

func secondsToDuration(n int) time.Duration {
	return time.Duration(n) * time.Second
}
