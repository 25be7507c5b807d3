package nav

import (
	"os"
	"path/filepath"

	"github.com/shirk33y/lv/internal/pathutil"
	"github.com/shirk33y/lv/internal/scanner"
	"github.com/shirk33y/lv/internal/store"
)

// HandleDrop implements the drag-and-drop branching from spec.md §4.8's
// final paragraph: a dropped media file in an untracked directory tracks
// that directory non-recursively and marks its newly-discovered files
// temporary; a drop into an already-tracked directory just rescans; a
// dropped directory behaves the same way but always lands on its first
// file instead of the dropped one.
func (c *Core) HandleDrop(rawPath string) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		c.dropError()
		return
	}
	abs = pathutil.Clean(abs)

	info, err := os.Stat(abs)
	if err != nil {
		c.dropError()
		return
	}

	if info.IsDir() {
		c.dropIntoDirectory(abs, "")
		return
	}

	if !scanner.IsMedia(abs) {
		c.dropError()
		return
	}
	c.dropIntoDirectory(pathutil.Parent(abs), abs)
}

func (c *Core) dropIntoDirectory(dir, droppedPath string) {
	alreadyTracked := c.db.IsTracked(dir) || c.db.IsCovered(dir)

	var before map[int64]bool
	if !alreadyTracked {
		before = idSet(c.db.ListByDir(dir))
		if err := c.db.Track(dir, false); err != nil {
			c.dropError()
			return
		}
	}

	scanner.Scan(c.db, dir)

	if !alreadyTracked {
		for _, f := range c.db.ListByDir(dir) {
			if !before[f.ID] {
				c.db.SetTemporary(f.ID, true)
			}
		}
		c.Mode = Mode{Kind: ModeCollection, Collection: store.CollectionTemporary}
	} else {
		c.Mode = Mode{Kind: ModeDirectory, Dir: dir}
	}
	c.loadFilesForMode()

	c.Cursor = 0
	if droppedPath != "" {
		if f := findByPath(c.Files, droppedPath); f != nil {
			c.Cursor = indexByID(c.Files, f.ID)
		}
	}
	c.updateDisplay()
}

func idSet(files []store.File) map[int64]bool {
	out := make(map[int64]bool, len(files))
	for _, f := range files {
		out[f.ID] = true
	}
	return out
}
