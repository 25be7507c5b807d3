// Package overlay implements the Overlay & Status component (C9): pure
// functions that turn read-only snapshots of the Index Store, Job
// Engine, and Navigation/Display Core into the strings and booleans a UI
// layer renders. Nothing here touches a terminal or GPU surface — the
// actual font rendering is an explicit spec.md §1 non-goal; this package
// only decides what text and state to show.
package overlay

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirk33y/lv/internal/jobs"
	"github.com/shirk33y/lv/internal/nav"
	"github.com/shirk33y/lv/internal/store"
)

// Version is overridden at build time (-ldflags) with the release tag and
// git commit, per spec.md §6's window title format.
var Version = "dev"

// StatusLine renders the bottom status bar: "[N/total] path... ♥ ... [T]
// > mm:ss/mm:ss Vol: V%" (spec.md §4.9). jobStats may be nil (no turbo
// indicator shown). The video transport segment is omitted entirely when
// no video is active.
func StatusLine(core *nav.Core, jobStats *jobs.Stats) string {
	total := len(core.Files)
	f := core.CurrentFile()
	if f == nil {
		return fmt.Sprintf("[0/%d]", total)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%d/%d] %s", core.Cursor+1, total, f.Path)
	if f.Liked {
		b.WriteString(" ♥")
	}
	if jobStats != nil && jobStats.Turbo() {
		b.WriteString(" [T]")
	}
	if core.IsVideoActive() {
		elapsed, total := core.VideoPosition()
		state := ">"
		if core.VideoPaused() {
			state = "||"
		}
		fmt.Fprintf(&b, " %s %s/%s Vol: %d%%", state, formatDuration(elapsed), formatDuration(total), core.VideoVolume())
	}
	return b.String()
}

// WindowTitle renders "[N/total] FILENAME[ ♥] — DIR — lv VERSION" per
// spec.md §6, where DIR is the directory's last path component only.
func WindowTitle(core *nav.Core) string {
	total := len(core.Files)
	f := core.CurrentFile()
	if f == nil {
		return fmt.Sprintf("[0/%d] — lv %s", total, Version)
	}
	name := f.Filename
	if f.Liked {
		name += " ♥"
	}
	dir := filepath.Base(f.Dir)
	return fmt.Sprintf("[%d/%d] %s — %s — lv %s", core.Cursor+1, total, name, dir, Version)
}

// ShowSpinner reports whether the centered loading spinner should render:
// a cold image load in flight, or a video selected but not yet showing
// its first frame (spec.md §4.9).
func ShowSpinner(core *nav.Core) bool {
	if core.IsColdLoading() {
		return true
	}
	return core.IsVideoActive() && !core.HasFrame()
}

// ErrorBanner returns the centered error banner text and whether one
// should be shown at all.
func ErrorBanner(core *nav.Core) (string, bool) {
	if core.Error == nil {
		return "", false
	}
	if core.Error.Filename != "" {
		return fmt.Sprintf("%s: %s", core.Error.Message, core.Error.Filename), true
	}
	return core.Error.Message, true
}

// Sidebar renders the optional right-hand metadata+stats panel
// (spec.md §4.9), one line per entry, only when core.ShowInfo is set.
func Sidebar(db *store.Store, jobStats *jobs.Stats, core *nav.Core) []string {
	if !core.ShowInfo {
		return nil
	}
	var lines []string
	if f := core.CurrentFile(); f != nil {
		meta := db.GetMetadata(f.ID)
		lines = append(lines, metadataLines(meta)...)
	}
	lines = append(lines, "")
	lines = append(lines, statsLines(db.CollectionStats())...)
	if jobStats != nil {
		lines = append(lines, fmt.Sprintf("jobs/min: %.1f", float64(jobStats.JobsPerMinute())/10))
		if errText := jobStats.LastError(); errText != "" {
			lines = append(lines, "last error: "+errText)
		}
	}
	return lines
}

func metadataLines(m *store.FileMetadata) []string {
	if m == nil {
		return []string{"(no metadata yet)"}
	}
	var lines []string
	lines = append(lines, m.Filename)
	if m.Size != nil {
		lines = append(lines, fmt.Sprintf("size: %d bytes", *m.Size))
	}
	if m.Width != nil && m.Height != nil {
		lines = append(lines, fmt.Sprintf("dimensions: %dx%d", *m.Width, *m.Height))
	}
	if m.Format != nil {
		lines = append(lines, "format: "+*m.Format)
	}
	if m.ContentHash != nil {
		lines = append(lines, "hash: "+truncateHash(*m.ContentHash))
	}
	if m.DurationMS != nil {
		lines = append(lines, fmt.Sprintf("duration: %s", formatDuration(time.Duration(*m.DurationMS)*time.Millisecond)))
	}
	if m.GeneratorInfo != nil && *m.GeneratorInfo != "" {
		lines = append(lines, "generator: "+*m.GeneratorInfo)
	}
	if len(m.Tags) > 0 {
		lines = append(lines, "tags: "+strings.Join(m.Tags, ", "))
	}
	return lines
}

func statsLines(st store.Stats) []string {
	coverage := 0.0
	if st.TotalFiles > 0 {
		coverage = float64(st.Hashed) / float64(st.TotalFiles) * 100
	}
	return []string{
		fmt.Sprintf("files: %d across %d dirs", st.TotalFiles, st.TotalDirs),
		fmt.Sprintf("hashed: %d (%.0f%%)", st.Hashed, coverage),
		fmt.Sprintf("with dimensions: %d", st.WithDimensions),
		fmt.Sprintf("failures: %d", st.Failed),
	}
}

func truncateHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12] + "…"
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
