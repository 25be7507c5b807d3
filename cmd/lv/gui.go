package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/shirk33y/lv/internal/config"
	"github.com/shirk33y/lv/internal/gl"
	"github.com/shirk33y/lv/internal/jobs"
	"github.com/shirk33y/lv/internal/nav"
	"github.com/shirk33y/lv/internal/overlay"
	"github.com/shirk33y/lv/internal/preload"
	"github.com/shirk33y/lv/internal/render"
	"github.com/shirk33y/lv/internal/texture"
	"github.com/shirk33y/lv/internal/videoengine"
	"github.com/shirk33y/lv/internal/watcher"
)

// refreshInterval is the UI tick rate driving Core.Tick and the overlay
// redraw; spec.md §4.8's per-frame logic runs once per tick.
const refreshInterval = 33 * time.Millisecond

func runGUI(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cs, err := config.NewStore()
	if err != nil {
		return err
	}
	cfg, err := cs.Load()
	if err != nil {
		return err
	}

	w, err := watcher.Start(db)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Stop()

	jobsEngine := jobs.Start(db)
	defer jobsEngine.Stop()

	ctx := gl.NewNull()
	textures := texture.New(ctx, cfg.TextureCacheSize)
	defer textures.Close()

	videoEngine := videoengine.NewNull()
	renderWorker := render.Start(ctx, videoEngine, cfg.RenderShutdownMS)
	defer renderWorker.Stop()

	core := nav.New(db, w.Events(), preload.New(), textures, jobsEngine, videoEngine, renderWorker, nil, "")
	for _, a := range args {
		core.HandleDrop(a)
	}
	if len(core.Files) == 0 {
		return fmt.Errorf("no files found in %s", core.Mode.Dir)
	}

	app := tview.NewApplication()

	mainView := tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter)
	statusBar := tview.NewTextView().SetDynamicColors(true)
	sidebar := tview.NewTextView().SetDynamicColors(true)

	body := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(mainView, 0, 3, false)
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, false).
		AddItem(statusBar, 1, 0, false)

	refresh := func() {
		mainView.SetText(mainViewText(core))
		statusBar.SetText(overlay.StatusLine(core, jobsEngine.Stats))
		if errText, show := overlay.ErrorBanner(core); show {
			statusBar.SetText(errText)
		}
		if core.ShowInfo {
			sidebar.SetText(strings.Join(overlay.Sidebar(db, jobsEngine.Stats, core), "\n"))
			if body.GetItemCount() == 1 {
				body.AddItem(sidebar, 0, 1, false)
			}
		} else if body.GetItemCount() == 2 {
			body.RemoveItem(sidebar)
		}
	}
	refresh()
	app.SetRoot(root, true)

	app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		key, ok := tcellToNavKey(ev)
		if !ok {
			return ev
		}
		core.NotifyMouseMove(time.Now())
		if core.HandleKey(key) {
			app.Stop()
			return nil
		}
		refresh()
		return nil
	})

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				core.Tick(time.Now())
				app.QueueUpdateDraw(refresh)
			case <-stop:
				return
			}
		}
	}()
	defer close(stop)

	return app.Run()
}

func mainViewText(core *nav.Core) string {
	if errText, show := overlay.ErrorBanner(core); show {
		return "[red]" + errText
	}
	if overlay.ShowSpinner(core) {
		return "loading..."
	}
	f := core.CurrentFile()
	if f == nil {
		return "(no files)"
	}
	return f.Path
}
