package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/bamsammich/backr/internal/event"
	"github.com/bamsammich/backr/internal/stats"
)

// plainPresenter prints failures as they happen and a periodic progress
// line to stderr; per-file success lines only in verbose mode.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   *stats.Collector
	srcRoot string
	verbose bool
}

func (p *plainPresenter) Run(events <-chan event.Event) error {
	progress := time.NewTicker(5 * time.Second)
	defer progress.Stop()
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-tick.C:
			p.stats.Tick()
		case <-progress.C:
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev event.Event) {
	path := StripRoot(p.srcRoot, ev.Path)
	switch ev.Type {
	case event.FileCopied:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  %s\n", path, FormatBytes(ev.Size))
		}
	case event.FileUpToDate:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  up to date\n", path)
		}
	case event.FileFailed, event.WalkFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.errW, "%s %s: %s\n", color.New(color.FgRed).Sprint("failed"), path, errMsg)
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	fmt.Fprintf(p.errW, "progress: %d/%d files %s %s\n",
		snap.Completed(), snap.FilesFound,
		FormatBytes(snap.BytesCopied),
		FormatRate(p.stats.RollingSpeed(10)),
	)
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
