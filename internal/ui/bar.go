package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/backr/internal/event"
	"github.com/bamsammich/backr/internal/stats"
)

const barWidth = 30

// barPresenter redraws a single progress-bar line on a TTY. The
// denominator is the number of eligible files discovered so far, so the
// bar can move backwards while the walker is still enumerating.
type barPresenter struct {
	w     io.Writer
	stats *stats.Collector
}

func (p *barPresenter) Run(events <-chan event.Event) error {
	redraw := time.NewTicker(200 * time.Millisecond)
	defer redraw.Stop()
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case _, ok := <-events:
			if !ok {
				p.draw()
				fmt.Fprintln(p.w)
				return nil
			}
		case <-tick.C:
			p.stats.Tick()
		case <-redraw.C:
			p.draw()
		}
	}
}

func (p *barPresenter) draw() {
	snap := p.stats.Snapshot()

	pct := 0.0
	if snap.FilesFound > 0 {
		pct = float64(snap.Completed()) / float64(snap.FilesFound)
	}

	fmt.Fprintf(p.w, "\r\033[Kbackup [%s] %3.0f%%  %d/%d files  %s  %s",
		ProgressBar(pct, barWidth),
		pct*100,
		snap.Completed(), snap.FilesFound,
		FormatBytes(snap.BytesCopied),
		FormatRate(p.stats.RollingSpeed(10)),
	)
}

func (p *barPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
