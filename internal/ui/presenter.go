// Package ui renders backup progress from engine events.
package ui

import (
	"io"

	"github.com/bamsammich/backr/internal/event"
	"github.com/bamsammich/backr/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan event.Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Stats     *stats.Collector
	SrcRoot   string
	IsTTY     bool
	Quiet     bool
	Verbose   bool
	Progress  bool // draw the progress bar
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{stats: cfg.Stats}
	}
	if cfg.Progress && cfg.IsTTY {
		return &barPresenter{
			w:     cfg.ErrWriter, // the bar renders to stderr (the TTY)
			stats: cfg.Stats,
		}
	}
	return &plainPresenter{
		w:       cfg.Writer,
		errW:    cfg.ErrWriter,
		stats:   cfg.Stats,
		srcRoot: cfg.SrcRoot,
		verbose: cfg.Verbose,
	}
}
