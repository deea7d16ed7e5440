// Package engine implements the concurrent backup core: a parallel
// directory walker feeding a fixed pool of copy workers, with failures
// aggregated into a shared log.
package engine

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/backr/internal/event"
	"github.com/bamsammich/backr/internal/faillog"
	"github.com/bamsammich/backr/internal/filter"
	"github.com/bamsammich/backr/internal/stats"
)

// Config describes one backup run. It is immutable for the run's
// duration and shared by reference across walker and workers.
type Config struct {
	Src         string
	Dst         string
	All         bool   // copy every regular file, ignoring Pattern
	Pattern     string // regular expression; ignored when All
	Update      bool   // keep destination files that are same age or newer
	Workers     int    // copy workers, minimum 1
	WalkWorkers int    // traversal goroutines (default min(NumCPU, 8))

	Stats  *stats.Collector   // optional; created when nil
	Events chan<- event.Event // optional progress events
}

// Result is the outcome of a backup run. Err is set only for
// configuration errors; per-file and per-directory problems end up in
// Failures instead.
type Result struct {
	Failures []faillog.Failure
	Stats    stats.Snapshot
	Err      error
}

// Run executes a backup, blocking until the source tree is fully
// enumerated and every dispatched copy has completed. The run moves
// through validation, traversal+copy, and a final drain of the failure
// log, whose ownership then passes to the caller.
func Run(ctx context.Context, cfg Config) Result {
	srcInfo, err := os.Lstat(cfg.Src)
	if err != nil {
		return Result{Err: fmt.Errorf("source: %w", err)}
	}
	if !srcInfo.IsDir() {
		return Result{Err: fmt.Errorf("source %s is not a directory", cfg.Src)}
	}

	var matcher *filter.Matcher
	if !cfg.All {
		matcher, err = filter.New(cfg.Pattern)
		if err != nil {
			return Result{Err: err}
		}
	}

	if err := os.MkdirAll(cfg.Dst, 0o755); err != nil {
		return Result{Err: fmt.Errorf("create destination: %w", err)}
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}
	fails := faillog.New()

	walker := NewWalker(WalkerConfig{
		SrcRoot: cfg.Src,
		DstRoot: cfg.Dst,
		All:     cfg.All,
		Matcher: matcher,
		Workers: cfg.WalkWorkers,
		Stats:   collector,
		Fails:   fails,
		Events:  cfg.Events,
	})

	pool := NewWorkerPool(WorkerConfig{
		Workers: cfg.Workers,
		Update:  cfg.Update,
		Stats:   collector,
		Fails:   fails,
		Events:  cfg.Events,
	})

	tasks := make(chan FileTask, cfg.Workers*4)

	var g errgroup.Group
	g.Go(func() error {
		defer close(tasks)
		walker.Walk(ctx, tasks)
		return nil
	})
	g.Go(func() error {
		pool.Run(ctx, tasks)
		return nil
	})
	_ = g.Wait() // walker and pool report problems via the failure log

	return Result{
		Failures: fails.Drain(),
		Stats:    collector.Snapshot(),
	}
}
