package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/bamsammich/backr/internal/event"
	"github.com/bamsammich/backr/internal/faillog"
	"github.com/bamsammich/backr/internal/filter"
	"github.com/bamsammich/backr/internal/stats"
)

// WalkerConfig controls the traversal.
type WalkerConfig struct {
	SrcRoot string
	DstRoot string
	All     bool
	Matcher *filter.Matcher // nil only when All is set
	Workers int             // walker goroutines, not copy workers
	Stats   *stats.Collector
	Fails   *faillog.Log
	Events  chan<- event.Event // optional
}

// Walker traverses the source tree concurrently, mirrors directories at
// the destination eagerly, and emits a FileTask for every entry that
// classifies as Copy. Directories are distributed over a work queue so
// sibling and cousin subtrees make progress in parallel; when the queue
// is saturated a walker recurses inline instead of blocking.
type Walker struct {
	cfg         WalkerConfig
	queue       chan dirJob
	outstanding sync.WaitGroup // directories queued but not yet processed
	tasks       chan<- FileTask
}

type dirJob struct {
	src string
	dst string
}

// NewWalker creates a walker with the given config.
func NewWalker(cfg WalkerConfig) *Walker {
	if cfg.Workers <= 0 {
		cfg.Workers = min(runtime.NumCPU(), 8)
	}
	return &Walker{cfg: cfg}
}

// Walk traverses SrcRoot, sending copy tasks to tasks. It blocks until
// the whole tree has been enumerated; the caller owns closing tasks.
// Traversal order is not deterministic. An unreadable directory is
// recorded as a failure for that directory's path and the walk
// continues; only the caller's context can stop a walk early.
func (w *Walker) Walk(ctx context.Context, tasks chan<- FileTask) {
	w.tasks = tasks
	w.queue = make(chan dirJob, w.cfg.Workers*4)

	w.emit(event.Event{Type: event.WalkStarted, Path: w.cfg.SrcRoot})

	var workers sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for job := range w.queue {
				w.walkDir(ctx, job)
				w.outstanding.Done()
			}
		}()
	}

	w.outstanding.Add(1)
	w.queue <- dirJob{src: w.cfg.SrcRoot, dst: w.cfg.DstRoot}

	// All queued directories processed: close the queue so workers
	// exit their range loop.
	w.outstanding.Wait()
	close(w.queue)
	workers.Wait()

	w.emit(event.Event{
		Type:  event.WalkComplete,
		Path:  w.cfg.SrcRoot,
		Total: w.cfg.Stats.Snapshot().FilesFound,
	})
}

func (w *Walker) walkDir(ctx context.Context, job dirJob) {
	if err := w.mirrorDir(job.dst); err != nil {
		// Nothing beneath this directory can be copied; record one
		// failure for the directory rather than one per descendant.
		w.fail(job.src, err)
		return
	}

	entries, err := os.ReadDir(job.src)
	if err != nil {
		w.fail(job.src, fmt.Errorf("read dir: %w", err))
		return
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		srcPath := filepath.Join(job.src, entry.Name())

		info, err := entry.Info()
		if err != nil {
			// Entry vanished or is unreadable at the metadata level;
			// same silent-skip treatment as special files.
			continue
		}

		switch Classify(srcPath, info.Mode(), w.cfg.All, w.cfg.Matcher) {
		case Descend:
			w.dispatchDir(ctx, dirJob{src: srcPath, dst: filepath.Join(job.dst, entry.Name())})
		case Copy:
			w.cfg.Stats.AddFilesFound(1)
			w.tasks <- FileTask{
				SrcPath: srcPath,
				DstPath: filepath.Join(job.dst, entry.Name()),
				Size:    info.Size(),
				Mode:    info.Mode(),
				ModTime: info.ModTime(),
			}
		case Skip:
		}
	}
}

// dispatchDir hands a subdirectory to another walker goroutine, or
// recurses inline when the queue is full. Queueing while every walker
// is itself blocked on a full queue would deadlock; the inline path
// keeps the traversal moving instead.
func (w *Walker) dispatchDir(ctx context.Context, job dirJob) {
	w.outstanding.Add(1)
	select {
	case w.queue <- job:
	default:
		w.outstanding.Done()
		w.walkDir(ctx, job)
	}
}

// mirrorDir ensures the destination directory exists. Creating an
// already existing directory is not an error.
func (w *Walker) mirrorDir(dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	w.cfg.Stats.AddDirsCreated(1)
	w.emit(event.Event{Type: event.DirCreated, Path: dst})
	return nil
}

func (w *Walker) fail(path string, err error) {
	w.cfg.Fails.Record(path, err)
	w.emit(event.Event{Type: event.WalkFailed, Path: path, Error: err})
}

// emit sends an event without blocking; progress reporting is advisory
// and must never stall the walk.
func (w *Walker) emit(ev event.Event) {
	if w.cfg.Events == nil {
		return
	}
	ev.Timestamp = time.Now()
	select {
	case w.cfg.Events <- ev:
	default:
	}
}
