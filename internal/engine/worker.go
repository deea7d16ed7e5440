package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bamsammich/backr/internal/event"
	"github.com/bamsammich/backr/internal/faillog"
	"github.com/bamsammich/backr/internal/platform"
	"github.com/bamsammich/backr/internal/stats"
)

// WorkerConfig controls the copy worker pool.
type WorkerConfig struct {
	Workers int
	Update  bool // skip files whose destination copy is same age or newer
	Stats   *stats.Collector
	Fails   *faillog.Log
	Events  chan<- event.Event // optional
}

// WorkerPool runs a fixed number of copy workers over a task channel.
type WorkerPool struct {
	cfg WorkerConfig
}

// NewWorkerPool creates a pool. Workers is clamped to a minimum of 1.
func NewWorkerPool(cfg WorkerConfig) *WorkerPool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &WorkerPool{cfg: cfg}
}

// Run consumes tasks until the channel closes and every in-flight copy
// has finished. Each task produces exactly one Outcome: counters are
// updated, failures recorded, and an event emitted before the worker
// picks up the next task.
func (wp *WorkerPool) Run(ctx context.Context, tasks <-chan FileTask) {
	var wg sync.WaitGroup
	for id := 0; id < wp.cfg.Workers; id++ {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				select {
				case <-ctx.Done():
					// Drain without copying so the walker is never
					// blocked on a full task channel.
					wp.finish(task, Outcome{SrcPath: task.SrcPath, Status: StatusFailed, Err: ctx.Err()}, id)
					continue
				default:
				}
				wp.finish(task, wp.copyOne(task), id)
			}
		}()
	}
	wg.Wait()
}

// copyOne performs a single file transfer and reports its outcome.
func (wp *WorkerPool) copyOne(task FileTask) Outcome {
	if wp.cfg.Update {
		if dstInfo, err := os.Lstat(task.DstPath); err == nil {
			if !dstInfo.ModTime().Before(task.ModTime) {
				return Outcome{SrcPath: task.SrcPath, Status: StatusUpToDate}
			}
		}
	}

	dir := filepath.Dir(task.DstPath)

	// The walker creates directories eagerly, but a copy must never
	// depend on ordering against directory tasks: create the parent
	// lazily and idempotently if it is missing.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Outcome{
			SrcPath: task.SrcPath,
			Status:  StatusFailed,
			Err:     fmt.Errorf("create parent dir %s: %w", dir, err),
		}
	}

	tmpName := fmt.Sprintf(".%s.%s.backr-tmp", filepath.Base(task.DstPath), uuid.New().String()[:8])
	tmpPath := filepath.Join(dir, tmpName)

	defer func() {
		_ = os.Remove(tmpPath) // no-op if the rename succeeded
	}()

	tmpFd, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return Outcome{
			SrcPath: task.SrcPath,
			Status:  StatusFailed,
			Err:     fmt.Errorf("create tmp %s: %w", tmpPath, err),
		}
	}

	var written int64
	if task.Size > 0 {
		result, err := platform.CopyFile(platform.CopyParams{
			SrcPath: task.SrcPath,
			DstFd:   tmpFd,
			Size:    task.Size,
		})
		if err != nil {
			tmpFd.Close()
			return Outcome{
				SrcPath: task.SrcPath,
				Status:  StatusFailed,
				Err:     fmt.Errorf("copy %s: %w", task.SrcPath, err),
			}
		}
		written = result.BytesWritten
	}

	// Replicating permission bits is best-effort: the content is safely
	// transferred either way, so a chmod failure is cosmetic, not a
	// transfer failure.
	var cosmetic error
	if err := tmpFd.Chmod(task.Mode.Perm()); err != nil {
		cosmetic = fmt.Errorf("copy permissions %s: %w", task.DstPath, err)
	}

	if err := tmpFd.Close(); err != nil {
		return Outcome{
			SrcPath: task.SrcPath,
			Status:  StatusFailed,
			Err:     fmt.Errorf("close tmp %s: %w", tmpPath, err),
		}
	}

	if err := os.Rename(tmpPath, task.DstPath); err != nil {
		return Outcome{
			SrcPath: task.SrcPath,
			Status:  StatusFailed,
			Err:     fmt.Errorf("rename %s -> %s: %w", tmpPath, task.DstPath, err),
		}
	}

	return Outcome{SrcPath: task.SrcPath, Status: StatusCopied, Bytes: written, CosmeticErr: cosmetic}
}

// finish aggregates one outcome: counters, failure log, progress event.
// Only StatusFailed reaches the failure log; cosmetic errors do not.
func (wp *WorkerPool) finish(task FileTask, o Outcome, workerID int) {
	switch o.Status {
	case StatusCopied:
		wp.cfg.Stats.AddFilesCopied(1)
		wp.cfg.Stats.AddBytesCopied(o.Bytes)
		wp.emit(event.Event{Type: event.FileCopied, Path: task.SrcPath, Size: o.Bytes, WorkerID: workerID})
	case StatusUpToDate:
		wp.cfg.Stats.AddFilesUpToDate(1)
		wp.emit(event.Event{Type: event.FileUpToDate, Path: task.SrcPath, WorkerID: workerID})
	case StatusFailed:
		wp.cfg.Stats.AddFilesFailed(1)
		wp.cfg.Fails.Record(o.SrcPath, o.Err)
		wp.emit(event.Event{Type: event.FileFailed, Path: task.SrcPath, Error: o.Err, WorkerID: workerID})
	}
}

func (wp *WorkerPool) emit(ev event.Event) {
	if wp.cfg.Events == nil {
		return
	}
	ev.Timestamp = time.Now()
	select {
	case wp.cfg.Events <- ev:
	default:
	}
}
