// Package stats tracks run counters shared between the engine and the
// progress presenters.
package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks backup counters using lock-free atomics. The walker
// and workers write; presenters read. FilesFound grows while the tree
// is still being enumerated, so a percentage display can move backwards
// early in a run.
type Collector struct {
	filesFound    atomic.Int64 // eligible files discovered by the walker
	filesCopied   atomic.Int64
	filesUpToDate atomic.Int64 // skipped because the destination is newer
	filesFailed   atomic.Int64
	bytesCopied   atomic.Int64
	dirsCreated   atomic.Int64
	startTime     time.Time

	// Throughput ring, written only by the presenter's tick loop.
	mu         sync.Mutex
	throughput [ringSize]int64 // bytes delta per second
	ringIdx    int
	ringCount  int
	lastBytes  int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesFound    int64
	FilesCopied   int64
	FilesUpToDate int64
	FilesFailed   int64
	BytesCopied   int64
	DirsCreated   int64
	Elapsed       time.Duration
}

// Completed is the number of eligible files with a final outcome.
func (s Snapshot) Completed() int64 {
	return s.FilesCopied + s.FilesUpToDate + s.FilesFailed
}

func (c *Collector) AddFilesFound(n int64)    { c.filesFound.Add(n) }
func (c *Collector) AddFilesCopied(n int64)   { c.filesCopied.Add(n) }
func (c *Collector) AddFilesUpToDate(n int64) { c.filesUpToDate.Add(n) }
func (c *Collector) AddFilesFailed(n int64)   { c.filesFailed.Add(n) }
func (c *Collector) AddBytesCopied(n int64)   { c.bytesCopied.Add(n) }
func (c *Collector) AddDirsCreated(n int64)   { c.dirsCreated.Add(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesFound:    c.filesFound.Load(),
		FilesCopied:   c.filesCopied.Load(),
		FilesUpToDate: c.filesUpToDate.Load(),
		FilesFailed:   c.filesFailed.Load(),
		BytesCopied:   c.bytesCopied.Load(),
		DirsCreated:   c.dirsCreated.Load(),
		Elapsed:       c.Elapsed(),
	}
}

// Tick snapshots the byte delta into the ring buffer. Called once per
// second by the presenter.
func (c *Collector) Tick() {
	currentBytes := c.bytesCopied.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = currentBytes - c.lastBytes
	c.lastBytes = currentBytes
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := seconds
	if count > c.ringCount {
		count = c.ringCount
	}
	if count == 0 {
		return 0
	}
	var sum int64
	for i := 0; i < count; i++ {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"found=%d copied=%d uptodate=%d failed=%d bytes=%d dirs=%d",
		s.FilesFound, s.FilesCopied, s.FilesUpToDate, s.FilesFailed,
		s.BytesCopied, s.DirsCreated,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
