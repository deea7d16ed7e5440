// Package faillog collects the source paths of failed transfers across
// concurrent writers.
package faillog

import "sync"

// Failure is one failed source path and the reason it failed.
type Failure struct {
	Path   string
	Reason string
}

// Log is the shared failure collection for a single run. All mutation
// goes through a single mutex; workers and the walker share one Log.
// After every writer has finished, ownership passes to the caller and
// Drain may be read without synchronization concerns.
type Log struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	failures []Failure
}

// New returns an empty failure log.
func New() *Log {
	return &Log{seen: make(map[string]struct{})}
}

// Record inserts a failure for path. Recording the same path twice
// keeps the first reason; the set never holds duplicates.
func (l *Log) Record(path string, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.seen[path]; dup {
		return
	}
	l.seen[path] = struct{}{}
	l.failures = append(l.failures, Failure{Path: path, Reason: reason})
}

// Len returns the current number of recorded failures.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.failures)
}

// Drain returns the complete failure list in insertion order. Call it
// once, after all workers have joined.
func (l *Log) Drain() []Failure {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Failure, len(l.failures))
	copy(out, l.failures)
	return out
}
