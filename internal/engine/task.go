package engine

import (
	"io/fs"
	"time"
)

// FileTask is one file the walker has selected for copying, together
// with the metadata read at traversal time.
type FileTask struct {
	SrcPath string
	DstPath string
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
}

// Status is the final state of one attempted transfer.
type Status int

const (
	StatusCopied   Status = iota + 1
	StatusUpToDate        // update mode: destination was same age or newer
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCopied:
		return "copied"
	case StatusUpToDate:
		return "up-to-date"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one attempted file copy. Exactly one Outcome
// is produced per task. CosmeticErr carries a permission-bit copy
// failure on an otherwise successful transfer; the failure aggregation
// ignores it, only the Status decides whether the path is recorded.
type Outcome struct {
	SrcPath     string
	Status      Status
	Bytes       int64
	Err         error
	CosmeticErr error
}
