// Package event defines the progress events emitted by the engine.
package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	WalkStarted  Type = iota + 1
	WalkComplete      // tree fully enumerated; Total carries the eligible file count
	FileCopied
	FileUpToDate // update mode: destination was already current
	FileFailed
	DirCreated
	WalkFailed // a directory could not be read
)

var typeNames = [...]string{
	WalkStarted:  "WalkStarted",
	WalkComplete: "WalkComplete",
	FileCopied:   "FileCopied",
	FileUpToDate: "FileUpToDate",
	FileFailed:   "FileFailed",
	DirCreated:   "DirCreated",
	WalkFailed:   "WalkFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine. Exactly one
// of FileCopied, FileUpToDate, or FileFailed is emitted per eligible file.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // source path
	Size      int64  // bytes transferred (FileCopied)
	Total     int64  // eligible file count (WalkComplete)
	Error     error
	WorkerID  int
}
