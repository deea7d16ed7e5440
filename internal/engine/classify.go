package engine

import (
	"io/fs"

	"github.com/bamsammich/backr/internal/filter"
)

// Decision is the walker's verdict for a single directory entry.
type Decision int

const (
	Descend Decision = iota + 1 // directory: recurse into it
	Copy                        // regular file selected for backup
	Skip                        // everything else, silently ignored
)

func (d Decision) String() string {
	switch d {
	case Descend:
		return "descend"
	case Copy:
		return "copy"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// Classify decides what to do with one filesystem entry. Directories
// always descend, whether or not they match the pattern. Regular files
// are copied when all is set or the full path matches. Symlinks and
// special files are skipped without being recorded anywhere.
func Classify(path string, mode fs.FileMode, all bool, matcher *filter.Matcher) Decision {
	switch {
	case mode.IsDir():
		return Descend
	case !mode.IsRegular():
		return Skip
	case all:
		return Copy
	case matcher != nil && matcher.Matches(path):
		return Copy
	default:
		return Skip
	}
}
