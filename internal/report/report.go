// Package report persists the failure list of a finished run as a
// plain-text log, one failed source path per line.
package report

import (
	"bufio"
	"fmt"
	"os"

	"github.com/bamsammich/backr/internal/faillog"
)

// completionMarker is written in place of failures when a log is forced
// for a clean run.
const completionMarker = "** backr completed without error"

// Write stores failures at path, one line per failed source path with
// the reason appended. With no failures the log is skipped entirely
// unless force is set, in which case a completion marker is written
// instead. It reports whether a file was written.
func Write(path string, failures []faillog.Failure, force bool) (bool, error) {
	if len(failures) == 0 && !force {
		return false, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("create log %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if len(failures) == 0 {
		fmt.Fprintln(w, completionMarker)
	}
	for _, fail := range failures {
		if fail.Reason != "" {
			fmt.Fprintf(w, "%s: %s\n", fail.Path, fail.Reason)
		} else {
			fmt.Fprintln(w, fail.Path)
		}
	}

	if err := w.Flush(); err != nil {
		return false, fmt.Errorf("write log %s: %w", path, err)
	}
	return true, nil
}
