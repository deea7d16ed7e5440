// Package preflight verifies read/write access before a backup starts,
// so configuration problems surface before any traversal work.
package preflight

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// CheckSource verifies that src is a directory whose entries can be
// listed.
func CheckSource(src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source %s: %w", src, err)
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read source %s: %w", src, err)
	}
	return nil
}

// CheckDestination ensures dst exists and is writable. A missing
// destination is created; an existing one is probed by creating and
// removing a scratch file. The returned warning is non-fatal: a probe
// file that could not be removed again should be surfaced to the user,
// but the backup can proceed.
func CheckDestination(dst string) (warn string, err error) {
	info, err := os.Stat(dst)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return "", fmt.Errorf("create destination %s: %w", dst, err)
		}
		return "", nil
	case err != nil:
		return "", fmt.Errorf("stat destination %s: %w", dst, err)
	case !info.IsDir():
		return "", fmt.Errorf("destination %s is not a directory", dst)
	}

	probe, err := os.CreateTemp(dst, ".backr-probe-*")
	if err != nil {
		return "", fmt.Errorf("destination %s is not writable: %w", dst, err)
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Sprintf("failed to remove probe file %s; verify the backup after completion", name), nil
	}
	return "", nil
}
