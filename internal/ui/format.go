package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/bamsammich/backr/internal/stats"
)

// FormatRate formats a bytes-per-second rate as a human-readable string.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	units := []string{"B/s", "KB/s", "MB/s", "GB/s", "TB/s"}
	val := bytesPerSec
	for _, u := range units {
		if val < 1024 {
			if val < 10 {
				return fmt.Sprintf("%.2f %s", val, u)
			}
			if val < 100 {
				return fmt.Sprintf("%.1f %s", val, u)
			}
			return fmt.Sprintf("%.0f %s", val, u)
		}
		val /= 1024
	}
	return fmt.Sprintf("%.1f PB/s", val)
}

// FormatDuration formats elapsed time concisely.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// ProgressBar renders a progress bar of the given width using ▪/□ characters.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	var b strings.Builder
	for i := 0; i < filled; i++ {
		b.WriteRune('▪') // ▪ (filled)
	}
	for i := 0; i < width-filled; i++ {
		b.WriteRune('□') // □ (empty)
	}
	return b.String()
}

// StripRoot removes the root prefix from path for display.
func StripRoot(root, path string) string {
	if root == "" {
		return path
	}
	root = strings.TrimSuffix(root, "/")
	if rest, ok := strings.CutPrefix(path, root+"/"); ok {
		return rest
	}
	return path
}

// FormatBytes wraps stats.FormatBytes for UI use.
func FormatBytes(b int64) string {
	return stats.FormatBytes(b)
}

// CompletionSummary renders the end-of-run summary line.
func CompletionSummary(snap stats.Snapshot) string {
	parts := []string{
		fmt.Sprintf("%d files backed up (%s in %s)",
			snap.FilesCopied, FormatBytes(snap.BytesCopied), FormatDuration(snap.Elapsed)),
	}
	if snap.FilesUpToDate > 0 {
		parts = append(parts, fmt.Sprintf("%d up to date", snap.FilesUpToDate))
	}
	if snap.FilesFailed > 0 {
		parts = append(parts, color.New(color.FgRed).Sprintf("%d failed", snap.FilesFailed))
	}
	return strings.Join(parts, ", ")
}
