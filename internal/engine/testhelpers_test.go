package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/bamsammich/backr/internal/faillog"
	"github.com/bamsammich/backr/internal/stats"
)

// buildTree writes files (path -> content) under root, creating parent
// directories as needed. Paths use forward slashes relative to root.
func buildTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func hashFile(t *testing.T, path string) [32]byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return blake3.Sum256(data)
}

func requireSameContent(t *testing.T, src, dst string) {
	t.Helper()
	require.Equal(t, hashFile(t, src), hashFile(t, dst), "content mismatch: %s vs %s", src, dst)
}

// skipIfRoot skips permission-based tests that cannot work when the
// test runs with euid 0, since root ignores file modes.
func skipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission tests are meaningless as root")
	}
}

func failurePaths(failures []faillog.Failure) []string {
	paths := make([]string, len(failures))
	for i, f := range failures {
		paths[i] = f.Path
	}
	return paths
}

func newRunDeps() (*stats.Collector, *faillog.Log) {
	return stats.NewCollector(), faillog.New()
}
