package engine

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/backr/internal/faillog"
	"github.com/bamsammich/backr/internal/stats"
)

func newTestPool(t *testing.T, opts ...func(*WorkerConfig)) (*WorkerPool, *stats.Collector, *faillog.Log) {
	t.Helper()
	collector := stats.NewCollector()
	fails := faillog.New()
	cfg := WorkerConfig{
		Workers: 2,
		Stats:   collector,
		Fails:   fails,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return NewWorkerPool(cfg), collector, fails
}

func taskFor(t *testing.T, srcFile, dstFile string) FileTask {
	t.Helper()
	info, err := os.Lstat(srcFile)
	require.NoError(t, err)
	return FileTask{
		SrcPath: srcFile,
		DstPath: dstFile,
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}
}

func runTasks(wp *WorkerPool, taskList ...FileTask) {
	tasks := make(chan FileTask, len(taskList))
	for _, task := range taskList {
		tasks <- task
	}
	close(tasks)
	wp.Run(context.Background(), tasks)
}

func TestWorker_CopiesContentByteForByte(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	data := make([]byte, 2*1024*1024)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, data, 0o644))

	wp, collector, fails := newTestPool(t)
	runTasks(wp, taskFor(t, src, dst))

	require.Empty(t, fails.Drain())
	requireSameContent(t, src, dst)

	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.FilesCopied)
	assert.Equal(t, int64(len(data)), snap.BytesCopied)
}

func TestWorker_ReplicatesPermissionBits(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "script.sh")
	dst := filepath.Join(dir, "out", "script.sh")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\n"), 0o755))

	wp, _, fails := newTestPool(t)
	runTasks(wp, taskFor(t, src, dst))

	require.Empty(t, fails.Drain())
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestWorker_CreatesMissingParentLazily(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "not", "yet", "there", "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	wp, _, fails := newTestPool(t)
	runTasks(wp, taskFor(t, src, dst))

	require.Empty(t, fails.Drain())
	requireSameContent(t, src, dst)
}

func TestWorker_UpdateSkipsNewerDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "dst", "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("new source"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, []byte("existing destination"), 0o644))

	// Destination strictly newer than source.
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(src, old, old))

	wp, collector, fails := newTestPool(t, func(c *WorkerConfig) { c.Update = true })
	runTasks(wp, taskFor(t, src, dst))

	require.Empty(t, fails.Drain())
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("existing destination"), got, "no bytes may be transferred")

	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.FilesUpToDate)
	assert.Zero(t, snap.FilesCopied)
	assert.Zero(t, snap.BytesCopied)
}

func TestWorker_UpdateOverwritesOlderDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "dst", "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("new source"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, []byte("stale destination"), 0o644))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(dst, old, old))

	wp, collector, fails := newTestPool(t, func(c *WorkerConfig) { c.Update = true })
	runTasks(wp, taskFor(t, src, dst))

	require.Empty(t, fails.Drain())
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("new source"), got)
	assert.Equal(t, int64(1), collector.Snapshot().FilesCopied)
}

func TestWorker_WithoutUpdateAlwaysOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "dst", "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("source"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, []byte("newer destination"), 0o644))

	// Destination newer, but update mode is off.
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(src, old, old))

	wp, _, fails := newTestPool(t)
	runTasks(wp, taskFor(t, src, dst))

	require.Empty(t, fails.Drain())
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("source"), got)
}

func TestWorker_UnreadableSourceIsRecorded(t *testing.T) {
	skipIfRoot(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "secret.txt")
	dst := filepath.Join(dir, "dst", "secret.txt")
	require.NoError(t, os.WriteFile(src, []byte("classified"), 0o000))

	wp, collector, fails := newTestPool(t)
	runTasks(wp, taskFor(t, src, dst))

	failures := fails.Drain()
	require.Len(t, failures, 1)
	assert.Equal(t, src, failures[0].Path)
	assert.Equal(t, int64(1), collector.Snapshot().FilesFailed)

	// A failed copy leaves no partial destination file behind.
	_, err := os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}

func TestWorker_FailureDoesNotStopOtherFiles(t *testing.T) {
	skipIfRoot(t)

	dir := t.TempDir()
	srcOK := filepath.Join(dir, "ok.txt")
	srcBad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(srcOK, []byte("fine"), 0o644))
	require.NoError(t, os.WriteFile(srcBad, []byte("nope"), 0o000))

	wp, collector, fails := newTestPool(t)
	runTasks(wp,
		taskFor(t, srcBad, filepath.Join(dir, "dst", "bad.txt")),
		taskFor(t, srcOK, filepath.Join(dir, "dst", "ok.txt")),
	)

	assert.Equal(t, []string{srcBad}, failurePaths(fails.Drain()))
	requireSameContent(t, srcOK, filepath.Join(dir, "dst", "ok.txt"))

	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.FilesCopied)
	assert.Equal(t, int64(1), snap.FilesFailed)
}

func TestWorker_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty")
	dst := filepath.Join(dir, "dst", "empty")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	wp, collector, fails := newTestPool(t)
	runTasks(wp, taskFor(t, src, dst))

	require.Empty(t, fails.Drain())
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
	assert.Equal(t, int64(1), collector.Snapshot().FilesCopied)
}

func TestWorker_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dstDir := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	wp, _, fails := newTestPool(t)
	runTasks(wp, taskFor(t, src, filepath.Join(dstDir, "a.txt")))
	require.Empty(t, fails.Drain())

	entries, err := os.ReadDir(dstDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name())
}
