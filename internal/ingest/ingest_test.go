package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func collect(t *testing.T, ch <-chan string, n int) []string {
	t.Helper()
	var got []string
	timeout := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case p, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %d paths", len(got))
			}
			got = append(got, p)
		case <-timeout:
			t.Fatalf("timed out with %v", got)
		}
	}
	return got
}

func TestCandidate(t *testing.T) {
	assert.True(t, candidate("/in/ratecon.pdf"))
	assert.True(t, candidate("/in/RATECON.TXT"))
	assert.False(t, candidate("/in/ratecon.docx"))
	assert.False(t, candidate("/in/.ratecon.pdf"))
	assert.False(t, candidate("/in/~ratecon.pdf"))
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}

func TestStartWatcher_InitialScanSkipsDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), "x")
	writeFile(t, filepath.Join(dir, "notes.md"), "x")
	writeFile(t, filepath.Join(dir, ProcessedDir, "old.pdf"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paths, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{dir},
		SkipDirs:    []string{ProcessedDir},
		InitialScan: true,
	})
	require.NoError(t, err)

	got := collect(t, paths, 1)
	assert.Equal(t, []string{filepath.Join(dir, "a.pdf")}, got)
}

func TestStartWatcher_NewFileDebounced(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paths, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	p := filepath.Join(dir, "load.txt")
	writeFile(t, p, "Load ID: A1")
	writeFile(t, p, "Load ID: A1\nRate: $100")

	got := collect(t, paths, 1)
	assert.Equal(t, p, got[0])

	cancel()
	for range paths {
	}
}

type fakeProcessor struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
	done chan string
}

func (f *fakeProcessor) ProcessFile(_ context.Context, path string) error {
	f.mu.Lock()
	f.seen = append(f.seen, filepath.Base(path))
	f.mu.Unlock()
	if f.fail[filepath.Base(path)] {
		return common.NewDecodeError("bad.pdf", errors.New("not a pdf"))
	}
	return nil
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond, "expected %s", path)
}

func TestInbox_MovesSettledFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.txt"), "Load ID: A1")
	writeFile(t, filepath.Join(dir, "bad.pdf"), "garbage")

	proc := &fakeProcessor{fail: map[string]bool{"bad.pdf": true}}
	in, err := NewInbox(common.IngestConfig{
		InboxDir:       dir,
		Workers:        2,
		QueueSize:      4,
		InitialScan:    true,
		ProcessTimeout: time.Second,
	}, proc, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx) }()

	waitForFile(t, filepath.Join(dir, ProcessedDir, "good.txt"))
	waitForFile(t, filepath.Join(dir, FailedDir, "bad.pdf"))

	cancel()
	require.NoError(t, <-done)

	_, err = os.Stat(filepath.Join(dir, "good.txt"))
	assert.True(t, os.IsNotExist(err))
	proc.mu.Lock()
	assert.ElementsMatch(t, []string{"good.txt", "bad.pdf"}, proc.seen)
	proc.mu.Unlock()
}

func TestInbox_MoveAvoidsCollision(t *testing.T) {
	dir := t.TempDir()
	in := &Inbox{dir: dir, now: func() time.Time { return time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC) }}
	writeFile(t, filepath.Join(dir, ProcessedDir, "a.pdf"), "first")
	writeFile(t, filepath.Join(dir, "a.pdf"), "second")

	dst, err := in.move(filepath.Join(dir, "a.pdf"), ProcessedDir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(dst), "a-20250301T083000"))
	assert.Equal(t, ".pdf", filepath.Ext(dst))

	b, err := os.ReadFile(filepath.Join(dir, ProcessedDir, "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(b))
}

func TestNewInbox_RequiresDir(t *testing.T) {
	_, err := NewInbox(common.IngestConfig{}, &fakeProcessor{}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
