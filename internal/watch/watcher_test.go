package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recorder struct {
	mu          sync.Mutex
	invalidated []string
	notifiedAt  []time.Time
	broadcasts  [][2]string
}

func (r *recorder) Invalidate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, path)
	r.notifiedAt = append(r.notifiedAt, time.Now())
}

func (r *recorder) BroadcastDataUpdate(dataset, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, [2]string{dataset, path})
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.invalidated), len(r.broadcasts)
}

func testWatchLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatcherNotifiesOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "ridership.csv")
	require.NoError(t, os.WriteFile(path, []byte("초기"), 0o644))

	rec := &recorder{}
	w, err := New(map[string]string{"ridership": path}, rec, rec, testWatchLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// Give the directory watch a moment to settle.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("변경"), 0o644))

	require.Eventually(t, func() bool {
		inv, bc := rec.counts()
		return inv >= 1 && bc >= 1
	}, 3*time.Second, 20*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, path, rec.invalidated[0])
	assert.Equal(t, "ridership", rec.broadcasts[0][0])
	assert.Equal(t, path, rec.broadcasts[0][1])
}

func TestWatcherIgnoresUnwatchedFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	watched := filepath.Join(dir, "ridership.csv")
	require.NoError(t, os.WriteFile(watched, []byte("초기"), 0o644))

	rec := &recorder{}
	w, err := New(map[string]string{"ridership": watched}, rec, rec, testWatchLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o644))

	time.Sleep(200 * time.Millisecond)
	inv, bc := rec.counts()
	assert.Zero(t, inv)
	assert.Zero(t, bc)
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "bakery.csv")
	require.NoError(t, os.WriteFile(path, []byte("초기"), 0o644))

	rec := &recorder{}
	w, err := New(map[string]string{"bakery": path}, rec, rec, testWatchLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
	}

	require.Eventually(t, func() bool {
		inv, _ := rec.counts()
		return inv >= 1
	}, 3*time.Second, 20*time.Millisecond)

	// The burst collapses to one notification.
	time.Sleep(200 * time.Millisecond)
	inv, _ := rec.counts()
	assert.Equal(t, 1, inv)
}

func TestWatcherNotifiesAfterLastWriteOfBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "ridership.csv")
	require.NoError(t, os.WriteFile(path, []byte("초기"), 0o644))

	rec := &recorder{}
	w, err := New(map[string]string{"ridership": path}, rec, rec, testWatchLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("첫번째"), 0o644))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("마지막"), 0o644))
	lastWrite := time.Now()

	require.Eventually(t, func() bool {
		inv, _ := rec.counts()
		return inv >= 1
	}, 3*time.Second, 20*time.Millisecond)

	// The single notification must postdate the final write, so the cache
	// reload picks up the burst's last contents.
	time.Sleep(200 * time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.invalidated, 1)
	assert.True(t, rec.notifiedAt[0].After(lastWrite),
		"notification fired before the final write of the burst")
}

func TestWatcherStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &recorder{}
	w, err := New(map[string]string{"ridership": filepath.Join(t.TempDir(), "r.csv")}, rec, rec, testWatchLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
