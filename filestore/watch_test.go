package filestore

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	s := newTestStore(t, "config.toml", WithDebounce(50*time.Millisecond))
	require.NoError(t, s.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, func() { calls.Add(1) })
	}()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	// A burst of writes is coalesced
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Write("server", "port", strPtr("80")))
	}

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	s, err := New("/nonexistent/dir/config.toml")
	require.NoError(t, err)

	err = s.Watch(context.Background(), func() {})
	assert.Error(t, err)
}
