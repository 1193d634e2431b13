package poller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoller_RunsImmediatelyAndPeriodically(t *testing.T) {
	var calls atomic.Int32
	p := New("activity", 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, discardLogger())

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, p.Running())
}

func TestPoller_StopCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	var sawCancel atomic.Bool

	p := New("dora", time.Hour, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
		return ctx.Err()
	}, discardLogger())

	require.NoError(t, p.Start(context.Background()))
	<-started

	p.Stop()
	assert.True(t, sawCancel.Load(), "Stop waits for the in-flight task")
	assert.False(t, p.Running())
}

func TestPoller_NoRunsAfterStop(t *testing.T) {
	var calls atomic.Int32
	p := New("health", 5*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, discardLogger())

	require.NoError(t, p.Start(context.Background()))
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	p.Stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestPoller_StartTwice(t *testing.T) {
	p := New("x", time.Hour, func(context.Context) error { return nil }, discardLogger())

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()
	assert.ErrorIs(t, p.Start(context.Background()), ErrAlreadyRunning)
}

func TestPoller_RestartAfterStop(t *testing.T) {
	var calls atomic.Int32
	p := New("x", time.Hour, func(context.Context) error {
		calls.Add(1)
		return nil
	}, discardLogger())

	require.NoError(t, p.Start(context.Background()))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	p.Stop()
	p.Stop()

	require.NoError(t, p.Start(context.Background()))
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
	p.Stop()
}

func TestPoller_InvalidInterval(t *testing.T) {
	p := New("x", 0, func(context.Context) error { return nil }, discardLogger())
	assert.ErrorIs(t, p.Start(context.Background()), ErrInvalidInterval)
	assert.False(t, p.Running())
}

func TestPoller_PanicRecovered(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &mu}, nil))

	var calls atomic.Int32
	p := New("team", 5*time.Millisecond, func(context.Context) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return errors.New("backend unavailable")
	}, logger)

	require.NoError(t, p.Start(context.Background()))
	// третий вызов начинается только после записи лога второго
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	p.Stop()

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	assert.Contains(t, out, "Panic recovered")
	assert.Contains(t, out, "poller=team")
	assert.Contains(t, out, "backend unavailable")
}

func TestPoller_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	done := make(chan struct{})
	p := New("x", time.Hour, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(done)
		return nil
	}, discardLogger())

	require.NoError(t, p.Start(ctx))
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("task was not started")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not observe parent cancellation")
	}
	p.Stop()
}

func TestPoller_CancelledParentNeverRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	p := New("x", time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, discardLogger())

	require.NoError(t, p.Start(ctx))
	// loop выходит сам, Stop только дожидается goroutine
	time.Sleep(20 * time.Millisecond)
	p.Stop()
	assert.Zero(t, calls.Load())
}

func TestGroup(t *testing.T) {
	var a, b atomic.Int32
	g := NewGroup(
		New("a", time.Hour, func(context.Context) error { a.Add(1); return nil }, discardLogger()),
	)
	g.Add(New("b", time.Hour, func(context.Context) error { b.Add(1); return nil }, discardLogger()))

	require.NoError(t, g.Start(context.Background()))
	assert.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, time.Millisecond)
	g.Stop()

	for _, p := range g.pollers {
		assert.False(t, p.Running())
	}
}

func TestGroup_StartFailureStopsStarted(t *testing.T) {
	first := New("ok", time.Hour, func(context.Context) error { return nil }, discardLogger())
	bad := New("bad", 0, func(context.Context) error { return nil }, discardLogger())

	g := NewGroup(first, bad)
	require.ErrorIs(t, g.Start(context.Background()), ErrInvalidInterval)
	assert.False(t, first.Running())
}

type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
