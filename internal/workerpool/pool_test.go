package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	ctx := context.Background()

	t.Run("runs every task", func(t *testing.T) {
		p := New(ctx, "test", 3)
		var n atomic.Int64
		for range 20 {
			require.NoError(t, p.Submit(ctx, func(context.Context) { n.Add(1) }))
		}
		p.Close()
		assert.Equal(t, int64(20), n.Load())
	})

	t.Run("default size", func(t *testing.T) {
		p := New(ctx, "test", 0)
		defer p.Close()
		assert.Equal(t, DefaultSize, p.Size())
	})

	t.Run("bounded concurrency", func(t *testing.T) {
		p := New(ctx, "test", 2)
		var running, peak atomic.Int64
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			require.NoError(t, p.Submit(ctx, func(context.Context) {
				defer wg.Done()
				cur := running.Add(1)
				for {
					old := peak.Load()
					if cur <= old || peak.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
			}))
		}
		wg.Wait()
		p.Close()
		assert.LessOrEqual(t, peak.Load(), int64(2))
	})

	t.Run("panic does not kill worker", func(t *testing.T) {
		p := New(ctx, "test", 1)
		done := make(chan struct{})
		require.NoError(t, p.Submit(ctx, func(context.Context) { panic("boom") }))
		require.NoError(t, p.Submit(ctx, func(context.Context) { close(done) }))
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("second task never ran")
		}
		p.Close()
	})

	t.Run("submit after close", func(t *testing.T) {
		p := New(ctx, "test", 1)
		p.Close()
		assert.ErrorIs(t, p.Submit(ctx, func(context.Context) {}), ErrClosed)
		_, err := p.TrySubmit(func(context.Context) {})
		assert.ErrorIs(t, err, ErrClosed)
		p.Close()
	})

	t.Run("try submit on full queue", func(t *testing.T) {
		p := New(ctx, "test", 1)
		gate := make(chan struct{})
		started := make(chan struct{})
		require.NoError(t, p.Submit(ctx, func(context.Context) { close(started); <-gate }))
		<-started
		ok, err := p.TrySubmit(func(context.Context) {})
		require.NoError(t, err)
		require.True(t, ok, "queue slot is free while the worker is busy")
		ok, err = p.TrySubmit(func(context.Context) {})
		require.NoError(t, err)
		assert.False(t, ok)
		close(gate)
		p.Close()
	})
}
