package orchestrator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fireLog struct {
	mu   sync.Mutex
	reqs []Request
}

func (f *fireLog) fire(r Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, r)
}

func (f *fireLog) get() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.reqs...)
}

func TestDebouncer(t *testing.T) {
	const quiet = 30 * time.Millisecond

	t.Run("burst collapses to one trigger", func(t *testing.T) {
		log := &fireLog{}
		d := NewDebouncer(quiet, log.fire)
		defer d.Stop()

		for _, m := range []string{"a", "b", "c", "d", "e"} {
			d.Touch(Request{Model: m})
		}
		require.Eventually(t, func() bool { return len(log.get()) == 1 }, time.Second, time.Millisecond)
		time.Sleep(2 * quiet)
		require.Len(t, log.get(), 1)
		assert.Equal(t, "e", log.get()[0].Model)

		d.Touch(Request{Model: "f"})
		require.Eventually(t, func() bool { return len(log.get()) == 2 }, time.Second, time.Millisecond)
		assert.Equal(t, "f", log.get()[1].Model)
	})

	t.Run("cancel drops pending trigger", func(t *testing.T) {
		log := &fireLog{}
		d := NewDebouncer(quiet, log.fire)
		defer d.Stop()

		assert.False(t, d.Cancel(), "nothing pending yet")
		d.Touch(Request{Model: "a"})
		assert.True(t, d.Pending())
		assert.True(t, d.Cancel())
		assert.False(t, d.Pending())

		time.Sleep(3 * quiet)
		assert.Empty(t, log.get())
	})

	t.Run("stop ignores further touches", func(t *testing.T) {
		log := &fireLog{}
		d := NewDebouncer(quiet, log.fire)
		d.Touch(Request{Model: "a"})
		d.Stop()
		d.Touch(Request{Model: "b"})

		time.Sleep(3 * quiet)
		assert.Empty(t, log.get())
	})

	t.Run("default quiet", func(t *testing.T) {
		d := NewDebouncer(0, func(Request) {})
		assert.Equal(t, DefaultQuiet, d.quiet)
	})
}
