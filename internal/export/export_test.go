package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/atlasgrid/internal/assembly"
	"github.com/specialistvlad/atlasgrid/internal/geometry"
	"github.com/specialistvlad/atlasgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct{ asm *assembly.Assembly }

func (s staticSource) Current() *assembly.Assembly { return s.asm }

type spyCanceler struct{ calls int }

func (c *spyCanceler) Cancel() bool {
	c.calls++
	return true
}

// builtAssembly returns a clean assembly holding qty copies of one part.
func builtAssembly(qty int) *assembly.Assembly {
	part := &assembly.PartDefinition{ID: "p", PartNumber: "P-1", Shape: &testutil.Shape{Name: "p"}}
	child := assembly.NewInstance(part)
	child.Qty = qty
	root := assembly.NewInstance(&assembly.PartDefinition{ID: assembly.RootID, PartNumber: assembly.RootPartNumber}, child)
	asm := assembly.New(root)
	asm.Compound = &testutil.Compound{}
	asm.Mesh = geometry.Mesh{}
	asm.Dirty = false
	return asm
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for export")
	}
	return Result{}
}

func TestExport(t *testing.T) {
	ctx, _ := testutil.Context(t)

	t.Run("writes step file", func(t *testing.T) {
		spy := &testutil.SpyBackend{}
		deb := &spyCanceler{}
		c := New(ctx, staticSource{builtAssembly(3)}, deb, spy, Options{})
		defer c.Close()

		path := filepath.Join(t.TempDir(), "out.step")
		ch, err := c.Export(ctx, path, nil)
		require.NoError(t, err)
		res := waitResult(t, ch)

		require.NoError(t, res.Err)
		assert.Equal(t, path, res.Path)
		assert.Equal(t, 3, res.Solids)
		assert.Equal(t, int64(3*BytesPerSolid), res.EstimateBytes)
		assert.Equal(t, 1, deb.calls, "debounce is cancelled first")
		assert.Equal(t, []string{path}, spy.ExportPaths())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), geometry.StepHeader))
	})

	t.Run("nothing to export", func(t *testing.T) {
		for name, asm := range map[string]*assembly.Assembly{
			"no assembly": nil,
			"no compound": assembly.New(assembly.NewInstance(&assembly.PartDefinition{ID: assembly.RootID})),
		} {
			t.Run(name, func(t *testing.T) {
				spy := &testutil.SpyBackend{}
				c := New(ctx, staticSource{asm}, nil, spy, Options{})
				defer c.Close()

				ch, err := c.Export(ctx, filepath.Join(t.TempDir(), "x.step"), nil)
				assert.ErrorIs(t, err, ErrNothingToExport)
				assert.Nil(t, ch)
				assert.Zero(t, spy.ExportCalls())
			})
		}
	})

	t.Run("large export needs confirmation", func(t *testing.T) {
		spy := &testutil.SpyBackend{}
		c := New(ctx, staticSource{builtAssembly(11)}, nil, spy, Options{MaxSolids: 10})
		defer c.Close()
		path := filepath.Join(t.TempDir(), "big.step")

		_, err := c.Export(ctx, path, nil)
		var sizeErr *ExportSizeAbortedError
		require.ErrorAs(t, err, &sizeErr)
		assert.Equal(t, 11, sizeErr.Solids)
		assert.ErrorIs(t, err, ErrExportSizeAborted)

		var asked int64
		_, err = c.Export(ctx, path, func(solids int, estimate int64) bool {
			asked = estimate
			return false
		})
		assert.ErrorIs(t, err, ErrExportSizeAborted)
		assert.Equal(t, int64(11*BytesPerSolid), asked)
		assert.Zero(t, spy.ExportCalls())

		ch, err := c.Export(ctx, path, func(int, int64) bool { return true })
		require.NoError(t, err)
		assert.NoError(t, waitResult(t, ch).Err)
	})

	t.Run("one export at a time", func(t *testing.T) {
		gate := make(chan struct{})
		entered := make(chan struct{}, 1)
		spy := &testutil.SpyBackend{Gate: gate, Entered: entered}
		c := New(ctx, staticSource{builtAssembly(1)}, nil, spy, Options{})
		defer c.Close()
		dir := t.TempDir()

		ch, err := c.Export(ctx, filepath.Join(dir, "a.step"), nil)
		require.NoError(t, err)
		<-entered

		_, err = c.Export(ctx, filepath.Join(dir, "b.step"), nil)
		assert.ErrorIs(t, err, ErrExportInProgress)

		close(gate)
		require.NoError(t, waitResult(t, ch).Err)

		ch, err = c.Export(ctx, filepath.Join(dir, "c.step"), nil)
		require.NoError(t, err, "slot is released after completion")
		require.NoError(t, waitResult(t, ch).Err)
		assert.Equal(t, 2, spy.ExportCalls())
	})

	t.Run("backend failure", func(t *testing.T) {
		boom := errors.New("disk full")
		spy := &testutil.SpyBackend{ExportErr: boom}
		c := New(ctx, staticSource{builtAssembly(1)}, nil, spy, Options{})
		defer c.Close()

		ch, err := c.Export(ctx, filepath.Join(t.TempDir(), "a.step"), nil)
		require.NoError(t, err)
		res := waitResult(t, ch)
		assert.ErrorIs(t, res.Err, ErrExportBackend)
		assert.ErrorIs(t, res.Err, boom)
	})

	t.Run("backend panic", func(t *testing.T) {
		spy := &testutil.SpyBackend{ExportPanic: "writer crashed"}
		c := New(ctx, staticSource{builtAssembly(1)}, nil, spy, Options{})
		defer c.Close()

		path := filepath.Join(t.TempDir(), "a.step")
		ch, err := c.Export(ctx, path, nil)
		require.NoError(t, err)
		res := waitResult(t, ch)
		var backendErr *ExportBackendError
		require.ErrorAs(t, res.Err, &backendErr)
		assert.Equal(t, path, backendErr.Path)
		assert.Contains(t, res.Err.Error(), "panic: writer crashed")

		// The slot is released, so the next export starts.
		spy.ExportPanic = nil
		ch, err = c.Export(ctx, path, nil)
		require.NoError(t, err)
		assert.NoError(t, waitResult(t, ch).Err)
	})

	t.Run("missing header", func(t *testing.T) {
		spy := &testutil.SpyBackend{SkipHeader: true}
		c := New(ctx, staticSource{builtAssembly(1)}, nil, spy, Options{})
		defer c.Close()

		ch, err := c.Export(ctx, filepath.Join(t.TempDir(), "a.step"), nil)
		require.NoError(t, err)
		res := waitResult(t, ch)
		var backendErr *ExportBackendError
		require.ErrorAs(t, res.Err, &backendErr)
		assert.ErrorIs(t, res.Err, errBadHeader)
	})
}

func TestExportIgnoresCallerCancellationAfterStart(t *testing.T) {
	base, _ := testutil.Context(t)
	ctx, cancel := context.WithCancel(base)
	spy := &testutil.SpyBackend{}
	c := New(base, staticSource{builtAssembly(1)}, nil, spy, Options{})
	defer c.Close()

	ch, err := c.Export(ctx, filepath.Join(t.TempDir(), "a.step"), nil)
	require.NoError(t, err)
	cancel()
	assert.NoError(t, waitResult(t, ch).Err)
}
