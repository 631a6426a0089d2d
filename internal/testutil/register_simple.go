package testutil

import (
	"context"
	"testing"

	"github.com/specialistvlad/atlasgrid/internal/registry"
	"github.com/stretchr/testify/require"
)

// SimpleModule is a test helper that registers one model function together
// with an embedded manifest.
type SimpleModule struct {
	Name string
	// Src is the manifest text. When empty a manifest without parameters is
	// generated.
	Src string
	Fn  registry.ModelFunc
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	r.RegisterModel(m.Name, m.Fn)
}

// Manifest implements registry.ManifestProvider.
func (m *SimpleModule) Manifest() (string, []byte) {
	src := m.Src
	if src == "" {
		src = "model \"" + m.Name + "\" {}\n"
	}
	return m.Name + ".hcl", []byte(src)
}

// NewRegistry returns an initialised registry holding the given modules and
// no on-disk manifests.
func NewRegistry(ctx context.Context, t *testing.T, modules ...registry.Module) *registry.Registry {
	t.Helper()
	r := registry.New("")
	require.NoError(t, r.Init(ctx, modules...))
	t.Cleanup(func() { _ = r.Teardown(context.Background()) })
	return r
}
