package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/params"
)

// ModelFunc builds a model from bound parameter values. The result is handed
// to assembly.Normalize.
type ModelFunc func(ctx context.Context, p params.Values) (any, error)

// Module is the interface that all model packages implement to be registered.
type Module interface {
	Register(r *Registry)
}

// ManifestProvider is implemented by modules that ship their manifest inside
// the binary. Manifests found on disk take precedence over embedded ones.
type ManifestProvider interface {
	Manifest() (filename string, src []byte)
}

// Family is a loaded model family: its manifest and the function behind it.
type Family struct {
	Name        string
	Description string
	Schema      params.Schema
	Source      string
	Fn          ModelFunc
}

// Registry holds the model functions and the manifests loaded for them. It is
// safe for concurrent use; Rescan swaps the manifest set atomically.
type Registry struct {
	modelsPath string

	mu       sync.RWMutex
	funcs    map[string]ModelFunc
	embedded []embeddedManifest
	closers  []func() error
	families map[string]*Family
	closed   bool
}

type embeddedManifest struct {
	filename string
	src      []byte
}

// New creates an empty registry that discovers manifests under modelsPath.
// An empty modelsPath disables disk discovery.
func New(modelsPath string) *Registry {
	return &Registry{
		modelsPath: modelsPath,
		funcs:      make(map[string]ModelFunc),
		families:   make(map[string]*Family),
	}
}

// RegisterModel registers the Go function for a model family. Registering the
// same name twice is a programming error and panics.
func (r *Registry) RegisterModel(name string, fn ModelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[name]; exists {
		panic(fmt.Sprintf("model function with name '%s' already registered", name))
	}
	if fn == nil {
		panic(fmt.Sprintf("model function '%s' is nil", name))
	}
	slog.Debug("Registering model function.", "name", name)
	r.funcs[name] = fn
}

// Init registers the given modules, loads every manifest and validates the
// result.
func (r *Registry) Init(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		m.Register(r)
		r.mu.Lock()
		if mp, ok := m.(ManifestProvider); ok {
			name, src := mp.Manifest()
			r.embedded = append(r.embedded, embeddedManifest{filename: name, src: src})
		}
		if c, ok := m.(interface{ Close() error }); ok {
			r.closers = append(r.closers, c.Close)
		}
		r.mu.Unlock()
	}
	return r.Rescan(ctx)
}

// Rescan reloads manifests from disk and replaces the loaded families. When
// loading or validation fails the previous families stay in place.
func (r *Registry) Rescan(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrClosed
	}
	embedded := slices.Clone(r.embedded)
	r.mu.RUnlock()

	manifests, err := loadManifests(ctx, r.modelsPath, embedded)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if err := validate(manifests, r.funcs); err != nil {
		return err
	}

	families := make(map[string]*Family, len(manifests))
	for name, m := range manifests {
		families[name] = &Family{
			Name:        name,
			Description: m.Description,
			Schema:      m.Schema,
			Source:      m.Source,
			Fn:          r.funcs[name],
		}
	}
	r.families = families
	logger.Info("Model registry loaded.", "models", len(families))
	return nil
}

// Lookup returns the family registered under name.
func (r *Registry) Lookup(name string) (*Family, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	f, ok := r.families[name]
	if !ok {
		return nil, &ModelNotFoundError{Name: name}
	}
	return f, nil
}

// Families returns the loaded families ordered by name.
func (r *Registry) Families() []*Family {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Family, 0, len(r.families))
	for _, f := range r.families {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *Family) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Teardown unloads every family and closes modules that hold resources.
// The registry cannot be used afterwards.
func (r *Registry) Teardown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.families = nil
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()

	var errs []error
	for _, c := range closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	ctxlog.FromContext(ctx).Debug("Model registry torn down.", "closed_modules", len(closers))
	return errors.Join(errs...)
}
