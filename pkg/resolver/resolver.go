// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"io"
	"slices"

	"github.com/loadgraph/loadgraph/pkg/environment"
	"github.com/loadgraph/loadgraph/pkg/types"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

type (
	// Loader loads the package whose entry point is at loc. A loader that
	// imports other packages calls back into the Resolver with the same ctx,
	// using Importer(ctx) as the importing context.
	Loader interface {
		Load(ctx context.Context, loc types.Location) (Handle, error)
	}

	// LoaderFunc adapts a function to the Loader interface.
	LoaderFunc func(ctx context.Context, loc types.Location) (Handle, error)

	// Resolver resolves, locates and loads packages over an environment stack.
	Resolver struct {
		env         environment.Environment
		loader      Loader
		cache       *LoadCache
		logger      *log.Logger
		concurrency int
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, loc types.Location) (Handle, error) {
	return f(ctx, loc)
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLoadCache shares cache between resolvers.
func WithLoadCache(cache *LoadCache) Option {
	return func(r *Resolver) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithConcurrency bounds the number of concurrent loads started by LoadAll.
// Zero or a negative value means no bound.
func WithConcurrency(n int) Option {
	return func(r *Resolver) { r.concurrency = n }
}

// New returns a Resolver over env that loads packages with loader.
func New(env environment.Environment, loader Loader, opts ...Option) *Resolver {
	r := &Resolver{env: env, loader: loader}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewLoadCache()
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// Cache returns the resolver's load cache.
func (r *Resolver) Cache() *LoadCache { return r.cache }

// Resolve returns the identity name refers to when imported from the
// package from. The nil identity denotes the main context.
func (r *Resolver) Resolve(ctx context.Context, from types.Identity, name types.PackageName) (types.Identity, error) {
	var (
		id    types.Identity
		found bool
		err   error
	)
	if from.IsNil() {
		id, found, err = r.env.Root(ctx, name)
	} else {
		id, found, err = r.env.Graph(ctx, from, name)
	}
	if err != nil {
		return types.NilIdentity, err
	}
	if !found {
		return types.NilIdentity, &UnknownImportError{Name: name, Context: from}
	}
	r.logger.Debug("resolved import", "name", name, "context", from, "identity", id)
	return id, nil
}

// Locate returns the entry point of package id known as name.
func (r *Resolver) Locate(ctx context.Context, id types.Identity, name types.PackageName) (types.Location, error) {
	loc, found, err := r.env.Path(ctx, id, name)
	if err != nil {
		return "", err
	}
	if !found {
		return "", &NoLoadPathError{Identity: id, Name: name}
	}
	return loc, nil
}

// Load resolves name from the package from and loads it, at most once per
// package across every caller of this resolver.
func (r *Resolver) Load(ctx context.Context, from types.Identity, name types.PackageName) (Handle, error) {
	id, err := r.Resolve(ctx, from, name)
	if err != nil {
		return nil, err
	}
	return r.LoadIdentity(ctx, id, name)
}

// LoadIdentity loads the already resolved package id known as name.
func (r *Resolver) LoadIdentity(ctx context.Context, id types.Identity, name types.PackageName) (Handle, error) {
	key := NewPackageID(id, name)
	if chain := loadingChain(ctx); slices.Contains(chain, key) {
		return nil, &ImportCycleError{Chain: append(slices.Clone(chain), key)}
	}

	for {
		if h, ok := r.cache.Get(key); ok {
			return h, nil
		}
		if r.cache.MarkLoading(key) {
			return r.load(ctx, key, id, name)
		}
		h, err := r.cache.Wait(ctx, key)
		if errors.Is(err, errNotLoading) {
			// The load failed between MarkLoading and Wait.
			continue
		}
		return h, err
	}
}

// LoadAll loads names from the package from concurrently and returns their
// handles in input order. The first failure cancels the remaining loads.
func (r *Resolver) LoadAll(ctx context.Context, from types.Identity, names []types.PackageName) ([]Handle, error) {
	handles := make([]Handle, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, name := range names {
		g.Go(func() error {
			h, err := r.Load(gctx, from, name)
			if err != nil {
				return err
			}
			handles[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return handles, nil
}

// load runs the loader for key, which this goroutine marked Loading.
func (r *Resolver) load(ctx context.Context, key PackageID, id types.Identity, name types.PackageName) (h Handle, err error) {
	settled := false
	defer func() {
		if !settled {
			r.cache.Fail(key, ErrLoadAbandoned)
		}
	}()

	loc, err := r.Locate(ctx, id, name)
	if err != nil {
		settled = true
		r.cache.Fail(key, err)
		return nil, err
	}

	r.logger.Debug("loading package", "name", name, "identity", id, "location", loc)
	h, err = r.loader.Load(withLoading(ctx, key), loc)
	settled = true
	if err != nil {
		r.logger.Debug("load failed", "name", name, "identity", id, "err", err)
		r.cache.Fail(key, err)
		return nil, err
	}
	r.cache.Complete(key, h)
	r.logger.Debug("loaded package", "name", name, "identity", id)
	return h, nil
}
