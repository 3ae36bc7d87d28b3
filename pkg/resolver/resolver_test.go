// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"testing/synctest"

	"github.com/loadgraph/loadgraph/internal/testutil"
	"github.com/loadgraph/loadgraph/pkg/contentaddr"
	"github.com/loadgraph/loadgraph/pkg/environment"
	"github.com/loadgraph/loadgraph/pkg/types"
	"github.com/loadgraph/loadgraph/pkg/vfs"
)

// countingLoader returns the location as handle and counts calls per location.
type countingLoader struct {
	mu    sync.Mutex
	calls map[types.Location]int
	total atomic.Int64
}

func (l *countingLoader) Load(_ context.Context, loc types.Location) (Handle, error) {
	l.total.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[types.Location]int)
	}
	l.calls[loc]++
	return loc, nil
}

func federationStack(t *testing.T) *environment.Stack {
	t.Helper()
	fsys := vfs.NewIOFS(testutil.Federation())
	s, err := environment.LoadPath{
		Entries:      []string{testutil.AppProjectFile, testutil.DevDir},
		StorageRoots: []string{testutil.Depot},
	}.Build(context.Background(), fsys)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return s
}

func TestFederationScenario(t *testing.T) {
	t.Parallel()

	r := New(federationStack(t), &countingLoader{})
	ctx := context.Background()

	if id, err := r.Resolve(ctx, types.NilIdentity, "Priv"); err != nil || id != testutil.PrivID {
		t.Errorf("Resolve(main, Priv) = %s, %v; want %s", id, err, testutil.PrivID)
	}
	if id, err := r.Resolve(ctx, testutil.PubID, "Priv"); err != nil || id != testutil.Priv2ID {
		t.Errorf("Resolve(Pub, Priv) = %s, %v; want %s", id, err, testutil.Priv2ID)
	}

	_, err := r.Resolve(ctx, types.NilIdentity, "Zebra")
	var unknown *UnknownImportError
	if !errors.As(err, &unknown) || !errors.Is(err, ErrUnknownImport) {
		t.Fatalf("Resolve(main, Zebra) error = %v, want UnknownImportError", err)
	}
	if unknown.Name != "Zebra" || !unknown.Context.IsNil() {
		t.Errorf("UnknownImportError = %+v", unknown)
	}

	loc, err := r.Locate(ctx, testutil.PrivID, "Priv")
	if err != nil || !strings.HasSuffix(loc.String(), "deps/Priv/src/Priv.jl") {
		t.Errorf("Locate(Priv) = %q, %v; want under deps/Priv/src/Priv", loc, err)
	}
	loc, err = r.Locate(ctx, testutil.Priv2ID, "Priv")
	slug := contentaddr.Slug(testutil.Priv2ID, testutil.Priv2Hash)
	if err != nil || !strings.HasPrefix(loc.String(), testutil.Depot+"/") || !strings.Contains(loc.String(), "/"+slug+"/") {
		t.Errorf("Locate(public Priv) = %q, %v; want a storage path containing %s", loc, err, slug)
	}
}

func TestResolveContextSensitivity(t *testing.T) {
	t.Parallel()

	r := New(federationStack(t), &countingLoader{})
	ctx := context.Background()

	tests := []struct {
		from types.Identity
		name types.PackageName
		want types.Identity
	}{
		{types.NilIdentity, "Priv", testutil.PrivID},
		{testutil.AppID, "Priv", testutil.PrivID},
		{testutil.PubID, "Priv", testutil.Priv2ID},
		{testutil.PubID, "Zebra", testutil.ZebraID},
		{types.NilIdentity, "Tool", types.NilIdentity},
		{environment.PseudoIdentity("dev/Lib/Project.toml"), "Priv", testutil.Priv2ID},
	}
	for _, tt := range tests {
		got, err := r.Resolve(ctx, tt.from, tt.name)
		if err != nil || got != tt.want {
			t.Errorf("Resolve(%s, %s) = %s, %v; want %s", tt.from, tt.name, got, err, tt.want)
		}
	}

	_, err := r.Resolve(ctx, testutil.ZebraID, "Priv")
	var unknown *UnknownImportError
	if !errors.As(err, &unknown) || unknown.Context != testutil.ZebraID {
		t.Errorf("Resolve(Zebra, Priv) error = %v, want UnknownImportError from Zebra", err)
	}
}

func TestLocateNoLoadPath(t *testing.T) {
	t.Parallel()

	r := New(federationStack(t), &countingLoader{})
	_, err := r.Locate(context.Background(), testutil.DeclID, "Nope")
	var nlp *NoLoadPathError
	if !errors.As(err, &nlp) || !errors.Is(err, ErrNoLoadPath) {
		t.Fatalf("Locate() error = %v, want NoLoadPathError", err)
	}
	if nlp.Identity != testutil.DeclID || nlp.Name != "Nope" {
		t.Errorf("NoLoadPathError = %+v", nlp)
	}
}

func TestLoadAtMostOnce(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		release := make(chan struct{})
		var calls atomic.Int64
		loader := LoaderFunc(func(ctx context.Context, loc types.Location) (Handle, error) {
			calls.Add(1)
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return &struct{ loc types.Location }{loc}, nil
		})
		r := New(federationStack(t), loader)
		ctx := context.Background()

		const n = 32
		handles := make([]Handle, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Go(func() {
				// Alternate the route to the same package.
				if i%2 == 0 {
					handles[i], errs[i] = r.Load(ctx, testutil.PubID, "Priv")
				} else {
					handles[i], errs[i] = r.LoadIdentity(ctx, testutil.Priv2ID, "Priv")
				}
			})
		}
		synctest.Wait()
		if s := r.Cache().State(NewPackageID(testutil.Priv2ID, "Priv")); s != Loading {
			t.Errorf("State() while blocked = %s, want %s", s, Loading)
		}
		close(release)
		wg.Wait()

		if got := calls.Load(); got != 1 {
			t.Errorf("loader called %d times, want 1", got)
		}
		for i := range n {
			if errs[i] != nil {
				t.Fatalf("Load %d error = %v", i, errs[i])
			}
			if handles[i] != handles[0] {
				t.Errorf("Load %d returned a different handle", i)
			}
		}
	})
}

func TestLoadFailureReachesWaitersAndResets(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		errBoom := errors.New("boom")
		release := make(chan struct{})
		var calls atomic.Int64
		loader := LoaderFunc(func(context.Context, types.Location) (Handle, error) {
			if calls.Add(1) == 1 {
				<-release
				return nil, errBoom
			}
			return "second try", nil
		})
		r := New(federationStack(t), loader)
		ctx := context.Background()

		const n = 8
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Go(func() {
				_, errs[i] = r.Load(ctx, types.NilIdentity, "Pub")
			})
		}
		synctest.Wait()
		close(release)
		wg.Wait()

		for i, err := range errs {
			if !errors.Is(err, errBoom) {
				t.Errorf("Load %d error = %v, want %v", i, err, errBoom)
			}
		}
		key := NewPackageID(testutil.PubID, "Pub")
		if s := r.Cache().State(key); s != NotLoaded {
			t.Fatalf("State() after failure = %s, want %s", s, NotLoaded)
		}

		h, err := r.Load(ctx, types.NilIdentity, "Pub")
		if err != nil || h != "second try" {
			t.Fatalf("retry Load() = %v, %v", h, err)
		}
		if s := r.Cache().State(key); s != Loaded {
			t.Errorf("State() after retry = %s, want %s", s, Loaded)
		}
	})
}

func TestLoadErrorsDoNotReachLoader(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	tree := testutil.Federation()
	delete(tree, testutil.StoredEntry("Zebra", testutil.ZebraID, testutil.ZebraHash))
	s, err := environment.LoadPath{
		Entries:      []string{testutil.AppProjectFile},
		StorageRoots: []string{"nowhere"},
	}.Build(context.Background(), vfs.NewIOFS(tree))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	r := New(s, loader)
	ctx := context.Background()

	if _, err := r.Load(ctx, types.NilIdentity, "Zebra"); !errors.Is(err, ErrUnknownImport) {
		t.Errorf("Load(Zebra) error = %v, want ErrUnknownImport", err)
	}
	if _, err := r.Load(ctx, testutil.PubID, "Zebra"); !errors.Is(err, ErrNoLoadPath) {
		t.Errorf("Load(Pub -> Zebra) error = %v, want ErrNoLoadPath", err)
	}
	if s := r.Cache().State(NewPackageID(testutil.ZebraID, "Zebra")); s != NotLoaded {
		t.Errorf("State() = %s, want %s", s, NotLoaded)
	}
	if loader.total.Load() != 0 {
		t.Errorf("loader called %d times, want 0", loader.total.Load())
	}
}

func TestLoadPanicReleasesWaiters(t *testing.T) {
	t.Parallel()

	r := New(federationStack(t), LoaderFunc(func(context.Context, types.Location) (Handle, error) {
		panic("loader exploded")
	}))
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the loader panic to propagate")
			}
		}()
		_, _ = r.Load(ctx, types.NilIdentity, "Tool")
	}()

	if s := r.Cache().State(NewPackageID(types.NilIdentity, "Tool")); s != NotLoaded {
		t.Errorf("State() after panic = %s, want %s", s, NotLoaded)
	}
}

// importingLoader imports, for each loaded location, the names listed in imports.
type importingLoader struct {
	r       *Resolver
	imports map[types.Location][]types.PackageName
}

func (l *importingLoader) Load(ctx context.Context, loc types.Location) (Handle, error) {
	for _, name := range l.imports[loc] {
		if _, err := l.r.Load(ctx, Importer(ctx), name); err != nil {
			return nil, err
		}
	}
	return loc, nil
}

func TestLoadNestedImports(t *testing.T) {
	t.Parallel()

	loader := &importingLoader{imports: map[types.Location][]types.PackageName{
		types.Location(testutil.StoredEntry("Pub", testutil.PubID, testutil.PubHash)): {"Priv", "Zebra"},
	}}
	loader.r = New(federationStack(t), loader)
	ctx := context.Background()

	if _, err := loader.r.Load(ctx, types.NilIdentity, "Pub"); err != nil {
		t.Fatalf("Load(Pub) error = %v", err)
	}
	for _, id := range []types.Identity{testutil.PubID, testutil.Priv2ID, testutil.ZebraID} {
		if s := loader.r.Cache().State(NewPackageID(id, "")); s != Loaded {
			t.Errorf("State(%s) = %s, want %s", id, s, Loaded)
		}
	}
	if s := loader.r.Cache().State(NewPackageID(testutil.PrivID, "Priv")); s != NotLoaded {
		t.Errorf("private Priv was loaded through Pub")
	}
}

func TestLoadImportCycle(t *testing.T) {
	t.Parallel()

	priv2 := types.Location(testutil.StoredEntry("Priv", testutil.Priv2ID, testutil.Priv2Hash))
	zebra := types.Location(testutil.StoredEntry("Zebra", testutil.ZebraID, testutil.ZebraHash))
	pub := types.Location(testutil.StoredEntry("Pub", testutil.PubID, testutil.PubHash))

	tree := testutil.Federation()
	// Let public Priv import Pub back through a manifest edit.
	raw := string(tree["app/Manifest.toml"].Data)
	raw = strings.Replace(raw, `git-tree-sha1 = "`+testutil.Priv2Hash.String()+`"`,
		`git-tree-sha1 = "`+testutil.Priv2Hash.String()+`"
deps = { Pub = "`+testutil.PubID.String()+`" }`, 1)
	tree["app/Manifest.toml"].Data = []byte(raw)

	s, err := environment.LoadPath{Entries: []string{"app"}, StorageRoots: []string{testutil.Depot}}.
		Build(context.Background(), vfs.NewIOFS(tree))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	loader := &importingLoader{imports: map[types.Location][]types.PackageName{
		pub:   {"Zebra", "Priv"},
		priv2: {"Pub"},
		zebra: nil,
	}}
	loader.r = New(s, loader)

	_, err = loader.r.Load(context.Background(), types.NilIdentity, "Pub")
	var cycle *ImportCycleError
	if !errors.As(err, &cycle) || !errors.Is(err, ErrImportCycle) {
		t.Fatalf("Load() error = %v, want ImportCycleError", err)
	}
	want := []PackageID{{Identity: testutil.PubID}, {Identity: testutil.Priv2ID}, {Identity: testutil.PubID}}
	if len(cycle.Chain) != len(want) {
		t.Fatalf("Chain = %v, want %v", cycle.Chain, want)
	}
	for i := range want {
		if cycle.Chain[i] != want[i] {
			t.Errorf("Chain[%d] = %v, want %v", i, cycle.Chain[i], want[i])
		}
	}
	if s := loader.r.Cache().State(NewPackageID(testutil.ZebraID, "Zebra")); s != Loaded {
		t.Errorf("Zebra state = %s; loaded before the cycle", s)
	}
	if s := loader.r.Cache().State(NewPackageID(testutil.PubID, "Pub")); s != NotLoaded {
		t.Errorf("Pub state = %s; a failed load must reset", s)
	}
}

func TestLoadAll(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	r := New(federationStack(t), loader, WithConcurrency(2))
	ctx := context.Background()

	names := []types.PackageName{"Pub", "Priv", "Tool", "Pub"}
	handles, err := r.LoadAll(ctx, types.NilIdentity, names)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	want := []types.Location{
		types.Location(testutil.StoredEntry("Pub", testutil.PubID, testutil.PubHash)),
		"app/deps/Priv/src/Priv.jl",
		"dev/Tool.jl",
		types.Location(testutil.StoredEntry("Pub", testutil.PubID, testutil.PubHash)),
	}
	for i := range want {
		if handles[i] != want[i] {
			t.Errorf("handle %d = %v, want %v", i, handles[i], want[i])
		}
	}
	if loader.total.Load() != 3 {
		t.Errorf("loader called %d times, want 3", loader.total.Load())
	}

	if _, err := r.LoadAll(ctx, types.NilIdentity, []types.PackageName{"Tool", "Zebra"}); !errors.Is(err, ErrUnknownImport) {
		t.Errorf("LoadAll() error = %v, want ErrUnknownImport", err)
	}
}

func TestDeclaredDependsOnDerivedIdentity(t *testing.T) {
	t.Parallel()

	libID := environment.PseudoIdentity("dev/Lib/Project.toml")
	staleID := environment.PseudoIdentity("elsewhere/Lib/Project.toml")
	declProject := "name = \"Decl\"\nuuid = \"" + testutil.DeclID.String() + "\"\n[deps]\nLib = \"" + libID.String() + "\"\n"
	staleProject := "name = \"Stale\"\nuuid = \"" + testutil.PubID.String() + "\"\n[deps]\nLib = \"" + staleID.String() + "\"\n"
	fsys := vfs.NewIOFS(fstest.MapFS{
		"dev/Lib/Project.toml":   {Data: []byte("name = \"Lib\"\n")},
		"dev/Lib/src/Lib.jl":     {Data: []byte("module Lib end\n")},
		"dev/Decl/Project.toml":  {Data: []byte(declProject)},
		"dev/Decl/src/Decl.jl":   {Data: []byte("module Decl using Lib end\n")},
		"dev/Stale/Project.toml": {Data: []byte(staleProject)},
		"dev/Stale/src/Stale.jl": {Data: []byte("module Stale using Lib end\n")},
	})
	r := New(environment.NewStack(environment.NewDirectoryEnvironment(fsys, "dev")), &countingLoader{})
	ctx := context.Background()

	if id, err := r.Resolve(ctx, testutil.DeclID, "Lib"); err != nil || id != libID {
		t.Errorf("Resolve(Decl, Lib) = %s, %v; want %s", id, err, libID)
	}
	if h, err := r.Load(ctx, testutil.DeclID, "Lib"); err != nil || h != types.Location("dev/Lib/src/Lib.jl") {
		t.Errorf("Load(Decl, Lib) = %v, %v", h, err)
	}

	// A pseudo-identity minted for another path names nothing here.
	if id, err := r.Resolve(ctx, testutil.PubID, "Lib"); err != nil || id != staleID {
		t.Errorf("Resolve(Stale, Lib) = %s, %v; want %s", id, err, staleID)
	}
	if _, err := r.Locate(ctx, staleID, "Lib"); !errors.Is(err, ErrNoLoadPath) {
		t.Errorf("Locate(stale Lib) error = %v, want ErrNoLoadPath", err)
	}
	if _, err := r.Load(ctx, testutil.PubID, "Lib"); !errors.Is(err, ErrNoLoadPath) {
		t.Errorf("Load(Stale, Lib) error = %v, want ErrNoLoadPath", err)
	}
	if s := r.Cache().State(NewPackageID(staleID, "Lib")); s != NotLoaded {
		t.Errorf("stale Lib state = %s, want %s", s, NotLoaded)
	}
}

func TestSharedLoadCache(t *testing.T) {
	t.Parallel()

	cache := NewLoadCache()
	loader := &countingLoader{}
	first := New(federationStack(t), loader, WithLoadCache(cache))
	second := New(federationStack(t), loader, WithLoadCache(cache))
	ctx := context.Background()

	if _, err := first.Load(ctx, types.NilIdentity, "Pub"); err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	if _, err := second.Load(ctx, types.NilIdentity, "Pub"); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if second.Cache() != cache || loader.total.Load() != 1 {
		t.Errorf("loader called %d times across resolvers sharing a cache, want 1", loader.total.Load())
	}
}

func TestImporter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if id := Importer(ctx); !id.IsNil() {
		t.Errorf("Importer() = %s outside a loader", id)
	}
	outer := withLoading(ctx, NewPackageID(testutil.PubID, "Pub"))
	inner := withLoading(outer, NewPackageID(testutil.ZebraID, "Zebra"))
	if id := Importer(inner); id != testutil.ZebraID {
		t.Errorf("Importer(inner) = %s, want %s", id, testutil.ZebraID)
	}
	if id := Importer(outer); id != testutil.PubID {
		t.Errorf("Importer(outer) = %s, want %s", id, testutil.PubID)
	}
}
