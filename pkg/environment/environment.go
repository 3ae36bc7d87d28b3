// SPDX-License-Identifier: MPL-2.0

package environment

import (
	"context"
	"io"
	"slices"

	"github.com/loadgraph/loadgraph/pkg/types"

	"github.com/charmbracelet/log"
)

const (
	// KindManifest identifies environments backed by a project record.
	KindManifest Kind = "manifest"
	// KindDirectory identifies environments derived from a package directory.
	KindDirectory Kind = "directory"

	// DefaultSourceExt is the extension of entry-point source files.
	DefaultSourceExt = ".jl"

	// packagesDir is the storage-root subdirectory holding content-addressed packages.
	packagesDir = "packages"
	// srcDir is the conventional directory of a package's entry point.
	srcDir = "src"
)

// pseudoIdentityNamespace is the UUIDv5 namespace of identities derived from
// project record paths. Keeping them in their own namespace separates them
// from declared identities.
var pseudoIdentityNamespace = types.MustParseIdentity("3b5d8f0e-7a1c-4e62-9d4b-2f8c6a1e9b70")

var (
	_ Environment = (*ManifestEnvironment)(nil)
	_ Environment = (*DirectoryEnvironment)(nil)
	_ Environment = (*Stack)(nil)
)

type (
	// Kind names an environment variant.
	Kind string

	// Environment answers roots, graph and paths lookups for one layer.
	// A lookup that has no answer returns found == false and a nil error;
	// errors are reserved for records that could not be read or parsed.
	Environment interface {
		// Root resolves name as imported from the main context.
		Root(ctx context.Context, name types.PackageName) (id types.Identity, found bool, err error)
		// Graph resolves name as imported from the package identified by from.
		Graph(ctx context.Context, from types.Identity, name types.PackageName) (id types.Identity, found bool, err error)
		// Path returns the entry point of the package id known as name.
		Path(ctx context.Context, id types.Identity, name types.PackageName) (loc types.Location, found bool, err error)
		// Deps lists every name importable from the package identified by
		// from, or from the main context when from is the nil identity.
		Deps(ctx context.Context, from types.Identity) (map[types.PackageName]types.Identity, error)
		// Describe reports what backs the environment.
		Describe() Description
	}

	// Description identifies the source of an environment.
	Description struct {
		Kind Kind   `json:"kind" yaml:"kind"`
		Path string `json:"path" yaml:"path"`
	}

	// Option configures an environment.
	Option func(*options)

	options struct {
		logger       *log.Logger
		sourceExt    string
		storageRoots []string
	}
)

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// WithLogger sets the logger used for debug tracing of lookups.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSourceExt sets the entry-point file extension (default ".jl").
func WithSourceExt(ext string) Option {
	return func(o *options) {
		if ext != "" {
			o.sourceExt = ext
		}
	}
}

// WithStorageRoots sets the ordered storage roots searched for
// content-addressed packages. Order is significant: the first root that
// holds a package wins.
func WithStorageRoots(roots []string) Option {
	return func(o *options) {
		o.storageRoots = slices.Clone(roots)
	}
}

// PseudoIdentity returns the identity assigned to a project record that
// declares none, derived from the record's canonical path.
func PseudoIdentity(canonicalProjectFile string) types.Identity {
	return types.DerivedIdentity(pseudoIdentityNamespace, []byte(canonicalProjectFile))
}

func newOptions(opts []Option) options {
	o := options{sourceExt: DefaultSourceExt}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	return o
}
