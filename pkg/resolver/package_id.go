// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"slices"

	"github.com/loadgraph/loadgraph/pkg/types"
)

// PackageID keys the load cache. Packages with an identity are keyed by it
// alone; packages without one are told apart by name.
type PackageID struct {
	Identity types.Identity
	Name     types.PackageName
}

type chainKey struct{}

// NewPackageID returns the cache key of the package id known as name.
func NewPackageID(id types.Identity, name types.PackageName) PackageID {
	if !id.IsNil() {
		return PackageID{Identity: id}
	}
	return PackageID{Name: name}
}

// String returns the uuid, or the name for packages without one.
func (p PackageID) String() string {
	if p.Identity.IsNil() {
		return p.Name.String()
	}
	return p.Identity.String()
}

// Importer returns the identity of the package whose loader is running on
// ctx's call chain, or the nil identity outside any loader. Loaders pass it
// as the context of the imports they perform.
func Importer(ctx context.Context) types.Identity {
	chain := loadingChain(ctx)
	if len(chain) == 0 {
		return types.NilIdentity
	}
	return chain[len(chain)-1].Identity
}

func loadingChain(ctx context.Context) []PackageID {
	chain, _ := ctx.Value(chainKey{}).([]PackageID)
	return chain
}

func withLoading(ctx context.Context, id PackageID) context.Context {
	chain := loadingChain(ctx)
	return context.WithValue(ctx, chainKey{}, append(slices.Clip(chain), id))
}
