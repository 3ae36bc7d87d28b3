// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/loadgraph/loadgraph/pkg/resolver"
	"github.com/loadgraph/loadgraph/pkg/types"
)

// outputFormat is a --format flag restricted to a fixed set of values.
type outputFormat struct {
	value   string
	allowed []string
}

var _ pflag.Value = (*outputFormat)(nil)

func newOutputFormat(def string, allowed ...string) *outputFormat {
	return &outputFormat{value: def, allowed: allowed}
}

func (f *outputFormat) String() string { return f.value }

func (f *outputFormat) Set(v string) error {
	if !slices.Contains(f.allowed, v) {
		return fmt.Errorf("must be one of %s", strings.Join(f.allowed, ", "))
	}
	f.value = v
	return nil
}

func (f *outputFormat) Type() string { return "format" }

func addFormatFlag(fs *pflag.FlagSet, f *outputFormat) {
	fs.Var(f, "format", "output format ("+strings.Join(f.allowed, "|")+")")
}

// parseContext interprets a --from value: empty is the main context, a UUID
// is taken literally, and anything else is a name resolved from the main
// context.
func parseContext(ctx context.Context, r *resolver.Resolver, from string) (types.Identity, error) {
	if from == "" {
		return types.NilIdentity, nil
	}
	if id, err := types.ParseIdentity(from); err == nil {
		return id, nil
	}
	name := types.PackageName(from)
	if err := name.Validate(); err != nil {
		return types.NilIdentity, err
	}
	return r.Resolve(ctx, types.NilIdentity, name)
}

func packageNames(args []string) ([]types.PackageName, error) {
	names := make([]types.PackageName, len(args))
	for i, a := range args {
		names[i] = types.PackageName(a)
		if err := names[i].Validate(); err != nil {
			return nil, err
		}
	}
	return names, nil
}
