// SPDX-License-Identifier: MPL-2.0

package environment

import (
	"context"
	"fmt"
	"slices"

	"github.com/loadgraph/loadgraph/pkg/types"
)

// Stack is an ordered, immutable list of environments. Each lookup is
// answered by the first member that knows its key; later members only fill
// gaps left by earlier ones.
type Stack struct {
	envs []Environment
}

// NewStack returns the stack of envs in precedence order. Nil members are dropped.
func NewStack(envs ...Environment) *Stack {
	s := &Stack{envs: make([]Environment, 0, len(envs))}
	for _, env := range envs {
		if env != nil {
			s.envs = append(s.envs, env)
		}
	}
	return s
}

// Environments returns the members in precedence order.
func (s *Stack) Environments() []Environment { return slices.Clone(s.envs) }

// Len returns the number of members.
func (s *Stack) Len() int { return len(s.envs) }

// Root resolves name from the main context.
func (s *Stack) Root(ctx context.Context, name types.PackageName) (types.Identity, bool, error) {
	for i, env := range s.envs {
		id, ok, err := env.Root(ctx, name)
		if err != nil {
			return types.NilIdentity, false, s.wrap(i, err)
		}
		if ok {
			return id, true, nil
		}
	}
	return types.NilIdentity, false, nil
}

// Graph resolves name as imported from the package identified by from.
func (s *Stack) Graph(ctx context.Context, from types.Identity, name types.PackageName) (types.Identity, bool, error) {
	for i, env := range s.envs {
		id, ok, err := env.Graph(ctx, from, name)
		if err != nil {
			return types.NilIdentity, false, s.wrap(i, err)
		}
		if ok {
			return id, true, nil
		}
	}
	return types.NilIdentity, false, nil
}

// Path returns the entry point of package id known as name.
func (s *Stack) Path(ctx context.Context, id types.Identity, name types.PackageName) (types.Location, bool, error) {
	for i, env := range s.envs {
		loc, ok, err := env.Path(ctx, id, name)
		if err != nil {
			return "", false, s.wrap(i, err)
		}
		if ok {
			return loc, true, nil
		}
	}
	return "", false, nil
}

// Deps merges the Deps of every member. Each name keeps the identity given
// by the first member that lists it.
func (s *Stack) Deps(ctx context.Context, from types.Identity) (map[types.PackageName]types.Identity, error) {
	deps := make(map[types.PackageName]types.Identity)
	for i, env := range s.envs {
		m, err := env.Deps(ctx, from)
		if err != nil {
			return nil, s.wrap(i, err)
		}
		for name, id := range m {
			if _, ok := deps[name]; !ok {
				deps[name] = id
			}
		}
	}
	return deps, nil
}

func (s *Stack) wrap(i int, err error) error {
	d := s.envs[i].Describe()
	return fmt.Errorf("%s environment %s: %w", d.Kind, d.Path, err)
}

// Describe reports the stack itself; members describe their own sources.
func (s *Stack) Describe() Description {
	return Description{Kind: "stack", Path: fmt.Sprintf("%d environments", len(s.envs))}
}
