// SPDX-License-Identifier: MPL-2.0

package environment

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/loadgraph/loadgraph/pkg/manifest"
	"github.com/loadgraph/loadgraph/pkg/vfs"
)

const (
	// ActiveProjectEntry is the load-path entry standing for the active project.
	ActiveProjectEntry = "@"
	// NamedEnvironmentPrefix introduces a named environment entry such as "@default".
	NamedEnvironmentPrefix = "@"

	environmentsDir = "environments"
)

// ErrInvalidLoadPathEntry is returned when a load-path entry cannot be interpreted.
var ErrInvalidLoadPathEntry = errors.New("invalid load path entry")

type (
	// LoadPath describes how to build a Stack from load-path entries.
	LoadPath struct {
		// Entries are the load-path entries in precedence order.
		Entries []string
		// ActiveProject is the project file or directory that "@" stands for.
		ActiveProject string
		// StorageRoots are searched for named environments and, by manifest
		// environments, for content-addressed packages.
		StorageRoots []string
	}

	// InvalidLoadPathEntryError is returned when an entry is malformed.
	InvalidLoadPathEntryError struct {
		Entry string
	}
)

// Error implements the error interface.
func (e *InvalidLoadPathEntryError) Error() string {
	return fmt.Sprintf("invalid load path entry %q", e.Entry)
}

// Unwrap returns ErrInvalidLoadPathEntry for errors.Is() compatibility.
func (e *InvalidLoadPathEntryError) Unwrap() error { return ErrInvalidLoadPathEntry }

// Build returns the stack described by lp. Entries that name nothing on
// disk are skipped; records that fail to parse are reported.
func (lp LoadPath) Build(ctx context.Context, fsys vfs.FS, opts ...Option) (*Stack, error) {
	opts = append([]Option{WithStorageRoots(lp.StorageRoots)}, opts...)
	logger := newOptions(opts).logger

	envs := make([]Environment, 0, len(lp.Entries))
	for _, entry := range lp.Entries {
		env, err := lp.environment(ctx, fsys, entry, opts)
		if err != nil {
			return nil, err
		}
		if env == nil {
			logger.Debug("load path entry skipped", "entry", entry)
			continue
		}
		logger.Debug("load path entry", "entry", entry, "kind", env.Describe().Kind, "path", env.Describe().Path)
		envs = append(envs, env)
	}
	return NewStack(envs...), nil
}

func (lp LoadPath) environment(ctx context.Context, fsys vfs.FS, entry string, opts []Option) (Environment, error) {
	switch {
	case entry == ActiveProjectEntry:
		if lp.ActiveProject == "" {
			return nil, nil
		}
		return Open(ctx, fsys, lp.ActiveProject, opts...)
	case strings.HasPrefix(entry, NamedEnvironmentPrefix):
		name := strings.TrimPrefix(entry, NamedEnvironmentPrefix)
		if name == "" || strings.ContainsAny(name, `/\`) {
			return nil, &InvalidLoadPathEntryError{Entry: entry}
		}
		for _, root := range lp.StorageRoots {
			dir := fsys.Join(root, environmentsDir, name)
			projectFile, ok, err := manifest.FindProjectFile(ctx, fsys, dir)
			if err != nil {
				return nil, err
			}
			if ok {
				return openManifest(ctx, fsys, projectFile, opts...)
			}
		}
		return nil, nil
	case entry == "":
		return nil, &InvalidLoadPathEntryError{Entry: entry}
	default:
		return Open(ctx, fsys, entry, opts...)
	}
}

// Open returns the environment found at p: a manifest environment when p is
// a project record or a directory holding one, a directory environment when
// p is any other directory. Open returns a nil Environment when p does not
// exist or is a file that is not a project record.
func Open(ctx context.Context, fsys vfs.FS, p string, opts ...Option) (Environment, error) {
	st, err := fsys.Stat(ctx, p)
	if err != nil {
		if vfs.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open environment %s: %w", p, err)
	}
	if !st.IsDir {
		if !manifest.IsProjectFileName(path.Base(filepath.ToSlash(p))) {
			return nil, nil
		}
		return openManifest(ctx, fsys, p, opts...)
	}
	projectFile, ok, err := manifest.FindProjectFile(ctx, fsys, p)
	if err != nil {
		return nil, err
	}
	if ok {
		return openManifest(ctx, fsys, projectFile, opts...)
	}
	return NewDirectoryEnvironment(fsys, p, opts...), nil
}

func openManifest(ctx context.Context, fsys vfs.FS, projectFile string, opts ...Option) (Environment, error) {
	env, err := LoadManifestEnvironment(ctx, fsys, projectFile, opts...)
	if err != nil {
		return nil, err
	}
	return env, nil
}
