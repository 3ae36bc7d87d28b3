// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"context"

	"github.com/loadgraph/loadgraph/pkg/vfs"
)

var (
	// ProjectFileNames are the recognized project record names, in order of precedence.
	ProjectFileNames = []string{"JuliaProject.toml", "Project.toml"}
	// ManifestFileNames are the recognized manifest record names, in order of precedence.
	ManifestFileNames = []string{"JuliaManifest.toml", "Manifest.toml"}
)

// IsProjectFileName reports whether base is a recognized project record name.
func IsProjectFileName(base string) bool {
	for _, n := range ProjectFileNames {
		if n == base {
			return true
		}
	}
	return false
}

// FindProjectFile returns the first project record present in dir.
func FindProjectFile(ctx context.Context, fsys vfs.FS, dir string) (string, bool, error) {
	return findFirst(ctx, fsys, dir, ProjectFileNames)
}

// FindManifestFile returns the manifest accompanying the project record at
// projectFile: the project's own manifest field when set, else the first
// default manifest name present next to it.
func FindManifestFile(ctx context.Context, fsys vfs.FS, projectFile string, project *Project) (string, bool, error) {
	dir := fsys.Dir(projectFile)
	if project != nil && project.ManifestFile != "" {
		p := fsys.Resolve(dir, project.ManifestFile)
		ok, err := vfs.IsFile(ctx, fsys, p)
		return p, ok, err
	}
	return findFirst(ctx, fsys, dir, ManifestFileNames)
}

// LoadProject reads and parses the project record at path.
func LoadProject(ctx context.Context, fsys vfs.FileReader, path string) (*Project, error) {
	raw, err := fsys.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	p, err := ParseProject(raw)
	if err != nil {
		return nil, withFile(err, path)
	}
	return p, nil
}

// LoadManifest reads and parses the manifest record at path.
func LoadManifest(ctx context.Context, fsys vfs.FileReader, path string) (*Manifest, error) {
	raw, err := fsys.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(raw)
	if err != nil {
		return nil, withFile(err, path)
	}
	return m, nil
}

func findFirst(ctx context.Context, fsys vfs.FS, dir string, names []string) (string, bool, error) {
	for _, name := range names {
		p := fsys.Join(dir, name)
		ok, err := vfs.IsFile(ctx, fsys, p)
		if err != nil {
			return "", false, err
		}
		if ok {
			return p, true, nil
		}
	}
	return "", false, nil
}
