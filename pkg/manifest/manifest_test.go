// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/loadgraph/loadgraph/pkg/types"
	"github.com/loadgraph/loadgraph/pkg/vfs"
)

const (
	uuidApp   = "8f4a4c5e-0b7c-4a0e-9a4c-3c2e1d0f9a11"
	uuidPriv  = "ba13f1a2-5d3c-4b8e-8f0a-6a7b8c9d0e12"
	uuidPub   = "2d15e6f7-8a9b-4c0d-9e1f-2a3b4c5d6e13"
	uuidPriv2 = "c4d5e6f7-0a1b-4c2d-8e3f-4a5b6c7d8e14"
	uuidZebra = "e6f7a8b9-1c2d-4e3f-9a4b-5c6d7e8f9a15"
)

func TestParseProject(t *testing.T) {
	t.Parallel()

	raw := []byte(`
name = "App"
uuid = "` + uuidApp + `"
version = "0.1.0"
entryfile = "lib/App.jl"

[deps]
Priv = "` + uuidPriv + `"
Pub = "` + uuidPub + `"
`)

	p, err := ParseProject(raw)
	if err != nil {
		t.Fatalf("ParseProject() error = %v", err)
	}
	if p.Name != "App" {
		t.Errorf("Name = %q, want App", p.Name)
	}
	if p.Identity != types.MustParseIdentity(uuidApp) {
		t.Errorf("Identity = %s, want %s", p.Identity, uuidApp)
	}
	if !p.HasIdentity() {
		t.Error("HasIdentity() = false")
	}
	if p.EntryFile != "lib/App.jl" {
		t.Errorf("EntryFile = %q", p.EntryFile)
	}
	if id, ok := p.Dep("Priv"); !ok || id != types.MustParseIdentity(uuidPriv) {
		t.Errorf("Dep(Priv) = %s, %v", id, ok)
	}
	if len(p.Deps) != 2 {
		t.Errorf("len(Deps) = %d, want 2", len(p.Deps))
	}
}

func TestParseProject_Anonymous(t *testing.T) {
	t.Parallel()

	p, err := ParseProject([]byte("[deps]\n"))
	if err != nil {
		t.Fatalf("ParseProject() error = %v", err)
	}
	if p.Name != "" || p.HasIdentity() {
		t.Errorf("anonymous project got name %q identity %s", p.Name, p.Identity)
	}
	if p.Deps == nil {
		t.Error("Deps should be an empty map, not nil")
	}
}

func TestParseProject_LegacyPathField(t *testing.T) {
	t.Parallel()

	p, err := ParseProject([]byte(`name = "Tool"` + "\n" + `path = "main.jl"`))
	if err != nil {
		t.Fatalf("ParseProject() error = %v", err)
	}
	if p.EntryFile != "main.jl" {
		t.Errorf("EntryFile = %q, want main.jl", p.EntryFile)
	}
}

func TestParseProject_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{"syntax", "name = ", ""},
		{"bad uuid", `uuid = "nope"`, "uuid"},
		{"bad name", `name = "1bad"`, "name"},
		{"bad dep uuid", "[deps]\nFoo = \"nope\"", "deps.Foo"},
		{"dep not string", "[deps]\nFoo = 3", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := ParseProject([]byte(tt.raw))
			if err == nil {
				t.Fatalf("ParseProject(%q) = %+v, want error", tt.raw, p)
			}
			if p != nil {
				t.Error("ParseProject() returned a partial record alongside an error")
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("error should wrap ErrParse, got: %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error should be *ParseError, got %T", err)
			}
			if tt.wantField != "" && pe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", pe.Field, tt.wantField)
			}
		})
	}
}

func TestParseManifest_Format2(t *testing.T) {
	t.Parallel()

	raw := []byte(`
julia_version = "1.11.0"
manifest_format = "2.0"

[[deps.Priv]]
uuid = "` + uuidPriv + `"
path = "deps/Priv"

[[deps.Priv]]
uuid = "` + uuidPriv2 + `"
git-tree-sha1 = "1BF6A3C2D4E5F60718293A4B5C6D7E8F90A1B2C3"
version = "2.0.1"

[[deps.Pub]]
uuid = "` + uuidPub + `"
[deps.Pub.deps]
Priv = "` + uuidPriv2 + `"
Zebra = "` + uuidZebra + `"

[[deps.Zebra]]
uuid = "` + uuidZebra + `"
git-tree-sha1 = "00112233445566778899aabbccddeeff00112233"
`)

	m, err := ParseManifest(raw)
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}
	if m.Format != "2.0" {
		t.Errorf("Format = %q", m.Format)
	}
	if m.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", m.Len())
	}

	privs := m.StanzasNamed("Priv")
	if len(privs) != 2 {
		t.Fatalf("StanzasNamed(Priv) = %d stanzas, want 2", len(privs))
	}

	local, ok := m.Stanza(types.MustParseIdentity(uuidPriv))
	if !ok || local.Path != "deps/Priv" || local.ContentHash != "" {
		t.Errorf("local Priv stanza = %+v, %v", local, ok)
	}
	public, ok := m.Stanza(types.MustParseIdentity(uuidPriv2))
	if !ok || public.ContentHash != "1bf6a3c2d4e5f60718293a4b5c6d7e8f90a1b2c3" || public.Version != "2.0.1" {
		t.Errorf("public Priv stanza = %+v, %v", public, ok)
	}

	pub, _ := m.Stanza(types.MustParseIdentity(uuidPub))
	if pub.Deps["Priv"] != types.MustParseIdentity(uuidPriv2) {
		t.Errorf("Pub.deps.Priv = %s, want %s", pub.Deps["Priv"], uuidPriv2)
	}
	if pub.Deps["Zebra"] != types.MustParseIdentity(uuidZebra) {
		t.Errorf("Pub.deps.Zebra = %s", pub.Deps["Zebra"])
	}

	zebra, _ := m.Stanza(types.MustParseIdentity(uuidZebra))
	if len(zebra.Deps) != 0 || zebra.Deps == nil {
		t.Errorf("Zebra.Deps = %v, want empty map", zebra.Deps)
	}
}

func TestParseManifest_Format1WithNameDeps(t *testing.T) {
	t.Parallel()

	raw := []byte(`
[[Pub]]
uuid = "` + uuidPub + `"
deps = ["Zebra"]

[[Zebra]]
uuid = "` + uuidZebra + `"
git-tree-sha1 = "00112233445566778899aabbccddeeff00112233"
`)

	m, err := ParseManifest(raw)
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}
	if m.Format != FormatV1 {
		t.Errorf("Format = %q, want %q", m.Format, FormatV1)
	}
	pub, ok := m.Stanza(types.MustParseIdentity(uuidPub))
	if !ok {
		t.Fatal("Pub stanza missing")
	}
	if pub.Deps["Zebra"] != types.MustParseIdentity(uuidZebra) {
		t.Errorf("Pub.deps.Zebra = %s, want %s", pub.Deps["Zebra"], uuidZebra)
	}
}

func TestParseManifest_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"syntax", "[[deps.Priv]\n"},
		{"missing uuid", "manifest_format = \"2.0\"\n[[deps.Priv]]\npath = \"x\"\n"},
		{"bad hash", "[[Priv]]\nuuid = \"" + uuidPriv + "\"\ngit-tree-sha1 = \"xyz\"\n"},
		{"duplicate uuid", "[[A]]\nuuid = \"" + uuidPriv + "\"\n[[B]]\nuuid = \"" + uuidPriv + "\"\n"},
		{"unknown dep name", "[[A]]\nuuid = \"" + uuidPriv + "\"\ndeps = [\"Nope\"]\n"},
		{
			"ambiguous dep name",
			"[[A]]\nuuid = \"" + uuidPub + "\"\ndeps = [\"Priv\"]\n" +
				"[[Priv]]\nuuid = \"" + uuidPriv + "\"\n[[Priv]]\nuuid = \"" + uuidPriv2 + "\"\n",
		},
		{"unsupported format", "manifest_format = \"3.0\"\n"},
		{"deps not array", "manifest_format = \"2.0\"\n[deps]\nPriv = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := ParseManifest([]byte(tt.raw))
			if err == nil {
				t.Fatalf("ParseManifest() = %+v, want error", m)
			}
			if m != nil {
				t.Error("ParseManifest() returned a partial record alongside an error")
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("error should wrap ErrParse, got: %v", err)
			}
		})
	}
}

func TestParseManifest_Empty(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte("manifest_format = \"2.0\"\n"))
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestFindAndLoad(t *testing.T) {
	t.Parallel()

	fsys := vfs.NewIOFS(fstest.MapFS{
		"a/Project.toml":       {Data: []byte(`name = "A"`)},
		"a/JuliaProject.toml":  {Data: []byte(`name = "B"`)},
		"a/Manifest.toml":      {Data: []byte("manifest_format = \"2.0\"\n")},
		"b/Project.toml":       {Data: []byte(`manifest = "alt/M.toml"`)},
		"b/alt/M.toml":         {Data: []byte("")},
		"c/Project.toml":       {Data: []byte(`uuid = "broken"`)},
		"d/unrelated.txt":      {Data: []byte("")},
	})
	ctx := context.Background()

	projectFile, ok, err := FindProjectFile(ctx, fsys, "a")
	if err != nil || !ok {
		t.Fatalf("FindProjectFile(a) = %q, %v, %v", projectFile, ok, err)
	}
	if projectFile != "a/JuliaProject.toml" {
		t.Errorf("FindProjectFile(a) = %q, want JuliaProject.toml to win", projectFile)
	}
	p, err := LoadProject(ctx, fsys, projectFile)
	if err != nil {
		t.Fatalf("LoadProject() error = %v", err)
	}
	manifestFile, ok, err := FindManifestFile(ctx, fsys, projectFile, p)
	if err != nil || !ok || manifestFile != "a/Manifest.toml" {
		t.Errorf("FindManifestFile(a) = %q, %v, %v", manifestFile, ok, err)
	}
	if _, err := LoadManifest(ctx, fsys, manifestFile); err != nil {
		t.Errorf("LoadManifest() error = %v", err)
	}

	pb, err := LoadProject(ctx, fsys, "b/Project.toml")
	if err != nil {
		t.Fatalf("LoadProject(b) error = %v", err)
	}
	manifestFile, ok, err = FindManifestFile(ctx, fsys, "b/Project.toml", pb)
	if err != nil || !ok || manifestFile != "b/alt/M.toml" {
		t.Errorf("FindManifestFile(b) = %q, %v, %v", manifestFile, ok, err)
	}

	_, err = LoadProject(ctx, fsys, "c/Project.toml")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.File != "c/Project.toml" {
		t.Errorf("LoadProject(c) error = %v, want ParseError naming the file", err)
	}

	if _, ok, err := FindProjectFile(ctx, fsys, "d"); ok || err != nil {
		t.Errorf("FindProjectFile(d) = %v, %v, want not found", ok, err)
	}
	if _, err := LoadProject(ctx, fsys, "d/Project.toml"); !vfs.IsNotFound(err) {
		t.Errorf("LoadProject(missing) error = %v, want ErrNotFound", err)
	}
}
