// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"io/fs"
	"testing/fstest"

	"github.com/loadgraph/loadgraph/pkg/contentaddr"
	"github.com/loadgraph/loadgraph/pkg/types"
)

// Identities and content hashes of the federation fixture.
var (
	AppID   = types.MustParseIdentity("8f4a4c5e-0b7c-4a0e-9a4c-3c2e1d0f9a11")
	PrivID  = types.MustParseIdentity("ba13f1a2-5d3c-4b8e-8f0a-6a7b8c9d0e12")
	PubID   = types.MustParseIdentity("2d15e6f7-8a9b-4c0d-9e1f-2a3b4c5d6e13")
	Priv2ID = types.MustParseIdentity("c4d5e6f7-0a1b-4c2d-8e3f-4a5b6c7d8e14")
	ZebraID = types.MustParseIdentity("e6f7a8b9-1c2d-4e3f-9a4b-5c6d7e8f9a15")
	DeclID  = types.MustParseIdentity("0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c16")

	Priv2Hash = types.ContentHash("1e3c0e9f4a5b6c7d8e9f0a1b2c3d4e5f6a7b8c9d")
	PubHash   = types.ContentHash("2f4d1fa05b6c7d8e9f0a1b2c3d4e5f6a7b8c9d0e")
	ZebraHash = types.ContentHash("3a5e2ab16c7d8e9f0a1b2c3d4e5f6a7b8c9d0e1f")
)

// Paths of the federation fixture.
const (
	// AppProjectFile is the project record of the App project.
	AppProjectFile = "app/Project.toml"
	// Depot is the fixture's only storage root.
	Depot = "depot"
	// DevDir is a plain package directory.
	DevDir = "dev"
)

// Federation returns an in-memory tree containing:
//
//   - app: project App with deps {Priv: PrivID, Pub: PubID} and a manifest
//     declaring a private Priv (explicit path deps/Priv), a public Priv
//     (content hash Priv2Hash), Pub importing the public Priv and Zebra, and
//     Zebra itself;
//   - depot: a storage root holding the content-addressed Priv, Pub and Zebra;
//   - dev: a package directory with units of every identity tier.
func Federation() fstest.MapFS {
	return fstest.MapFS{
		AppProjectFile: file(`name = "App"
uuid = "` + AppID.String() + `"
version = "0.1.0"

[deps]
Priv = "` + PrivID.String() + `"
Pub = "` + PubID.String() + `"
`),
		"app/src/App.jl": file("module App end\n"),
		"app/Manifest.toml": file(`manifest_format = "2.0"

[[deps.Priv]]
uuid = "` + PrivID.String() + `"
path = "deps/Priv"

[[deps.Priv]]
uuid = "` + Priv2ID.String() + `"
version = "1.2.0"
git-tree-sha1 = "` + Priv2Hash.String() + `"

[[deps.Pub]]
uuid = "` + PubID.String() + `"
version = "0.3.1"
git-tree-sha1 = "` + PubHash.String() + `"

    [deps.Pub.deps]
    Priv = "` + Priv2ID.String() + `"
    Zebra = "` + ZebraID.String() + `"

[[deps.Zebra]]
uuid = "` + ZebraID.String() + `"
version = "2.0.0"
git-tree-sha1 = "` + ZebraHash.String() + `"
`),
		"app/deps/Priv/src/Priv.jl": file("module Priv end\n"),

		StoredEntry("Priv", Priv2ID, Priv2Hash):  file("module Priv end\n"),
		StoredEntry("Pub", PubID, PubHash):       file("module Pub using Priv, Zebra end\n"),
		StoredEntry("Zebra", ZebraID, ZebraHash): file("module Zebra end\n"),

		"dev/Tool.jl": file("module Tool end\n"),
		"dev/Lib/Project.toml": file(`name = "Lib"

[deps]
Priv = "` + Priv2ID.String() + `"
`),
		"dev/Lib/src/Lib.jl": file("module Lib end\n"),
		"dev/Decl.jl/Project.toml": file(`name = "Decl"
uuid = "` + DeclID.String() + `"
`),
		"dev/Decl.jl/src/Decl.jl":    file("module Decl end\n"),
		"dev/Renamed/Project.toml":   file("name = \"Other\"\n"),
		"dev/Renamed/src/Renamed.jl": file("module Renamed end\n"),
		"dev/Empty":                  &fstest.MapFile{Mode: fs.ModeDir | 0o755},
		"dev/README.md":              file("not a package\n"),
	}
}

// StoredDir returns the content-addressed directory of package id in Depot.
func StoredDir(name string, id types.Identity, hash types.ContentHash) string {
	return Depot + "/packages/" + name + "/" + contentaddr.Slug(id, hash)
}

// StoredEntry returns the entry point of package id in Depot.
func StoredEntry(name string, id types.Identity, hash types.ContentHash) string {
	return StoredDir(name, id, hash) + "/src/" + name + ".jl"
}

func file(data string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(data), Mode: 0o644}
}
