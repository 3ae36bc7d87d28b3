// SPDX-License-Identifier: MPL-2.0

// Package manifest parses the two TOML records an explicit environment is
// built from.
//
// A project record (Project.toml) names the project, gives its identity and
// maps the names of its direct dependencies to identities:
//
//	name = "App"
//	uuid = "8f4a..."
//	[deps]
//	Priv = "ba13..."
//
// A manifest record (Manifest.toml) lists one stanza per package in the
// dependency graph. The same name may appear in several stanzas with
// different identities; stanzas are always addressed by identity.
//
//	manifest_format = "2.0"
//	[[deps.Priv]]
//	uuid = "ba13..."
//	path = "deps/Priv"
//	[[deps.Priv]]
//	uuid = "2d15..."
//	git-tree-sha1 = "1bf6..."
//
// Both format 2 (stanzas under "deps") and the older format 1 (stanzas at the
// top level) are accepted. Parsing either succeeds with a complete record or
// fails with a *ParseError; partial records are never returned.
package manifest
