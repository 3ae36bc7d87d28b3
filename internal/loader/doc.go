// SPDX-License-Identifier: MPL-2.0

// Package loader provides the source loader used by the CLI: it reads a
// package's entry file, fingerprints it, and loads the packages the file
// imports through the resolver that invoked it.
package loader
