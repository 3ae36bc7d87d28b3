// SPDX-License-Identifier: MPL-2.0

// Package environment answers the three lookup questions of package loading:
//
//   - roots: what does name N mean when imported from the main context?
//   - graph: what does name N mean when imported from the package with identity C?
//   - paths: where is the entry point of the package with identity I, known as N?
//
// Two environment kinds answer them. A [ManifestEnvironment] is backed by a
// project record and its manifest; a [DirectoryEnvironment] is derived from
// the code units found in a plain directory. A [Stack] layers environments so
// that, key by key, the first environment that knows the answer wins.
//
// Answers are computed on demand, one key at a time, and memoized per key.
// Nothing is materialized up front, so large environments cost only what is
// actually asked of them. Lookups are safe for concurrent use once an
// environment has been constructed.
package environment
