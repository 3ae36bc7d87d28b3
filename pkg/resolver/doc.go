// SPDX-License-Identifier: MPL-2.0

// Package resolver turns an import (a name, seen from a context) into a
// loaded package.
//
// Resolution happens in two steps over an environment stack: the name is
// resolved to an identity through the roots (from the main context) or the
// graph (from a package), then the identity is located through the paths.
// Loading hands the location to an injected [Loader] and records the result
// in a [LoadCache], so each package is loaded at most once no matter how
// many names, contexts or goroutines reach it.
package resolver
