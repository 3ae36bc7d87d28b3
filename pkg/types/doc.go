// SPDX-License-Identifier: MPL-2.0

// Package types holds the value types shared by the loadgraph packages:
// package identities, package names, content hashes and load locations.
//
// Each type validates itself through a Validate method returning a typed
// error that wraps a package-level sentinel, so callers can match failures
// with errors.Is.
package types
