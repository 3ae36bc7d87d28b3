// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by the loadgraph tests: fail-fast
// filesystem helpers (MustMkdirAll, MustWriteFile, WriteTree) and the
// federation fixture, an in-memory project tree exercising every lookup rule.
package testutil
