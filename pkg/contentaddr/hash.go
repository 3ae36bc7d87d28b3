// SPDX-License-Identifier: MPL-2.0

package contentaddr

import (
	"crypto/sha1" //nolint:gosec // content addressing, not a security boundary
	"crypto/sha256"

	"github.com/loadgraph/loadgraph/pkg/types"
)

// HashFunc computes the content hash of raw bytes.
type HashFunc func(data []byte) types.ContentHash

// SHA1 hashes data with SHA-1, the digest recorded as "git-tree-sha1" in manifests.
func SHA1(data []byte) types.ContentHash {
	sum := sha1.Sum(data) //nolint:gosec // see import
	return types.NewContentHash(sum[:])
}

// SHA256 hashes data with SHA-256.
func SHA256(data []byte) types.ContentHash {
	sum := sha256.Sum256(data)
	return types.NewContentHash(sum[:])
}

// HashByName returns the hash function registered under name ("sha1" or "sha256").
func HashByName(name string) (HashFunc, bool) {
	switch name {
	case "sha1", "":
		return SHA1, true
	case "sha256":
		return SHA256, true
	default:
		return nil, false
	}
}
