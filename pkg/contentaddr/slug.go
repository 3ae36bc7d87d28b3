// SPDX-License-Identifier: MPL-2.0

package contentaddr

import (
	"hash/crc32"

	"github.com/loadgraph/loadgraph/pkg/types"
)

// SlugLength is the number of characters in a slug.
const SlugLength = 5

// slugChars is the slug alphabet. Every character is safe in a path segment
// on all supported filesystems.
const slugChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Slug returns the storage slug for a package identity and content hash.
//
// The identity is checksummed as a little-endian 128-bit integer, followed
// by the raw digest bytes of the hash. A hash that is not valid hex is
// checksummed by its literal text.
func Slug(id types.Identity, hash types.ContentHash) string {
	return SlugN(id, hash, SlugLength)
}

// SlugN is Slug with an explicit length.
func SlugN(id types.Identity, hash types.ContentHash, n int) string {
	idBytes := id.Bytes()
	for i, j := 0, len(idBytes)-1; i < j; i, j = i+1, j-1 {
		idBytes[i], idBytes[j] = idBytes[j], idBytes[i]
	}
	crc := crc32.Update(0, castagnoli, idBytes)

	digest, err := hash.Digest()
	if err != nil {
		digest = []byte(hash)
	}
	crc = crc32.Update(crc, castagnoli, digest)

	return encode(crc, n)
}

// encode writes x in base len(slugChars), least significant digit first.
func encode(x uint32, n int) string {
	out := make([]byte, n)
	base := uint32(len(slugChars))
	for i := range out {
		out[i] = slugChars[x%base]
		x /= base
	}
	return string(out)
}
