// SPDX-License-Identifier: MPL-2.0

package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidContentHash is the sentinel error wrapped by InvalidContentHashError.
var ErrInvalidContentHash = errors.New("invalid content hash")

type (
	// ContentHash is the lowercase hexadecimal digest of a package's content
	// tree, as recorded in a manifest (e.g., "git-tree-sha1").
	ContentHash string

	// InvalidContentHashError is returned when a ContentHash is not an
	// even-length hexadecimal string.
	InvalidContentHashError struct {
		Value ContentHash
	}
)

// NewContentHash returns the ContentHash of raw digest bytes.
func NewContentHash(digest []byte) ContentHash {
	return ContentHash(hex.EncodeToString(digest))
}

// String returns the string representation of the ContentHash.
func (h ContentHash) String() string { return string(h) }

// Validate returns nil if the hash is a non-empty, even-length hex string.
func (h ContentHash) Validate() error {
	if h == "" || len(h)%2 != 0 {
		return &InvalidContentHashError{Value: h}
	}
	if _, err := hex.DecodeString(string(h)); err != nil {
		return &InvalidContentHashError{Value: h}
	}
	return nil
}

// Digest returns the decoded digest bytes.
func (h ContentHash) Digest() ([]byte, error) {
	b, err := hex.DecodeString(strings.ToLower(string(h)))
	if err != nil || len(b) == 0 {
		return nil, &InvalidContentHashError{Value: h}
	}
	return b, nil
}

// Error implements the error interface for InvalidContentHashError.
func (e *InvalidContentHashError) Error() string {
	return fmt.Sprintf("invalid content hash %q: must be a non-empty hexadecimal digest", string(e.Value))
}

// Unwrap returns ErrInvalidContentHash for errors.Is() compatibility.
func (e *InvalidContentHashError) Unwrap() error { return ErrInvalidContentHash }
