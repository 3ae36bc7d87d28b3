// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidIdentity is the sentinel error wrapped by InvalidIdentityError.
var ErrInvalidIdentity = errors.New("invalid identity")

type (
	// Identity names one logical package regardless of the name it is imported
	// under. It is a 128-bit UUID. The zero value is the nil identity, a valid
	// value meaning "no declared identity".
	Identity uuid.UUID

	// InvalidIdentityError is returned when a string cannot be parsed as an Identity.
	InvalidIdentityError struct {
		Value string
		Cause error
	}
)

// NilIdentity is the distinguished "no declared identity" value.
var NilIdentity = Identity(uuid.Nil)

// ParseIdentity parses the canonical textual form of a UUID.
func ParseIdentity(s string) (Identity, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NilIdentity, &InvalidIdentityError{Value: s, Cause: err}
	}
	return Identity(id), nil
}

// MustParseIdentity is like ParseIdentity but panics on malformed input.
// It is meant for constants and test fixtures.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// DerivedIdentity returns the name-based (version 5) UUID of data within the
// given namespace. Equal inputs always produce equal identities.
func DerivedIdentity(namespace Identity, data []byte) Identity {
	return Identity(uuid.NewSHA1(uuid.UUID(namespace), data))
}

// IsNil reports whether id is the nil identity.
func (id Identity) IsNil() bool { return id == NilIdentity }

// Bytes returns the 16 bytes of the identity in canonical (big-endian) order.
func (id Identity) Bytes() []byte {
	b := make([]byte, len(id))
	copy(b, id[:])
	return b
}

// String returns the canonical hyphenated form.
func (id Identity) String() string { return uuid.UUID(id).String() }

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(data []byte) error {
	parsed, err := ParseIdentity(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Error implements the error interface for InvalidIdentityError.
func (e *InvalidIdentityError) Error() string {
	return fmt.Sprintf("invalid identity %q: %v", e.Value, e.Cause)
}

// Unwrap returns ErrInvalidIdentity for errors.Is() compatibility.
func (e *InvalidIdentityError) Unwrap() error { return ErrInvalidIdentity }
