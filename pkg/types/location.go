// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLocation is the sentinel error wrapped by InvalidLocationError.
var ErrInvalidLocation = errors.New("invalid location")

type (
	// Location references the entry-point source file of a package: a path
	// understood by the filesystem the environment was built on.
	// The zero value ("") is invalid: a location must always point somewhere.
	Location string

	// InvalidLocationError is returned when a Location value is
	// empty or whitespace-only.
	InvalidLocationError struct {
		Value Location
	}
)

// String returns the string representation of the Location.
func (l Location) String() string { return string(l) }

// Validate returns nil if the location is non-empty and not whitespace-only.
func (l Location) Validate() error {
	if strings.TrimSpace(string(l)) == "" {
		return &InvalidLocationError{Value: l}
	}
	return nil
}

// Error implements the error interface for InvalidLocationError.
func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("invalid location %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidLocation for errors.Is() compatibility.
func (e *InvalidLocationError) Unwrap() error { return ErrInvalidLocation }
