// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
	ErrInvalidPackageName = errors.New("invalid package name")

	// packageNamePattern matches identifier-like names: a letter or underscore
	// followed by letters, digits or underscores.
	packageNamePattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)
)

type (
	// PackageName is the human-readable name used in import statements.
	// Names are not unique: several identities may share one name in
	// different parts of a dependency graph.
	PackageName string

	// InvalidPackageNameError is returned when a PackageName is not a valid identifier.
	InvalidPackageNameError struct {
		Value PackageName
	}
)

// String returns the string representation of the PackageName.
func (n PackageName) String() string { return string(n) }

// Validate returns nil if the name is a non-empty identifier.
func (n PackageName) Validate() error {
	if !packageNamePattern.MatchString(string(n)) {
		return &InvalidPackageNameError{Value: n}
	}
	return nil
}

// Error implements the error interface for InvalidPackageNameError.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: must be an identifier", string(e.Value))
}

// Unwrap returns ErrInvalidPackageName for errors.Is() compatibility.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }
