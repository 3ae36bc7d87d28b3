// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loadgraph/loadgraph/pkg/types"
)

var (
	// ErrUnknownImport is the sentinel wrapped by UnknownImportError.
	ErrUnknownImport = errors.New("unknown import")
	// ErrNoLoadPath is the sentinel wrapped by NoLoadPathError.
	ErrNoLoadPath = errors.New("no load path")
	// ErrImportCycle is the sentinel wrapped by ImportCycleError.
	ErrImportCycle = errors.New("import cycle")
	// ErrLoadAbandoned is delivered to waiters when a loader panics.
	ErrLoadAbandoned = errors.New("load abandoned")

	// errNotLoading is returned by Wait when no load is in flight.
	errNotLoading = errors.New("package is not being loaded")
)

type (
	// UnknownImportError is returned when no environment maps the name in
	// the importing context.
	UnknownImportError struct {
		Name types.PackageName
		// Context is the importing package, or the nil identity for the main context.
		Context types.Identity
	}

	// NoLoadPathError is returned when a resolved identity has no location.
	NoLoadPathError struct {
		Identity types.Identity
		Name     types.PackageName
	}

	// ImportCycleError is returned when a package imports itself, directly
	// or through its dependencies, while it is being loaded.
	ImportCycleError struct {
		// Chain lists the packages being loaded, outermost first, ending with
		// the package that closed the cycle.
		Chain []PackageID
	}
)

// Error implements the error interface.
func (e *UnknownImportError) Error() string {
	if e.Context.IsNil() {
		return fmt.Sprintf("package %s not found in the current environment stack", e.Name)
	}
	return fmt.Sprintf("package %s not found in the dependencies of %s", e.Name, e.Context)
}

// Unwrap returns ErrUnknownImport for errors.Is() compatibility.
func (e *UnknownImportError) Unwrap() error { return ErrUnknownImport }

// Error implements the error interface.
func (e *NoLoadPathError) Error() string {
	return fmt.Sprintf("package %s [%s] is required but has no location in any environment", e.Name, e.Identity)
}

// Unwrap returns ErrNoLoadPath for errors.Is() compatibility.
func (e *NoLoadPathError) Unwrap() error { return ErrNoLoadPath }

// Error implements the error interface.
func (e *ImportCycleError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, id := range e.Chain {
		parts[i] = id.String()
	}
	return fmt.Sprintf("%s: %s", ErrImportCycle, strings.Join(parts, " -> "))
}

// Unwrap returns ErrImportCycle for errors.Is() compatibility.
func (e *ImportCycleError) Unwrap() error { return ErrImportCycle }
