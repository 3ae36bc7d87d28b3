// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is the sentinel wrapped by every ParseError.
var ErrParse = errors.New("malformed record")

// ParseError reports a malformed project or manifest record.
type ParseError struct {
	// File is the record's path, when known.
	File string
	// Line and Column locate TOML syntax errors (1-based, 0 when unknown).
	Line, Column int
	// Field is the dotted key path of an invalid value (e.g., "deps.Priv[1].uuid").
	Field string
	// Cause is the underlying decode or validation error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&sb, ":%d:%d", e.Line, e.Column)
		}
		sb.WriteString(": ")
	}
	if e.Field != "" {
		sb.WriteString(e.Field)
		sb.WriteString(": ")
	}
	sb.WriteString(ErrParse.Error())
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes both ErrParse and the cause to errors.Is and errors.As.
func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Cause}
}

// withFile returns err with File set when err is a *ParseError.
func withFile(err error, file string) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.File == "" {
		cp := *pe
		cp.File = file
		return &cp
	}
	return err
}
