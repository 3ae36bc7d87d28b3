// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates user-supplied CUE documents against embedded
// schemas and turns CUE errors into messages keyed by field path.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	m, err := cueutil.DecodeMap(schema, "#Config", data, cueutil.WithFilename(path))
package cueutil
