// SPDX-License-Identifier: MPL-2.0

// Package config handles loadgraph configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/loadgraph/config.cue (~/.config on
// Linux when unset, ~/Library/Application Support on macOS, %APPDATA% on Windows).
// The file is validated against an embedded CUE schema (config_schema.cue) before
// it is merged over the defaults.
//
// The path lists (load_path, depot_path) can be overridden from the environment
// through LOADGRAPH_LOAD_PATH and LOADGRAPH_DEPOT_PATH, and the active project
// through LOADGRAPH_PROJECT. An unset variable leaves the configured value alone;
// a variable set to the empty string selects an empty list; an empty element
// inside a list expands to the default list at that position.
package config
