// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ParsePathList splits an environment path list on the OS list separator.
// The empty string yields an empty, non-nil list. Empty elements expand to
// defaults in place, so ":extra" appends to and "extra:" prepends to the
// default list.
func ParsePathList(value string, defaults []string) []string {
	if value == "" {
		return []string{}
	}
	return ExpandDefaults(strings.Split(value, string(os.PathListSeparator)), defaults)
}

// ExpandDefaults replaces each empty element of list with defaults.
// A nil list stays nil.
func ExpandDefaults(list, defaults []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if e == "" {
			out = append(out, defaults...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// ExpandHome replaces a leading "~" path element with home.
func ExpandHome(p, home string) string {
	switch {
	case home == "":
		return p
	case p == "~":
		return home
	case strings.HasPrefix(p, "~/"), strings.HasPrefix(p, `~\`):
		return filepath.Join(home, p[2:])
	default:
		return p
	}
}
