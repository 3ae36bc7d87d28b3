// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/loadgraph/loadgraph/pkg/contentaddr"
)

const (
	// HashSHA1 selects SHA-1 content hashes.
	HashSHA1 HashAlgorithm = "sha1"
	// HashSHA256 selects SHA-256 content hashes.
	HashSHA256 HashAlgorithm = "sha256"
)

// ErrInvalidHashAlgorithm is returned when a HashAlgorithm value is not recognized.
var ErrInvalidHashAlgorithm = errors.New("invalid hash algorithm")

type (
	// Config holds the loadgraph configuration.
	Config struct {
		// LoadPath lists the load-path entries in precedence order.
		LoadPath []string `json:"load_path" yaml:"load_path" mapstructure:"load_path"`
		// DepotPath lists the storage roots in precedence order.
		DepotPath []string `json:"depot_path" yaml:"depot_path" mapstructure:"depot_path"`
		// Project is the project file or directory that "@" stands for.
		Project string `json:"project" yaml:"project" mapstructure:"project"`
		// SourceExt is the extension of entry-point source files.
		SourceExt string `json:"source_ext" yaml:"source_ext" mapstructure:"source_ext"`
		// HashAlgorithm selects the content hash used to fingerprint files.
		HashAlgorithm HashAlgorithm `json:"hash_algorithm" yaml:"hash_algorithm" mapstructure:"hash_algorithm"`
		// LogFile, when set, receives a copy of the log output.
		LogFile string `json:"log_file" yaml:"log_file" mapstructure:"log_file"`
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`

		// Source is the config file the values were read from, or "" for defaults.
		Source string `json:"-" yaml:"-" mapstructure:"-"`
	}

	// HashAlgorithm names a content hash function.
	HashAlgorithm string

	// InvalidHashAlgorithmError is returned when a HashAlgorithm value is not recognized.
	// It wraps ErrInvalidHashAlgorithm for errors.Is() compatibility.
	InvalidHashAlgorithmError struct {
		Value HashAlgorithm
	}
)

// DefaultLoadPath returns the load path used when none is configured.
func DefaultLoadPath() []string { return []string{"@", "@default"} }

// DefaultDepotPath returns the storage roots used when none are configured.
func DefaultDepotPath() []string { return []string{"~/.loadgraph"} }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LoadPath:      DefaultLoadPath(),
		DepotPath:     DefaultDepotPath(),
		SourceExt:     ".jl",
		HashAlgorithm: HashSHA1,
	}
}

// String returns the string representation of the HashAlgorithm.
func (h HashAlgorithm) String() string { return string(h) }

// Validate returns nil if the algorithm is supported.
func (h HashAlgorithm) Validate() error {
	if _, ok := contentaddr.HashByName(string(h)); !ok {
		return &InvalidHashAlgorithmError{Value: h}
	}
	return nil
}

// Func returns the hash function the algorithm names.
func (h HashAlgorithm) Func() (contentaddr.HashFunc, error) {
	fn, ok := contentaddr.HashByName(string(h))
	if !ok {
		return nil, &InvalidHashAlgorithmError{Value: h}
	}
	return fn, nil
}

// Error implements the error interface for InvalidHashAlgorithmError.
func (e *InvalidHashAlgorithmError) Error() string {
	return fmt.Sprintf("invalid hash algorithm %q (valid: sha1, sha256)", string(e.Value))
}

// Unwrap returns ErrInvalidHashAlgorithm for errors.Is() compatibility.
func (e *InvalidHashAlgorithmError) Unwrap() error { return ErrInvalidHashAlgorithm }
