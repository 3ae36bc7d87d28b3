// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/loadgraph/loadgraph/internal/issue"
	"github.com/loadgraph/loadgraph/pkg/cueutil"
	"github.com/loadgraph/loadgraph/pkg/environment"
)

const (
	// AppName is the application name.
	AppName = "loadgraph"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// EnvLoadPath overrides load_path.
	EnvLoadPath = "LOADGRAPH_LOAD_PATH"
	// EnvDepotPath overrides depot_path.
	EnvDepotPath = "LOADGRAPH_DEPOT_PATH"
	// EnvProject overrides project.
	EnvProject = "LOADGRAPH_PROJECT"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the loadgraph configuration directory using platform
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// and $XDG_CONFIG_HOME (defaulting to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	return configDir(runtime.GOOS, os.LookupEnv, os.UserHomeDir)
}

func configDir(goos string, lookupEnv func(string) (string, bool), homeDir func() (string, error)) (string, error) {
	if goos == "windows" {
		if dir, ok := lookupEnv("APPDATA"); ok && dir != "" {
			return filepath.Join(dir, AppName), nil
		}
	}
	if goos != "windows" && goos != "darwin" {
		if dir, ok := lookupEnv("XDG_CONFIG_HOME"); ok && dir != "" {
			return filepath.Join(dir, AppName), nil
		}
	}

	home, err := homeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	switch goos {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", AppName), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppName), nil
	default:
		return filepath.Join(home, ".config", AppName), nil
	}
}

// loadWithOptions reads the config file (if any) over the defaults, then
// applies the environment overrides and expands "~" in path values.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load config canceled: %w", err)
	}
	opts = opts.withDefaults()

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("load_path", defaults.LoadPath)
	v.SetDefault("depot_path", defaults.DepotPath)
	v.SetDefault("project", defaults.Project)
	v.SetDefault("source_ext", defaults.SourceExt)
	v.SetDefault("hash_algorithm", string(defaults.HashAlgorithm))
	v.SetDefault("log_file", defaults.LogFile)
	v.SetDefault("verbose", defaults.Verbose)

	source, err := locateConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if source != "" {
		if err := loadCUEIntoViper(v, source); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(source).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'loadgraph config show' to see the default configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = source

	applyEnv(&cfg, opts.LookupEnv)

	home, err := opts.HomeDir()
	if err != nil {
		home = ""
	}
	for i, p := range cfg.LoadPath {
		if !strings.HasPrefix(p, environment.NamedEnvironmentPrefix) {
			cfg.LoadPath[i] = ExpandHome(p, home)
		}
	}
	for i, p := range cfg.DepotPath {
		cfg.DepotPath[i] = ExpandHome(p, home)
	}
	cfg.Project = ExpandHome(cfg.Project, home)
	cfg.LogFile = ExpandHome(cfg.LogFile, home)

	if err := cfg.HashAlgorithm.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(source).
			WithSuggestion(`Set hash_algorithm to "sha1" or "sha256"`).
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

// locateConfigFile returns the config file to read, or "" when the default
// location has none. An explicitly requested file must exist.
func locateConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'loadgraph config init' to create a default config file").
				Wrap(fmt.Errorf("config file not found: %s: %w", opts.ConfigFilePath, fs.ErrNotExist)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if p := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}
	return "", nil
}

// applyEnv overrides the path lists and project from the environment.
// Unset variables leave the configured values untouched.
func applyEnv(cfg *Config, lookupEnv func(string) (string, bool)) {
	cfg.LoadPath = ExpandDefaults(cfg.LoadPath, DefaultLoadPath())
	cfg.DepotPath = ExpandDefaults(cfg.DepotPath, DefaultDepotPath())

	if v, ok := lookupEnv(EnvLoadPath); ok {
		cfg.LoadPath = ParsePathList(v, DefaultLoadPath())
	}
	if v, ok := lookupEnv(EnvDepotPath); ok {
		cfg.DepotPath = ParsePathList(v, DefaultDepotPath())
	}
	if v, ok := lookupEnv(EnvProject); ok {
		cfg.Project = v
	}
}

// loadCUEIntoViper validates a CUE file against #Config and merges the fields
// it sets into v, leaving the defaults for the rest.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	m, err := cueutil.DecodeMap(configSchema, "#Config", data, cueutil.WithFilename(path))
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(m); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadPathSpec returns the load-path description the environment stack is
// built from.
func (c *Config) LoadPathSpec() environment.LoadPath {
	return environment.LoadPath{
		Entries:       c.LoadPath,
		ActiveProject: c.Project,
		StorageRoots:  c.DepotPath,
	}
}

// CreateDefaultConfig writes the default configuration to dir/config.cue
// unless the file already exists. It returns the file path and whether it
// was written.
func CreateDefaultConfig(dir string) (string, bool, error) {
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", false, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	p := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return p, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to create config file: %w", err)
	}
	_, werr := f.WriteString(GenerateCUE(DefaultConfig()))
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", werr)
	}
	return p, true, nil
}

// GenerateCUE renders cfg as a config file accepted by the #Config schema.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// loadgraph configuration file\n\n")
	fmt.Fprintf(&sb, "load_path: %s\n", cueList(cfg.LoadPath))
	fmt.Fprintf(&sb, "depot_path: %s\n", cueList(cfg.DepotPath))
	if cfg.Project != "" {
		fmt.Fprintf(&sb, "project: %q\n", cfg.Project)
	}
	fmt.Fprintf(&sb, "source_ext: %q\n", cfg.SourceExt)
	fmt.Fprintf(&sb, "hash_algorithm: %q\n", cfg.HashAlgorithm)
	if cfg.LogFile != "" {
		fmt.Fprintf(&sb, "log_file: %q\n", cfg.LogFile)
	}
	fmt.Fprintf(&sb, "verbose: %v\n", cfg.Verbose)

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
