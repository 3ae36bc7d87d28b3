// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/viant/afs"

	"github.com/loadgraph/loadgraph/internal/config"
	"github.com/loadgraph/loadgraph/internal/loader"
	"github.com/loadgraph/loadgraph/pkg/environment"
	"github.com/loadgraph/loadgraph/pkg/resolver"
	"github.com/loadgraph/loadgraph/pkg/vfs"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every command handler receives an App and builds
	// a session from it.
	App struct {
		Config    ConfigProvider
		FS        vfs.FS
		lookupEnv func(string) (string, bool)
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		FS        vfs.FS
		LookupEnv func(string) (string, bool)
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// globalFlags are the persistent flags shared by every command.
	globalFlags struct {
		verbose    bool
		configFile string
		project    string
	}

	// session is the per-invocation state: effective configuration, logger,
	// environment stack and a resolver over it.
	session struct {
		cfg      *config.Config
		logger   *log.Logger
		stack    *environment.Stack
		resolver *resolver.Resolver
		closeLog func() error
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:    deps.Config,
		FS:        deps.FS,
		lookupEnv: deps.LookupEnv,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.FS == nil {
		app.FS = vfs.NewAFS(afs.New())
	}
	if app.lookupEnv == nil {
		app.lookupEnv = os.LookupEnv
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

func (a *App) loadConfig(ctx context.Context, flags *globalFlags) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configFile,
		LookupEnv:      a.lookupEnv,
	})
	if err != nil {
		return nil, err
	}
	if flags.project != "" {
		cfg.Project = flags.project
	}
	if flags.verbose {
		cfg.Verbose = true
	}
	absolutize(cfg)
	return cfg, nil
}

// newSession loads the configuration and builds the environment stack and
// resolver it describes.
func (a *App) newSession(ctx context.Context, flags *globalFlags) (*session, error) {
	cfg, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}

	logger, closeLog := newLogger(a.stderr, cfg.Verbose, cfg.LogFile)
	s := &session{cfg: cfg, logger: logger, closeLog: closeLog}

	hash, err := cfg.HashAlgorithm.Func()
	if err != nil {
		s.close()
		return nil, err
	}

	s.stack, err = cfg.LoadPathSpec().Build(ctx, a.FS,
		environment.WithLogger(logger),
		environment.WithSourceExt(cfg.SourceExt),
	)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("build environment stack: %w", err)
	}
	logger.Debug("environment stack ready", "environments", s.stack.Len(), "depots", len(cfg.DepotPath))

	ld := loader.New(a.FS, loader.WithHash(hash), loader.WithLogger(logger))
	s.resolver = resolver.New(s.stack, ld, resolver.WithLogger(logger))
	ld.SetImporter(s.resolver)
	return s, nil
}

func (s *session) close() {
	if s.closeLog != nil {
		_ = s.closeLog()
	}
}

// absolutize makes local paths absolute so they stay valid whatever the
// filesystem backend considers its working directory.
func absolutize(cfg *config.Config) {
	abs := func(p string) string {
		if p == "" || strings.Contains(p, "://") {
			return p
		}
		if a, err := filepath.Abs(p); err == nil {
			return a
		}
		return p
	}
	for i, e := range cfg.LoadPath {
		if !strings.HasPrefix(e, environment.NamedEnvironmentPrefix) {
			cfg.LoadPath[i] = abs(e)
		}
	}
	for i, d := range cfg.DepotPath {
		cfg.DepotPath[i] = abs(d)
	}
	cfg.Project = abs(cfg.Project)
}
