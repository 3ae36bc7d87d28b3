// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for loadgraph.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/loadgraph/loadgraph/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the loadgraph command tree over app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "loadgraph",
		Short: "Resolve package imports over layered environments",
		Long: TitleStyle.Render("loadgraph") + SubtitleStyle.Render(" - resolve package imports over layered environments") + `

loadgraph answers which unit of code an import name denotes when imported
from a given package, searching a stack of environments (projects with
manifests, plain package directories) where the first environment that
knows a name wins.

` + SubtitleStyle.Render("Environment:") + `
  LOADGRAPH_LOAD_PATH    load-path entries ("@", "@name" or a path)
  LOADGRAPH_DEPOT_PATH   storage roots holding content-addressed packages
  LOADGRAPH_PROJECT      project that "@" stands for

` + SubtitleStyle.Render("Examples:") + `
  loadgraph resolve Pub              Identity of Pub as seen from the main context
  loadgraph resolve Priv --from Pub  Identity of Priv as seen from inside Pub
  loadgraph graph                    Dependency tree of everything importable
  loadgraph env                      Environments on the load path`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&flags.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/loadgraph/config.cue)")
	pf.StringVar(&flags.project, "project", "", `project file or directory that "@" stands for`)

	root.AddCommand(
		newResolveCommand(app, flags),
		newLocateCommand(app, flags),
		newLoadCommand(app, flags),
		newEnvCommand(app, flags),
		newGraphCommand(app, flags),
		newSlugCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with its status.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// withSession runs fn with a freshly built session and reports its error.
func (a *App) withSession(ctx context.Context, flags *globalFlags, fn func(*session) error) error {
	s, err := a.newSession(ctx, flags)
	if err != nil {
		return a.report(err, flags.verbose)
	}
	defer s.close()
	return a.report(fn(s), s.cfg.Verbose)
}

// report prints remediation hints for err to stderr and returns it for
// the caller to propagate. In verbose mode the catalogued guidance for the
// failure kind is rendered as well.
func (a *App) report(err error, verbose bool) error {
	if err == nil {
		return nil
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.HasSuggestions() {
		for _, s := range ae.Suggestions {
			fmt.Fprintln(a.stderr, WarningStyle.Render("hint: ")+s)
		}
	}

	if verbose {
		if ae != nil {
			fmt.Fprintln(a.stderr, formatErrorForDisplay(err, true))
		}
		is := issue.ForError(err)
		if ae != nil && is == nil {
			is = issue.Get(issue.ConfigLoadFailedId)
		}
		if is != nil {
			if rendered, rerr := is.Render("auto"); rerr == nil {
				fmt.Fprint(a.stderr, rendered)
			}
		}
	}
	return err
}

// formatErrorForDisplay formats an error for user display, using the
// ActionableError layout when available.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
