// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/loadgraph/loadgraph/internal/config"
)

// newConfigCommand creates the `loadgraph config` command tree.
func newConfigCommand(app *App, flags *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage loadgraph configuration",
		Long: `Manage loadgraph configuration.

Configuration is stored in:
  - Linux: ~/.config/loadgraph/config.cue
  - macOS: ~/Library/Application Support/loadgraph/config.cue
  - Windows: %APPDATA%\loadgraph\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	format := newOutputFormat("text", "text", "cue", "yaml", "json")
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.report(err, flags.verbose)
			}
			return showConfig(app, cfg, format.String())
		},
	}
	addFormatFlag(show.Flags(), format)

	cfgCmd.AddCommand(
		show,
		&cobra.Command{
			Use:   "init",
			Short: "Create the default configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, created, err := config.CreateDefaultConfig("")
				if err != nil {
					return err
				}
				if !created {
					fmt.Fprintf(app.stdout, "%s %s\n", WarningStyle.Render("already exists:"), p)
					return nil
				}
				fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("created"), p)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				dir, err := config.ConfigDir()
				if err != nil {
					return err
				}
				fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
				return nil
			},
		},
	)

	return cfgCmd
}

func showConfig(app *App, cfg *config.Config, format string) error {
	switch format {
	case "cue":
		fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
		return nil
	case "yaml":
		return yaml.NewEncoder(app.stdout).Encode(cfg)
	case "json":
		enc := json.NewEncoder(app.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	source := cfg.Source
	if source == "" {
		source = SubtitleStyle.Render("(using defaults)")
	}
	list := func(items []string) string {
		if len(items) == 0 {
			return SubtitleStyle.Render("(empty)")
		}
		return strings.Join(items, string(filepath.ListSeparator))
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render("config file"), source)
	fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render("load_path"), list(cfg.LoadPath))
	fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render("depot_path"), list(cfg.DepotPath))
	fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render("project"), cfg.Project)
	fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render("source_ext"), cfg.SourceExt)
	fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render("hash_algorithm"), cfg.HashAlgorithm)
	fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render("log_file"), cfg.LogFile)
	fmt.Fprintf(app.stdout, "%s: %v\n", KeyStyle.Render("verbose"), cfg.Verbose)
	return nil
}
