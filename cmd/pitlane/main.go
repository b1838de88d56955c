// Package main provides the pitlane CLI entry point.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags version, then the module version recorded
// by go install, then "dev".
func resolveVersion(ldflagsVersion string, bi *debug.BuildInfo) string {
	if ldflagsVersion != "dev" {
		return ldflagsVersion
	}
	if bi == nil || bi.Main.Version == "" || bi.Main.Version == "(devel)" {
		return "dev"
	}
	return bi.Main.Version
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	logFormat string
	logLevel  string
}

// newRootCmd creates the root command for pitlane CLI.
func newRootCmd() *cobra.Command {
	bi, _ := debug.ReadBuildInfo()
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:          "pitlane",
		Short:        "Upcoming motorsport sessions from every series in one timeline",
		Long:         "Pitlane aggregates race calendars from several public motorsport data providers into one chronological schedule.",
		Version:      resolveVersion(version, bi),
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate("pitlane version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: text or json (default from config)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")

	rootCmd.AddCommand(newScheduleCmd(flags))
	rootCmd.AddCommand(newSeriesCmd(flags))
	rootCmd.AddCommand(newStarCmd(flags, true))
	rootCmd.AddCommand(newStarCmd(flags, false))
	rootCmd.AddCommand(newServeCmd(flags))
	rootCmd.AddCommand(newConfigCmd(flags))

	return rootCmd
}

// newConfigCmd creates the config subcommand.
func newConfigCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
		Long:  "Show the configuration directory and the settings pitlane resolved from it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(flags)
			if err != nil {
				return err
			}
			cfg := env.cfg
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Config directory: %s\n", env.dir)
			season := "current year"
			if cfg.Season != 0 {
				season = fmt.Sprint(cfg.Season)
			}
			fmt.Fprintf(out, "Season: %s\n", season)
			fmt.Fprintf(out, "Timeout: %s\n", cfg.Timeout)
			fmt.Fprintf(out, "Timezone: %s\n", env.loc)
			fmt.Fprintf(out, "Log: %s (%s)\n", cfg.Log.Level, cfg.Log.Format)
			fmt.Fprintf(out, "Server address: %s\n", cfg.Server.Addr)
			fmt.Fprintln(out, "Providers:")
			for _, t := range buildTargets(cfg, env.loc, env.logger) {
				fmt.Fprintf(out, "  %s\n", t.Label())
			}
			return nil
		},
	}
}
