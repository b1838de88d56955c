package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
	"github.com/gauthierbraillon/pitlane/internal/catalog"
	"github.com/gauthierbraillon/pitlane/internal/display"
	"github.com/gauthierbraillon/pitlane/internal/starred"
	"github.com/gauthierbraillon/pitlane/pkg/browser"
	"github.com/gauthierbraillon/pitlane/pkg/prefs"
)

// newScheduleCmd creates the schedule subcommand.
func newScheduleCmd(flags *globalFlags) *cobra.Command {
	var series []string
	var onlyStarred bool
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Display upcoming sessions",
		Long:  "Display upcoming sessions from every configured provider in chronological order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(flags)
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("invalid limit %d: must not be negative", limit)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			set, err := env.starredSet()
			if err != nil {
				return err
			}

			schedule, err := env.newAggregator(nil).FetchSchedule(ctx)
			formatter := display.NewTerminalFormatter(display.WithLocation(env.loc))
			if err != nil {
				return reportScheduleError(cmd, formatter, err)
			}
			fmt.Fprint(cmd.ErrOrStderr(), formatter.FormatFailures(schedule.Failures))

			events := starred.Mark(schedule.Events, set)
			if onlyStarred {
				events = starred.Starred(events, set)
			}
			events = aggregator.Filter(events, aggregator.Options{Limit: limit, Series: resolveCodes(series)})

			if asJSON {
				out := *schedule
				out.Events = events
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSchedule(events))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&series, "series", "s", nil, "Filter by series code or name (repeatable, comma separated)")
	cmd.Flags().BoolVar(&onlyStarred, "starred", false, "Only show starred series")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of events to display (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the schedule as JSON")

	return cmd
}

// reportScheduleError tells "providers are down" apart from "nothing is scheduled".
func reportScheduleError(cmd *cobra.Command, formatter *display.TerminalFormatter, err error) error {
	var aggErr *aggregator.AggregateError
	if !errors.As(err, &aggErr) {
		return err
	}
	fmt.Fprint(cmd.ErrOrStderr(), formatter.FormatFailures(aggErr.Failures))
	if aggErr.Transient() {
		return errors.New("schedule unavailable: every provider failed, try again later")
	}
	if len(aggErr.Failures) == 0 {
		return errors.New("no providers configured (see 'pitlane config')")
	}
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSchedule(nil))
	return nil
}

// resolveCodes maps user input to catalog codes, keeping unknown input as typed.
func resolveCodes(inputs []string) []string {
	var codes []string
	for _, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		if code, ok := catalog.Resolve(in); ok {
			in = code
		}
		codes = append(codes, in)
	}
	return codes
}

// newSeriesCmd creates the series subcommand.
func newSeriesCmd(flags *globalFlags) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "series [code]",
		Short: "List series or show one series",
		Long:  "Without arguments, list every known series grouped by category. With a series code or name, show its details and next event.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(flags)
			if err != nil {
				return err
			}
			set, err := env.starredSet()
			if err != nil {
				return err
			}
			formatter := display.NewTerminalFormatter(display.WithLocation(env.loc))

			if len(args) == 0 {
				if open {
					return errors.New("--open needs a series code")
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCatalog(set))
				return nil
			}

			code, ok := catalog.Resolve(args[0])
			if !ok {
				return fmt.Errorf("unknown series %q (run 'pitlane series' for the list)", args[0])
			}
			d, _ := catalog.Lookup(code)

			if open {
				if err := browser.Open(d.Link); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Could not open browser. Please visit:\n%s\n", d.Link)
				}
				return nil
			}

			var next *aggregator.Event
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			schedule, err := env.newAggregator(nil).FetchSchedule(ctx)
			if err != nil {
				env.logger.Debug("no schedule for series view", "error", err)
			} else if e, found := starred.Next(schedule.Events, code); found {
				next = &e
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSeries(d, next, set.Contains(code)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the series website in the browser")

	return cmd
}

// newStarCmd creates the star subcommand, or unstar when add is false.
func newStarCmd(flags *globalFlags, add bool) *cobra.Command {
	use, short := "star <code>", "Star a series"
	if !add {
		use, short = "unstar <code>", "Unstar a series"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(flags)
			if err != nil {
				return err
			}
			code, ok := catalog.Resolve(args[0])
			if !ok {
				return fmt.Errorf("unknown series %q (run 'pitlane series' for the list)", args[0])
			}

			p, err := env.store.LoadOrEmpty()
			if err != nil {
				return err
			}
			set := starred.NewSet(p.Starred...)
			if add {
				set.Add(code)
			} else {
				set.Remove(code)
			}
			if err := env.store.Save(&prefs.Preferences{Starred: set.Codes()}); err != nil {
				return fmt.Errorf("failed to save preferences: %w", err)
			}

			verb := "Starred"
			if !add {
				verb = "Unstarred"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", verb, catalog.Label(code), code)
			return nil
		},
	}
}
