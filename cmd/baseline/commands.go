package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"baseline/internal/core/app"
	"baseline/internal/core/config"
	"baseline/internal/core/ports"
	"baseline/internal/engine/lint"
	"baseline/internal/shared/version"
	"baseline/internal/ui/report"
)

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func newLintCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Lint files and directories once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			cfg, err := loadConfig(opts, args)
			if err != nil {
				return err
			}
			rt, err := newRuntime(ctx, opts, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.app.LintService().RunScan(ctx, ports.ScanRequest{Paths: rt.app.Paths.ScanPaths})
			if err != nil {
				return err
			}

			r := newReport(cfg, result)
			if err := report.Write(opts.stdout, rt.app.Paths.OutputPath, cfg.Output.Format, rt.app.Paths.ProjectRoot, r, cfg.Output.UseColor()); err != nil {
				return err
			}
			if len(result.Diagnostics) > 0 {
				return exitCode(exitDiagnostics)
			}
			return nil
		},
	}
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Lint, then re-lint files as they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			cfg, err := loadConfig(opts, args)
			if err != nil {
				return err
			}
			rt, err := newRuntime(ctx, opts, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.app.SetUpdateHandler(func(u app.Update) {
				r := report.Report{
					Tool:         "baseline",
					Version:      version.Version,
					AsOf:         rt.app.Config.Baseline.AsOf,
					Support:      rt.app.Config.Baseline.Support,
					FilesScanned: u.Files,
					Diagnostics:  u.Diagnostics,
					Failed:       u.Failed,
				}
				if len(u.Changed) > 0 {
					fmt.Fprintf(opts.stdout, "\n%s changed: %v\n", time.Now().Format("15:04:05"), u.Changed)
				}
				if err := report.Write(opts.stdout, "", "text", rt.app.Paths.ProjectRoot, r, cfg.Output.UseColor()); err != nil {
					fmt.Fprintf(opts.stderr, "render update: %v\n", err)
				}
			})
			return rt.app.Watch(ctx, rt.app.Paths.ScanPaths)
		},
	}
}

func newRulesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rule catalog with each rule's availability status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, nil)
			if err != nil {
				return err
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return err
			}
			policy, err := cfg.Policy()
			if err != nil {
				return err
			}
			linter, err := lint.New(catalog, policy)
			if err != nil {
				return err
			}

			fmt.Fprintf(opts.stdout, "Baseline %s as of %s\n\n", policy.SupportTier, policy.AsOf)
			tw := tabwriter.NewWriter(opts.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RULE\tFEATURE\tNEWLY\tWIDELY\tSTATUS\tSOURCE")
			for _, s := range linter.Status() {
				d := s.Rule.Descriptor
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					s.Rule.ID,
					s.Rule.FeatureID(),
					dateOrDash(d.NewlyAvailableDate().String()),
					dateOrDash(d.WidelyAvailableDate().String()),
					statusLabel(s),
					sourceLabel(s.Rule.Builtin),
				)
			}
			return tw.Flush()
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	var (
		limit  int
		trend  bool
		window time.Duration
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs recorded in the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(opts, nil)
			if err != nil {
				return err
			}
			cfg.History.Enabled = true
			rt, err := newRuntime(ctx, opts, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			var out []byte
			if trend {
				tr, err := rt.app.Trends(ctx, limit, window)
				if err != nil {
					return err
				}
				switch cfg.Output.Format {
				case "json":
					out, err = report.RenderTrendJSON(tr)
				default:
					out, err = report.RenderTrendTSV(tr)
				}
				if err != nil {
					return err
				}
			} else {
				runs, err := rt.app.RecentRuns(ctx, limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintf(opts.stdout, "no runs recorded for %s\n", rt.app.Paths.Project)
					return nil
				}
				if out, err = report.RenderRuns(runs); err != nil {
					return err
				}
			}
			_, err = opts.stdout.Write(out)
			return err
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().BoolVar(&trend, "trend", false, "show run-over-run deltas instead of the run list")
	cmd.Flags().DurationVar(&window, "window", 7*24*time.Hour, "moving-average window for --trend")
	return cmd
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.stdout, "baseline %s\n", version.Version)
		},
	}
}

func newReport(cfg *config.Config, result ports.ScanResult) report.Report {
	return report.Report{
		Tool:         "baseline",
		Version:      version.Version,
		AsOf:         cfg.Baseline.AsOf,
		Support:      cfg.Baseline.Support,
		RunID:        result.RunID,
		Duration:     result.Duration,
		FilesScanned: result.FilesScanned,
		Diagnostics:  result.Diagnostics,
		Failed:       result.Failed,
	}
}

func statusLabel(s lint.RuleStatus) string {
	switch {
	case !s.Decision.Enabled:
		return "disabled"
	case s.Decision.Available:
		return "available"
	default:
		return "reported"
	}
}

func sourceLabel(builtin bool) string {
	if builtin {
		return "built-in"
	}
	return "config"
}

func dateOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
