package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"baseline/internal/core/config"
	"baseline/internal/shared/version"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	asOf       string
	support    string
	format     string
	output     string
	verbose    bool
	logFormat  string
	history    bool

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "baseline",
		Short: "Report JavaScript and TypeScript features that are not yet Baseline available",
		Long: `baseline finds usages of web platform features in JavaScript and TypeScript
sources and reports those that are not Baseline "newly" or "widely" available
as of a given date.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config file (default ./"+config.DefaultFile+" when present)")
	flags.StringVar(&opts.asOf, "as-of", "", "evaluate availability as of this date (YYYY-MM-DD)")
	flags.StringVar(&opts.support, "support", "", "required Baseline tier: newly or widely")
	flags.StringVar(&opts.format, "format", "", "output format: text, json, sarif or tsv")
	flags.StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	flags.BoolVar(&opts.history, "history", false, "record the run in the history database")

	root.AddCommand(
		newLintCmd(opts),
		newWatchCmd(opts),
		newRulesCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

func setupLogging(opts *options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(opts.logFormat) {
	case "", "text":
		handler = slog.NewTextHandler(opts.stderr, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(opts.stderr, handlerOpts)
	default:
		return fmt.Errorf("unknown log format %q", opts.logFormat)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig reads the config file and applies flag overrides on top of
// the file and environment.
func loadConfig(opts *options, args []string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.asOf != "" {
		cfg.Baseline.AsOf = opts.asOf
	}
	if opts.support != "" {
		cfg.Baseline.Support = strings.ToLower(opts.support)
	}
	if opts.format != "" {
		cfg.Output.Format = strings.ToLower(opts.format)
	}
	if opts.output != "" {
		cfg.Output.Path = opts.output
	}
	if opts.history {
		cfg.History.Enabled = true
	}
	if len(args) > 0 {
		cfg.Scan.Paths = append([]string(nil), args...)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
