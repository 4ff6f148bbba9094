package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/alinski29/stonks/internal/config"
	"github.com/alinski29/stonks/internal/store"
)

// app carries what every subcommand shares: the parsed global flags and
// the configuration loaded in PersistentPreRunE.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	cfg        config.Config
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	rc := &cobra.Command{
		Use:   "stonks",
		Short: "Market data fetcher with atomic on-disk stores",
		Long: `stonks fetches market data (daily prices, asset profiles, exchange
rates) from public providers and keeps partitioned on-disk stores up to
date, fetching only the date ranges each series is missing.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			setupLogging(stderr, a.effectiveLogLevel(), a.logFormat)
			return nil
		},
	}

	pf := rc.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "configuration file (default $STONKS_CONFIG)")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "text", "text or json")

	rc.AddCommand(newFetchCommand(stdout, a))
	rc.AddCommand(newUpdateCommand(a))
	rc.AddCommand(newShowCommand(stdout, a))
	rc.AddCommand(newServeCommand(stderr, a))

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

func (a *app) effectiveLogLevel() string {
	if a.logLevel != "" {
		return a.logLevel
	}
	return a.cfg.LogLevel
}

// storeFor resolves the configured store handle for a record type name.
func (a *app) storeFor(typeName string) (*store.Descriptor, error) {
	stores, err := a.cfg.Descriptors()
	if err != nil {
		return nil, err
	}
	st, ok := stores[typeName]
	if !ok {
		return nil, fmt.Errorf("no store configured for record type %q", typeName)
	}
	return st, nil
}

// setupLogging configures the default logger. Logs go to stderr so stdout
// stays clean for table and CSV output.
func setupLogging(w io.Writer, level, format string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = tint.NewHandler(w, &tint.Options{Level: lvl, TimeFormat: time.Kitchen})
	}
	slog.SetDefault(slog.New(handler))
}
