package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hailam/staticeval/internal/app"
	"github.com/hailam/staticeval/internal/config"
)

// defaultConfigFile is loaded from the working directory when --config is not given.
const defaultConfigFile = "staticeval.hcl"

// version is set with -ldflags "-X main.version=...".
var version = "dev"

type flags struct {
	config   string
	engine   string
	out      string
	format   string
	mode     string
	archive  string
	logLevel string
	trace    bool
	noCache  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	if err := newRootCmd(&log).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("staticeval failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd(log *zerolog.Logger) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "staticeval",
		Short:         "Chart a chess engine's static evaluation over the moves of PGN games",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	f.bind(root.PersistentFlags())

	// load resolves the configuration and applies it to the logger.
	load := func(cmd *cobra.Command) (*config.Config, error) {
		cfg, err := f.resolve(cmd)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		*log = log.Level(cfg.Level())
		return cfg, nil
	}

	input := func(cfg *config.Config, args []string) (string, error) {
		if len(args) > 0 {
			return args[0], nil
		}
		if cfg.Input == "" {
			return "", errors.New("no PGN file given")
		}
		return cfg.Input, nil
	}

	plot := &cobra.Command{
		Use:   "plot [pgn]",
		Short: "Render one chart file per game",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			path, err := input(cfg, args)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, *log)
			if err != nil {
				return err
			}
			defer a.Close()

			written, err := a.Plot(path)
			if err != nil {
				return err
			}
			log.Info().Int("games", len(written)).Str("dir", cfg.Output.Dir).Msg("charts written")
			return a.Close()
		},
	}

	var fields []string
	printCmd := &cobra.Command{
		Use:   "print [pgn]",
		Short: "Print selected evaluation columns for every move",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			path, err := input(cfg, args)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, *log)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Print(path, fields, cmd.OutOrStdout()); err != nil {
				return err
			}
			return a.Close()
		},
	}
	printCmd.Flags().StringSliceVar(&fields, "fields", []string{"Total"}, "columns to print")

	fen := &cobra.Command{
		Use:   "fen <FEN>",
		Short: "Print the full evaluation vector of one position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, *log)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.EvalFEN(args[0], cmd.OutOrStdout()); err != nil {
				return err
			}
			return a.Close()
		},
	}

	var gameID, column string
	history := &cobra.Command{
		Use:   "history",
		Short: "List the games recorded in the archive, or one column of a game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if gameID != "" {
				return app.HistoryColumn(cfg.Archive, gameID, column, cmd.OutOrStdout())
			}
			return app.History(cfg.Archive, cmd.OutOrStdout())
		},
	}
	history.Flags().StringVar(&gameID, "game", "", "archived game id")
	history.Flags().StringVar(&column, "column", "Total", "column printed with --game")

	root.AddCommand(plot, printCmd, fen, history)
	return root
}

// bind registers the flags shared by every command.
func (f *flags) bind(pf *pflag.FlagSet) {
	pf.StringVarP(&f.config, "config", "c", "", "HCL config file (default ./"+defaultConfigFile+" if present)")
	pf.StringVarP(&f.engine, "engine", "e", "", "engine executable")
	pf.StringVarP(&f.out, "out", "o", "", "output directory for charts")
	pf.StringVar(&f.format, "format", "", "chart format: html or png")
	pf.StringVarP(&f.mode, "mode", "m", "", "evaluation mode: split or blend")
	pf.StringVar(&f.archive, "archive", "", "SQLite file recording every evaluated game")
	pf.StringVar(&f.logLevel, "log-level", "", "log level")
	pf.BoolVar(&f.trace, "trace", false, "log every line exchanged with the engine")
	pf.BoolVar(&f.noCache, "no-cache", false, "do not use the evaluation cache")
}

// resolve loads the config file and applies the flags that were set.
func (f *flags) resolve(cmd *cobra.Command) (*config.Config, error) {
	path := f.config
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	set := cmd.Flags().Changed
	if set("engine") {
		cfg.Engine.Path = f.engine
	}
	if set("out") {
		cfg.Output.Dir = f.out
	}
	if set("format") {
		cfg.Output.Format = f.format
	}
	if set("mode") {
		cfg.Mode = f.mode
	}
	if set("archive") {
		cfg.Archive = f.archive
	}
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if set("trace") {
		cfg.Engine.Trace = f.trace
	}
	if set("no-cache") {
		cfg.Cache.Disabled = f.noCache
	}
	return cfg, nil
}
