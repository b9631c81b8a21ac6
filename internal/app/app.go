// Package app wires the engine session, evaluator, cache, archive and renderer
// into the commands exposed by cmd/staticeval.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"github.com/hailam/staticeval/internal/archive"
	"github.com/hailam/staticeval/internal/chart"
	"github.com/hailam/staticeval/internal/config"
	"github.com/hailam/staticeval/internal/eval"
	"github.com/hailam/staticeval/internal/game"
	"github.com/hailam/staticeval/internal/storage"
	"github.com/hailam/staticeval/internal/uci"
)

// App owns the resources of one run.
type App struct {
	cfg  *config.Config
	log  zerolog.Logger
	mode eval.Mode

	session   *uci.Session
	cache     *storage.EvalCache
	archive   *archive.Store
	evaluator *eval.Evaluator
}

// New validates cfg, starts and initialises the engine, and opens the cache and
// archive when they are enabled.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, log: log, mode: cfg.EvalMode()}

	opts := []uci.Option{
		uci.WithLogger(log),
		uci.WithTrace(cfg.Engine.Trace),
		uci.WithArgs(cfg.Engine.Args...),
	}
	for name, value := range cfg.Engine.Options {
		opts = append(opts, uci.WithOption(name, value))
	}
	session, err := uci.Start(ctx, cfg.Engine.Path, opts...)
	if err != nil {
		return nil, err
	}
	a.session = session
	if _, err := session.Init(); err != nil {
		a.Close()
		return nil, fmt.Errorf("app: init engine: %w", err)
	}

	var cache eval.Cache
	if !cfg.Cache.Disabled {
		if a.cache, err = storage.Open(cfg.Cache.Dir); err != nil {
			a.Close()
			return nil, err
		}
		cache = a.cache
	}
	if cfg.Archive != "" {
		if a.archive, err = archive.Open(cfg.Archive); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.evaluator = eval.NewEvaluator(session, cache, log)
	return a, nil
}

// Close shuts the engine down and closes the cache and archive. Calling it
// again is a no-op.
func (a *App) Close() error {
	var errs []error
	if a.session != nil {
		errs = append(errs, a.session.Close())
		a.session = nil
	}
	if a.cache != nil {
		entries, _ := a.cache.Len()
		a.log.Debug().Float64("hit_rate", a.cache.HitRate()).Int("entries", entries).Msg("evaluation cache")
		errs = append(errs, a.cache.Close())
		a.cache = nil
	}
	if a.archive != nil {
		errs = append(errs, a.archive.Close())
		a.archive = nil
	}
	return errors.Join(errs...)
}

// forEachGame walks every game of the PGN file and hands the result to fn.
// Games without moves are skipped.
func (a *App) forEachGame(path string, fn func(game.Info, *game.Matrix) error) error {
	scanner, err := game.Open(path)
	if err != nil {
		return err
	}
	defer scanner.Close()

	for scanner.Scan() {
		g := scanner.Game()
		info, err := game.InfoOf(g)
		if err != nil {
			return err
		}
		log := a.log.With().Str("game", info.ID()).Logger()
		log.Info().Int("plies", len(g.Moves())).Msg("evaluating")

		if err := a.session.NewGame(); err != nil {
			return err
		}
		m, err := game.Walk(g, a.evaluator, a.mode, func(ply int, label string) {
			log.Debug().Int("ply", ply).Str("move", label).Msg("evaluated")
		})
		if errors.Is(err, game.ErrNoMoves) {
			log.Warn().Msg("game has no moves, skipping")
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", info.ID(), err)
		}

		if a.archive != nil {
			id, err := a.archive.SaveGame(info, a.session.Name(), m)
			if err != nil {
				return err
			}
			log.Debug().Str("archive_id", id).Msg("archived")
		}
		if err := fn(info, m); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Plot renders one chart file per game in the PGN file and returns the paths
// written.
func (a *App) Plot(path string) ([]string, error) {
	renderer := chart.NewRenderer(a.cfg.Output.Dir, a.cfg.Format())

	var written []string
	err := a.forEachGame(path, func(info game.Info, m *game.Matrix) error {
		out, err := renderer.Render(info, m)
		if err != nil {
			return fmt.Errorf("%s: %w", info.ID(), err)
		}
		a.log.Info().Str("file", out).Msg("chart written")
		written = append(written, out)
		return nil
	})
	return written, err
}

// Print writes, for every game, its tags and one line per ply with the
// selected columns.
func (a *App) Print(path string, fields []string, w io.Writer) error {
	header := eval.HeaderFor(a.mode)
	for _, f := range fields {
		if eval.Index(header, f) < 0 {
			return fmt.Errorf("app: unknown column %q for %s mode", f, a.mode)
		}
	}

	return a.forEachGame(path, func(info game.Info, m *game.Matrix) error {
		return WriteListing(w, info, m, fields)
	})
}

// WriteListing prints a game's tags, a header line and one line per ply.
func WriteListing(w io.Writer, info game.Info, m *game.Matrix, fields []string) error {
	if m.Len() == 0 {
		return game.ErrNoMoves
	}
	cols := make([][]float64, len(fields))
	for i, f := range fields {
		col, err := m.Column(f)
		if err != nil {
			return err
		}
		cols[i] = col
	}

	fmt.Fprintf(w, "[Event %q] [White %q] [Black %q] [Date %q] [Result %q]\n",
		info.Event, info.White, info.Black, info.Date, info.Result)
	fmt.Fprintln(w, "Move "+strings.Join(fields, " "))
	for ply, row := range m.Rows {
		fmt.Fprintf(w, "%-15s", row.Label)
		for _, col := range cols {
			fmt.Fprintf(w, " %.2f", col[ply])
		}
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprintln(w, m.Rows[len(m.Rows)-1].Label)
	return err
}

// EvalFEN evaluates a single position and prints one "column: value" line per
// column.
func (a *App) EvalFEN(fen string, w io.Writer) error {
	if _, err := chess.FEN(fen); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	v, err := a.evaluator.Evaluate(eval.Position{FEN: fen}, a.mode)
	if err != nil {
		return err
	}
	for i, name := range eval.HeaderFor(a.mode) {
		fmt.Fprintf(w, "%-24s %6.2f\n", name+":", v[i])
	}
	return nil
}

// History lists the games recorded in the archive at path. It does not need
// an engine.
func History(path string, w io.Writer) error {
	if path == "" {
		return errors.New("app: no archive configured")
	}
	store, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.Games()
	if err != nil {
		return err
	}
	for _, g := range games {
		fmt.Fprintf(w, "%s  %s  %-40s %-7s %-5s %3d plies  %s\n",
			g.CreatedAt.Format("2006-01-02 15:04"), g.ID, g.Info.ID(), g.Info.Result, g.Mode, g.Plies, g.Engine)
	}
	return nil
}

// HistoryColumn prints one archived column of the game with the given id, one
// "ply value" line per ply.
func HistoryColumn(path, gameID, column string, w io.Writer) error {
	if path == "" {
		return errors.New("app: no archive configured")
	}
	store, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	values, err := store.Column(gameID, column)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("app: no %q scores archived for game %s", column, gameID)
	}
	for i, v := range values {
		fmt.Fprintf(w, "%4d %6.2f\n", i+1, v)
	}
	return nil
}
