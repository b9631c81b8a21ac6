package eval

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Position describes what the engine should evaluate: either the start position
// or a FEN, optionally followed by moves in UCI notation.
type Position struct {
	FEN   string
	Moves []string
}

// Command returns the "position" command for p.
func (p Position) Command() string {
	var sb strings.Builder
	if p.FEN == "" {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(p.FEN)
	}
	if len(p.Moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(p.Moves, " "))
	}
	return sb.String()
}

// Engine is the part of a uci.Session the evaluator needs.
type Engine interface {
	Exec(command string) ([]string, error)
	Name() string
}

// Cache stores Split vectors by key.
type Cache interface {
	Get(key string) (Vector, bool, error)
	Put(key string, v Vector) error
}

// Evaluator asks an engine for static evaluations.
type Evaluator struct {
	engine Engine
	cache  Cache
	log    zerolog.Logger
}

// NewEvaluator creates an evaluator on top of a running engine. cache may be nil.
func NewEvaluator(engine Engine, cache Cache, log zerolog.Logger) *Evaluator {
	return &Evaluator{engine: engine, cache: cache, log: log}
}

// Evaluate sets up pos on the engine and returns its static evaluation in mode m.
func (e *Evaluator) Evaluate(pos Position, m Mode) (Vector, error) {
	v, err := e.split(pos)
	if err != nil {
		return nil, err
	}
	if m == Blend {
		return Collapse(v), nil
	}
	return v, nil
}

func (e *Evaluator) split(pos Position) (Vector, error) {
	command := pos.Command()
	key := e.engine.Name() + "\x00" + command

	if e.cache != nil {
		v, ok, err := e.cache.Get(key)
		if err != nil {
			e.log.Warn().Err(err).Msg("cache lookup failed")
		} else if ok && len(v) == len(Header) {
			return v, nil
		}
	}

	// The position command prints nothing we need.
	if _, err := e.engine.Exec(command); err != nil {
		return nil, fmt.Errorf("eval: %s: %w", command, err)
	}
	lines, err := e.engine.Exec("eval")
	if err != nil {
		return nil, fmt.Errorf("eval: eval: %w", err)
	}
	v, err := ParseTable(lines)
	if err != nil {
		return nil, fmt.Errorf("eval: %s: %w", command, err)
	}

	if e.cache != nil {
		if err := e.cache.Put(key, v); err != nil {
			e.log.Warn().Err(err).Msg("cache store failed")
		}
	}
	return v, nil
}
