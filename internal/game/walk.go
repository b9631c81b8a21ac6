package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"

	"github.com/hailam/staticeval/internal/eval"
)

// ErrNoMoves is returned when a game has no moves to evaluate.
var ErrNoMoves = errors.New("game: no moves")

// Evaluator evaluates a position in the given mode.
type Evaluator interface {
	Evaluate(pos eval.Position, m eval.Mode) (eval.Vector, error)
}

// Row is the evaluation after one ply.
type Row struct {
	Label  string // e.g. "12. Nf3" or "12. ... Nf6"
	Scores eval.Vector
}

// Matrix holds one row per ply of a game, in move order.
type Matrix struct {
	Mode   eval.Mode
	Header []string
	Rows   []Row
}

// Len returns the number of plies.
func (m *Matrix) Len() int {
	return len(m.Rows)
}

// Labels returns the move labels in ply order.
func (m *Matrix) Labels() []string {
	labels := make([]string, len(m.Rows))
	for i, r := range m.Rows {
		labels[i] = r.Label
	}
	return labels
}

// Column returns the scores of the named column in ply order.
func (m *Matrix) Column(name string) ([]float64, error) {
	idx := eval.Index(m.Header, name)
	if idx < 0 {
		return nil, fmt.Errorf("game: no column %q in %s matrix", name, m.Mode)
	}
	col := make([]float64, len(m.Rows))
	for i, r := range m.Rows {
		col[i] = r.Scores[idx]
	}
	return col, nil
}

// Progress is called after each evaluated ply.
type Progress func(ply int, label string)

// Walk evaluates every ply of the mainline of g.
func Walk(g *chess.Game, ev Evaluator, mode eval.Mode, progress Progress) (*Matrix, error) {
	moves := g.Moves()
	if len(moves) == 0 {
		return nil, ErrNoMoves
	}
	positions := g.Positions()

	// Games set up from a FEN tag are replayed from that position.
	var startFEN string
	if tag(g, "FEN") != "" {
		startFEN = positions[0].String()
	}

	m := &Matrix{
		Mode:   mode,
		Header: eval.HeaderFor(mode),
		Rows:   make([]Row, 0, len(moves)),
	}
	uciMoves := make([]string, 0, len(moves))
	for i, move := range moves {
		pos := positions[i]
		label := MoveLabel(pos, move)
		uciMoves = append(uciMoves, chess.UCINotation{}.Encode(pos, move))

		scores, err := ev.Evaluate(eval.Position{FEN: startFEN, Moves: uciMoves}, mode)
		if err != nil {
			return nil, fmt.Errorf("game: ply %d (%s): %w", i+1, label, err)
		}
		m.Rows = append(m.Rows, Row{Label: label, Scores: scores})
		if progress != nil {
			progress(i+1, label)
		}
	}
	return m, nil
}

// MoveLabel formats a move played from pos as "<n>. <SAN>" for White and
// "<n>. ... <SAN>" for Black.
func MoveLabel(pos *chess.Position, move *chess.Move) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(fullMoveNumber(pos)))
	sb.WriteString(". ")
	if pos.Turn() == chess.Black {
		sb.WriteString("... ")
	}
	sb.WriteString(chess.AlgebraicNotation{}.Encode(pos, move))
	return sb.String()
}

// fullMoveNumber reads the move counter from the FEN of pos.
func fullMoveNumber(pos *chess.Position) int {
	fields := strings.Fields(pos.String())
	if len(fields) < 6 {
		return 1
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
