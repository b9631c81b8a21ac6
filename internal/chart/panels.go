// Package chart renders evaluation matrices as stacked line charts, one panel
// per evaluation term.
package chart

import (
	"strings"

	"github.com/hailam/staticeval/internal/eval"
)

// Panel is one sub-chart: a title and the matrix columns it plots.
type Panel struct {
	Title   string
	Columns []string
}

// panelOrder is the top-to-bottom order of the panels.
var panelOrder = []string{
	"Total", "Material", "Imbalance", "Pawns",
	"Knights", "Bishops", "Rooks", "Queens",
	"King Safety", "Space", "Mobility", "Threats", "Passed Pawns",
}

// PanelsFor returns the panels to draw for matrices built in mode m.
func PanelsFor(m eval.Mode) []Panel {
	sided := make(map[string]bool, len(eval.Terms))
	for _, t := range eval.Terms {
		sided[t.Name] = t.Sided
	}

	panels := make([]Panel, 0, len(panelOrder))
	for _, name := range panelOrder {
		p := Panel{Title: name}
		switch {
		case name == "Total":
			p.Columns = []string{eval.Total}
		case !sided[name] && m == eval.Blend:
			p.Columns = []string{name + " Total"}
		case !sided[name]:
			p.Columns = []string{name + " Total MG", name + " Total EG"}
		case m == eval.Blend:
			p.Columns = []string{name + " White", name + " Black"}
		default:
			p.Columns = []string{
				name + " White MG", name + " White EG",
				name + " Black MG", name + " Black EG",
			}
		}
		panels = append(panels, p)
	}
	return panels
}

// Side is the colour a column belongs to.
type Side int

const (
	Neutral Side = iota
	White
	Black
)

// SideOf classifies a column by the side it scores.
func SideOf(column string) Side {
	switch {
	case strings.Contains(column, "Black"):
		return Black
	case strings.Contains(column, "White"):
		return White
	}
	return Neutral
}

// Dotted reports whether a column is drawn with a dotted line. Endgame columns
// are dotted everywhere except in the Total panel.
func Dotted(panel, column string) bool {
	return panel != "Total" && strings.HasSuffix(column, " EG")
}
