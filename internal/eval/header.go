// Package eval turns the engine's static evaluation table into score vectors.
package eval

import (
	"fmt"
	"strings"
)

// Mode selects how midgame and endgame values are reported.
type Mode int

const (
	// Split keeps separate MG and EG values for every term.
	Split Mode = iota
	// Blend collapses every MG/EG pair into one phase-interpolated value.
	Blend
)

// String returns the config/flag spelling of the mode.
func (m Mode) String() string {
	switch m {
	case Split:
		return "split"
	case Blend:
		return "blend"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "split" or "blend".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "split", "mg eg", "mgeg", "":
		return Split, nil
	case "blend", "xg":
		return Blend, nil
	}
	return Split, fmt.Errorf("eval: unknown mode %q", s)
}

// Term is one row of the evaluation table.
type Term struct {
	Name  string
	Label string // row label printed by the engine
	Sided bool   // has White and Black columns
}

// Terms lists the table rows in the order they are printed and reported.
var Terms = []Term{
	{Name: "Material", Label: "Material"},
	{Name: "Imbalance", Label: "Imbalance"},
	{Name: "Pawns", Label: "Pawns"},
	{Name: "Knights", Label: "Knight", Sided: true},
	{Name: "Bishops", Label: "Bishop", Sided: true},
	{Name: "Rooks", Label: "Rook", Sided: true},
	{Name: "Queens", Label: "Queen", Sided: true},
	{Name: "Mobility", Label: "Mobility", Sided: true},
	{Name: "King Safety", Label: "King safety", Sided: true},
	{Name: "Threats", Label: "Threat", Sided: true},
	{Name: "Passed Pawns", Label: "Passed", Sided: true},
	{Name: "Space", Label: "Space", Sided: true},
}

// Column names of the totals.
const (
	TotalMG = "Total MG"
	TotalEG = "Total EG"
	Total   = "Total"
)

// Header is the column order of a Split vector.
var Header = buildHeader()

// BlendedHeader is the column order of a Blend vector.
var BlendedHeader = buildBlendedHeader()

func buildHeader() []string {
	var h []string
	for _, t := range Terms {
		if t.Sided {
			for _, side := range []string{"White", "Black"} {
				h = append(h, t.Name+" "+side+" MG", t.Name+" "+side+" EG")
			}
		}
		h = append(h, t.Name+" Total MG", t.Name+" Total EG")
	}
	return append(h, TotalMG, TotalEG, Total)
}

func buildBlendedHeader() []string {
	var h []string
	for _, t := range Terms {
		if t.Sided {
			h = append(h, t.Name+" White", t.Name+" Black")
		}
		h = append(h, t.Name+" Total")
	}
	return append(h, Total)
}

// HeaderFor returns the column names of vectors produced in mode m.
func HeaderFor(m Mode) []string {
	if m == Blend {
		return BlendedHeader
	}
	return Header
}

// Index returns the position of a column name in header, or -1.
func Index(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
