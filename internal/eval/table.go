package eval

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTable is returned when engine output does not have the expected
// evaluation table layout.
var ErrMalformedTable = errors.New("eval: malformed evaluation table")

// Vector is one row of scores in Header or BlendedHeader order.
type Vector []float64

// Table layout, as offsets from the "Eval term" header line:
//
//	0        Eval term |    White    |    Black    |    Total
//	1                  |   MG    EG  |   MG    EG  |   MG    EG
//	2  ----------------+-------------+-------------+-------------
//	3         Material |   ---   --- |   ---   --- |  1.07  1.02
//	...
//	14           Space |  0.15  0.00 |  0.09  0.00 |  0.06  0.00
//	15 ----------------+-------------+-------------+-------------
//	16           Total |   ---   --- |   ---   --- |  1.90  1.28
//	17
//	18 Total Evaluation: 1.70 (white side)
const (
	headerMarker  = "Eval term"
	firstTermRow  = 3
	totalsRow     = firstTermRow + 13
	totalEvalHead = "Total Evaluation:"
)

// ParseTable extracts the Split vector from the lines printed by "eval".
func ParseTable(lines []string) (Vector, error) {
	start := -1
	for i, line := range lines {
		if strings.Contains(line, headerMarker) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: no %q header", ErrMalformedTable, headerMarker)
	}
	if len(lines) < start+totalsRow+1 {
		return nil, fmt.Errorf("%w: %d lines after header, want at least %d",
			ErrMalformedTable, len(lines)-start, totalsRow+1)
	}

	v := make(Vector, 0, len(Header))
	for i, term := range Terms {
		row := lines[start+firstTermRow+i]
		cells, err := splitRow(row, term.Label)
		if err != nil {
			return nil, err
		}
		if term.Sided {
			for _, cell := range cells[1:3] {
				if v, err = appendPair(v, cell, row); err != nil {
					return nil, err
				}
			}
		}
		if v, err = appendPair(v, cells[3], row); err != nil {
			return nil, err
		}
	}

	row := lines[start+totalsRow]
	cells, err := splitRow(row, "Total")
	if err != nil {
		return nil, err
	}
	if v, err = appendPair(v, cells[3], row); err != nil {
		return nil, err
	}

	total, err := parseTotalEvaluation(lines[start+totalsRow+1:])
	if err != nil {
		return nil, err
	}
	return append(v, total), nil
}

// splitRow splits a table row into its four "|" separated cells and checks the
// row label.
func splitRow(row, label string) ([]string, error) {
	cells := strings.Split(row, "|")
	if len(cells) != 4 {
		return nil, fmt.Errorf("%w: row %q has %d cells, want 4", ErrMalformedTable, row, len(cells))
	}
	got := strings.TrimSpace(cells[0])
	if !strings.HasPrefix(strings.ToLower(got), strings.ToLower(label)) {
		return nil, fmt.Errorf("%w: row %q, want label %q", ErrMalformedTable, got, label)
	}
	return cells, nil
}

// appendPair parses an "MG EG" cell.
func appendPair(v Vector, cell, row string) (Vector, error) {
	fields := strings.Fields(cell)
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: cell %q in row %q has %d values, want 2",
			ErrMalformedTable, cell, row, len(fields))
	}
	for _, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %q: %v", ErrMalformedTable, row, err)
		}
		v = append(v, x)
	}
	return v, nil
}

func parseTotalEvaluation(lines []string) (float64, error) {
	for _, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), totalEvalHead)
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			break
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrMalformedTable, line, err)
		}
		return x, nil
	}
	return 0, fmt.Errorf("%w: no %q line", ErrMalformedTable, totalEvalHead)
}
