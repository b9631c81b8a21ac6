// Package ucitest provides a scripted UCI engine for tests.
//
// Tests re-execute their own binary with EnvMode set; TestMain calls
// ServeIfHelper, which turns the child process into a small engine that answers
// the commands the session and evaluator use.
package ucitest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// EnvMode selects the helper behaviour of a re-executed test binary.
const EnvMode = "STATICEVAL_TEST_ENGINE"

// Helper modes.
const (
	ModeTable = "table" // well-behaved engine printing Table for "eval"
	ModeBlank = "blank" // like ModeTable, with blank lines sprinkled in responses
	ModeDie   = "die"   // exits on the first isready without answering it
	ModeJunk  = "junk"  // prints a malformed table for "eval"
)

// Banner is the first line the scripted engine prints.
const Banner = "Testfish 7 64 by the test suite"

// EngineName is reported in response to "uci".
const EngineName = "Testfish 7"

// Table is the evaluation table the scripted engine prints for "eval".
const Table = `      Eval term |    White    |    Black    |    Total
                |   MG    EG  |   MG    EG  |   MG    EG
----------------+-------------+-------------+-------------
       Material |   ---   --- |   ---   --- |  1.07  1.02
      Imbalance |   ---   --- |   ---   --- | -0.36 -0.36
          Pawns |   ---   --- |   ---   --- |  0.23  0.39
        Knights |  0.16  0.04 |  0.00  0.00 |  0.16  0.04
         Bishop | -0.12 -0.19 | -0.10 -0.22 | -0.02  0.03
          Rooks |  0.17  0.08 |  0.17  0.08 |  0.00  0.00
         Queens |  0.00  0.00 |  0.00  0.00 |  0.00  0.00
       Mobility |  0.63  1.60 |  0.59  1.39 |  0.03  0.22
    King safety |  0.74 -0.06 | -0.02 -0.12 |  0.77  0.06
        Threats |  0.31  0.31 |  0.36  0.40 | -0.05 -0.09
   Passed pawns |  0.00  0.00 |  0.00  0.00 |  0.00  0.00
          Space |  0.15  0.00 |  0.09  0.00 |  0.06  0.00
----------------+-------------+-------------+-------------
          Total |   ---   --- |   ---   --- |  1.90  1.28

Total Evaluation: 1.70 (white side)`

// TableVector is the split-mode vector Table parses to, in column order.
var TableVector = []float64{
	1.07, 1.02,
	-0.36, -0.36,
	0.23, 0.39,
	0.16, 0.04, 0.00, 0.00, 0.16, 0.04,
	-0.12, -0.19, -0.10, -0.22, -0.02, 0.03,
	0.17, 0.08, 0.17, 0.08, 0.00, 0.00,
	0.00, 0.00, 0.00, 0.00, 0.00, 0.00,
	0.63, 1.60, 0.59, 1.39, 0.03, 0.22,
	0.74, -0.06, -0.02, -0.12, 0.77, 0.06,
	0.31, 0.31, 0.36, 0.40, -0.05, -0.09,
	0.00, 0.00, 0.00, 0.00, 0.00, 0.00,
	0.15, 0.00, 0.09, 0.00, 0.06, 0.00,
	1.90, 1.28,
	1.70,
}

// Engine answers UCI commands read from in on out.
type Engine struct {
	mode     string
	out      io.Writer
	position string

	// Commands holds every non-empty command received, in order.
	Commands []string
}

// New creates a scripted engine in the given mode.
func New(mode string, out io.Writer) *Engine {
	return &Engine{mode: mode, out: out}
}

// Position returns the arguments of the last "position" command.
func (e *Engine) Position() string {
	return e.position
}

// Run reads commands until "quit" or end of input.
func (e *Engine) Run(in io.Reader) {
	e.println(Banner)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		e.Commands = append(e.Commands, line)

		parts := strings.Fields(line)
		switch parts[0] {
		case "uci":
			e.println("id name " + EngineName)
			e.println("id author test suite")
			e.blank()
			e.println("option name Hash type spin default 16 min 1 max 1024")
			e.println("uciok")
		case "isready":
			if e.mode == ModeDie {
				return
			}
			e.blank()
			e.println("readyok")
		case "setoption":
			// Echo the option so tests can see the order options arrive in.
			rest := strings.TrimPrefix(line, "setoption name ")
			name, value, _ := strings.Cut(rest, " value ")
			e.println("info string set " + name + "=" + value)
		case "ucinewgame":
		case "position":
			e.position = strings.Join(parts[1:], " ")
		case "eval":
			if e.mode == ModeJunk {
				e.println("Eval term | nothing to see here")
				continue
			}
			e.println(Table)
		case "quit":
			return
		default:
			e.println("Unknown command: " + line)
		}
	}
}

func (e *Engine) println(s string) {
	fmt.Fprintln(e.out, s)
}

func (e *Engine) blank() {
	if e.mode == ModeBlank {
		fmt.Fprintln(e.out)
	}
}

// ServeIfHelper runs the scripted engine on stdin/stdout and exits when the
// process was started as a test helper. Call it first thing in TestMain.
func ServeIfHelper() {
	mode := os.Getenv(EnvMode)
	if mode == "" {
		return
	}
	New(mode, os.Stdout).Run(os.Stdin)
	os.Exit(0)
}
