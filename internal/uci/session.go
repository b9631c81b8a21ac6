// Package uci drives an external chess engine over the Universal Chess Interface.
//
// A Session owns one engine process for the whole run. Every exchange is strictly
// request then response: a command line is written, and output lines are collected
// until the engine answers the readiness probe.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os/exec"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// Protocol tokens used by the session.
const (
	CmdUCI      = "uci"
	CmdIsReady  = "isready"
	CmdNewGame  = "ucinewgame"
	CmdQuit     = "quit"
	ReadySignal = "readyok"
)

// ErrEngineExited is returned when the engine output ends before the readiness
// sentinel was seen.
var ErrEngineExited = errors.New("uci: engine exited before readyok")

// Session is a running engine process.
type Session struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner

	name    string
	args    []string
	options map[string]string

	log   zerolog.Logger
	trace bool
	quit  bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for trace output and lifecycle messages.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithTrace logs every line sent to and received from the engine.
func WithTrace(on bool) Option {
	return func(s *Session) { s.trace = on }
}

// WithArgs passes extra command line arguments to the engine binary.
func WithArgs(args ...string) Option {
	return func(s *Session) { s.args = append(s.args, args...) }
}

// WithOption queues a "setoption name <name> value <value>" sent during Init.
// Options are sent in name order.
func WithOption(name, value string) Option {
	return func(s *Session) { s.options[name] = value }
}

// Start launches the engine binary at path. The context bounds the lifetime of
// the process; cancelling it kills the engine.
func Start(ctx context.Context, path string, opts ...Option) (*Session, error) {
	s := &Session{
		log:     zerolog.Nop(),
		options: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	cmd := exec.CommandContext(ctx, path, s.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("uci: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("uci: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("uci: start %s: %w", path, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.stdout = bufio.NewScanner(stdout)
	s.stdout.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	s.log.Info().Str("path", path).Int("pid", cmd.Process.Pid).Msg("engine started")
	return s, nil
}

// Name returns the engine name reported by "id name" during Init.
func (s *Session) Name() string {
	return s.name
}

// Send writes a single command line to the engine.
func (s *Session) Send(command string) error {
	if s.trace {
		s.log.Debug().Str("dir", "put").Msg(command)
	}
	if _, err := io.WriteString(s.stdin, command+"\n"); err != nil {
		return fmt.Errorf("uci: write %q: %w", command, err)
	}
	return nil
}

// ReadUntilReady sends the readiness probe and returns every line the engine
// prints before answering it. Blank lines are kept; the sentinel is not.
func (s *Session) ReadUntilReady() ([]string, error) {
	if err := s.Send(CmdIsReady); err != nil {
		return nil, err
	}

	var lines []string
	for s.stdout.Scan() {
		line := strings.TrimRight(s.stdout.Text(), " \t\r")
		if line == ReadySignal {
			return lines, nil
		}
		if s.trace && line != "" {
			s.log.Debug().Str("dir", "get").Msg(line)
		}
		lines = append(lines, line)
	}
	if err := s.stdout.Err(); err != nil {
		return lines, fmt.Errorf("uci: read: %w", err)
	}
	return lines, ErrEngineExited
}

// Exec sends a command and collects its response.
func (s *Session) Exec(command string) ([]string, error) {
	if err := s.Send(command); err != nil {
		return nil, err
	}
	return s.ReadUntilReady()
}

// Init drains the startup banner, performs the "uci" handshake and applies the
// queued options. It returns all lines the engine printed.
func (s *Session) Init() ([]string, error) {
	output, err := s.ReadUntilReady()
	if err != nil {
		return output, err
	}

	handshake, err := s.Exec(CmdUCI)
	output = append(output, handshake...)
	if err != nil {
		return output, err
	}
	for _, line := range handshake {
		if name, ok := strings.CutPrefix(line, "id name "); ok {
			s.name = strings.TrimSpace(name)
		}
	}

	for _, name := range slices.Sorted(maps.Keys(s.options)) {
		lines, err := s.Exec(fmt.Sprintf("setoption name %s value %s", name, s.options[name]))
		output = append(output, lines...)
		if err != nil {
			return output, err
		}
	}

	s.log.Info().Str("engine", s.name).Msg("engine ready")
	return output, nil
}

// NewGame tells the engine a new game starts and waits until it is ready.
func (s *Session) NewGame() error {
	_, err := s.Exec(CmdNewGame)
	return err
}

// Quit asks the engine to exit. It does not wait for any output.
func (s *Session) Quit() error {
	if s.quit {
		return nil
	}
	s.quit = true
	err := s.Send(CmdQuit)
	s.stdin.Close()
	return err
}

// Close quits the engine and reaps the process. Closing an already reaped
// session is a no-op.
func (s *Session) Close() error {
	if s.cmd.ProcessState != nil {
		return nil
	}
	if err := s.Quit(); err != nil {
		s.log.Warn().Err(err).Msg("quit failed")
	}
	if err := s.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return fmt.Errorf("uci: wait: %w", err)
	}
	return nil
}
