// Package game reads PGN game records and walks their mainline, evaluating every
// ply with the engine.
package game

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/notnil/chess"
)

// ErrMissingTag is returned when a game lacks a tag needed to name its output.
var ErrMissingTag = errors.New("game: missing tag")

// Info holds the tags used to label a game.
type Info struct {
	Event  string
	White  string
	Black  string
	Date   string
	Result string
}

// Year returns the first four characters of the date tag.
func (i Info) Year() string {
	if len(i.Date) < 4 {
		return i.Date
	}
	return i.Date[:4]
}

// ID returns "<White>-<Black> (<Year>)".
func (i Info) ID() string {
	return fmt.Sprintf("%s-%s (%s)", i.White, i.Black, i.Year())
}

// InfoOf reads the labelling tags of g. White, Black and Date are required.
func InfoOf(g *chess.Game) (Info, error) {
	info := Info{
		Event:  tag(g, "Event"),
		White:  tag(g, "White"),
		Black:  tag(g, "Black"),
		Date:   tag(g, "Date"),
		Result: tag(g, "Result"),
	}
	required := []struct{ name, value string }{
		{"White", info.White},
		{"Black", info.Black},
		{"Date", info.Date},
	}
	for _, r := range required {
		if r.value == "" {
			return info, fmt.Errorf("%w %q", ErrMissingTag, r.name)
		}
	}
	if info.Result == "" {
		info.Result = g.Outcome().String()
	}
	return info, nil
}

func tag(g *chess.Game, key string) string {
	if tp := g.GetTagPair(key); tp != nil {
		return strings.TrimSpace(tp.Value)
	}
	return ""
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Scanner reads games one at a time from a multi-game PGN stream.
type Scanner struct {
	scanner *chess.Scanner
	closer  io.Closer
}

// NewScanner scans games from r. A leading UTF-8 byte order mark is skipped.
func NewScanner(r io.Reader) *Scanner {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return &Scanner{scanner: chess.NewScanner(br)}
}

// Open scans games from the PGN file at path.
func Open(path string) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	s := NewScanner(f)
	s.closer = f
	return s, nil
}

// Scan advances to the next game. It returns false at the end of the stream or
// on a parse error, which Err reports.
func (s *Scanner) Scan() bool {
	return s.scanner.Scan()
}

// Game returns the game read by the last successful Scan.
func (s *Scanner) Game() *chess.Game {
	return s.scanner.Next()
}

// Err returns the first non-EOF error met while scanning.
func (s *Scanner) Err() error {
	if err := s.scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("game: pgn: %w", err)
	}
	return nil
}

// Close closes the underlying file, if the scanner opened one.
func (s *Scanner) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
