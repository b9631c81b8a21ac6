package uci_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/staticeval/internal/uci"
	"github.com/hailam/staticeval/internal/uci/ucitest"
)

func TestMain(m *testing.M) {
	ucitest.ServeIfHelper()
	os.Exit(m.Run())
}

// startEngine re-executes the test binary as a scripted engine.
func startEngine(t *testing.T, mode string, opts ...uci.Option) *uci.Session {
	t.Helper()
	t.Setenv(ucitest.EnvMode, mode)

	s, err := uci.Start(context.Background(), os.Args[0], opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitHandshake(t *testing.T) {
	s := startEngine(t, ucitest.ModeTable, uci.WithOption("Hash", "32"))

	output, err := s.Init()
	require.NoError(t, err)

	assert.Equal(t, ucitest.Banner, output[0])
	assert.Contains(t, output, "uciok")
	assert.NotContains(t, output, uci.ReadySignal)
	assert.Equal(t, ucitest.EngineName, s.Name())
}

func TestInitSendsOptionsInNameOrder(t *testing.T) {
	s := startEngine(t, ucitest.ModeTable,
		uci.WithOption("Threads", "1"),
		uci.WithOption("Hash", "32"),
		uci.WithOption("Contempt", "0"),
		uci.WithOption("MultiPV", "1"),
	)

	output, err := s.Init()
	require.NoError(t, err)

	var set []string
	for _, line := range output {
		if name, ok := strings.CutPrefix(line, "info string set "); ok {
			set = append(set, name)
		}
	}
	assert.Equal(t, []string{"Contempt=0", "Hash=32", "MultiPV=1", "Threads=1"}, set)
}

func TestReadUntilReady(t *testing.T) {
	t.Run("collects eval table", func(t *testing.T) {
		s := startEngine(t, ucitest.ModeTable)
		_, err := s.Init()
		require.NoError(t, err)

		lines, err := s.Exec("eval")
		require.NoError(t, err)
		require.Len(t, lines, 19)
		assert.Contains(t, lines[0], "Eval term")
		assert.Equal(t, "", lines[17])
		assert.Equal(t, "Total Evaluation: 1.70 (white side)", lines[18])
	})

	t.Run("tolerates blank lines", func(t *testing.T) {
		s := startEngine(t, ucitest.ModeBlank)
		_, err := s.Init()
		require.NoError(t, err)

		lines, err := s.Exec(uci.CmdNewGame)
		require.NoError(t, err)
		assert.Equal(t, []string{""}, lines)
	})

	t.Run("engine exits before sentinel", func(t *testing.T) {
		s := startEngine(t, ucitest.ModeDie)

		lines, err := s.ReadUntilReady()
		require.Error(t, err)
		assert.True(t, errors.Is(err, uci.ErrEngineExited), "unexpected error: %v", err)
		assert.Equal(t, []string{ucitest.Banner}, lines)
	})
}

func TestQuitIsIdempotent(t *testing.T) {
	s := startEngine(t, ucitest.ModeTable)
	_, err := s.Init()
	require.NoError(t, err)

	require.NoError(t, s.Quit())
	require.NoError(t, s.Quit())
	require.NoError(t, s.Close())
}

func TestStartMissingBinary(t *testing.T) {
	_, err := uci.Start(context.Background(), "/nonexistent/engine-binary")
	require.Error(t, err)
}
