package eval

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/staticeval/internal/uci/ucitest"
)

func tableLines() []string {
	return strings.Split(ucitest.Table, "\n")
}

func TestHeaderLayout(t *testing.T) {
	require.Len(t, Header, 63)
	require.Len(t, BlendedHeader, 31)

	assert.Equal(t, []string{"Material Total MG", "Material Total EG"}, Header[0:2])
	assert.Equal(t, []string{"Imbalance Total MG", "Imbalance Total EG"}, Header[2:4])
	assert.Equal(t, []string{
		"Knights White MG", "Knights White EG",
		"Knights Black MG", "Knights Black EG",
		"Knights Total MG", "Knights Total EG",
	}, Header[6:12])
	assert.Equal(t, []string{TotalMG, TotalEG, Total}, Header[60:])

	assert.Equal(t, []string{"Material Total", "Imbalance Total", "Pawns Total",
		"Knights White", "Knights Black", "Knights Total"}, BlendedHeader[0:6])
	assert.Equal(t, Total, BlendedHeader[30])

	seen := make(map[string]bool)
	for _, h := range Header {
		assert.False(t, seen[h], "duplicate column %q", h)
		seen[h] = true
	}
}

func TestParseTable(t *testing.T) {
	v, err := ParseTable(tableLines())
	require.NoError(t, err)
	require.Len(t, v, len(Header))

	assert.Equal(t, []float64{1.07, 1.02}, []float64(v[0:2]))
	for i, want := range ucitest.TableVector {
		assert.Equal(t, want, v[i], "column %d (%s)", i, Header[i])
	}

	t.Run("columns follow header names", func(t *testing.T) {
		assert.Equal(t, 0.63, v[Index(Header, "Mobility White MG")])
		assert.Equal(t, -0.12, v[Index(Header, "King Safety Black EG")])
		assert.Equal(t, -0.09, v[Index(Header, "Threats Total EG")])
		assert.Equal(t, 0.09, v[Index(Header, "Space Black MG")])
		assert.Equal(t, 1.90, v[Index(Header, TotalMG)])
		assert.Equal(t, 1.70, v[Index(Header, Total)])
	})

	t.Run("leading noise before header", func(t *testing.T) {
		lines := append([]string{"", "info string NNUE disabled"}, tableLines()...)
		got, err := ParseTable(lines)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	})
}

func TestParseTableMalformed(t *testing.T) {
	cases := map[string]func([]string) []string{
		"no header": func(l []string) []string { return l[1:] },
		"truncated": func(l []string) []string { return l[:10] },
		"missing cell": func(l []string) []string {
			l[6] = "        Knights |  0.16  0.04 |  0.16  0.04"
			return l
		},
		"wrong label": func(l []string) []string {
			l[3] = strings.Replace(l[3], "Material", "Dynamics", 1)
			return l
		},
		"bad number": func(l []string) []string {
			l[8] = strings.Replace(l[8], "0.17", "x.17", 1)
			return l
		},
		"no total evaluation": func(l []string) []string { return l[:len(l)-1] },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTable(mutate(tableLines()))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedTable), "unexpected error: %v", err)
		})
	}
}

func TestPhase(t *testing.T) {
	assert.InDelta(t, (1.70-1.90)/(1.28-1.90), Phase(1.70, 1.90, 1.28), 1e-12)
	assert.Equal(t, 0.0, Phase(0.5, 0.3, 0.3), "equal MG and EG must not divide by zero")
	assert.Equal(t, 0.0, Phase(0.3, 0.3, 1.3))
	assert.Equal(t, 1.0, Phase(1.3, 0.3, 1.3))
}

func TestInterpolateEqualPair(t *testing.T) {
	for _, phase := range []float64{0, 0.25, 0.5, 1, -3.7, 12} {
		for _, x := range []float64{0, -0.36, 0.77, 123.45} {
			assert.Equal(t, x, Interpolate(phase, x, x))
		}
	}
}

func TestCollapse(t *testing.T) {
	v, err := ParseTable(tableLines())
	require.NoError(t, err)

	b := Collapse(v)
	require.Len(t, b, len(BlendedHeader))

	phase := Phase(1.70, 1.90, 1.28)
	assert.Equal(t, 1.07+phase*(1.02-1.07), b[0])
	assert.Equal(t, -0.36, b[1], "equal pair keeps its value")
	assert.InDelta(t, 1.70, b[len(b)-1], 1e-9, "blended totals reproduce the total evaluation")

	assert.Nil(t, Collapse(Vector{1, 2}))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("blend")
	require.NoError(t, err)
	assert.Equal(t, Blend, m)

	m, err = ParseMode("split")
	require.NoError(t, err)
	assert.Equal(t, Split, m)
	assert.Equal(t, Header, HeaderFor(m))

	_, err = ParseMode("quantum")
	require.Error(t, err)
}

func TestPositionCommand(t *testing.T) {
	assert.Equal(t, "position startpos", Position{}.Command())
	assert.Equal(t, "position startpos moves e2e4 e7e5",
		Position{Moves: []string{"e2e4", "e7e5"}}.Command())
	fen := "8/8/8/8/8/8/8/K1k5 w - - 0 1"
	assert.Equal(t, "position fen "+fen, Position{FEN: fen}.Command())
	assert.Equal(t, "position fen "+fen+" moves a1a2",
		Position{FEN: fen, Moves: []string{"a1a2"}}.Command())
}

type fakeEngine struct {
	commands []string
	output   []string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Exec(command string) ([]string, error) {
	f.commands = append(f.commands, command)
	if command == "eval" {
		return f.output, nil
	}
	return nil, nil
}

type memCache map[string]Vector

func (m memCache) Get(key string) (Vector, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memCache) Put(key string, v Vector) error {
	m[key] = v
	return nil
}

func TestEvaluator(t *testing.T) {
	engine := &fakeEngine{output: tableLines()}
	cache := memCache{}
	ev := NewEvaluator(engine, cache, zerolog.Nop())

	pos := Position{Moves: []string{"e2e4"}}
	v, err := ev.Evaluate(pos, Split)
	require.NoError(t, err)
	assert.Equal(t, Vector(ucitest.TableVector), v)
	assert.Equal(t, []string{"position startpos moves e2e4", "eval"}, engine.commands)

	b, err := ev.Evaluate(pos, Blend)
	require.NoError(t, err)
	assert.Len(t, b, len(BlendedHeader))
	assert.Len(t, engine.commands, 2, "second lookup is served from the cache")

	engine.output = []string{"garbage"}
	_, err = NewEvaluator(engine, nil, zerolog.Nop()).Evaluate(pos, Split)
	require.ErrorIs(t, err, ErrMalformedTable)
}
