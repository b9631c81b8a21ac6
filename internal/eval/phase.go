package eval

// Phase derives the game phase from the total scores: the fraction of the way
// from the midgame to the endgame total at which the engine's final value lies.
// It is 0 when the midgame and endgame totals are equal.
func Phase(total, mg, eg float64) float64 {
	if mg == eg {
		return 0
	}
	return (total - mg) / (eg - mg)
}

// Interpolate blends a midgame and an endgame value at the given phase.
func Interpolate(phase, mg, eg float64) float64 {
	return mg + phase*(eg-mg)
}

// Collapse turns a Split vector into a Blend vector, using the phase derived
// from its Total, Total MG and Total EG columns.
func Collapse(v Vector) Vector {
	n := len(v)
	if n < 3 {
		return nil
	}
	phase := Phase(v[n-1], v[n-3], v[n-2])

	out := make(Vector, 0, (n-1)/2)
	for i := 0; i+1 < n-1; i += 2 {
		out = append(out, Interpolate(phase, v[i], v[i+1]))
	}
	return out
}
