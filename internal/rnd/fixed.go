package rnd

// Fixed replays a preset sequence of draws, cycling when exhausted.
// Each value is reduced modulo n, so Fixed(0) always yields the lowest
// possible draw and Fixed(99) always yields the highest percentile roll.
//
// Intended for tests that need to force hits, misses, crits and blocks.
type Fixed struct {
	values []int
	next   int
	calls  int
}

// NewFixed creates a Fixed source. With no values it always returns 0.
func NewFixed(values ...int) *Fixed {
	return &Fixed{values: values}
}

// IntN returns the next preset value modulo n.
func (f *Fixed) IntN(n int) int {
	f.calls++
	if len(f.values) == 0 {
		return 0
	}
	v := f.values[f.next%len(f.values)]
	f.next++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Calls returns how many draws were consumed.
func (f *Fixed) Calls() int {
	return f.calls
}

// Always returns a Source that always draws the lowest value: every
// chance check succeeds and every block roll below a non-zero chance lands.
func Always() *Fixed {
	return NewFixed(0)
}

// Never returns a Source that always draws the highest value: percentile
// rolls are 100, so chances below 100 fail and block rolls never land.
func Never() *Fixed {
	return NewFixed(99)
}
