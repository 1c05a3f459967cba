package rng

import "encoding/binary"

// Scripted replays fixed draws. Float64 values are consumed in order; once exhausted it
// repeats the last value (0 if none were given). Intn maps the next Float64 draw onto
// [0,n) so that scripted tests can steer integer draws too. Read is deterministic.
type Scripted struct {
	floats []float64
	pos    int
	last   float64
	ctr    uint64
}

func NewScripted(floats ...float64) *Scripted {
	return &Scripted{floats: floats}
}

// Push appends more draws.
func (s *Scripted) Push(floats ...float64) { s.floats = append(s.floats, floats...) }

// Remaining reports how many scripted draws have not been consumed.
func (s *Scripted) Remaining() int { return len(s.floats) - s.pos }

func (s *Scripted) Float64() float64 {
	if s.pos < len(s.floats) {
		s.last = s.floats[s.pos]
		s.pos++
	}
	return s.last
}

func (s *Scripted) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Read fills p with zeros followed by a per-call counter, so successive ids differ.
func (s *Scripted) Read(p []byte) (int, error) {
	s.ctr++
	for i := range p {
		p[i] = 0
	}
	if len(p) >= 8 {
		binary.BigEndian.PutUint64(p[len(p)-8:], s.ctr)
	} else if len(p) > 0 {
		p[len(p)-1] = byte(s.ctr)
	}
	return len(p), nil
}
