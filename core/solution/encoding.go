package solution

import (
	"math/rand"
	"strings"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// Encoding assigns one driving mode per segment, in traversal order.
type Encoding []model.DrivingMode

// Uniform returns an encoding of length n with every segment in mode m.
func Uniform(n int, m model.DrivingMode) Encoding {
	e := make(Encoding, n)
	for i := range e {
		e[i] = m
	}
	return e
}

// Random draws each mode independently with equal probability.
func Random(n int, rng *rand.Rand) Encoding {
	e := make(Encoding, n)
	for i := range e {
		if rng.Intn(2) == 1 {
			e[i] = model.ModeElectric
		}
	}
	return e
}

// Clone returns an independent copy.
func (e Encoding) Clone() Encoding {
	return append(Encoding(nil), e...)
}

// Key is a compact identity for deduplication: 'E' electric, 'C' combustion.
func (e Encoding) Key() string {
	var b strings.Builder
	b.Grow(len(e))
	for _, m := range e {
		if m == model.ModeElectric {
			b.WriteByte('E')
		} else {
			b.WriteByte('C')
		}
	}
	return b.String()
}

// ParseKey is the inverse of Key.
func ParseKey(k string) Encoding {
	e := make(Encoding, len(k))
	for i := 0; i < len(k); i++ {
		if k[i] == 'E' {
			e[i] = model.ModeElectric
		}
	}
	return e
}

// Electric counts the segments driven on battery.
func (e Encoding) Electric() int {
	n := 0
	for _, m := range e {
		if m == model.ModeElectric {
			n++
		}
	}
	return n
}
