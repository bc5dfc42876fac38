// Package layer tracks which keymap layers are active. It is a best
// effort mirror of the firmware's own layer resolution, good enough for a
// status display but not for dispatching key actions.
package layer

import (
	"math/bits"
	"strconv"
	"strings"
)

// Set is a set of active layers, one bit per layer. The zero value is the
// empty set, which means only the base layer is in effect.
//
// Every method returns a new Set; applying several operations in sequence
// means the last one wins for any layer they both touch.
type Set uint32

// Of returns the set containing exactly the given layers.
func Of(layers ...uint8) Set {
	var s Set
	for _, l := range layers {
		s = s.Union(l)
	}
	return s
}

func bit(l uint8) Set {
	return Set(1) << (l & 31)
}

// Has reports whether l is active.
func (s Set) Has(l uint8) bool {
	return l < 32 && s&bit(l) != 0
}

// Union adds l to the set.
func (s Set) Union(l uint8) Set {
	if l >= 32 {
		return s
	}
	return s | bit(l)
}

// Difference removes l from the set.
func (s Set) Difference(l uint8) Set {
	if l >= 32 {
		return s
	}
	return s &^ bit(l)
}

// Toggle flips l.
func (s Set) Toggle(l uint8) Set {
	if l >= 32 {
		return s
	}
	return s ^ bit(l)
}

// Only flips l and clears every other layer. If l was active the result is
// empty, otherwise it is exactly {l}.
func (s Set) Only(l uint8) Set {
	if l >= 32 {
		return s
	}
	return (s ^ bit(l)) & bit(l)
}

// Highest returns the highest active layer, or 0 if the set is empty.
func (s Set) Highest() uint8 {
	if s == 0 {
		return 0
	}
	return uint8(31 - bits.LeadingZeros32(uint32(s)))
}

// Len returns the number of active layers.
func (s Set) Len() int {
	return bits.OnesCount32(uint32(s))
}

// Layers lists the active layers in ascending order.
func (s Set) Layers() []uint8 {
	out := make([]uint8, 0, s.Len())
	for v := uint32(s); v != 0; v &= v - 1 {
		out = append(out, uint8(bits.TrailingZeros32(v)))
	}
	return out
}

func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, l := range s.Layers() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(l)))
	}
	b.WriteByte('}')
	return b.String()
}
