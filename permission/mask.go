package permission

import (
	"math/bits"
	"strconv"
)

// Mask is a set of capabilities, one bit per capability.
type Mask uint64

// MaxBits is the number of usable capability bits. The top bit stays clear
// so a mask always fits a signed BIGINT column.
const MaxBits = 63

// Has reports whether any bit of bit is set in m.
func (m Mask) Has(bit Mask) bool {
	return m&bit != 0
}

// HasAll reports whether every bit of required is set in m.
func (m Mask) HasAll(required Mask) bool {
	return m&required == required
}

// Set adds bit to m.
func (m *Mask) Set(bit Mask) {
	*m |= bit
}

// Clear removes bit from m.
func (m *Mask) Clear(bit Mask) {
	*m &^= bit
}

// IsZero reports whether m grants nothing.
func (m Mask) IsZero() bool {
	return m == 0
}

// Bits returns the single-bit flags set in m, lowest first.
func (m Mask) Bits() []Mask {
	out := make([]Mask, 0, bits.OnesCount64(uint64(m)))
	for v := uint64(m); v != 0; v &= v - 1 {
		out = append(out, Mask(v&-v))
	}
	return out
}

// Raw returns the underlying integer.
func (m Mask) Raw() uint64 {
	return uint64(m)
}

func (m Mask) String() string {
	return "0b" + strconv.FormatUint(uint64(m), 2)
}

// IsSingleBit reports whether m is exactly one capability flag.
func IsSingleBit(m Mask) bool {
	return m != 0 && m&(m-1) == 0 && bits.TrailingZeros64(uint64(m)) < MaxBits
}

// Effective folds role masks into the permission set of their holder.
// The fold is a bitwise OR seeded at zero, so no masks yields zero.
func Effective(masks ...Mask) Mask {
	var out Mask
	for _, m := range masks {
		out |= m
	}
	return out
}
