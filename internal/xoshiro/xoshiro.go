// Package xoshiro implements the xoshiro256++ pseudo-random generator used
// to pick steal victims. It is not cryptographically secure; it exists
// purely for fast, well-distributed per-worker random streams.
//
// The pool seeds one generator, long-jumps it once per worker, and seeds
// each worker's own generator (via New) from one draw of the jumped
// stream. The per-worker generators therefore start from distinct seeds;
// they are not themselves the long-jumped sub-streams, so their sequences
// carry no non-overlap guarantee.
package xoshiro

import "math/bits"

// RNG is a xoshiro256++ generator. The zero value is invalid; use New.
type RNG struct {
	s [4]uint64
}

// New creates a generator seeded deterministically from seed using splitmix64,
// the standard xoshiro seeding recommendation (avoids all-zero state and
// decorrelates adjacent seed values).
func New(seed uint64) *RNG {
	r := &RNG{}
	sm := seed
	for i := range r.s {
		sm += 0x9e3779b97f4a7c15
		z := sm
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z = z ^ (z >> 31)
		r.s[i] = z
	}
	return r
}

// Next returns the next pseudo-random uint64 and advances the state.
func (r *RNG) Next() uint64 {
	result := bits.RotateLeft64(r.s[0]+r.s[3], 23) + r.s[0]

	t := r.s[1] << 17

	r.s[2] ^= r.s[0]
	r.s[3] ^= r.s[1]
	r.s[1] ^= r.s[2]
	r.s[0] ^= r.s[3]

	r.s[2] ^= t

	r.s[3] = bits.RotateLeft64(r.s[3], 45)

	return result
}

// Intn returns a pseudo-random integer in [0, n). Panics if n <= 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		panic("xoshiro: Intn called with n <= 0")
	}
	return int(r.Next() % uint64(n))
}

var jumpTable = [4]uint64{
	0x180ec6d33cfd0aba, 0xd5a61266f0c9392c, 0xa9582618e03fc9aa, 0x39abdc4529b1661c,
}

var longJumpTable = [4]uint64{
	0x76e15d3efefdcbbf, 0xc5004e441c522fb3, 0x77710069854ee241, 0x39109bb02acbe635,
}

// Jump advances the state as if 2^128 Next calls had been made, useful for
// generating non-overlapping subsequences for parallel computations.
func (r *RNG) Jump() { r.applyJump(jumpTable) }

// LongJump advances the state as if 2^192 Next calls had been made. Calling
// it once per worker (i-th worker gets i LongJumps from a common seed)
// partitions a single seed into N disjoint per-worker streams.
func (r *RNG) LongJump() { r.applyJump(longJumpTable) }

func (r *RNG) applyJump(table [4]uint64) {
	var s [4]uint64
	for _, jump := range table {
		for b := 0; b < 64; b++ {
			if jump&(uint64(1)<<uint(b)) != 0 {
				s[0] ^= r.s[0]
				s[1] ^= r.s[1]
				s[2] ^= r.s[2]
				s[3] ^= r.s[3]
			}
			r.Next()
		}
	}
	r.s = s
}
