package randutil

import (
	crand "crypto/rand"
	"encoding/binary"
	rand "math/rand/v2"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a PCG-backed *rand.Rand seeded deterministically from seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Derive mixes a root seed with a path of indices into a child seed. Two
// different paths under the same root give independent streams, so a batch
// can be identified by (root, batch, attempt) and replayed exactly.
func Derive(root int64, path ...int) int64 {
	x := mix(uint64(root))
	for _, p := range path {
		x = mix(x ^ mix(uint64(p)+goldenRatio64))
	}
	return int64(x)
}

// Seed returns a fresh non-zero seed from the operating system's entropy.
func Seed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return int64(rand.Uint64() | 1)
	}
	if s := int64(binary.LittleEndian.Uint64(buf[:])); s != 0 {
		return s
	}
	return 1
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
