package sample

import (
	"math/rand/v2"
)

// Rand is the random source of one worker.
type Rand struct {
	*rand.Rand
}

// NewRand returns a PCG source for (seed, stream).
func NewRand(seed, stream uint64) *Rand {
	return &Rand{Rand: rand.New(rand.NewPCG(seed, stream))}
}

// Derive returns the source of worker in round. Sources of different
// (round, worker) pairs are independent streams of the same seed.
func Derive(seed uint64, round, worker int) *Rand {
	return NewRand(seed, mix(uint64(round)<<32|uint64(uint32(worker))))
}

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
