package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// SeedSource supplies seeds for runs that were not given one explicitly.
type SeedSource interface {
	Seed() uint64
}

// FixedSeed always returns itself.
type FixedSeed uint64

func (s FixedSeed) Seed() uint64 { return uint64(s) }

// CryptoSeeds draws seeds from the operating system.
type CryptoSeeds struct{}

func (CryptoSeeds) Seed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// NewRNG creates the deterministic generator a live run is driven by.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}
