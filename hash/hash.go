// Package hash implements the fast salted hash used as the deterministic randomness source
// of the network: weight initialisation, dropout masks and epoch shuffles all derive from it,
// so a seed fully determines a training run.
package hash

import "math"

// Hash hashes n salted with s into the range 0 to max-1.
func Hash(n uint32, s uint32, max uint32) uint32 {
	// mixing stage, mix input with salt using subtraction
	var m = uint32(n) - uint32(s)

	// hashing stage, use xor shift with prime coefficients
	m ^= m << 2
	m ^= m << 3
	m ^= m >> 5
	m ^= m >> 7
	m ^= m << 11
	m ^= m << 13
	m ^= m >> 17
	m ^= m << 19

	// mixing stage 2, mix input with salt using addition
	m += s

	// modular stage, multiply shift instead of modulo
	// https://lemire.me/blog/2016/06/27/a-fast-alternative-to-the-modulo-reduction/
	return uint32((uint64(m) * uint64(max)) >> 32)
}

const floatBits = 1 << 24

// Salt scrambles a seed so that neighbouring seeds produce unrelated streams.
func Salt(seed uint32) uint32 {
	return Hash(seed, 0x9e3779b9, math.MaxUint32)
}

// Uint32 returns the n-th value of the stream identified by seed.
func Uint32(n, seed uint32) uint32 {
	salt := Salt(seed)
	return Hash(Hash(n, salt, math.MaxUint32), salt^0x85ebca6b, math.MaxUint32)
}

// Float64 returns the n-th value of the stream identified by seed, in [0, 1).
func Float64(n, seed uint32) float64 {
	salt := Salt(seed)
	x := Hash(n, salt, math.MaxUint32)
	return float64(Hash(x, salt^0x85ebca6b, floatBits)) / floatBits
}

// Uniform returns the n-th value of the stream identified by seed, in [-limit, limit).
func Uniform(n, seed uint32, limit float64) float64 {
	return (2*Float64(n, seed) - 1) * limit
}

// Keep reports whether unit n survives dropout with the given rate in the stream seed.
func Keep(n, seed uint32, rate float64) bool {
	return Float64(n, seed) >= rate
}
