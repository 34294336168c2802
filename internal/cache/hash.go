package cache

import (
	"encoding/binary"
	"path/filepath"
)

const fingerprintSeed = 0x1337b33f

// MurmurHash64A implements the 64-bit MurmurHash2 algorithm
func MurmurHash64A(data []byte, seed uint64) uint64 {
	const (
		m = 0xc6a4a7935bd1e995
		r = 47
	)

	h := seed ^ (uint64(len(data)) * m)

	remainder := len(data) & 7
	aligned := len(data) - remainder

	for i := 0; i < aligned; i += 8 {
		k := binary.LittleEndian.Uint64(data[i : i+8])

		k *= m
		k ^= k >> r
		k *= m

		h ^= k
		h *= m
	}

	if remainder > 0 {
		for i := remainder - 1; i >= 0; i-- {
			h ^= uint64(data[aligned+i]) << (8 * i)
		}
		h *= m
	}

	h ^= h >> r
	h *= m
	h ^= h >> r

	return h
}

// PathFingerprint hashes a cleaned file path
func PathFingerprint(path string) uint64 {
	return MurmurHash64A([]byte(filepath.Clean(path)), fingerprintSeed)
}
