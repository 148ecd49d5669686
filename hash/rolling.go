package hash

import "encoding/binary"

// Rolling is a dependency-free fallback backend: two parallel 32-bit rolling
// hashes combined into an 8-byte digest. It exists purely for dedup
// correctness on hosts without the primary backend, not for security.
type Rolling struct{}

// Digest returns an 8-byte combined rolling hash of data.
func (Rolling) Digest(data []byte) []byte {
	var h1 uint32 = 2166136261
	var h2 uint32 = 5381
	for _, b := range data {
		h1 = (h1 ^ uint32(b)) * 16777619
		h2 = h2*33 + uint32(b)
	}
	out := make([]byte, 8)
	binary.BigEndian.PutUint32(out[:4], h1)
	binary.BigEndian.PutUint32(out[4:], h2)
	return out
}

// Name identifies the algorithm.
func (Rolling) Name() string { return "rolling" }
