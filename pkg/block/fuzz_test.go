package block

import "testing"

// FuzzHeaderHash checks that Header.Hash never panics for arbitrary field
// values, including the zero value and maximal integers.
func FuzzHeaderHash(f *testing.F) {
	f.Add(uint32(1), uint64(1000), uint64(0), uint64(0))
	f.Add(uint32(0), uint64(0), uint64(0), uint64(0))
	f.Add(uint32(99999), ^uint64(0), ^uint64(0), ^uint64(0))

	f.Fuzz(func(t *testing.T, version uint32, timestamp, height, nonce uint64) {
		h := &Header{
			Version:   version,
			Timestamp: timestamp,
			Height:    height,
			Nonce:     nonce,
		}
		h.Hash()
		got, err := HeaderFromBytes(h.Bytes())
		if err != nil {
			t.Fatalf("HeaderFromBytes() error: %v", err)
		}
		if got.Hash() != h.Hash() {
			t.Errorf("round-tripped header hash = %v, want %v", got.Hash(), h.Hash())
		}
	})
}
