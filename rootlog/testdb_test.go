package rootlog

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func hashNum(n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	h := sha256.Sum256(b[:])
	return h[:]
}

// newTestStore returns a store holding an mmr of leafCount leaves, where
// leaf n is hashNum(n).
func newTestStore(t *testing.T, leafCount uint64) *MemStore {
	t.Helper()
	store := NewMemStore()
	hasher := sha256.New()
	for n := uint64(0); n < leafCount; n++ {
		_, err := AddHashedLeaf(store, hasher, hashNum(n))
		require.NoError(t, err)
	}
	require.Equal(t, SizeForLeaves(leafCount), store.Size())
	return store
}

func mustGet(t *testing.T, store NodeGetter, i uint64) []byte {
	t.Helper()
	v, err := store.Get(i)
	require.NoError(t, err)
	return v
}
