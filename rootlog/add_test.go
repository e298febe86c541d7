package rootlog

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddHashedLeafSizes(t *testing.T) {
	store := NewMemStore()
	hasher := sha256.New()

	want := []uint64{1, 3, 4, 7, 8, 10, 11, 15, 16, 18, 19}
	for n, size := range want {
		got, err := AddHashedLeaf(store, hasher, hashNum(uint64(n)))
		require.NoError(t, err)
		assert.Equal(t, size, got)
	}
}

func TestAddHashedLeafInteriorCommitsPosition(t *testing.T) {
	store := newTestStore(t, 4)
	hasher := sha256.New()

	//	2        6
	//	1     2     5
	//	0   0   1 3   4
	n2 := HashInterior(hasher, 3, hashNum(0), hashNum(1))
	n5 := HashInterior(hasher, 6, hashNum(2), hashNum(3))
	n6 := HashInterior(hasher, 7, n2, n5)

	assert.Equal(t, hashNum(2), mustGet(t, store, 3))
	assert.Equal(t, n2, mustGet(t, store, 2))
	assert.Equal(t, n5, mustGet(t, store, 5))
	assert.Equal(t, n6, mustGet(t, store, 6))

	// Swapping the children, or moving the node, changes the hash.
	assert.NotEqual(t, n2, HashInterior(hasher, 3, hashNum(1), hashNum(0)))
	assert.NotEqual(t, n2, HashInterior(hasher, 6, hashNum(0), hashNum(1)))
}

func TestPeaks(t *testing.T) {
	tests := []struct {
		name string
		size uint64
		want []uint64
	}{
		{"empty", 0, nil},
		{"one", 1, []uint64{0}},
		{"invalid", 2, nil},
		{"two leaves", 3, []uint64{2}},
		{"three leaves", 4, []uint64{2, 3}},
		{"eleven leaves", 19, []uint64{14, 17, 18}},
		{"fourteen leaves", 25, []uint64{14, 21, 24}},
		{"fifteen leaves", 26, []uint64{14, 21, 24, 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Peaks(tt.size))
		})
	}
}

func TestPeakHashes(t *testing.T) {
	store := newTestStore(t, 11)

	peaks, err := PeakHashes(store, 19)
	require.NoError(t, err)
	require.Len(t, peaks, 3)
	assert.Equal(t, mustGet(t, store, 14), peaks[0])
	assert.Equal(t, mustGet(t, store, 18), peaks[2])

	_, err = PeakHashes(store, 18)
	require.ErrorIs(t, err, ErrInvalidSize)

	peaks, err = PeakHashes(store, 0)
	require.NoError(t, err)
	assert.Empty(t, peaks)
}

func TestBagPeaks(t *testing.T) {
	hasher := sha256.New()
	a, b, c := hashNum(1), hashNum(2), hashNum(3)

	assert.Nil(t, BagPeaks(hasher, nil))
	assert.Equal(t, a, BagPeaks(hasher, [][]byte{a}))

	h := func(l, r []byte) []byte {
		s := sha256.Sum256(append(append([]byte(nil), l...), r...))
		return s[:]
	}
	assert.Equal(t, h(a, h(b, c)), BagPeaks(hasher, [][]byte{a, b, c}))
}
