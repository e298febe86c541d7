package rootlog

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInclusionPath(t *testing.T) {
	tests := []struct {
		name    string
		size    uint64
		i       uint64
		want    []uint64
		wantErr error
	}{
		{"first leaf of 11", 19, 0, []uint64{1, 5, 13}, nil},
		{"interior node", 19, 5, []uint64{2, 13}, nil},
		{"peak", 19, 14, nil, nil},
		{"lone leaf peak", 19, 18, nil, nil},
		{"right leaf of the small mountain", 19, 16, []uint64{15}, nil},
		{"out of range", 19, 19, nil, ErrIndexRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InclusionPath(tt.size, tt.i)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifyInclusionEveryNode(t *testing.T) {
	hasher := sha256.New()
	store := newTestStore(t, 40)

	for leaves := uint64(1); leaves <= 40; leaves++ {
		size := SizeForLeaves(leaves)
		peaks, err := PeakHashes(store, size)
		require.NoError(t, err)

		for i := uint64(0); i < size; i++ {
			proof, err := InclusionProof(store, size, i)
			require.NoError(t, err)

			ok, err := VerifyInclusion(hasher, size, peaks, i, mustGet(t, store, i), proof)
			require.NoError(t, err)
			require.True(t, ok, "size %d index %d", size, i)

			ok, _ = VerifyInclusion(hasher, size, peaks, i, hashNum(1<<40), proof)
			require.False(t, ok)

			if len(proof) > 0 {
				bad := append([][]byte(nil), proof...)
				bad[0] = hashNum(1 << 41)
				ok, _ = VerifyInclusion(hasher, size, peaks, i, mustGet(t, store, i), bad)
				require.False(t, ok)
			}
		}
	}
}

func TestVerifyInclusionErrors(t *testing.T) {
	hasher := sha256.New()
	store := newTestStore(t, 11)
	peaks, err := PeakHashes(store, 19)
	require.NoError(t, err)

	_, err = VerifyInclusion(hasher, 18, peaks, 0, hashNum(0), nil)
	require.ErrorIs(t, err, ErrInvalidSize)

	_, err = VerifyInclusion(hasher, 19, peaks[:2], 0, hashNum(0), nil)
	require.ErrorIs(t, err, ErrInvalidSize)

	_, err = VerifyInclusion(hasher, 19, peaks, 30, hashNum(0), nil)
	require.ErrorIs(t, err, ErrIndexRange)

	// No peak sits at height 2 in an mmr of 11 leaves.
	_, err = VerifyInclusion(hasher, 19, peaks, 0, hashNum(0), [][]byte{hashNum(1), hashNum(2)})
	require.ErrorIs(t, err, ErrProofMalformed)
}
