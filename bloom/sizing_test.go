package bloom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSizingV1(t *testing.T) {
	mBits, err := MBitsV1(1, 10)
	require.NoError(t, err)
	require.Equal(t, uint32(10), mBits)
	require.Equal(t, uint32(2), BitsetBytesV1(mBits))
	require.Equal(t, uint64(HeaderBytesV1+4*2), RegionBytesV1(mBits))

	mBits, err = MBitsV1(8, 8)
	require.NoError(t, err)
	require.Equal(t, uint32(64), mBits)
	require.Equal(t, uint64(64), RegionBytesV1(mBits))

	mBits, err = MBitsV1(1, math.MaxUint32)
	require.NoError(t, err)
	require.Equal(t, uint32(math.MaxUint32), mBits)
	require.Equal(t, uint32(1<<29), BitsetBytesV1(mBits))
}

func TestSizingV1Rejects(t *testing.T) {
	_, err := MBitsV1(0, 10)
	require.ErrorIs(t, err, ErrBadMBits)
	_, err = MBitsV1(10, 0)
	require.ErrorIs(t, err, ErrBadMBits)
	_, err = MBitsV1(1, math.MaxUint32+1)
	require.ErrorIs(t, err, ErrMBitsOverflow)
	_, err = MBitsV1(1<<31, 4)
	require.ErrorIs(t, err, ErrMBitsOverflow)
}

func TestOptimalK(t *testing.T) {
	require.Equal(t, uint8(1), OptimalK(1))
	require.Equal(t, uint8(7), OptimalK(10))
	require.Equal(t, uint8(11), OptimalK(16))
}
