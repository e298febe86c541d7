package bloom

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func elem(n uint64) []byte {
	e := make([]byte, ElementBytes)
	binary.BigEndian.PutUint64(e, n)
	e[31] = byte(n) ^ 0x5A
	return e
}

func TestRegionInsertAndQuery(t *testing.T) {
	r, err := NewRegion(128, 10, 0)
	require.NoError(t, err)

	h := r.Header()
	require.Equal(t, BitOrderLSB0, h.BitOrder)
	require.Equal(t, uint8(7), h.K)
	require.Equal(t, uint32(1280), h.MBits)
	require.Equal(t, uint32(0), h.Inserted)
	require.Len(t, r.Bytes(), int(RegionBytesV1(1280)))

	ok, err := r.MaybeContains(FilterMinted, elem(1))
	require.NoError(t, err)
	require.False(t, ok, "empty filters contain nothing")

	require.NoError(t, r.Insert(FilterMinted, elem(1)))
	ok, err = r.MaybeContains(FilterMinted, elem(1))
	require.NoError(t, err)
	require.True(t, ok)

	// Filters are independent.
	ok, err = r.MaybeContains(FilterCheckpoints, elem(1))
	require.NoError(t, err)
	require.False(t, ok)

	for i := uint64(0); i < 100; i++ {
		require.NoError(t, r.Insert(FilterAncestry, elem(i)))
	}
	for i := uint64(0); i < 100; i++ {
		ok, err := r.MaybeContains(FilterAncestry, elem(i))
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, uint32(101), r.Header().Inserted)
}

func TestRegionFalsePositiveRate(t *testing.T) {
	r, err := NewRegion(1000, 10, 0)
	require.NoError(t, err)
	for i := uint64(0); i < 1000; i++ {
		require.NoError(t, r.Insert(FilterProofs, elem(i)))
	}
	hits := 0
	for i := uint64(1_000_000); i < 1_010_000; i++ {
		ok, err := r.MaybeContains(FilterProofs, elem(i))
		require.NoError(t, err)
		if ok {
			hits++
		}
	}
	// About 0.8% is expected at 10 bits per element.
	require.Less(t, hits, 300)
}

func TestRegionKeys(t *testing.T) {
	r, err := NewRegion(16, 16, 0)
	require.NoError(t, err)

	require.NoError(t, r.InsertKey(FilterProofs, []byte("short key")))
	ok, err := r.MaybeContainsKey(FilterProofs, []byte("short key"))
	require.NoError(t, err)
	require.True(t, ok)

	e := Element([]byte("short key"))
	ok, err = r.MaybeContains(FilterProofs, e[:])
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRegionPersistence(t *testing.T) {
	r, err := NewRegion(64, 8, 5)
	require.NoError(t, err)
	require.NoError(t, r.Insert(FilterProofs, elem(9)))

	saved := append([]byte(nil), r.Bytes()...)
	loaded, err := LoadRegion(saved)
	require.NoError(t, err)
	require.Equal(t, r.Header(), loaded.Header())

	ok, err := loaded.MaybeContains(FilterProofs, elem(9))
	require.NoError(t, err)
	require.True(t, ok)

	// The stateless forms operate on the same bytes.
	require.NoError(t, InsertV1(saved, FilterCheckpoints, elem(3)))
	ok, err = MaybeContainsV1(saved, FilterCheckpoints, elem(3))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = LoadRegion(saved[:len(saved)-1])
	require.ErrorIs(t, err, ErrBadRegionSize)
}

func TestRegionRejectsBadInputs(t *testing.T) {
	r, err := NewRegion(8, 8, 5)
	require.NoError(t, err)

	require.ErrorIs(t, r.Insert(Filters, elem(0)), ErrBadFilterIndex)
	_, err = r.MaybeContains(Filters, elem(0))
	require.ErrorIs(t, err, ErrBadFilterIndex)

	require.ErrorIs(t, r.Insert(FilterMinted, make([]byte, ElementBytes-1)), ErrBadElemSize)
	_, err = r.MaybeContains(FilterMinted, make([]byte, ElementBytes+1))
	require.ErrorIs(t, err, ErrBadElemSize)
}

func TestRegionRejectsUninitialized(t *testing.T) {
	region := make([]byte, RegionBytesV1(64))

	_, err := MaybeContainsV1(region, 0, elem(0))
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, InsertV1(region, 0, elem(0)), ErrNotInitialized)
	_, err = LoadRegion(region)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestHeaderV1Codec(t *testing.T) {
	region := make([]byte, HeaderBytesV1)
	h := HeaderV1{BitOrder: BitOrderLSB0, K: 3, MBits: 99, Inserted: 7}
	require.NoError(t, EncodeHeaderV1(region, h))
	require.Equal(t, MagicV1, string(region[:4]))

	got, ok, err := DecodeHeaderV1(region)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, h, got)

	region[4] = 2
	_, _, err = DecodeHeaderV1(region)
	require.ErrorIs(t, err, ErrBadVersion)

	region[0] = 'X'
	_, _, err = DecodeHeaderV1(region)
	require.ErrorIs(t, err, ErrBadMagic)

	require.ErrorIs(t, EncodeHeaderV1(region, HeaderV1{K: 0, MBits: 1}), ErrBadK)
	require.ErrorIs(t, EncodeHeaderV1(region[:8], h), ErrBadRegionSize)
}
