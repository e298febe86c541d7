package bloom

import "encoding/binary"

// DecodeHeaderV1 reads the header at the start of region. ok is false for a
// zero filled region.
func DecodeHeaderV1(region []byte) (h HeaderV1, ok bool, err error) {
	if len(region) < HeaderBytesV1 {
		return HeaderV1{}, false, ErrBadRegionSize
	}
	if binary.BigEndian.Uint32(region[0:4]) == 0 {
		return HeaderV1{}, false, nil
	}

	switch {
	case string(region[0:4]) != MagicV1:
		return HeaderV1{}, false, ErrBadMagic
	case region[4] != VersionV1:
		return HeaderV1{}, false, ErrBadVersion
	case region[7] != Filters:
		return HeaderV1{}, false, ErrBadFilters
	}

	h = HeaderV1{
		BitOrder: region[5],
		K:        region[6],
		MBits:    binary.BigEndian.Uint32(region[8:12]),
		Inserted: binary.BigEndian.Uint32(region[12:16]),
	}
	if err := h.check(); err != nil {
		return HeaderV1{}, false, err
	}
	return h, true, nil
}

// EncodeHeaderV1 writes h over the first HeaderBytesV1 of region.
func EncodeHeaderV1(region []byte, h HeaderV1) error {
	if len(region) < HeaderBytesV1 {
		return ErrBadRegionSize
	}
	if err := h.check(); err != nil {
		return err
	}
	copy(region[0:4], MagicV1)
	region[4] = VersionV1
	region[5] = h.BitOrder
	region[6] = h.K
	region[7] = Filters
	binary.BigEndian.PutUint32(region[8:12], h.MBits)
	binary.BigEndian.PutUint32(region[12:16], h.Inserted)
	clear(region[16:HeaderBytesV1])
	return nil
}

func (h HeaderV1) check() error {
	switch {
	case h.BitOrder != BitOrderLSB0:
		return ErrBadBitOrder
	case h.K == 0:
		return ErrBadK
	case h.MBits == 0:
		return ErrBadMBits
	}
	return nil
}
