package jmt

import "encoding/binary"

// PathFromIdentifier returns the 16 nibble big endian path for id.
func PathFromIdentifier(id uint64) NibblePath {
	packed := make([]byte, IdentifierNibbles/2)
	binary.BigEndian.PutUint64(packed, id)
	return NibblePath{packed: packed, nibbles: IdentifierNibbles}
}

// KeyAt prefixes the identifier path for id with an 8 nibble version.
//
// The registry is the normal way to obtain keys. KeyAt exists for callers
// that already know the version, for example verifiers reading exported
// proofs.
func KeyAt(version uint32, id uint64) NibblePath {
	packed := make([]byte, KeyNibbles/2)
	binary.BigEndian.PutUint32(packed[0:4], version)
	binary.BigEndian.PutUint64(packed[4:12], id)
	return NibblePath{packed: packed, nibbles: KeyNibbles}
}

// prefixVersion builds version || path where path has exactly
// IdentifierNibbles nibbles.
func prefixVersion(version uint32, path NibblePath) NibblePath {
	packed := make([]byte, 4, KeyNibbles/2)
	binary.BigEndian.PutUint32(packed, version)
	packed = append(packed, path.packed...)
	return NibblePath{packed: packed, nibbles: KeyNibbles}
}

// IdentifierFromPath decodes a path produced by PathFromIdentifier.
func IdentifierFromPath(path NibblePath) (uint64, error) {
	if path.Len() != IdentifierNibbles {
		return 0, ErrBadKeyLength
	}
	return binary.BigEndian.Uint64(path.packed), nil
}

// KeyVersion extracts the version prefix of a full key.
func KeyVersion(key NibblePath) (uint32, error) {
	if key.Len() != KeyNibbles {
		return 0, ErrBadKeyLength
	}
	return binary.BigEndian.Uint32(key.packed[0:4]), nil
}

// KeyIdentifier extracts the identifier that follows the version prefix.
func KeyIdentifier(key NibblePath) (uint64, error) {
	if key.Len() != KeyNibbles {
		return 0, ErrBadKeyLength
	}
	return binary.BigEndian.Uint64(key.packed[4:12]), nil
}
