package jmt

import (
	"encoding/hex"
	"errors"
)

// HashBytes is the fixed width of every digest in the trie.
const HashBytes = 32

const (
	// Radix is the branching factor. Nibble value n selects child slot n.
	Radix = 16

	// VersionNibbles is the width of the big endian version prefix on a key.
	VersionNibbles = 8

	// IdentifierNibbles is the width of the path derived from a 64 bit identifier.
	IdentifierNibbles = 16

	// KeyNibbles is the full key width produced by KeyAt and the registry.
	KeyNibbles = VersionNibbles + IdentifierNibbles
)

// Digest is a 32 byte collision resistant hash value.
type Digest [HashBytes]byte

// DefaultDigest stands for an absent subtree wherever a child slot is empty.
var DefaultDigest Digest

func (d Digest) IsDefault() bool { return d == DefaultDigest }

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// DigestFromBytes copies b into a Digest. b must be exactly HashBytes long.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != HashBytes {
		return d, ErrBadDigestSize
	}
	copy(d[:], b)
	return d, nil
}

// ParseDigest decodes a 64 character hex string.
func ParseDigest(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, errors.Join(ErrBadDigestSize, err)
	}
	return DigestFromBytes(b)
}

var (
	ErrBadDigestSize      = errors.New("jmt: digest must be 32 bytes")
	ErrBadHashSize        = errors.New("jmt: hasher output must be 32 bytes")
	ErrInvalidKey         = errors.New("jmt: key must have at least one nibble")
	ErrInvalidValue       = errors.New("jmt: value must be non empty")
	ErrKeyPrefixConflict  = errors.New("jmt: key is a nibble prefix of a stored key")
	ErrBadNibble          = errors.New("jmt: nibble value out of range")
	ErrBadKeyLength       = errors.New("jmt: key does not have the expected nibble length")
	ErrIdentifierRange    = errors.New("jmt: identifier exceeds the registry capacity")
	ErrNotMinted          = errors.New("jmt: identifier has never been minted")
	ErrVersionsExhausted  = errors.New("jmt: version counter exhausted")
	ErrProofDepthMismatch = errors.New("jmt: proof depth does not match its levels")
	ErrProofTooDeep       = errors.New("jmt: proof has more levels than the key has nibbles")
	ErrBadSiblingIndex    = errors.New("jmt: proof sibling index invalid")
)
