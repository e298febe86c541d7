package checkpoint

import (
	"github.com/google/uuid"
)

// TreeState is the signed commitment to the trie and its root history.
type TreeState struct {
	// LogSize is the rootlog mmr size. Every later size can reproduce the
	// root attested here, so old checkpoints stay verifiable.
	LogSize uint64 `cbor:"1,keyasint"`
	// Root is the bagged rootlog peaks at LogSize. It is detached before the
	// message is published.
	Root []byte `cbor:"2,keyasint"`
	// Timestamp is unix milliseconds at signing. It allows the same state to
	// be signed again.
	Timestamp int64 `cbor:"3,keyasint"`
	// Version is the next version the registry would mint.
	Version uint64 `cbor:"4,keyasint"`
	// Leaves is the number of keys in the trie.
	Leaves uint64 `cbor:"5,keyasint"`
	// LogID names the log the checkpoint belongs to.
	LogID uuid.UUID `cbor:"6,keyasint"`
	// TrieRoot is the trie digest after the last mutation. It is also the
	// last rootlog leaf, so it stays attached.
	TrieRoot []byte `cbor:"7,keyasint"`
}
