package archive

import "encoding/binary"

// Record key prefixes. Every database key is one prefix byte followed by the
// record's own key.
const (
	prefixProof    byte = 'p' // packed trie key
	prefixAncestry byte = 'a' // seq_be8
	prefixRootlog  byte = 'r' // mmr index_be8
	prefixCheck    byte = 'c' // seq_be8
	prefixLeaf     byte = 'l' // packed trie key
	prefixMeta     byte = 'm' // name
)

const (
	metaRegistry = "registry"
	metaBloom    = "bloom"
	metaState    = "state"
)

func dbKey(prefix byte, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = prefix
	copy(out[1:], key)
	return out
}

func seqKey(prefix byte, seq uint64) []byte {
	out := make([]byte, 9)
	out[0] = prefix
	binary.BigEndian.PutUint64(out[1:], seq)
	return out
}

func seqFromKey(k []byte) uint64 {
	return binary.BigEndian.Uint64(k[1:9])
}
