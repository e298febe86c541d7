package bloom

/*

# Bloom prefilter

Four Bloom filters sharing one flat byte region. The archive uses them to skip
database reads for keys it has never written. A filter answers "definitely
not present" or "maybe present", nothing more; it proves nothing.

	+----------------------+  32 byte header (magic, version, params)
	| HeaderV1             |
	+----------------------+
	| filter 0 bitset      |  FilterMinted
	+----------------------+
	| filter 1 bitset      |  FilterProofs
	+----------------------+
	| filter 2 bitset      |  FilterAncestry
	+----------------------+
	| filter 3 bitset      |  FilterCheckpoints
	+----------------------+

All bitsets have the same mBits. Bit j lives in byte j/8 at bit j%8 (LSB0).

Elements are 32 bytes. Probe positions use double hashing over a Keccak-256
digest that is domain separated by a version byte and the filter index:

	h1, h2 = Keccak-256( 0xB1 || filter || elem )[0:16]
	bit_i  = (h1 + i*h2) mod mBits,  i in [0, k)

Functions with a V1 suffix implement this exact layout, so a future format
can live beside it without misreading persisted regions.

*/
