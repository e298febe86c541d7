package rootlog

/*

# Root history

rootlog is an append only Merkle Mountain Range over the root digests a
Jellyfish Merkle Tree has moved through. Each accepted mutation appends one
leaf, so the leaf index of a root is its mutation sequence number.

	leaf     = H( 0x00 || seq_be8 || root )
	interior = H( pos_be8 || left || right )

pos is the one based position of the interior node. Committing the position
means a node can only ever verify at the place it was added, which is what
makes the consistency proofs below sound.

# Layout

Nodes are stored in post order, which is also their append order. All
navigation is done with binary arithmetic on the index, the tree is never
materialized. For 11 leaves (mmr size 19) the indices are:

	3              14
	             /    \
	            /      \
	           /        \
	          /          \
	2        6            13
	       /   \        /    \
	1     2     5      9     12     17
	     / \   / \    / \   /  \   /  \
	0   0   1 3   4  7   8 10  11 15  16 18

Peaks are listed highest first: [14, 17, 18]. The bitmap of peak heights,
0b1011, is also the leaf count.

# Proofs

An inclusion proof is the list of siblings from a node up to the peak that
commits it. A consistency proof from size A to size B is the concatenation of
the inclusion proofs, in B, of every peak of A. The number of siblings each
peak needs is a function of the two sizes, so the path is split without any
markers.

The bagged root used by checkpoints folds the peaks right to left:

	root = H( peak0 || H( peak1 || ... H( peakN-1 || peakN ) ) )

*/
