package jmt

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofEmptyTree(t *testing.T) {
	tr := newTree(t)
	p := tr.GenerateProof(KeyAt(0, 1))

	assert.False(t, p.Present)
	assert.Equal(t, 1, p.Depth)
	assert.True(t, p.LeafHash.IsDefault())
	assert.True(t, VerifyNonMembership(NewHasher(), KeyAt(0, 1), p, EmptyRootDigest(NewHasher())))
}

func TestProofLeafRoot(t *testing.T) {
	tr := newTree(t)
	mustInsert(t, tr, KeyAt(0, 42), "1")
	r1 := tr.RootDigest()
	h := NewHasher()

	p := tr.GenerateProof(KeyAt(0, 42))
	assert.True(t, p.Present)
	assert.True(t, VerifyMembership(h, KeyAt(0, 42), []byte("1"), p, r1))

	// 43 follows the same slot at depth 0 and lands on 42's leaf.
	q := tr.GenerateProof(KeyAt(0, 43))
	assert.False(t, q.Present)
	assert.Equal(t, 1, q.Depth)
	assert.Equal(t, LeafHash(h, KeyAt(0, 42), []byte("1")), q.LeafHash)
	assert.True(t, VerifyNonMembership(h, KeyAt(0, 43), q, r1))
	assert.False(t, VerifyMembership(h, KeyAt(0, 43), []byte("1"), q, r1))
}

func TestProofLevelsAreLeafFirst(t *testing.T) {
	tr := newTree(t)
	mustInsert(t, tr, KeyAt(0, 7), "1")
	mustInsert(t, tr, KeyAt(0, 23), "1")

	p := tr.GenerateProof(KeyAt(0, 7))
	require.Equal(t, 23, p.Depth)
	require.Len(t, p.Levels[0].Siblings, 1)
	assert.Equal(t, uint8(1), p.Levels[0].Siblings[0].Index)
	assert.Equal(t, LeafHash(NewHasher(), KeyAt(0, 23), []byte("1")), p.Levels[0].Siblings[0].Digest)
	for _, lvl := range p.Levels[1:] {
		assert.Empty(t, lvl.Siblings)
	}
	assert.True(t, VerifyMembership(NewHasher(), KeyAt(0, 7), []byte("1"), p, tr.RootDigest()))
}

func TestProofRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	keys := randomKeys(rng, 256)

	tr := newTree(t)
	for i, k := range keys {
		mustInsert(t, tr, k, fmt.Sprint(i))
	}
	root := tr.RootDigest()
	h := NewHasher()

	for i, k := range keys {
		p := tr.GenerateProof(k)
		require.True(t, p.Present, "key %s", k)
		require.True(t, VerifyProof(h, k, p, root))
		require.True(t, VerifyMembership(h, k, []byte(fmt.Sprint(i)), p, root))
		require.False(t, VerifyMembership(h, k, []byte("wrong"), p, root))
		require.False(t, VerifyNonMembership(h, k, p, root))
	}
}

func TestNonMembershipSoundness(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	keys := randomKeys(rng, 256)

	tr := newTree(t)
	for _, k := range keys {
		mustInsert(t, tr, k, "v")
	}
	root := tr.RootDigest()
	h := NewHasher()

	tampered := 0
	for i := 0; i < 64; i++ {
		absent := KeyAt(uint32(rng.Intn(300)), uint64(5000+rng.Intn(5000)))
		p := tr.GenerateProof(absent)
		require.False(t, p.Present)
		require.True(t, VerifyNonMembership(h, absent, p, root), "absent key %s", absent)

		for li := range p.Levels {
			for si := range p.Levels[li].Siblings {
				bad := p.Clone()
				bad.Levels[li].Siblings[si].Digest[0] ^= 0x01
				require.False(t, VerifyNonMembership(h, absent, bad, root))
				tampered++
			}
		}

		bad := p.Clone()
		bad.LeafHash[31] ^= 0x80
		require.False(t, VerifyNonMembership(h, absent, bad, root))
	}
	require.Positive(t, tampered)
}

func TestProofShapeErrors(t *testing.T) {
	tr := newTree(t)
	mustInsert(t, tr, KeyAt(0, 7), "1")
	mustInsert(t, tr, KeyAt(0, 23), "1")
	h := NewHasher()
	key := KeyAt(0, 7)
	p := tr.GenerateProof(key)

	t.Run("depth mismatch", func(t *testing.T) {
		bad := p.Clone()
		bad.Depth--
		_, err := ComputeProofRoot(h, key, bad)
		require.ErrorIs(t, err, ErrProofDepthMismatch)
		assert.False(t, VerifyProof(h, key, bad, tr.RootDigest()))
	})

	t.Run("no levels", func(t *testing.T) {
		_, err := ComputeProofRoot(h, key, Proof{})
		require.ErrorIs(t, err, ErrProofDepthMismatch)
	})

	t.Run("deeper than the key", func(t *testing.T) {
		short := mustPath(t, 0, 0)
		_, err := ComputeProofRoot(h, short, p)
		require.ErrorIs(t, err, ErrProofTooDeep)
	})

	t.Run("sibling in the path slot", func(t *testing.T) {
		bad := p.Clone()
		bad.Levels[0].Siblings[0].Index = key.At(22)
		_, err := ComputeProofRoot(h, key, bad)
		require.ErrorIs(t, err, ErrBadSiblingIndex)
	})

	t.Run("sibling index out of range", func(t *testing.T) {
		bad := p.Clone()
		bad.Levels[0].Siblings[0].Index = Radix
		_, err := ComputeProofRoot(h, key, bad)
		require.ErrorIs(t, err, ErrBadSiblingIndex)
	})

	t.Run("duplicate sibling", func(t *testing.T) {
		bad := p.Clone()
		bad.Levels[0].Siblings = append(bad.Levels[0].Siblings, bad.Levels[0].Siblings[0])
		_, err := ComputeProofRoot(h, key, bad)
		require.ErrorIs(t, err, ErrBadSiblingIndex)
	})
}

func TestProofCloneIsDeep(t *testing.T) {
	tr := newTree(t)
	mustInsert(t, tr, KeyAt(0, 7), "1")
	mustInsert(t, tr, KeyAt(0, 23), "1")
	p := tr.GenerateProof(KeyAt(0, 7))

	c := p.Clone()
	c.Levels[0].Siblings[0].Digest[0] ^= 0xff
	assert.NotEqual(t, p.Levels[0].Siblings[0].Digest, c.Levels[0].Siblings[0].Digest)
}
