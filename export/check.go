package export

import (
	"fmt"
	"hash"

	"github.com/forestrie/go-jellyfish/jmt"
)

// Check verifies a document on its own: the proof must show Value stored
// under the document key in Root, or, for a non-membership proof, that the
// key is absent from Root.
func Check(hasher hash.Hash, d Document) error {
	root, err := parseHash(d.Root)
	if err != nil {
		return err
	}
	if d.Proof.TokenID != d.TokenID {
		return fmt.Errorf("%w: %d != %d", ErrKeyMismatch, d.Proof.TokenID, d.TokenID)
	}
	p, err := d.Proof.Decode()
	if err != nil {
		return err
	}

	key := d.Key()
	var ok bool
	if p.Present {
		ok = jmt.VerifyMembership(hasher, key, []byte(d.Value), p, root)
	} else {
		ok = jmt.VerifyNonMembership(hasher, key, p, root)
	}
	if !ok {
		return fmt.Errorf("%w: token %d version %d", ErrProof, d.TokenID, d.Version)
	}
	return nil
}

// Chain checks a run of insert documents in the order they were produced.
// Each document's ancestry must reconstruct the root of the one before it,
// starting from the empty trie.
type Chain struct {
	hasher hash.Hash
	prior  jmt.Digest
	n      int
}

func NewChain(hasher hash.Hash) *Chain {
	return &Chain{hasher: hasher, prior: jmt.EmptyRootDigest(hasher)}
}

// Resume starts the chain from a known root instead of the empty trie.
func (c *Chain) Resume(root jmt.Digest) { c.prior = root }

// Root is the root after the last accepted document.
func (c *Chain) Root() jmt.Digest { return c.prior }

// Len is the number of documents accepted.
func (c *Chain) Len() int { return c.n }

func (c *Chain) Next(d Document) error {
	if err := Check(c.hasher, d); err != nil {
		return err
	}
	if d.Ancestry == nil {
		return fmt.Errorf("%w: token %d", ErrNoAncestry, d.TokenID)
	}
	a, err := d.Ancestry.Decode()
	if err != nil {
		return err
	}
	root, _ := parseHash(d.Root)
	if a.RootN != root {
		return fmt.Errorf("%w: RootN differs from the document root", ErrAncestry)
	}
	if got := jmt.ReconstructPriorRoot(c.hasher, &a, []byte(d.Value)); got != c.prior {
		return fmt.Errorf("%w: document %d, got %s want %s", ErrAncestry, c.n, got, c.prior)
	}
	c.prior = root
	c.n++
	return nil
}
