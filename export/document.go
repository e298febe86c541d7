package export

import (
	"errors"
	"fmt"

	"github.com/forestrie/go-jellyfish/jmt"
)

var (
	ErrBadHash     = errors.New("export: hash is not 32 bytes of hex")
	ErrBadSibling  = errors.New("export: sibling index out of range")
	ErrProof       = errors.New("export: proof does not verify")
	ErrAncestry    = errors.New("export: ancestry does not reconstruct the prior root")
	ErrNoAncestry  = errors.New("export: document has no ancestry")
	ErrKeyMismatch = errors.New("export: document token id differs from its proof")
)

type Sibling struct {
	Index uint8  `json:"index"`
	Hash  string `json:"hash"`
}

type Level struct {
	Siblings []Sibling `json:"siblings"`
}

// Proof is the JSON form of a jmt.Proof. Hashes are lower case hex without a
// prefix; levels run leaf to root.
type Proof struct {
	IsMembership bool    `json:"isMembership"`
	Depth        int     `json:"depth"`
	TokenID      uint64  `json:"tokenId"`
	LeafHash     string  `json:"leafHash"`
	Levels       []Level `json:"levels"`
}

type AncestryKey struct {
	Version uint32 `json:"version"`
	TokenID uint64 `json:"tokenId"`
}

type Ancestry struct {
	Splitted      bool        `json:"splitted"`
	PreForkDepth  int         `json:"preForkDepth"`
	Key           AncestryKey `json:"key"`
	RootN         string      `json:"RootN"`
	P             Proof       `json:"P"`
	PriorLeafHash string      `json:"priorLeafHash"`
}

// Document is one exported file. Proof-only documents leave Ancestry nil.
type Document struct {
	TokenID  uint64    `json:"tokenId"`
	Version  uint32    `json:"version"`
	Value    string    `json:"value"`
	Root     string    `json:"root"`
	Proof    Proof     `json:"proof"`
	Ancestry *Ancestry `json:"ancestry,omitempty"`
}

// NewDocument describes a proof for key against root. key must be a 24
// nibble versioned key.
func NewDocument(key jmt.NibblePath, value []byte, root jmt.Digest, p jmt.Proof) (Document, error) {
	version, err := jmt.KeyVersion(key)
	if err != nil {
		return Document{}, err
	}
	id, err := jmt.KeyIdentifier(key)
	if err != nil {
		return Document{}, err
	}
	return Document{
		TokenID: id,
		Version: version,
		Value:   string(value),
		Root:    root.String(),
		Proof:   proofOf(id, p),
	}, nil
}

// SetAncestry attaches the ancestry proof returned by the insert the document
// describes.
func (d *Document) SetAncestry(a jmt.AncestryProof) error {
	version, err := jmt.KeyVersion(a.Key)
	if err != nil {
		return err
	}
	id, err := jmt.KeyIdentifier(a.Key)
	if err != nil {
		return err
	}
	d.Ancestry = &Ancestry{
		Splitted:      a.Splitted,
		PreForkDepth:  a.PreForkingDepth,
		Key:           AncestryKey{Version: version, TokenID: id},
		RootN:         a.RootN.String(),
		P:             proofOf(id, a.Proof),
		PriorLeafHash: a.PriorLeafHash.String(),
	}
	return nil
}

func (d Document) Key() jmt.NibblePath { return jmt.KeyAt(d.Version, d.TokenID) }

func proofOf(id uint64, p jmt.Proof) Proof {
	out := Proof{
		IsMembership: p.Present,
		Depth:        p.Depth,
		TokenID:      id,
		LeafHash:     p.LeafHash.String(),
		Levels:       make([]Level, len(p.Levels)),
	}
	for i, lvl := range p.Levels {
		out.Levels[i].Siblings = make([]Sibling, len(lvl.Siblings))
		for j, s := range lvl.Siblings {
			out.Levels[i].Siblings[j] = Sibling{Index: s.Index, Hash: s.Digest.String()}
		}
	}
	return out
}

// Decode converts the JSON form back to a jmt.Proof.
func (p Proof) Decode() (jmt.Proof, error) {
	leaf, err := parseHash(p.LeafHash)
	if err != nil {
		return jmt.Proof{}, err
	}
	out := jmt.Proof{
		Present:  p.IsMembership,
		Depth:    p.Depth,
		LeafHash: leaf,
		Levels:   make([]jmt.Level, len(p.Levels)),
	}
	for i, lvl := range p.Levels {
		for _, s := range lvl.Siblings {
			if s.Index >= jmt.Radix {
				return jmt.Proof{}, fmt.Errorf("%w: level %d index %d", ErrBadSibling, i, s.Index)
			}
			d, err := parseHash(s.Hash)
			if err != nil {
				return jmt.Proof{}, fmt.Errorf("level %d: %w", i, err)
			}
			out.Levels[i].Siblings = append(out.Levels[i].Siblings, jmt.Sibling{Index: s.Index, Digest: d})
		}
	}
	return out, nil
}

// Decode converts the JSON form back to a jmt.AncestryProof.
func (a Ancestry) Decode() (jmt.AncestryProof, error) {
	p, err := a.P.Decode()
	if err != nil {
		return jmt.AncestryProof{}, err
	}
	rootN, err := parseHash(a.RootN)
	if err != nil {
		return jmt.AncestryProof{}, err
	}
	prior, err := parseHash(a.PriorLeafHash)
	if err != nil {
		return jmt.AncestryProof{}, err
	}
	return jmt.AncestryProof{
		Splitted:        a.Splitted,
		PreForkingDepth: a.PreForkDepth,
		Key:             jmt.KeyAt(a.Key.Version, a.Key.TokenID),
		Proof:           p,
		RootN:           rootN,
		PriorLeafHash:   prior,
	}, nil
}

func parseHash(s string) (jmt.Digest, error) {
	d, err := jmt.ParseDigest(s)
	if err != nil {
		return d, fmt.Errorf("%w: %q", ErrBadHash, s)
	}
	return d, nil
}
