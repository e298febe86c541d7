package jmt

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes an indented dump of the tree, one node per line.
func Fprint(w io.Writer, t *Tree) error {
	if _, err := fmt.Fprintf(w, "root %s leaves=%d\n", t.RootDigest(), t.Len()); err != nil {
		return err
	}
	return t.Walk(func(depth int, nibble uint8, n Node) error {
		if depth < 0 {
			return nil
		}
		indent := strings.Repeat("  ", depth+1)
		var err error
		switch c := n.(type) {
		case *InternalNode:
			_, err = fmt.Fprintf(w, "%s[%x] internal %s children=%d\n", indent, nibble, InternalHash(t.h.h, c), c.Count())
		case *LeafNode:
			_, err = fmt.Fprintf(w, "%s[%x] leaf key=%s value=%q digest=%s\n", indent, nibble, c.Key, c.Value, c.Digest)
		}
		return err
	})
}

// FprintProof writes a proof level by level, leaf side first.
func FprintProof(w io.Writer, key NibblePath, p Proof) error {
	kind := "non-membership"
	if p.Present {
		kind = "membership"
	}
	if _, err := fmt.Fprintf(w, "%s proof for %s depth=%d anchor=%s\n", kind, key, p.Depth, p.LeafHash); err != nil {
		return err
	}
	for i, lvl := range p.Levels {
		depth := len(p.Levels) - 1 - i
		nibble := "-"
		if depth < key.Len() {
			nibble = fmt.Sprintf("%x", key.At(depth))
		}
		if _, err := fmt.Fprintf(w, "  level %d depth=%d path=%s siblings=%d\n", i, depth, nibble, len(lvl.Siblings)); err != nil {
			return err
		}
		for _, s := range lvl.Siblings {
			if _, err := fmt.Fprintf(w, "    [%x] %s\n", s.Index, s.Digest); err != nil {
				return err
			}
		}
	}
	return nil
}
