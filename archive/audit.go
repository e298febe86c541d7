package archive

import (
	"errors"
	"fmt"

	"github.com/forestrie/go-jellyfish/jmt"
	"github.com/forestrie/go-jellyfish/rootlog"
)

var ErrAudit = errors.New("archive: audit failed")

// AuditReport counts what Audit checked.
type AuditReport struct {
	Mutations   uint64
	Leaves      uint64
	Proofs      uint64
	Checkpoints uint64
	Root        jmt.Digest
}

// CheckpointVerifier checks the signed checkpoint taken after mutation seq.
type CheckpointVerifier func(seq uint64, msg []byte) error

// Audit replays the archive without trusting it. Every ancestry record must
// reconstruct the root of the record before it, starting from the empty trie,
// and every root it reaches must be recorded at its sequence number in the
// rootlog. The chain must end at the committed state. Every leaf must be
// covered by the prefilter, and an archived proof must verify against a
// recorded root. Checkpoints found along the way are passed to verify, when
// it is not nil.
func (s *Store) Audit(verify CheckpointVerifier) (AuditReport, error) {
	var rep AuditReport
	st, err := s.State()
	if err != nil {
		return rep, err
	}
	roots, err := rootlog.NewLog(s, jmt.NewHasher(), st.LogSize)
	if err != nil {
		return rep, err
	}
	th := jmt.NewHasher()
	rep.Root = jmt.EmptyRootDigest(th)

	err = s.Ancestries(0, func(rec AncestryRecord) error {
		if rec.Seq != rep.Mutations {
			return fmt.Errorf("%w: ancestry %d follows %d records", ErrAudit, rec.Seq, rep.Mutations)
		}
		a, err := rec.Ancestry()
		if err != nil {
			return err
		}
		if rec.PriorRoot != rep.Root {
			return fmt.Errorf("%w: ancestry %d prior root %s, chain is at %s", ErrAudit, rec.Seq, rec.PriorRoot, rep.Root)
		}
		if got := jmt.ReconstructPriorRoot(th, &a, rec.InsertedValue); got != rec.PriorRoot {
			return fmt.Errorf("%w: ancestry %d reconstructs %s", ErrAudit, rec.Seq, got)
		}
		ok, err := roots.Contains(rec.Seq, rec.RootN[:])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: root %s of mutation %d is not in the rootlog", ErrAudit, rec.RootN, rec.Seq)
		}
		rep.Root = rec.RootN
		rep.Mutations++

		if verify == nil {
			return nil
		}
		msg, err := s.Checkpoint(rep.Mutations)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := verify(rep.Mutations, msg); err != nil {
			return fmt.Errorf("%w: checkpoint %d: %w", ErrAudit, rep.Mutations, err)
		}
		rep.Checkpoints++
		return nil
	})
	if err != nil {
		return rep, err
	}
	if rep.Mutations != st.Seq || rep.Root != st.Root {
		return rep, fmt.Errorf("%w: chain ends at %d %s, state is %d %s", ErrAudit, rep.Mutations, rep.Root, st.Seq, st.Root)
	}

	err = s.Leaves(func(key jmt.NibblePath, value []byte) error {
		rep.Leaves++
		id, err := jmt.KeyIdentifier(key)
		if err != nil {
			return fmt.Errorf("%w: leaf %s: %w", ErrCorrupt, key, err)
		}
		if !s.MaybeMinted(id) || !s.MaybeHasAncestry(key) {
			return fmt.Errorf("%w: prefilter does not cover leaf %s", ErrAudit, key)
		}

		rec, err := s.Proof(key)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !jmt.VerifyMembership(th, key, value, rec.Proof, rec.Root) {
			return fmt.Errorf("%w: proof for %s does not verify", ErrAudit, key)
		}
		ok, err := roots.Contains(rec.Seq, rec.Root[:])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: proof for %s is against a root the log did not record", ErrAudit, key)
		}
		rep.Proofs++
		return nil
	})
	return rep, err
}
