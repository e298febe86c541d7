package archive

import (
	"errors"
	"testing"

	"github.com/forestrie/go-jellyfish/jmt"
	"github.com/forestrie/go-jellyfish/rootlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := OpenMem(append([]Option{WithBloom(1024, 16)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.db.Close() })
	return s
}

func newTreeWith(t *testing.T, ids ...uint64) (*jmt.Tree, []jmt.AncestryProof) {
	t.Helper()
	tr, err := jmt.New()
	require.NoError(t, err)
	var out []jmt.AncestryProof
	for _, id := range ids {
		a, err := tr.Insert(jmt.KeyAt(0, id), []byte("v"))
		require.NoError(t, err)
		out = append(out, a)
	}
	return tr, out
}

func TestProofRecord(t *testing.T) {
	s := openTestStore(t)
	tr, _ := newTreeWith(t, 7, 23)
	key := jmt.KeyAt(0, 7)

	_, err := s.Proof(key)
	require.ErrorIs(t, err, ErrNotFound)

	rec := ProofRecord{Seq: 1, Key: KeyOf(key), Value: []byte("v"), Root: tr.RootDigest(), Proof: tr.GenerateProof(key)}
	require.NoError(t, s.PutProof(rec))

	got, err := s.Proof(key)
	require.NoError(t, err)
	assert.Equal(t, rec.Root, got.Root)
	assert.Equal(t, rec.Proof.Depth, got.Proof.Depth)
	assert.True(t, jmt.VerifyMembership(jmt.NewHasher(), key, got.Value, got.Proof, got.Root))
}

func TestPathKeysKeepLengthsApart(t *testing.T) {
	one, err := jmt.PathFromNibbles([]uint8{1})
	require.NoError(t, err)
	two, err := jmt.PathFromNibbles([]uint8{1, 0})
	require.NoError(t, err)
	assert.NotEqual(t, pathKey(prefixLeaf, KeyOf(one)), pathKey(prefixLeaf, KeyOf(two)))
}

func TestAncestryRecords(t *testing.T) {
	s := openTestStore(t)
	tr, err := jmt.New()
	require.NoError(t, err)

	var priors []jmt.Digest
	for seq, id := range []uint64{7, 23, 300} {
		prior := tr.RootDigest()
		priors = append(priors, prior)
		key := jmt.KeyAt(0, id)
		a, err := tr.Insert(key, []byte("v"))
		require.NoError(t, err)
		require.NoError(t, s.PutAncestry(NewAncestryRecord(uint64(seq), key, []byte("v"), a, prior)))
	}

	rec, err := s.Ancestry(1)
	require.NoError(t, err)
	a, err := rec.Ancestry()
	require.NoError(t, err)
	assert.True(t, a.Splitted)
	assert.Equal(t, priors[1], jmt.ReconstructPriorRoot(jmt.NewHasher(), &a, rec.InsertedValue))

	var seen []uint64
	require.NoError(t, s.Ancestries(1, func(r AncestryRecord) error {
		seen = append(seen, r.Seq)
		return nil
	}))
	assert.Equal(t, []uint64{1, 2}, seen)

	_, err = s.Ancestry(9)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLeaves(t *testing.T) {
	s := openTestStore(t)
	for _, id := range []uint64{300, 7, 23} {
		require.NoError(t, s.PutLeaf(jmt.KeyAt(0, id), []byte{byte(id)}))
	}

	var keys []string
	require.NoError(t, s.Leaves(func(k jmt.NibblePath, v []byte) error {
		keys = append(keys, k.String())
		return nil
	}))
	assert.Equal(t, []string{jmt.KeyAt(0, 7).String(), jmt.KeyAt(0, 23).String(), jmt.KeyAt(0, 300).String()}, keys)
}

func TestBatchCommit(t *testing.T) {
	s := openTestStore(t)
	key := jmt.KeyAt(0, 5)
	require.NoError(t, s.PutLeaf(key, []byte("old")))
	_, err := s.get(pathKey(prefixLeaf, KeyOf(key)))
	require.NoError(t, err, "prime the cache")

	b := s.NewBatch()
	b.PutLeaf(key, []byte("new"))
	b.PutState(State{Seq: 4, LogSize: 7, Rows: 5})
	require.NoError(t, b.Commit())

	v, err := s.get(pathKey(prefixLeaf, KeyOf(key)))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v, "commit must not leave a stale cache entry")

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, State{Seq: 4, LogSize: 7, Rows: 5}, st)
}

func TestRegistryMeta(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadRegistry()
	require.ErrorIs(t, err, ErrNotFound)

	r := jmt.NewVersionRegistry(100)
	for _, id := range []uint64{3, 9, 3} {
		_, err := r.Key(id, true)
		require.NoError(t, err)
	}
	require.NoError(t, s.SaveRegistry(r.Snapshot()))

	snap, err := s.LoadRegistry()
	require.NoError(t, err)
	assert.Equal(t, r.Snapshot(), snap)
}

func TestMinted(t *testing.T) {
	s := openTestStore(t)
	assert.False(t, s.MaybeMinted(12))
	s.MarkMinted(12)
	assert.True(t, s.MaybeMinted(12))
}

func TestCheckpoints(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.LatestCheckpoint()
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.PutCheckpoint(10, []byte("ten")))
	require.NoError(t, s.PutCheckpoint(2, []byte("two")))

	seq, raw, err := s.LatestCheckpoint()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), seq)
	assert.Equal(t, []byte("ten"), raw)

	raw, err = s.Checkpoint(2)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), raw)

	_, err = s.Checkpoint(3)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRootlogNodes(t *testing.T) {
	s := openTestStore(t)
	log, err := rootlog.NewLog(s, sha3.NewLegacyKeccak256(), 0)
	require.NoError(t, err)

	_, proofs := newTreeWith(t, 1, 2, 3, 4, 5)
	for seq, a := range proofs {
		require.NoError(t, log.Append(uint64(seq), a.RootN[:]))
	}
	assert.Equal(t, uint64(8), log.Size())
	assert.Equal(t, log.Size(), s.NodeCount())

	ok, err := log.Contains(4, proofs[4].RootN[:])
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Get(99)
	require.ErrorIs(t, err, rootlog.ErrIndexRange)
}

func TestTruncateNodes(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		_, err := s.Append([]byte{byte(i)})
		require.NoError(t, err)
	}
	require.NoError(t, s.TruncateNodes(3))
	assert.Equal(t, uint64(3), s.NodeCount())
	_, err := s.Get(3)
	require.ErrorIs(t, err, rootlog.ErrIndexRange)

	n, err := s.Append([]byte{9})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
	v, err := s.Get(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, v)
}

func TestReopenRecoversNodesAndFilter(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, WithBloom(1024, 16), WithSync(false))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := s.Append([]byte{byte(i)})
		require.NoError(t, err)
	}
	s.MarkMinted(77)
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, uint64(4), s.NodeCount())
	assert.True(t, s.MaybeMinted(77))
	assert.Equal(t, uint32(1024*16), s.filter.Header().MBits)
}

func TestRefreshFilterAfterCrash(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, WithBloom(1024, 16), WithSync(false))
	require.NoError(t, err)
	key := jmt.KeyAt(0, 41)
	b := s.NewBatch()
	b.PutLeaf(key, []byte("v"))
	require.NoError(t, b.Commit())
	require.NoError(t, s.PutCheckpoint(1, []byte("one")))
	// Close the database without persisting the prefilter.
	require.NoError(t, s.db.Close())

	s, err = Open(dir, WithBloom(1024, 16))
	require.NoError(t, err)
	defer s.Close()
	assert.False(t, s.MaybeMinted(41))
	_, err = s.Checkpoint(1)
	require.ErrorIs(t, err, ErrNotFound, "the stale filter hides the checkpoint")

	require.NoError(t, s.RefreshFilter())
	assert.True(t, s.MaybeMinted(41))
	assert.True(t, s.MaybeHasAncestry(key))
	raw, err := s.Checkpoint(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), raw)
}

// populate commits one mutation per id the way the ingest driver does.
func populate(t *testing.T, s *Store, ids ...uint64) (*jmt.Tree, *rootlog.Log) {
	t.Helper()
	tr, err := jmt.New()
	require.NoError(t, err)
	log, err := rootlog.NewLog(s, jmt.NewHasher(), 0)
	require.NoError(t, err)

	for seq, id := range ids {
		key := jmt.KeyAt(uint32(seq), id)
		value := []byte("1")
		prior := tr.RootDigest()
		a, err := tr.Insert(key, value)
		require.NoError(t, err)
		root := tr.RootDigest()
		require.NoError(t, log.Append(uint64(seq), root[:]))
		s.MarkMinted(id)

		b := s.NewBatch()
		b.PutLeaf(key, value)
		b.PutProof(ProofRecord{Seq: uint64(seq), Key: KeyOf(key), Value: value, Root: root, Proof: tr.GenerateProof(key)})
		b.PutAncestry(NewAncestryRecord(uint64(seq), key, value, a, prior))
		b.PutState(State{Seq: uint64(seq) + 1, LogSize: log.Size(), Root: root})
		require.NoError(t, b.Commit())
	}
	return tr, log
}

func TestAudit(t *testing.T) {
	s := openTestStore(t)
	tr, _ := populate(t, s, 7, 23, 300, 7, 41)
	require.NoError(t, s.PutCheckpoint(2, []byte("two")))
	require.NoError(t, s.PutCheckpoint(5, []byte("five")))

	var seen []uint64
	rep, err := s.Audit(func(seq uint64, msg []byte) error {
		seen = append(seen, seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, AuditReport{Mutations: 5, Leaves: 5, Proofs: 5, Checkpoints: 2, Root: tr.RootDigest()}, rep)
	assert.Equal(t, []uint64{2, 5}, seen)

	_, err = s.Audit(func(seq uint64, msg []byte) error { return errors.New("bad signature") })
	require.ErrorIs(t, err, ErrAudit)
}

func TestAuditRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, s *Store)
	}{
		{"tampered ancestry", func(t *testing.T, s *Store) {
			rec, err := s.Ancestry(2)
			require.NoError(t, err)
			rec.PriorLeafHash[0] ^= 1
			require.NoError(t, s.PutAncestry(rec))
		}},
		{"broken chain", func(t *testing.T, s *Store) {
			rec, err := s.Ancestry(2)
			require.NoError(t, err)
			rec.PriorRoot = jmt.DefaultDigest
			require.NoError(t, s.PutAncestry(rec))
		}},
		{"tampered post root", func(t *testing.T, s *Store) {
			rec, err := s.Ancestry(3)
			require.NoError(t, err)
			rec.RootN[0] ^= 1
			require.NoError(t, s.PutAncestry(rec))
		}},
		{"state ahead of the records", func(t *testing.T, s *Store) {
			st, err := s.State()
			require.NoError(t, err)
			st.Seq++
			require.NoError(t, s.PutState(st))
		}},
		{"tampered proof", func(t *testing.T, s *Store) {
			key := jmt.KeyAt(1, 23)
			rec, err := s.Proof(key)
			require.NoError(t, err)
			rec.Value = []byte("2")
			require.NoError(t, s.PutLeaf(key, rec.Value))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t)
			populate(t, s, 7, 23, 300, 41)
			tt.mutate(t, s)
			_, err := s.Audit(nil)
			require.ErrorIs(t, err, ErrAudit)
		})
	}
}
