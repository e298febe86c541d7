package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/forestrie/go-jellyfish/jmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mintDocs inserts KeyAt(0, id) for each id and returns one insert document
// per mutation.
func mintDocs(t *testing.T, ids ...uint64) []Document {
	t.Helper()
	tr, err := jmt.New()
	require.NoError(t, err)

	var docs []Document
	for _, id := range ids {
		key := jmt.KeyAt(0, id)
		a, err := tr.Insert(key, []byte("1"))
		require.NoError(t, err)
		d, err := NewDocument(key, []byte("1"), tr.RootDigest(), tr.GenerateProof(key))
		require.NoError(t, err)
		require.NoError(t, d.SetAncestry(a))
		docs = append(docs, d)
	}
	return docs
}

func TestDocumentFieldNames(t *testing.T) {
	docs := mintDocs(t, 7, 23)
	raw, err := json.Marshal(docs[1])
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, k := range []string{"tokenId", "version", "value", "root", "proof", "ancestry"} {
		assert.Contains(t, m, k)
	}
	anc := m["ancestry"].(map[string]any)
	for _, k := range []string{"splitted", "preForkDepth", "key", "RootN", "P", "priorLeafHash"} {
		assert.Contains(t, anc, k)
	}
	proof := m["proof"].(map[string]any)
	for _, k := range []string{"isMembership", "depth", "tokenId", "leafHash", "levels"} {
		assert.Contains(t, proof, k)
	}
	assert.Equal(t, true, anc["splitted"])
	assert.Equal(t, float64(1), anc["preForkDepth"])
}

func TestEmptyLevelsAreArrays(t *testing.T) {
	docs := mintDocs(t, 7, 23)
	raw, err := json.Marshal(docs[1].Proof)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "null")
}

func TestCheck(t *testing.T) {
	docs := mintDocs(t, 7, 23, 300, 4096)
	h := jmt.NewHasher()
	for _, d := range docs {
		require.NoError(t, Check(h, d))
	}

	tests := []struct {
		name   string
		mutate func(d *Document)
		err    error
	}{
		{"value", func(d *Document) { d.Value = "2" }, ErrProof},
		{"root", func(d *Document) { d.Root = jmt.DefaultDigest.String() }, ErrProof},
		{"bad root", func(d *Document) { d.Root = "00" }, ErrBadHash},
		{"token", func(d *Document) { d.TokenID++ }, ErrKeyMismatch},
		{"sibling", func(d *Document) { d.Proof.Levels[0].Siblings[0].Index = 16 }, ErrBadSibling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mintDocs(t, 7, 23)[1]
			tt.mutate(&d)
			require.ErrorIs(t, Check(h, d), tt.err)
		})
	}
}

func TestCheckNonMembership(t *testing.T) {
	tr, err := jmt.New()
	require.NoError(t, err)
	_, err = tr.Insert(jmt.KeyAt(0, 7), []byte("1"))
	require.NoError(t, err)

	absent := jmt.KeyAt(0, 8)
	d, err := NewDocument(absent, nil, tr.RootDigest(), tr.GenerateProof(absent))
	require.NoError(t, err)
	assert.False(t, d.Proof.IsMembership)
	require.NoError(t, Check(jmt.NewHasher(), d))
}

func TestChain(t *testing.T) {
	docs := mintDocs(t, 7, 23, 300, 7000, 8)
	c := NewChain(jmt.NewHasher())
	for _, d := range docs {
		require.NoError(t, c.Next(d))
	}
	assert.Equal(t, len(docs), c.Len())
	assert.Equal(t, docs[len(docs)-1].Root, c.Root().String())

	// Skipping a document breaks the chain.
	c = NewChain(jmt.NewHasher())
	require.NoError(t, c.Next(docs[0]))
	require.ErrorIs(t, c.Next(docs[2]), ErrAncestry)

	proofOnly := docs[0]
	proofOnly.Ancestry = nil
	require.ErrorIs(t, NewChain(jmt.NewHasher()).Next(proofOnly), ErrNoAncestry)
}

func TestWriteAllAndRead(t *testing.T) {
	docs := mintDocs(t, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	w, err := NewWriter(filepath.Join(t.TempDir(), "proofs"), WithConcurrency(3))
	require.NoError(t, err)
	require.NoError(t, w.WriteAll(context.Background(), 0, docs[:10]))
	require.NoError(t, w.WriteAll(context.Background(), 10, docs[10:]))

	files, err := List(w.Dir())
	require.NoError(t, err)
	require.Len(t, files, len(docs))
	assert.Equal(t, "output_00000.json", filepath.Base(files[0]))
	assert.Equal(t, "output_00011.json", filepath.Base(files[11]))

	c := NewChain(jmt.NewHasher())
	for i, f := range files {
		d, err := ReadDocument(f)
		require.NoError(t, err)
		assert.Equal(t, docs[i], d)
		require.NoError(t, c.Next(d))
	}
}

func TestWriteAllCancelled(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, w.WriteAll(ctx, 0, mintDocs(t, 1, 2)), context.Canceled)
}

func TestReadDocumentErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadDocument(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, FileName(0))
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = ReadDocument(bad)
	require.Error(t, err)
}
