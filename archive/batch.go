package archive

import (
	"github.com/forestrie/go-jellyfish/bloom"
	"github.com/forestrie/go-jellyfish/jmt"
	"github.com/syndtr/goleveldb/leveldb"
)

// Batch groups the records of one mutation so they commit atomically.
type Batch struct {
	s       *Store
	b       *leveldb.Batch
	touched []string
	err     error
}

func (s *Store) NewBatch() *Batch {
	return &Batch{s: s, b: new(leveldb.Batch)}
}

func (b *Batch) put(key []byte, v any) {
	if b.err != nil {
		return
	}
	raw, err := b.s.enc.Marshal(v)
	if err != nil {
		b.err = err
		return
	}
	b.b.Put(key, raw)
	b.touched = append(b.touched, string(key))
}

func (b *Batch) PutProof(rec ProofRecord) {
	k := pathKey(prefixProof, rec.Key)
	b.s.remember(bloom.FilterProofs, k)
	b.put(k, rec)
}

func (b *Batch) PutAncestry(rec AncestryRecord) {
	b.s.remember(bloom.FilterAncestry, pathKey(prefixLeaf, rec.InsertedKey))
	b.put(seqKey(prefixAncestry, rec.Seq), rec)
}

func (b *Batch) PutLeaf(key jmt.NibblePath, value []byte) {
	k := pathKey(prefixLeaf, KeyOf(key))
	b.b.Put(k, append([]byte(nil), value...))
	b.touched = append(b.touched, string(k))
}

func (b *Batch) PutState(st State) {
	b.put(dbKey(prefixMeta, []byte(metaState)), st)
}

func (b *Batch) SaveRegistry(snap jmt.RegistrySnapshot) {
	b.put(dbKey(prefixMeta, []byte(metaRegistry)), snap)
}

// Commit writes the batch. The first encoding error, if any, is returned
// instead and nothing is written.
func (b *Batch) Commit() error {
	if b.err != nil {
		return b.err
	}
	if err := b.s.db.Write(b.b, b.s.wo); err != nil {
		return err
	}
	for _, k := range b.touched {
		b.s.cache.Remove(k)
	}
	return nil
}

// MaybeHasAncestry reports whether an insert of key may have been archived.
func (s *Store) MaybeHasAncestry(key jmt.NibblePath) bool {
	return s.maybeHas(bloom.FilterAncestry, pathKey(prefixLeaf, KeyOf(key)))
}
