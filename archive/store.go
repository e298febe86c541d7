package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/forestrie/go-jellyfish/bloom"
	"github.com/forestrie/go-jellyfish/jmt"
	"github.com/fxamacker/cbor/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	ErrNotFound = errors.New("archive: record not found")
	ErrCorrupt  = errors.New("archive: record does not decode")
)

// Store persists everything the driver produces: proofs, ancestry records,
// the current leaves, rootlog nodes, signed checkpoints and metadata.
//
// Store is safe for concurrent use. It also implements rootlog.NodeAppender.
type Store struct {
	db    *leveldb.DB
	wo    *opt.WriteOptions
	cache *lru.Cache[string, []byte]
	enc   cbor.EncMode
	dec   cbor.DecMode

	mu     sync.Mutex
	filter *bloom.Region
	nodes  uint64
}

// Open opens, or creates, the database in dir.
func Open(dir string, opts ...Option) (*Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", dir, err)
	}
	return newStore(db, opts...)
}

// OpenMem opens a database held entirely in memory.
func OpenMem(opts ...Option) (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return newStore(db, opts...)
}

func newStore(db *leveldb.DB, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{db: db, wo: &opt.WriteOptions{Sync: o.Sync}}
	var err error
	if s.enc, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if s.dec, err = (cbor.DecOptions{}).DecMode(); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if s.cache, err = lru.New[string, []byte](o.CacheSize); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if s.filter, err = s.loadFilter(o); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if s.nodes, err = s.countNodes(); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return s, nil
}

func (s *Store) loadFilter(o Options) (*bloom.Region, error) {
	raw, err := s.db.Get(dbKey(prefixMeta, []byte(metaBloom)), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return bloom.NewRegion(o.BloomCapacity, o.BloomBitsPerElement, 0)
	}
	if err != nil {
		return nil, err
	}
	return bloom.LoadRegion(raw)
}

func (s *Store) countNodes() (uint64, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte{prefixRootlog}), nil)
	defer it.Release()
	if !it.Last() {
		return 0, it.Error()
	}
	return seqFromKey(it.Key()) + 1, it.Error()
}

// Close persists the prefilter and closes the database.
func (s *Store) Close() error {
	return errors.Join(s.FlushFilter(), s.db.Close())
}

// FlushFilter writes the prefilter region to the database.
func (s *Store) FlushFilter() error {
	s.mu.Lock()
	raw := append([]byte(nil), s.filter.Bytes()...)
	s.mu.Unlock()
	return s.db.Put(dbKey(prefixMeta, []byte(metaBloom)), raw, s.wo)
}

func (s *Store) maybeHas(filter uint8, key []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.filter.MaybeContainsKey(filter, key)
	return err != nil || ok
}

func (s *Store) remember(filter uint8, key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.filter.InsertKey(filter, key)
}

func (s *Store) get(key []byte) ([]byte, error) {
	if v, ok := s.cache.Get(string(key)); ok {
		return v, nil
	}
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	s.cache.Add(string(key), v)
	return v, nil
}

func (s *Store) put(key, value []byte) error {
	if err := s.db.Put(key, value, s.wo); err != nil {
		return err
	}
	s.cache.Add(string(key), value)
	return nil
}

func (s *Store) getRecord(key []byte, v any) error {
	raw, err := s.get(key)
	if err != nil {
		return err
	}
	if err := s.dec.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrCorrupt, key, err)
	}
	return nil
}

func (s *Store) putRecord(key []byte, v any) error {
	raw, err := s.enc.Marshal(v)
	if err != nil {
		return err
	}
	return s.put(key, raw)
}

// pathKey keeps paths of different nibble lengths distinct.
func pathKey(prefix byte, k Key) []byte {
	out := make([]byte, 3+len(k.Packed))
	out[0] = prefix
	binary.BigEndian.PutUint16(out[1:3], uint16(k.Nibbles))
	copy(out[3:], k.Packed)
	return out
}

// Proof returns the latest proof archived for key.
func (s *Store) Proof(key jmt.NibblePath) (ProofRecord, error) {
	k := pathKey(prefixProof, KeyOf(key))
	if !s.maybeHas(bloom.FilterProofs, k) {
		return ProofRecord{}, fmt.Errorf("%w: no proof for %s", ErrNotFound, key)
	}
	var rec ProofRecord
	return rec, s.getRecord(k, &rec)
}

func (s *Store) PutProof(rec ProofRecord) error {
	k := pathKey(prefixProof, rec.Key)
	s.remember(bloom.FilterProofs, k)
	return s.putRecord(k, rec)
}

// Ancestry returns the ancestry record of mutation seq.
func (s *Store) Ancestry(seq uint64) (AncestryRecord, error) {
	var rec AncestryRecord
	return rec, s.getRecord(seqKey(prefixAncestry, seq), &rec)
}

func (s *Store) PutAncestry(rec AncestryRecord) error {
	return s.putRecord(seqKey(prefixAncestry, rec.Seq), rec)
}

// Ancestries calls fn for every ancestry record from seq onwards, in order.
func (s *Store) Ancestries(from uint64, fn func(AncestryRecord) error) error {
	it := s.db.NewIterator(&util.Range{
		Start: seqKey(prefixAncestry, from),
		Limit: []byte{prefixAncestry + 1},
	}, nil)
	defer it.Release()
	for it.Next() {
		var rec AncestryRecord
		if err := s.dec.Unmarshal(it.Value(), &rec); err != nil {
			return fmt.Errorf("%w: ancestry %d: %w", ErrCorrupt, seqFromKey(it.Key()), err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return it.Error()
}

// PutLeaf records the current value of a trie leaf.
func (s *Store) PutLeaf(key jmt.NibblePath, value []byte) error {
	return s.put(pathKey(prefixLeaf, KeyOf(key)), value)
}

// Leaves calls fn for every stored leaf in key order.
func (s *Store) Leaves(fn func(key jmt.NibblePath, value []byte) error) error {
	it := s.db.NewIterator(util.BytesPrefix([]byte{prefixLeaf}), nil)
	defer it.Release()
	for it.Next() {
		k := it.Key()
		if len(k) < 3 {
			return fmt.Errorf("%w: leaf key %x", ErrCorrupt, k)
		}
		n := int(binary.BigEndian.Uint16(k[1:3]))
		path, err := jmt.NewNibblePath(append([]byte(nil), k[3:]...), n)
		if err != nil {
			return fmt.Errorf("%w: leaf key %x: %w", ErrCorrupt, k, err)
		}
		if err := fn(path, append([]byte(nil), it.Value()...)); err != nil {
			return err
		}
	}
	return it.Error()
}

// MarkMinted and MaybeMinted track identifiers through the prefilter only.
func (s *Store) MarkMinted(id uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	s.remember(bloom.FilterMinted, b[:])
}

func (s *Store) MaybeMinted(id uint64) bool {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return s.maybeHas(bloom.FilterMinted, b[:])
}

func (s *Store) SaveRegistry(snap jmt.RegistrySnapshot) error {
	return s.putRecord(dbKey(prefixMeta, []byte(metaRegistry)), snap)
}

func (s *Store) LoadRegistry() (jmt.RegistrySnapshot, error) {
	var snap jmt.RegistrySnapshot
	return snap, s.getRecord(dbKey(prefixMeta, []byte(metaRegistry)), &snap)
}

func (s *Store) PutState(st State) error {
	return s.putRecord(dbKey(prefixMeta, []byte(metaState)), st)
}

// State returns the last committed driver state. A new database returns
// ErrNotFound.
func (s *Store) State() (State, error) {
	var st State
	return st, s.getRecord(dbKey(prefixMeta, []byte(metaState)), &st)
}

// PutCheckpoint stores a signed checkpoint taken after mutation seq.
func (s *Store) PutCheckpoint(seq uint64, signed []byte) error {
	k := seqKey(prefixCheck, seq)
	s.remember(bloom.FilterCheckpoints, k)
	return s.put(k, signed)
}

func (s *Store) Checkpoint(seq uint64) ([]byte, error) {
	k := seqKey(prefixCheck, seq)
	if !s.maybeHas(bloom.FilterCheckpoints, k) {
		return nil, fmt.Errorf("%w: no checkpoint at %d", ErrNotFound, seq)
	}
	return s.get(k)
}

// RefreshFilter puts every archived leaf and checkpoint back into the
// prefilter. The persisted region only covers writes up to the last
// FlushFilter, so a store reopened after a crash must be refreshed before
// its negative answers can be trusted.
func (s *Store) RefreshFilter() error {
	err := s.Leaves(func(key jmt.NibblePath, _ []byte) error {
		k := KeyOf(key)
		s.remember(bloom.FilterAncestry, pathKey(prefixLeaf, k))
		s.remember(bloom.FilterProofs, pathKey(prefixProof, k))
		id, err := jmt.KeyIdentifier(key)
		if err != nil {
			return fmt.Errorf("%w: leaf %s: %w", ErrCorrupt, key, err)
		}
		s.MarkMinted(id)
		return nil
	})
	if err != nil {
		return err
	}

	it := s.db.NewIterator(util.BytesPrefix([]byte{prefixCheck}), nil)
	defer it.Release()
	for it.Next() {
		s.remember(bloom.FilterCheckpoints, append([]byte(nil), it.Key()...))
	}
	return it.Error()
}

// LatestCheckpoint returns the checkpoint with the highest sequence number.
func (s *Store) LatestCheckpoint() (uint64, []byte, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte{prefixCheck}), nil)
	defer it.Release()
	if !it.Last() {
		if err := it.Error(); err != nil {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("%w: no checkpoints", ErrNotFound)
	}
	return seqFromKey(it.Key()), append([]byte(nil), it.Value()...), it.Error()
}
