package archive

import (
	"errors"
	"fmt"

	"github.com/forestrie/go-jellyfish/rootlog"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var _ rootlog.NodeAppender = (*Store)(nil)

// Get returns rootlog node i.
func (s *Store) Get(i uint64) ([]byte, error) {
	v, err := s.get(seqKey(prefixRootlog, i))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: node %d", rootlog.ErrIndexRange, i)
	}
	return v, err
}

// Append adds the next rootlog node and returns the new node count.
func (s *Store) Append(value []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := append([]byte(nil), value...)
	k := seqKey(prefixRootlog, s.nodes)
	if err := s.db.Put(k, v, s.wo); err != nil {
		return 0, err
	}
	s.cache.Add(string(k), v)
	s.nodes++
	return s.nodes, nil
}

// NodeCount is the number of rootlog nodes stored.
func (s *Store) NodeCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes
}

// TruncateNodes drops rootlog nodes at and above size. A crash between the
// rootlog append and the state commit leaves such nodes behind.
func (s *Store) TruncateNodes(size uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size >= s.nodes {
		return nil
	}

	b := new(leveldb.Batch)
	it := s.db.NewIterator(&util.Range{
		Start: seqKey(prefixRootlog, size),
		Limit: []byte{prefixRootlog + 1},
	}, nil)
	for it.Next() {
		k := append([]byte(nil), it.Key()...)
		b.Delete(k)
		s.cache.Remove(string(k))
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}
	if err := s.db.Write(b, s.wo); err != nil {
		return err
	}
	s.nodes = size
	return nil
}
