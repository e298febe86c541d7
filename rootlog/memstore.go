package rootlog

import "fmt"

// MemStore is a slice backed NodeAppender.
type MemStore struct {
	nodes [][]byte
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Get(i uint64) ([]byte, error) {
	if i >= uint64(len(s.nodes)) {
		return nil, fmt.Errorf("%w: %d >= %d", ErrIndexRange, i, len(s.nodes))
	}
	return s.nodes[i], nil
}

func (s *MemStore) Append(value []byte) (uint64, error) {
	s.nodes = append(s.nodes, append([]byte(nil), value...))
	return uint64(len(s.nodes)), nil
}

// Size returns the number of nodes held.
func (s *MemStore) Size() uint64 { return uint64(len(s.nodes)) }
