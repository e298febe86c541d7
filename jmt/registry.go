package jmt

import (
	"fmt"
	"math"
)

// DefaultRegistryCapacity bounds the identifiers a registry will track.
const DefaultRegistryCapacity = 100_000_000

// VersionRegistry allocates key versions and remembers which version each
// identifier was last minted at.
//
// It is not safe for concurrent use. The component that drives the trie owns
// the registry and serializes access to it.
type VersionRegistry struct {
	capacity uint64
	next     uint64 // next version to hand out, may reach 1<<32
	versions map[uint64]uint32
}

// NewVersionRegistry returns an empty registry accepting identifiers below
// capacity. A zero capacity selects DefaultRegistryCapacity.
func NewVersionRegistry(capacity uint64) *VersionRegistry {
	if capacity == 0 {
		capacity = DefaultRegistryCapacity
	}
	return &VersionRegistry{
		capacity: capacity,
		versions: make(map[uint64]uint32),
	}
}

// BuildKey prefixes path with a version. path must be an identifier path
// (see PathFromIdentifier).
//
// When mint is true the next version is allocated and recorded against the
// identifier. Otherwise the version recorded by the most recent mint is used.
// Nothing is recorded when an error is returned.
func (r *VersionRegistry) BuildKey(path NibblePath, mint bool) (NibblePath, error) {
	id, err := IdentifierFromPath(path)
	if err != nil {
		return NibblePath{}, err
	}
	if id >= r.capacity {
		return NibblePath{}, fmt.Errorf("%w: %d >= %d", ErrIdentifierRange, id, r.capacity)
	}

	if !mint {
		version, ok := r.versions[id]
		if !ok {
			return NibblePath{}, fmt.Errorf("%w: %d", ErrNotMinted, id)
		}
		return prefixVersion(version, path), nil
	}

	if r.next > math.MaxUint32 {
		return NibblePath{}, ErrVersionsExhausted
	}
	version := uint32(r.next)
	r.next++
	r.versions[id] = version
	return prefixVersion(version, path), nil
}

// Key is BuildKey for a raw identifier.
func (r *VersionRegistry) Key(id uint64, mint bool) (NibblePath, error) {
	return r.BuildKey(PathFromIdentifier(id), mint)
}

// Version returns the version id was last minted at.
func (r *VersionRegistry) Version(id uint64) (uint32, bool) {
	v, ok := r.versions[id]
	return v, ok
}

// Next returns the version the next mint will receive.
func (r *VersionRegistry) Next() uint64 { return r.next }

// Minted returns the number of distinct identifiers recorded.
func (r *VersionRegistry) Minted() int { return len(r.versions) }

func (r *VersionRegistry) Capacity() uint64 { return r.capacity }

// RegistrySnapshot is the persistable state of a VersionRegistry.
type RegistrySnapshot struct {
	Capacity uint64            `cbor:"1,keyasint"`
	Next     uint64            `cbor:"2,keyasint"`
	Versions map[uint64]uint32 `cbor:"3,keyasint"`
}

func (r *VersionRegistry) Snapshot() RegistrySnapshot {
	versions := make(map[uint64]uint32, len(r.versions))
	for id, v := range r.versions {
		versions[id] = v
	}
	return RegistrySnapshot{Capacity: r.capacity, Next: r.next, Versions: versions}
}

// RestoreRegistry rebuilds a registry from a snapshot.
func RestoreRegistry(s RegistrySnapshot) (*VersionRegistry, error) {
	r := NewVersionRegistry(s.Capacity)
	if s.Next > math.MaxUint32+1 {
		return nil, ErrVersionsExhausted
	}
	for id, v := range s.Versions {
		if id >= r.capacity {
			return nil, fmt.Errorf("%w: %d >= %d", ErrIdentifierRange, id, r.capacity)
		}
		if uint64(v) >= s.Next {
			return nil, fmt.Errorf("jmt: snapshot version %d for %d is not below next %d", v, id, s.Next)
		}
		r.versions[id] = v
	}
	r.next = s.Next
	return r, nil
}
