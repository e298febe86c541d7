package checkpoint

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"hash"

	"github.com/datatrails/go-datatrails-common/cbor"
	dtcose "github.com/datatrails/go-datatrails-common/cose"
	"github.com/forestrie/go-jellyfish/rootlog"
	"github.com/veraison/go-cose"
)

var (
	ErrKeyMatchFailed = errors.New("checkpoint: the trusted public key did not match the signing key")
	ErrTrieRootMatch  = errors.New("checkpoint: the signed trie root is not the last root in the log")
)

type VerifyOptions struct {
	trustedPub *ecdsa.PublicKey
}

type VerifyOption func(*VerifyOptions)

// WithTrustedPub requires the checkpoint to be signed by pub. Without it any
// key carried in the message is accepted.
func WithTrustedPub(pub *ecdsa.PublicKey) VerifyOption {
	return func(opts *VerifyOptions) {
		opts.trustedPub = pub
	}
}

type publicKeyProvider interface {
	PublicKey() (crypto.PublicKey, cose.Algorithm, error)
}

// DecodeSignedState decodes a checkpoint without verifying it. The returned
// state has no root.
func DecodeSignedState(codec cbor.CBORCodec, msg []byte) (*dtcose.CoseSign1Message, TreeState, error) {
	signed, err := dtcose.NewCoseSign1MessageFromCBOR(
		msg, dtcose.WithDecOptions(cbor.NewDeterministicDecOpts()))
	if err != nil {
		return nil, TreeState{}, err
	}

	var unverified TreeState
	if err := codec.UnmarshalInto(signed.Payload, &unverified); err != nil {
		return nil, TreeState{}, err
	}
	return signed, unverified, nil
}

// VerifySignedState puts state back into the message and checks the
// signature. state.Root must have been recomputed from the rootlog at
// state.LogSize.
func VerifySignedState(
	codec cbor.CBORCodec, keyProvider publicKeyProvider,
	signed *dtcose.CoseSign1Message, state TreeState, external []byte,
) error {
	var err error
	if signed.Payload, err = codec.MarshalCBOR(state); err != nil {
		return err
	}
	return signed.VerifyWithProvider(keyProvider, external)
}

// VerifyFromLog decodes msg, recomputes the root from the nodes in store,
// checks the signed trie root is the last root the log recorded and verifies
// the signature. Unless WithTrustedPub is given, the signature is checked
// against the key carried in the message and the caller still has to trust
// that key.
func VerifyFromLog(
	codec cbor.CBORCodec, msg []byte, store rootlog.NodeGetter, hasher hash.Hash, opts ...VerifyOption,
) (TreeState, error) {
	var options VerifyOptions
	for _, opt := range opts {
		opt(&options)
	}

	signed, state, err := DecodeSignedState(codec, msg)
	if err != nil {
		return TreeState{}, err
	}
	keyProvider := dtcose.NewCWTPublicKeyProvider(signed)
	if options.trustedPub != nil {
		pub, _, err := keyProvider.PublicKey()
		if err != nil {
			return TreeState{}, err
		}
		if !options.trustedPub.Equal(pub) {
			return TreeState{}, ErrKeyMatchFailed
		}
	}

	peaks, err := rootlog.PeakHashes(store, state.LogSize)
	if err != nil {
		return TreeState{}, fmt.Errorf("checkpoint: peaks at %d: %w", state.LogSize, err)
	}
	state.Root = rootlog.BagPeaks(hasher, peaks)

	if err := VerifySignedState(codec, keyProvider, signed, state, nil); err != nil {
		return TreeState{}, fmt.Errorf("checkpoint: verify at %d: %w", state.LogSize, err)
	}
	if err := bindTrieRoot(store, hasher, state); err != nil {
		return TreeState{}, err
	}
	return state, nil
}

// bindTrieRoot checks TrieRoot against the last leaf of the log at LogSize.
// An empty log binds nothing.
func bindTrieRoot(store rootlog.NodeGetter, hasher hash.Hash, state TreeState) error {
	n := rootlog.LeafCount(state.LogSize)
	if n == 0 {
		return nil
	}
	leaf, err := store.Get(rootlog.MMRIndex(n - 1))
	if err != nil {
		return fmt.Errorf("checkpoint: last leaf at %d: %w", state.LogSize, err)
	}
	if !bytes.Equal(leaf, rootlog.HashLeaf(hasher, n-1, state.TrieRoot)) {
		return fmt.Errorf("%w: %x", ErrTrieRootMatch, state.TrieRoot)
	}
	return nil
}
