package checkpoint

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	dtcose "github.com/datatrails/go-datatrails-common/cose"
	"github.com/veraison/go-cose"
)

var (
	ErrUnsupportedKey = errors.New("checkpoint: signing key must be ecdsa P-256")
	ErrRootDetached   = errors.New("checkpoint: state has no root, recover it from the rootlog")
)

// Signer produces checkpoints for one issuer and key. Callers must check
// the new state is consistent with the last signed one before publishing.
type Signer struct {
	issuer string
	kid    string
	codec  dtcbor.CBORCodec
	signer cose.Signer
	public ecdsa.PublicKey
}

// NewCodec returns the deterministic codec checkpoints are encoded with.
func NewCodec() (dtcbor.CBORCodec, error) {
	codec, err := dtcbor.NewCBORCodec(
		dtcbor.NewDeterministicEncOpts(),
		dtcbor.NewDeterministicDecOpts(), // unsigned int decodes to uint64
	)
	if err != nil {
		return dtcbor.CBORCodec{}, err
	}
	return codec, nil
}

func NewSigner(issuer, kid string, codec dtcbor.CBORCodec, key *ecdsa.PrivateKey) (*Signer, error) {
	if key == nil || key.Curve != elliptic.P256() {
		return nil, ErrUnsupportedKey
	}
	signer, err := cose.NewSigner(cose.AlgorithmES256, key)
	if err != nil {
		return nil, err
	}
	return &Signer{
		issuer: issuer,
		kid:    kid,
		codec:  codec,
		signer: signer,
		public: key.PublicKey,
	}, nil
}

func (s *Signer) Codec() dtcbor.CBORCodec { return s.codec }

// PublicKey is the key verifiers should be configured to trust.
func (s *Signer) PublicKey() *ecdsa.PublicKey { return &s.public }

// Sign1 signs state for subject and returns the encoded message with the
// root detached.
func (s *Signer) Sign1(subject string, state TreeState, external []byte) ([]byte, error) {
	if len(state.Root) == 0 {
		return nil, ErrRootDetached
	}
	payload, err := s.codec.MarshalCBOR(state)
	if err != nil {
		return nil, err
	}

	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				dtcose.HeaderLabelCWTClaims: dtcose.NewCNFClaim(
					s.issuer, subject, s.kid, s.signer.Algorithm(), s.public),
			},
		},
		Payload: payload,
	}
	if err := msg.Sign(rand.Reader, external, s.signer); err != nil {
		return nil, fmt.Errorf("checkpoint: sign: %w", err)
	}

	state.Root = nil
	if msg.Payload, err = s.codec.MarshalCBOR(state); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}
