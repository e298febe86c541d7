// Package checkpoint signs and verifies attestations of the root history.
//
// A checkpoint is a COSE Sign1 message whose payload is a CBOR encoded
// TreeState. The rootlog root is removed from the payload after signing, so
// a verifier has to recompute it from the rootlog at TreeState.LogSize before
// the signature will check. A checkpoint therefore only verifies against a
// log that really contains the attested history.
package checkpoint
