package cose

import (
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	gocose "github.com/veraison/go-cose"

	"github.com/mreynaud/keymgr/internal/backend"
	"github.com/mreynaud/keymgr/internal/keys"
	"github.com/mreynaud/keymgr/internal/signer"
)

// Signer adapts backend-dispatched signing to the go-cose signing
// interface.
type Signer struct {
	reg *backend.Registry
	key *keys.Key
	alg gocose.Algorithm
}

// NewSigner builds a COSE signer for a key with private material.
func NewSigner(reg *backend.Registry, key *keys.Key) (*Signer, error) {
	if reg == nil || key == nil {
		return nil, fmt.Errorf("%w: nil argument", keys.ErrFormat)
	}
	alg, err := AlgorithmForScheme(key.Scheme)
	if err != nil {
		return nil, err
	}
	if !key.HasPrivate() {
		return nil, keys.ErrNoPrivateKey
	}
	return &Signer{reg: reg, key: key, alg: alg}, nil
}

// Algorithm implements gocose.Signer.
func (s *Signer) Algorithm() gocose.Algorithm {
	return s.alg
}

// Sign implements gocose.Signer. COSE carries ECDSA signatures as raw
// R || S, so DER signatures from the backend are re-encoded.
func (s *Signer) Sign(_ io.Reader, content []byte) ([]byte, error) {
	sig, err := signer.CreateSignature(s.reg, s.key, content)
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(sig.Sig)
	if err != nil {
		return nil, fmt.Errorf("%w: backend produced a non-hex signature", keys.ErrFormat)
	}
	if s.key.KeyType == keys.KeyTypeECDSA {
		return ecdsaDERToRaw(raw, s.key.Scheme)
	}
	return raw, nil
}

// Verifier adapts backend-dispatched verification to the go-cose
// verification interface.
type Verifier struct {
	reg *backend.Registry
	key *keys.Key
	alg gocose.Algorithm
}

// NewVerifier builds a COSE verifier for a key's public material.
func NewVerifier(reg *backend.Registry, key *keys.Key) (*Verifier, error) {
	if reg == nil || key == nil {
		return nil, fmt.Errorf("%w: nil argument", keys.ErrFormat)
	}
	alg, err := AlgorithmForScheme(key.Scheme)
	if err != nil {
		return nil, err
	}
	return &Verifier{reg: reg, key: key, alg: alg}, nil
}

// Algorithm implements gocose.Verifier.
func (v *Verifier) Algorithm() gocose.Algorithm {
	return v.alg
}

// Verify implements gocose.Verifier.
func (v *Verifier) Verify(content, signature []byte) error {
	raw := signature
	if v.key.KeyType == keys.KeyTypeECDSA {
		der, err := ecdsaRawToDER(signature, v.key.Scheme)
		if err != nil {
			return err
		}
		raw = der
	}

	keyid, err := keys.DeriveKeyID(v.key.KeyType, v.key.Scheme, v.key.KeyVal)
	if err != nil {
		return err
	}
	ok, err := signer.VerifySignature(v.reg, v.key, &signer.Signature{
		KeyID: keyid,
		Sig:   hex.EncodeToString(raw),
	}, content)
	if err != nil {
		return err
	}
	if !ok {
		return gocose.ErrVerification
	}
	return nil
}

// Sign1 signs payload as a COSE Sign1 message. The protected headers
// carry the algorithm and the key's keyid.
func Sign1(reg *backend.Registry, key *keys.Key, payload []byte) ([]byte, error) {
	s, err := NewSigner(reg, key)
	if err != nil {
		return nil, err
	}
	keyid, err := keys.DeriveKeyID(key.KeyType, key.Scheme, key.KeyVal)
	if err != nil {
		return nil, err
	}

	msg := gocose.NewSign1Message()
	msg.Headers.Protected[gocose.HeaderLabelAlgorithm] = s.Algorithm()
	msg.Headers.Protected[gocose.HeaderLabelKeyID] = []byte(keyid)
	msg.Payload = payload

	if err := msg.Sign(nil, nil, s); err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return msg.MarshalCBOR()
}

// VerifySign1 verifies a COSE Sign1 message against a key. The message
// keyid, when present, must match the key's derived keyid.
func VerifySign1(reg *backend.Registry, key *keys.Key, message []byte) error {
	var msg gocose.Sign1Message
	if err := msg.UnmarshalCBOR(message); err != nil {
		return fmt.Errorf("%w: not a COSE Sign1 message: %v", keys.ErrFormat, err)
	}

	if kid, ok := msg.Headers.Protected[gocose.HeaderLabelKeyID]; ok {
		keyid, err := keys.DeriveKeyID(key.KeyType, key.Scheme, key.KeyVal)
		if err != nil {
			return err
		}
		kidBytes, ok := kid.([]byte)
		if !ok || string(kidBytes) != keyid {
			return gocose.ErrVerification
		}
	}

	v, err := NewVerifier(reg, key)
	if err != nil {
		return err
	}
	return msg.Verify(nil, v)
}

type ecdsaSignature struct {
	R, S *big.Int
}

// curveByteLen returns the scalar length for an ECDSA scheme's curve.
func curveByteLen(scheme keys.Scheme) (int, error) {
	switch scheme {
	case keys.SchemeECDSAP256:
		return 32, nil
	case keys.SchemeECDSAP384:
		return 48, nil
	default:
		return 0, fmt.Errorf("%w: scheme %q is not an ECDSA scheme", keys.ErrUnsupportedAlgorithm, scheme)
	}
}

func ecdsaDERToRaw(der []byte, scheme keys.Scheme) ([]byte, error) {
	n, err := curveByteLen(scheme)
	if err != nil {
		return nil, err
	}
	var sig ecdsaSignature
	if rest, err := asn1.Unmarshal(der, &sig); err != nil || len(rest) != 0 {
		return nil, fmt.Errorf("%w: malformed ECDSA signature", keys.ErrFormat)
	}
	raw := make([]byte, 2*n)
	sig.R.FillBytes(raw[:n])
	sig.S.FillBytes(raw[n:])
	return raw, nil
}

func ecdsaRawToDER(raw []byte, scheme keys.Scheme) ([]byte, error) {
	n, err := curveByteLen(scheme)
	if err != nil {
		return nil, err
	}
	if len(raw) != 2*n {
		return nil, fmt.Errorf("%w: bad ECDSA signature length %d", keys.ErrFormat, len(raw))
	}
	sig := ecdsaSignature{
		R: new(big.Int).SetBytes(raw[:n]),
		S: new(big.Int).SetBytes(raw[n:]),
	}
	return asn1.Marshal(sig)
}
