// Package signer implements signature creation and verification with
// backend dispatch. Every operation validates its arguments, checks
// the key's scheme, routes to the backend selected for the key family,
// and normalizes the result.
package signer

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mreynaud/keymgr/internal/backend"
	"github.com/mreynaud/keymgr/internal/keys"
)

// Signature binds a hex-encoded signature to the keyid of the signing
// key.
type Signature struct {
	KeyID string `json:"keyid"`
	Sig   string `json:"sig"`
}

// CreateSignature signs data with the key using the backend selected
// for the key's family. The returned signature carries the key's
// derived keyid. Keys without private material fail with
// keys.ErrNoPrivateKey.
func CreateSignature(reg *backend.Registry, key *keys.Key, data []byte) (*Signature, error) {
	if reg == nil || key == nil {
		return nil, fmt.Errorf("%w: nil argument", keys.ErrFormat)
	}
	if err := keys.ValidateScheme(key.KeyType, key.Scheme); err != nil {
		return nil, err
	}
	if key.KeyVal.Private == "" {
		return nil, keys.ErrNoPrivateKey
	}

	family, err := backend.FamilyForKeyType(key.KeyType)
	if err != nil {
		return nil, err
	}
	s, err := reg.Signer(family)
	if err != nil {
		return nil, err
	}

	raw, err := s.Sign(key, data)
	if err != nil {
		return nil, err
	}

	keyid, err := keys.DeriveKeyID(key.KeyType, key.Scheme, key.KeyVal)
	if err != nil {
		return nil, err
	}
	return &Signature{KeyID: keyid, Sig: hex.EncodeToString(raw)}, nil
}

// VerifySignature checks sig over data against the key's public
// material. A signature made with a different key, or whose keyid does
// not match the key, verifies as (false, nil); errors are reserved for
// malformed input and unusable backends. When the selected ed25519
// backend is unavailable, verification falls back to the pure-Go
// reference implementation.
func VerifySignature(reg *backend.Registry, key *keys.Key, sig *Signature, data []byte) (bool, error) {
	if reg == nil || key == nil || sig == nil {
		return false, fmt.Errorf("%w: nil argument", keys.ErrFormat)
	}
	if err := keys.ValidateScheme(key.KeyType, key.Scheme); err != nil {
		return false, err
	}

	raw, err := hex.DecodeString(sig.Sig)
	if err != nil {
		return false, fmt.Errorf("%w: signature is not hex encoded", keys.ErrFormat)
	}

	keyid, err := keys.DeriveKeyID(key.KeyType, key.Scheme, key.KeyVal)
	if err != nil {
		return false, err
	}
	if sig.KeyID != keyid {
		return false, nil
	}

	family, err := backend.FamilyForKeyType(key.KeyType)
	if err != nil {
		return false, err
	}
	s, err := reg.Signer(family)
	if err != nil {
		if family == backend.FamilyEd25519 && errors.Is(err, keys.ErrUnsupportedLibrary) {
			if ref, refErr := reg.ReferenceEd25519(); refErr == nil {
				return ref.Verify(key, raw, data)
			}
		}
		return false, err
	}
	return s.Verify(key, raw, data)
}
