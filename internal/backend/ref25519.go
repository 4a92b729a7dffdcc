package backend

import (
	"encoding/hex"
	"fmt"

	circled "github.com/cloudflare/circl/sign/ed25519"

	"github.com/mreynaud/keymgr/internal/keys"
)

// BackendRef25519 is a pure-Go Ed25519 implementation kept available as
// a verification fallback when the selected ed25519 backend cannot be
// used.
const BackendRef25519 = "ref25519"

type refEd25519Signer struct{}

func (s *refEd25519Signer) Name() string { return BackendRef25519 }

func (s *refEd25519Signer) Sign(key *keys.Key, data []byte) ([]byte, error) {
	if key.KeyType != keys.KeyTypeEd25519 {
		return nil, fmt.Errorf("%w: backend %q only serves ed25519 keys", keys.ErrUnsupportedAlgorithm, BackendRef25519)
	}
	if key.KeyVal.Private == "" {
		return nil, keys.ErrNoPrivateKey
	}
	seed, err := hex.DecodeString(key.KeyVal.Private)
	if err != nil || len(seed) != circled.SeedSize {
		return nil, fmt.Errorf("%w: invalid Ed25519 private key encoding", keys.ErrFormat)
	}
	priv := circled.NewKeyFromSeed(seed)
	return circled.Sign(priv, data), nil
}

func (s *refEd25519Signer) Verify(key *keys.Key, signature, data []byte) (bool, error) {
	if key.KeyType != keys.KeyTypeEd25519 {
		return false, fmt.Errorf("%w: backend %q only serves ed25519 keys", keys.ErrUnsupportedAlgorithm, BackendRef25519)
	}
	pub, err := hex.DecodeString(key.KeyVal.Public)
	if err != nil || len(pub) != circled.PublicKeySize {
		return false, fmt.Errorf("%w: invalid Ed25519 public key encoding", keys.ErrFormat)
	}
	if len(signature) != circled.SignatureSize {
		return false, nil
	}
	return circled.Verify(circled.PublicKey(pub), data, signature), nil
}
