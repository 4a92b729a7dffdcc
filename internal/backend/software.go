package backend

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/mreynaud/keymgr/internal/keys"
)

// BackendSoftware is the default backend, built on the platform crypto
// implementation.
const BackendSoftware = "software"

// softwareSigner signs and verifies with the standard platform crypto
// for all three key families.
type softwareSigner struct{}

func (s *softwareSigner) Name() string { return BackendSoftware }

func (s *softwareSigner) Sign(key *keys.Key, data []byte) ([]byte, error) {
	priv, err := keys.ParsePrivateKey(key)
	if err != nil {
		return nil, err
	}

	switch key.KeyType {
	case keys.KeyTypeRSA:
		rsaPriv, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: private material does not match keytype", keys.ErrFormat)
		}
		return signRSA(rsaPriv, key.Scheme, data)
	case keys.KeyTypeECDSA:
		ecPriv, ok := priv.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: private material does not match keytype", keys.ErrFormat)
		}
		digest := hashMessage(key.Scheme.Hash(), data)
		return ecdsa.SignASN1(rand.Reader, ecPriv, digest)
	case keys.KeyTypeEd25519:
		edPriv, ok := priv.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: private material does not match keytype", keys.ErrFormat)
		}
		return ed25519.Sign(edPriv, data), nil
	default:
		return nil, fmt.Errorf("%w: unknown keytype %q", keys.ErrFormat, key.KeyType)
	}
}

func (s *softwareSigner) Verify(key *keys.Key, signature, data []byte) (bool, error) {
	pub, err := keys.ParsePublicKey(key)
	if err != nil {
		return false, err
	}

	switch key.KeyType {
	case keys.KeyTypeRSA:
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return false, fmt.Errorf("%w: public material does not match keytype", keys.ErrFormat)
		}
		return verifyRSA(rsaPub, key.Scheme, signature, data), nil
	case keys.KeyTypeECDSA:
		ecPub, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return false, fmt.Errorf("%w: public material does not match keytype", keys.ErrFormat)
		}
		digest := hashMessage(key.Scheme.Hash(), data)
		return ecdsa.VerifyASN1(ecPub, digest, signature), nil
	case keys.KeyTypeEd25519:
		edPub, ok := pub.(ed25519.PublicKey)
		if !ok {
			return false, fmt.Errorf("%w: public material does not match keytype", keys.ErrFormat)
		}
		if len(signature) != ed25519.SignatureSize {
			return false, nil
		}
		return ed25519.Verify(edPub, data, signature), nil
	default:
		return false, fmt.Errorf("%w: unknown keytype %q", keys.ErrFormat, key.KeyType)
	}
}

func signRSA(priv *rsa.PrivateKey, scheme keys.Scheme, data []byte) ([]byte, error) {
	h := scheme.Hash()
	digest := hashMessage(h, data)

	switch scheme {
	case keys.SchemeRSAPSSSHA256, keys.SchemeRSAPSSSHA512:
		opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: h}
		return rsa.SignPSS(rand.Reader, priv, h, digest, opts)
	case keys.SchemeRSAPKCS1v15SHA256, keys.SchemeRSAPKCS1v15SHA512:
		return rsa.SignPKCS1v15(rand.Reader, priv, h, digest)
	default:
		return nil, fmt.Errorf("%w: scheme %q is not an RSA scheme", keys.ErrUnsupportedAlgorithm, scheme)
	}
}

func verifyRSA(pub *rsa.PublicKey, scheme keys.Scheme, signature, data []byte) bool {
	h := scheme.Hash()
	digest := hashMessage(h, data)

	switch scheme {
	case keys.SchemeRSAPSSSHA256, keys.SchemeRSAPSSSHA512:
		opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: h}
		return rsa.VerifyPSS(pub, h, digest, signature, opts) == nil
	case keys.SchemeRSAPKCS1v15SHA256, keys.SchemeRSAPKCS1v15SHA512:
		return rsa.VerifyPKCS1v15(pub, h, digest, signature) == nil
	default:
		return false
	}
}

func hashMessage(h crypto.Hash, data []byte) []byte {
	hasher := h.New()
	hasher.Write(data)
	return hasher.Sum(nil)
}
