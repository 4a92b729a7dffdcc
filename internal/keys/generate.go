package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strings"
)

// DefaultRSAKeyBits is the default RSA modulus size. 2048-bit keys are the
// accepted minimum; 3072-bit keys are recommended for long-lived material.
const DefaultRSAKeyBits = 3072

// MinRSAKeyBits is the smallest accepted RSA modulus size.
const MinRSAKeyBits = 2048

// GenerateRSAKey generates a new RSA key with the default scheme
// (rsassa-pss-sha256). A bits value of 0 selects DefaultRSAKeyBits;
// anything below MinRSAKeyBits fails with ErrFormat.
func GenerateRSAKey(bits int) (*Key, error) {
	return GenerateRSAKeyWithScheme(bits, SchemeRSAPSSSHA256)
}

// GenerateRSAKeyWithScheme generates a new RSA key for the given scheme.
func GenerateRSAKeyWithScheme(bits int, scheme Scheme) (*Key, error) {
	if bits == 0 {
		bits = DefaultRSAKeyBits
	}
	if bits < MinRSAKeyBits {
		return nil, fmt.Errorf("%w: RSA key size %d is below the %d-bit minimum", ErrFormat, bits, MinRSAKeyBits)
	}
	if err := ValidateScheme(KeyTypeRSA, scheme); err != nil {
		return nil, err
	}

	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	keyval, err := rsaKeyValue(priv, true)
	if err != nil {
		return nil, err
	}
	return newKey(KeyTypeRSA, scheme, keyval)
}

// GenerateEd25519Key generates a new Ed25519 key. The key value carries
// the hex-encoded public key and seed rather than PEM text.
func GenerateEd25519Key() (*Key, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Ed25519 key: %w", err)
	}
	return newKey(KeyTypeEd25519, SchemeEd25519, ed25519KeyValue(pub, priv))
}

// GenerateECDSAKey generates a new ECDSA key on NIST P-256 with the
// ecdsa-sha2-nistp256 scheme.
func GenerateECDSAKey() (*Key, error) {
	return GenerateECDSAKeyWithScheme(SchemeECDSAP256)
}

// GenerateECDSAKeyWithScheme generates an ECDSA key on the curve implied
// by the given scheme.
func GenerateECDSAKeyWithScheme(scheme Scheme) (*Key, error) {
	if err := ValidateScheme(KeyTypeECDSA, scheme); err != nil {
		return nil, err
	}

	var curve elliptic.Curve
	switch scheme {
	case SchemeECDSAP256:
		curve = elliptic.P256()
	case SchemeECDSAP384:
		curve = elliptic.P384()
	default:
		return nil, fmt.Errorf("%w: no curve for scheme %q", ErrUnsupportedAlgorithm, scheme)
	}

	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}

	keyval, err := ecdsaKeyValue(priv, true)
	if err != nil {
		return nil, err
	}
	return newKey(KeyTypeECDSA, scheme, keyval)
}

// rsaKeyValue encodes an RSA key pair as PEM text: PKIX for the public
// half, PKCS#1 for the private half.
func rsaKeyValue(priv *rsa.PrivateKey, includePrivate bool) (KeyValue, error) {
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return KeyValue{}, fmt.Errorf("failed to marshal RSA public key: %w", err)
	}

	kv := KeyValue{
		Public: encodePEM(pemLabelPublic, pubDER),
	}
	if includePrivate {
		kv.Private = encodePEM(pemLabelRSAPrivate, x509.MarshalPKCS1PrivateKey(priv))
	}
	return kv, nil
}

// ecdsaKeyValue encodes an ECDSA key pair as PEM text: PKIX for the
// public half, SEC 1 for the private half.
func ecdsaKeyValue(priv *ecdsa.PrivateKey, includePrivate bool) (KeyValue, error) {
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return KeyValue{}, fmt.Errorf("failed to marshal ECDSA public key: %w", err)
	}

	kv := KeyValue{
		Public: encodePEM(pemLabelPublic, pubDER),
	}
	if includePrivate {
		privDER, err := x509.MarshalECPrivateKey(priv)
		if err != nil {
			return KeyValue{}, fmt.Errorf("failed to marshal ECDSA private key: %w", err)
		}
		kv.Private = encodePEM(pemLabelECPrivate, privDER)
	}
	return kv, nil
}

// ed25519KeyValue encodes an Ed25519 key pair as hex: the 32-byte public
// key and the 32-byte seed.
func ed25519KeyValue(pub ed25519.PublicKey, priv ed25519.PrivateKey) KeyValue {
	kv := KeyValue{Public: hex.EncodeToString(pub)}
	if priv != nil {
		kv.Private = hex.EncodeToString(priv.Seed())
	}
	return kv
}

// encodePEM renders a single PEM block with surrounding whitespace
// stripped, so stored key values compare equal regardless of trailing
// newlines.
func encodePEM(label string, der []byte) string {
	return strings.TrimSpace(string(pem.EncodeToMemory(&pem.Block{
		Type:  label,
		Bytes: der,
	})))
}
