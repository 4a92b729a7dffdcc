package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
)

// ImportRSAKeyFromPublicPEM imports a public-only RSA key from PEM text.
// Surrounding whitespace and armor are tolerated; the stored public value
// is the extracted block, so importing with or without a trailing newline
// yields the same key. An empty scheme selects rsassa-pss-sha256.
func ImportRSAKeyFromPublicPEM(pemText string, scheme Scheme) (*Key, error) {
	if scheme == "" {
		scheme = SchemeRSAPSSSHA256
	}
	if err := ValidateScheme(KeyTypeRSA, scheme); err != nil {
		return nil, err
	}

	extracted, err := ExtractPEM(pemText, false)
	if err != nil {
		return nil, err
	}
	if _, err := parseRSAPublicPEM(extracted); err != nil {
		return nil, err
	}

	return newKey(KeyTypeRSA, scheme, KeyValue{Public: extracted})
}

// ImportRSAKeyFromPrivatePEM imports an RSA key, public and private
// halves, from private PEM text. If the PEM is passphrase-encrypted the
// password is used to decrypt it; a wrong password fails with
// ErrDecryptionFailed.
func ImportRSAKeyFromPrivatePEM(pemText string, scheme Scheme, password string) (*Key, error) {
	if scheme == "" {
		scheme = SchemeRSAPSSSHA256
	}
	if err := ValidateScheme(KeyTypeRSA, scheme); err != nil {
		return nil, err
	}

	extracted, err := ExtractPEM(pemText, true)
	if err != nil {
		return nil, err
	}

	priv, err := parseRSAPrivatePEM(extracted, password)
	if err != nil {
		return nil, err
	}

	keyval, err := rsaKeyValue(priv, true)
	if err != nil {
		return nil, err
	}
	return newKey(KeyTypeRSA, scheme, keyval)
}

// ImportRSAKeyFromPEM imports an RSA key from PEM text that may hold
// either a public or an unencrypted private block.
func ImportRSAKeyFromPEM(pemText string, scheme Scheme) (*Key, error) {
	if IsPEMPublic(pemText) {
		return ImportRSAKeyFromPublicPEM(pemText, scheme)
	}
	if ok, err := IsPEMPrivate(pemText, KeyTypeRSA); err != nil {
		return nil, err
	} else if ok {
		return ImportRSAKeyFromPrivatePEM(pemText, scheme, "")
	}
	// Not cleanly one or the other: let extraction produce the error.
	if _, err := ExtractPEM(pemText, false); err != nil {
		if _, privErr := ExtractPEM(pemText, true); privErr == nil {
			return ImportRSAKeyFromPrivatePEM(pemText, scheme, "")
		}
		return nil, err
	}
	return ImportRSAKeyFromPublicPEM(pemText, scheme)
}

// ImportECDSAKeyFromPublicPEM imports a public-only ECDSA key from PEM
// text. An empty scheme selects ecdsa-sha2-nistp256.
func ImportECDSAKeyFromPublicPEM(pemText string, scheme Scheme) (*Key, error) {
	if scheme == "" {
		scheme = SchemeECDSAP256
	}
	if err := ValidateScheme(KeyTypeECDSA, scheme); err != nil {
		return nil, err
	}

	extracted, err := ExtractPEM(pemText, false)
	if err != nil {
		return nil, err
	}
	if _, err := parseECDSAPublicPEM(extracted); err != nil {
		return nil, err
	}

	return newKey(KeyTypeECDSA, scheme, KeyValue{Public: extracted})
}

// ImportECDSAKeyFromPrivatePEM imports an ECDSA key, public and private
// halves, from private PEM text, decrypting with password if needed.
func ImportECDSAKeyFromPrivatePEM(pemText string, scheme Scheme, password string) (*Key, error) {
	if scheme == "" {
		scheme = SchemeECDSAP256
	}
	if err := ValidateScheme(KeyTypeECDSA, scheme); err != nil {
		return nil, err
	}

	extracted, err := ExtractPEM(pemText, true)
	if err != nil {
		return nil, err
	}

	priv, err := parseECDSAPrivatePEM(extracted, password)
	if err != nil {
		return nil, err
	}

	keyval, err := ecdsaKeyValue(priv, true)
	if err != nil {
		return nil, err
	}
	return newKey(KeyTypeECDSA, scheme, keyval)
}

// ImportECDSAKeyFromPEM imports an ECDSA key from PEM text that may hold
// either a public or an unencrypted private block.
func ImportECDSAKeyFromPEM(pemText string, scheme Scheme) (*Key, error) {
	if IsPEMPublic(pemText) {
		return ImportECDSAKeyFromPublicPEM(pemText, scheme)
	}
	if ok, err := IsPEMPrivate(pemText, KeyTypeECDSA); err != nil {
		return nil, err
	} else if ok {
		return ImportECDSAKeyFromPrivatePEM(pemText, scheme, "")
	}
	if _, err := ExtractPEM(pemText, false); err != nil {
		if _, privErr := ExtractPEM(pemText, true); privErr == nil {
			return ImportECDSAKeyFromPrivatePEM(pemText, scheme, "")
		}
		return nil, err
	}
	return ImportECDSAKeyFromPublicPEM(pemText, scheme)
}

// ImportEd25519KeyFromHex imports an Ed25519 key from hex-encoded raw
// material: a 32-byte public key and an optional 32-byte seed.
func ImportEd25519KeyFromHex(publicHex, privateHex string) (*Key, error) {
	pub, err := hex.DecodeString(publicHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: invalid Ed25519 public key encoding", ErrFormat)
	}
	if privateHex != "" {
		seed, err := hex.DecodeString(privateHex)
		if err != nil || len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("%w: invalid Ed25519 private key encoding", ErrFormat)
		}
	}
	return newKey(KeyTypeEd25519, SchemeEd25519, KeyValue{Public: publicHex, Private: privateHex})
}

// CreateRSAEncryptedPEM re-encodes an RSA private PEM encrypted under the
// given passphrase.
func CreateRSAEncryptedPEM(privatePEM, passphrase string) (string, error) {
	if passphrase == "" {
		return "", fmt.Errorf("%w: empty passphrase", ErrFormat)
	}

	extracted, err := ExtractPEM(privatePEM, true)
	if err != nil {
		return "", err
	}
	priv, err := parseRSAPrivatePEM(extracted, "")
	if err != nil {
		return "", err
	}

	//nolint:staticcheck // Deprecated but still the standard PEM encryption format
	block, err := x509.EncryptPEMBlock(rand.Reader, pemLabelRSAPrivate,
		x509.MarshalPKCS1PrivateKey(priv), []byte(passphrase), x509.PEMCipherAES256)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt private key: %w", err)
	}
	return string(pem.EncodeToMemory(block)), nil
}

// ParsePublicKey parses the public material of a key into its crypto
// representation.
func ParsePublicKey(k *Key) (crypto.PublicKey, error) {
	switch k.KeyType {
	case KeyTypeRSA:
		return parseRSAPublicPEM(k.KeyVal.Public)
	case KeyTypeECDSA:
		return parseECDSAPublicPEM(k.KeyVal.Public)
	case KeyTypeEd25519:
		pub, err := hex.DecodeString(k.KeyVal.Public)
		if err != nil || len(pub) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: invalid Ed25519 public key encoding", ErrFormat)
		}
		return ed25519.PublicKey(pub), nil
	default:
		return nil, fmt.Errorf("%w: unknown keytype %q", ErrFormat, k.KeyType)
	}
}

// ParsePrivateKey parses the private material of a key into its crypto
// representation. Keys without private material fail with ErrNoPrivateKey.
func ParsePrivateKey(k *Key) (crypto.PrivateKey, error) {
	if k.KeyVal.Private == "" {
		return nil, ErrNoPrivateKey
	}
	switch k.KeyType {
	case KeyTypeRSA:
		return parseRSAPrivatePEM(k.KeyVal.Private, "")
	case KeyTypeECDSA:
		return parseECDSAPrivatePEM(k.KeyVal.Private, "")
	case KeyTypeEd25519:
		seed, err := hex.DecodeString(k.KeyVal.Private)
		if err != nil || len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("%w: invalid Ed25519 private key encoding", ErrFormat)
		}
		return ed25519.NewKeyFromSeed(seed), nil
	default:
		return nil, fmt.Errorf("%w: unknown keytype %q", ErrFormat, k.KeyType)
	}
}

func parseRSAPublicPEM(pemText string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrFormat)
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse public key: %v", ErrFormat, err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: PEM holds a %T, not an RSA public key", ErrFormat, pub)
	}
	return rsaPub, nil
}

func parseECDSAPublicPEM(pemText string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrFormat)
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse public key: %v", ErrFormat, err)
	}
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: PEM holds a %T, not an ECDSA public key", ErrFormat, pub)
	}
	return ecPub, nil
}

// parseRSAPrivatePEM parses an RSA private PEM block, decrypting it first
// when the block is passphrase-encrypted.
func parseRSAPrivatePEM(pemText, password string) (*rsa.PrivateKey, error) {
	keyBytes, err := decodePrivateBlock(pemText, password)
	if err != nil {
		return nil, err
	}

	if priv, err := x509.ParsePKCS1PrivateKey(keyBytes); err == nil {
		return priv, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse RSA private key: %v", ErrFormat, err)
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: PEM holds a %T, not an RSA private key", ErrFormat, parsed)
	}
	return priv, nil
}

// parseECDSAPrivatePEM parses an ECDSA private PEM block, decrypting it
// first when the block is passphrase-encrypted.
func parseECDSAPrivatePEM(pemText, password string) (*ecdsa.PrivateKey, error) {
	keyBytes, err := decodePrivateBlock(pemText, password)
	if err != nil {
		return nil, err
	}

	if priv, err := x509.ParseECPrivateKey(keyBytes); err == nil {
		return priv, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse ECDSA private key: %v", ErrFormat, err)
	}
	priv, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: PEM holds a %T, not an ECDSA private key", ErrFormat, parsed)
	}
	return priv, nil
}

// decodePrivateBlock decodes a PEM block and decrypts it when encrypted.
func decodePrivateBlock(pemText, password string) ([]byte, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrFormat)
	}

	//nolint:staticcheck // Deprecated but still the standard PEM encryption format
	if x509.IsEncryptedPEMBlock(block) {
		if password == "" {
			return nil, fmt.Errorf("%w: private key is encrypted but no password was given", ErrDecryptionFailed)
		}
		//nolint:staticcheck
		keyBytes, err := x509.DecryptPEMBlock(block, []byte(password))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
		}
		return keyBytes, nil
	}
	return block.Bytes, nil
}
