// Package keyfile generates, writes and reloads keypairs on disk. The
// private key is written to the given path and the public half next to
// it at path + ".pub". RSA keys use PEM files, optionally
// passphrase-encrypted; Ed25519 and ECDSA keys use an encrypted
// container for the private half and public key metadata in JSON for
// the public half.
package keyfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mreynaud/keymgr/internal/backend"
	"github.com/mreynaud/keymgr/internal/envelope"
	"github.com/mreynaud/keymgr/internal/keys"
)

const (
	privateFileMode = 0o600
	publicFileMode  = 0o644

	// PublicSuffix is appended to the private key path to name the
	// public key file.
	PublicSuffix = ".pub"
)

// GenerateAndWriteRSAKeypair generates an RSA keypair and writes it to
// path (private PEM) and path + ".pub" (public PEM). A non-empty
// password encrypts the private PEM. Returns the generated key.
func GenerateAndWriteRSAKeypair(path string, bits int, password string) (*keys.Key, error) {
	key, err := keys.GenerateRSAKey(bits)
	if err != nil {
		return nil, err
	}

	privatePEM := key.KeyVal.Private
	if password != "" {
		privatePEM, err = keys.CreateRSAEncryptedPEM(privatePEM, password)
		if err != nil {
			return nil, err
		}
	}

	if err := os.WriteFile(path, []byte(privatePEM), privateFileMode); err != nil {
		return nil, fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(path+PublicSuffix, []byte(key.KeyVal.Public), publicFileMode); err != nil {
		return nil, fmt.Errorf("failed to write public key: %w", err)
	}
	return key, nil
}

// ImportRSAPrivateKeyFromFile loads an RSA key, private half included,
// from a PEM file written by GenerateAndWriteRSAKeypair.
func ImportRSAPrivateKeyFromFile(path, password string) (*keys.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	return keys.ImportRSAKeyFromPrivatePEM(string(data), "", password)
}

// ImportRSAPublicKeyFromFile loads a public-only RSA key from a PEM
// file.
func ImportRSAPublicKeyFromFile(path string) (*keys.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	return keys.ImportRSAKeyFromPublicPEM(string(data), "")
}

// GenerateAndWriteEd25519Keypair generates an Ed25519 keypair and
// writes it to path (encrypted container) and path + ".pub" (public
// key metadata). The password must not be empty.
func GenerateAndWriteEd25519Keypair(reg *backend.Registry, path, password string) (*keys.Key, error) {
	key, err := keys.GenerateEd25519Key()
	if err != nil {
		return nil, err
	}
	if err := writeEncryptedKeypair(reg, key, path, password); err != nil {
		return nil, err
	}
	return key, nil
}

// GenerateAndWriteECDSAKeypair generates an ECDSA keypair for the
// given scheme and writes it to path (encrypted container) and
// path + ".pub" (public key metadata). An empty scheme selects
// ecdsa-sha2-nistp256. The password must not be empty.
func GenerateAndWriteECDSAKeypair(reg *backend.Registry, path string, scheme keys.Scheme, password string) (*keys.Key, error) {
	if scheme == "" {
		scheme = keys.SchemeECDSAP256
	}
	key, err := keys.GenerateECDSAKeyWithScheme(scheme)
	if err != nil {
		return nil, err
	}
	if err := writeEncryptedKeypair(reg, key, path, password); err != nil {
		return nil, err
	}
	return key, nil
}

// ImportPrivateKeyFromFile loads a key, private half included, from an
// encrypted container file.
func ImportPrivateKeyFromFile(reg *backend.Registry, path, password string) (*keys.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	return envelope.DecryptKey(reg, string(data), password)
}

// ImportPublicKeyFromFile loads a public-only key from a JSON metadata
// file.
func ImportPublicKeyFromFile(path string) (*keys.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	var md keys.Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("%w: not a public key file: %v", keys.ErrFormat, err)
	}
	key, _, err := keys.FormatMetadataToKey(&md)
	if err != nil {
		return nil, err
	}
	return key, nil
}

func writeEncryptedKeypair(reg *backend.Registry, key *keys.Key, path, password string) error {
	blob, err := envelope.EncryptKey(reg, key, password)
	if err != nil {
		return err
	}

	md, err := key.ToMetadata(false)
	if err != nil {
		return err
	}
	public, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize public key: %w", err)
	}

	if err := os.WriteFile(path, []byte(blob), privateFileMode); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(path+PublicSuffix, public, publicFileMode); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}
