// Package envelope stores keys at rest as passphrase-encrypted
// containers. The key is serialized to JSON, sealed by the registry's
// symmetric backend, and the sealed bytes are base64 encoded so the
// blob is safe to embed in text formats.
package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mreynaud/keymgr/internal/backend"
	"github.com/mreynaud/keymgr/internal/keys"
)

// EncryptKey seals a key, private material included, under a
// passphrase. The passphrase must not be empty.
func EncryptKey(reg *backend.Registry, key *keys.Key, passphrase string) (string, error) {
	if reg == nil || key == nil {
		return "", fmt.Errorf("%w: nil argument", keys.ErrFormat)
	}
	if passphrase == "" {
		return "", fmt.Errorf("%w: empty passphrase", keys.ErrFormat)
	}

	plaintext, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("%w: failed to serialize key: %v", keys.ErrFormat, err)
	}

	cipher, err := reg.Cipher()
	if err != nil {
		return "", err
	}
	sealed, err := cipher.Encrypt(passphrase, plaintext)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptKey opens a sealed key blob. A wrong passphrase fails with
// keys.ErrDecryptionFailed; a blob that is not a sealed container, or
// whose payload is not a key, fails with keys.ErrFormat. The keyid of
// the returned key is re-derived from its material.
func DecryptKey(reg *backend.Registry, blob, passphrase string) (*keys.Key, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: nil registry", keys.ErrFormat)
	}

	sealed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: blob is not base64 encoded", keys.ErrFormat)
	}

	cipher, err := reg.Cipher()
	if err != nil {
		return nil, err
	}
	plaintext, err := cipher.Decrypt(passphrase, sealed)
	if err != nil {
		return nil, err
	}

	var md keys.Metadata
	if err := json.Unmarshal(plaintext, &md); err != nil {
		return nil, fmt.Errorf("%w: decrypted payload is not a key: %v", keys.ErrFormat, err)
	}
	key, _, err := keys.FormatMetadataToKey(&md)
	if err != nil {
		return nil, err
	}
	return key, nil
}
