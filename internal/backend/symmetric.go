package backend

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/mreynaud/keymgr/internal/keys"
)

// Argon2id parameters for passphrase-based key derivation.
const (
	kdfArgon2id   = "argon2id"
	argonTime     = 2
	argonMemoryKB = 64 * 1024
	argonThreads  = 1

	sealedVersion = 1
)

// sealedBox is the CBOR wire form of a passphrase-sealed payload. The
// KDF parameters travel with the box so they can be tuned without
// breaking old containers.
type sealedBox struct {
	Version    int    `cbor:"version"`
	KDF        string `cbor:"kdf"`
	Time       uint32 `cbor:"time"`
	MemoryKB   uint32 `cbor:"memory_kb"`
	Threads    uint8  `cbor:"threads"`
	Salt       []byte `cbor:"salt"`
	Nonce      []byte `cbor:"nonce"`
	Ciphertext []byte `cbor:"ciphertext"`
}

// softwareCipher seals payloads with XChaCha20-Poly1305 under an
// Argon2id-derived key.
type softwareCipher struct{}

func (c *softwareCipher) Name() string { return BackendSoftware }

func (c *softwareCipher) Encrypt(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemoryKB, argonThreads, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	box := sealedBox{
		Version:    sealedVersion,
		KDF:        kdfArgon2id,
		Time:       argonTime,
		MemoryKB:   argonMemoryKB,
		Threads:    argonThreads,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
	}
	return cbor.Marshal(box)
}

func (c *softwareCipher) Decrypt(passphrase string, sealed []byte) ([]byte, error) {
	var box sealedBox
	if err := cbor.Unmarshal(sealed, &box); err != nil {
		return nil, fmt.Errorf("%w: not a sealed container: %v", keys.ErrFormat, err)
	}
	if box.Version != sealedVersion || box.KDF != kdfArgon2id {
		return nil, fmt.Errorf("%w: unsupported container version %d/%q", keys.ErrFormat, box.Version, box.KDF)
	}

	key := argon2.IDKey([]byte(passphrase), box.Salt, box.Time, box.MemoryKB, box.Threads, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	if len(box.Nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length %d", keys.ErrFormat, len(box.Nonce))
	}

	plaintext, err := aead.Open(nil, box.Nonce, box.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: wrong passphrase or corrupted container", keys.ErrDecryptionFailed)
	}
	return plaintext, nil
}
