// Package backend provides the pluggable cryptographic backends that
// signing, verification and key encryption dispatch to. A Registry maps
// each key family to a selected backend by name; callers consult the
// registry at call time, so reconfiguring it affects subsequent
// operations only.
package backend

import (
	"fmt"

	"github.com/mreynaud/keymgr/internal/keys"
)

// Family identifies a group of key types served by the same backend
// selection. The general family covers symmetric operations that are
// not tied to a key type.
type Family string

const (
	FamilyRSA     Family = "rsa"
	FamilyECDSA   Family = "ecdsa"
	FamilyEd25519 Family = "ed25519"
	FamilyGeneral Family = "general"
)

// Families lists every dispatchable family.
func Families() []Family {
	return []Family{FamilyRSA, FamilyECDSA, FamilyEd25519, FamilyGeneral}
}

// FamilyForKeyType maps a key type to its backend family.
func FamilyForKeyType(kt keys.KeyType) (Family, error) {
	switch kt {
	case keys.KeyTypeRSA:
		return FamilyRSA, nil
	case keys.KeyTypeECDSA:
		return FamilyECDSA, nil
	case keys.KeyTypeEd25519:
		return FamilyEd25519, nil
	default:
		return "", fmt.Errorf("%w: unknown keytype %q", keys.ErrFormat, kt)
	}
}

// Signer is implemented by backends that can produce and check
// signatures for the key families they serve.
type Signer interface {
	// Name returns the backend's registry name.
	Name() string

	// Sign signs data with the key's private material using the key's
	// scheme and returns the raw signature bytes.
	Sign(key *keys.Key, data []byte) ([]byte, error)

	// Verify checks signature over data against the key's public
	// material. A cryptographic mismatch is reported as (false, nil);
	// errors are reserved for malformed input and backend failures.
	Verify(key *keys.Key, signature, data []byte) (bool, error)
}

// Cipher is implemented by backends that provide passphrase-based
// symmetric encryption for key containers.
type Cipher interface {
	// Name returns the backend's registry name.
	Name() string

	// Encrypt seals plaintext under a key derived from passphrase.
	Encrypt(passphrase string, plaintext []byte) ([]byte, error)

	// Decrypt opens a sealed blob. A wrong passphrase fails with
	// keys.ErrDecryptionFailed.
	Decrypt(passphrase string, sealed []byte) ([]byte, error)
}

// Registry holds the installed backends and the per-family selection.
// It is read on every dispatch; it is not safe to mutate concurrently
// with in-flight operations.
type Registry struct {
	selected  map[Family]string
	available map[string]bool
	signers   map[string]Signer
	ciphers   map[string]Cipher
}

// NewRegistry returns a registry with the built-in backends installed,
// every family selected to the software backend, and the software and
// ref25519 backends marked available.
func NewRegistry() *Registry {
	r := &Registry{
		selected:  make(map[Family]string),
		available: make(map[string]bool),
		signers:   make(map[string]Signer),
		ciphers:   make(map[string]Cipher),
	}
	for _, f := range Families() {
		r.selected[f] = BackendSoftware
	}
	r.RegisterSigner(&softwareSigner{})
	r.RegisterSigner(&refEd25519Signer{})
	r.RegisterCipher(&softwareCipher{})
	r.available[BackendSoftware] = true
	r.available[BackendRef25519] = true
	return r
}

// RegisterSigner installs a signing backend under its name.
func (r *Registry) RegisterSigner(s Signer) {
	r.signers[s.Name()] = s
}

// RegisterCipher installs a symmetric backend under its name.
func (r *Registry) RegisterCipher(c Cipher) {
	r.ciphers[c.Name()] = c
}

// Select routes a family to the named backend. The backend does not
// have to exist or be available yet; availability is checked at call
// time.
func (r *Registry) Select(f Family, name string) {
	r.selected[f] = name
}

// Selected returns the backend name a family currently routes to.
func (r *Registry) Selected(f Family) string {
	return r.selected[f]
}

// SetAvailable marks a backend usable or unusable without changing the
// routing. Dispatching a family to an unavailable backend fails with
// keys.ErrUnsupportedLibrary.
func (r *Registry) SetAvailable(name string, ok bool) {
	r.available[name] = ok
}

// Available reports whether the named backend is usable.
func (r *Registry) Available(name string) bool {
	return r.available[name]
}

// Signer resolves the signing backend for a family.
func (r *Registry) Signer(f Family) (Signer, error) {
	name := r.selected[f]
	if !r.available[name] {
		return nil, fmt.Errorf("%w: backend %q is not available", keys.ErrUnsupportedLibrary, name)
	}
	s, ok := r.signers[name]
	if !ok {
		return nil, fmt.Errorf("%w: backend %q is not installed", keys.ErrUnsupportedLibrary, name)
	}
	return s, nil
}

// Cipher resolves the symmetric backend for the general family.
func (r *Registry) Cipher() (Cipher, error) {
	name := r.selected[FamilyGeneral]
	if !r.available[name] {
		return nil, fmt.Errorf("%w: backend %q is not available", keys.ErrUnsupportedLibrary, name)
	}
	c, ok := r.ciphers[name]
	if !ok {
		return nil, fmt.Errorf("%w: backend %q has no cipher", keys.ErrUnsupportedLibrary, name)
	}
	return c, nil
}

// ReferenceEd25519 returns the pure-Go Ed25519 backend, used as a
// verification fallback when the selected ed25519 backend is
// unavailable.
func (r *Registry) ReferenceEd25519() (Signer, error) {
	s, ok := r.signers[BackendRef25519]
	if !ok || !r.available[BackendRef25519] {
		return nil, fmt.Errorf("%w: reference ed25519 backend is not available", keys.ErrUnsupportedLibrary)
	}
	return s, nil
}
