// Package keys implements the backend-agnostic representation of signing
// keys: the keytype/scheme enumeration, the canonical key value and its
// metadata form, content-derived key identifiers, PEM inspection, and key
// generation/import for RSA, Ed25519 and ECDSA.
package keys

import (
	"crypto"
	"fmt"
	"sort"
)

// KeyType identifies the algorithm family of a key.
type KeyType string

// Supported key types.
const (
	KeyTypeRSA     KeyType = "rsa"
	KeyTypeEd25519 KeyType = "ed25519"
	KeyTypeECDSA   KeyType = "ecdsa"
)

// Scheme identifies a specific signing/verification algorithm variant
// within a keytype (padding mode, hash choice, curve).
type Scheme string

// Supported signing schemes.
const (
	SchemeRSAPSSSHA256      Scheme = "rsassa-pss-sha256"
	SchemeRSAPSSSHA512      Scheme = "rsassa-pss-sha512"
	SchemeRSAPKCS1v15SHA256 Scheme = "rsa-pkcs1v15-sha256"
	SchemeRSAPKCS1v15SHA512 Scheme = "rsa-pkcs1v15-sha512"
	SchemeEd25519           Scheme = "ed25519"
	SchemeECDSAP256         Scheme = "ecdsa-sha2-nistp256"
	SchemeECDSAP384         Scheme = "ecdsa-sha2-nistp384"
)

// schemeInfo holds metadata about a signing scheme.
type schemeInfo struct {
	KeyType     KeyType
	Hash        crypto.Hash // 0 for schemes that sign the raw message
	Description string
}

// schemes maps each Scheme to its metadata.
var schemes = map[Scheme]schemeInfo{
	SchemeRSAPSSSHA256: {
		KeyType:     KeyTypeRSA,
		Hash:        crypto.SHA256,
		Description: "RSASSA-PSS with SHA-256",
	},
	SchemeRSAPSSSHA512: {
		KeyType:     KeyTypeRSA,
		Hash:        crypto.SHA512,
		Description: "RSASSA-PSS with SHA-512",
	},
	SchemeRSAPKCS1v15SHA256: {
		KeyType:     KeyTypeRSA,
		Hash:        crypto.SHA256,
		Description: "RSASSA-PKCS1-v1.5 with SHA-256",
	},
	SchemeRSAPKCS1v15SHA512: {
		KeyType:     KeyTypeRSA,
		Hash:        crypto.SHA512,
		Description: "RSASSA-PKCS1-v1.5 with SHA-512",
	},
	SchemeEd25519: {
		KeyType:     KeyTypeEd25519,
		Hash:        0,
		Description: "Ed25519 (EdDSA with Curve25519)",
	},
	SchemeECDSAP256: {
		KeyType:     KeyTypeECDSA,
		Hash:        crypto.SHA256,
		Description: "ECDSA on NIST P-256 with SHA-256",
	},
	SchemeECDSAP384: {
		KeyType:     KeyTypeECDSA,
		Hash:        crypto.SHA384,
		Description: "ECDSA on NIST P-384 with SHA-384",
	},
}

// IsValid returns true if the key type is recognized.
func (t KeyType) IsValid() bool {
	switch t {
	case KeyTypeRSA, KeyTypeEd25519, KeyTypeECDSA:
		return true
	}
	return false
}

// String returns the key type as a string.
func (t KeyType) String() string {
	return string(t)
}

// Schemes returns the schemes valid for this key type, sorted by name.
func (t KeyType) Schemes() []Scheme {
	var result []Scheme
	for s, info := range schemes {
		if info.KeyType == t {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// IsValid returns true if the scheme is recognized.
func (s Scheme) IsValid() bool {
	_, ok := schemes[s]
	return ok
}

// KeyType returns the key type the scheme belongs to, or "" if unknown.
func (s Scheme) KeyType() KeyType {
	if info, ok := schemes[s]; ok {
		return info.KeyType
	}
	return ""
}

// Hash returns the digest the scheme signs over, or 0 for schemes that
// sign the raw message (Ed25519).
func (s Scheme) Hash() crypto.Hash {
	if info, ok := schemes[s]; ok {
		return info.Hash
	}
	return 0
}

// Description returns a human-readable description of the scheme.
func (s Scheme) Description() string {
	if info, ok := schemes[s]; ok {
		return info.Description
	}
	return "Unknown scheme"
}

// String returns the scheme identifier as a string.
func (s Scheme) String() string {
	return string(s)
}

// ParseScheme parses a string into a Scheme.
func ParseScheme(s string) (Scheme, error) {
	scheme := Scheme(s)
	if !scheme.IsValid() {
		return "", fmt.Errorf("%w: unknown scheme %q", ErrUnsupportedAlgorithm, s)
	}
	return scheme, nil
}

// ValidateScheme checks that scheme is a recognized scheme belonging to
// keytype. An unrecognized scheme or a scheme from a different family is
// reported as ErrUnsupportedAlgorithm.
func ValidateScheme(keytype KeyType, scheme Scheme) error {
	if !keytype.IsValid() {
		return fmt.Errorf("%w: unknown keytype %q", ErrUnsupportedAlgorithm, keytype)
	}
	info, ok := schemes[scheme]
	if !ok {
		return fmt.Errorf("%w: unknown scheme %q", ErrUnsupportedAlgorithm, scheme)
	}
	if info.KeyType != keytype {
		return fmt.Errorf("%w: scheme %q is not valid for keytype %q", ErrUnsupportedAlgorithm, scheme, keytype)
	}
	return nil
}

// DefaultScheme returns the default signing scheme for a key type.
func DefaultScheme(keytype KeyType) (Scheme, error) {
	switch keytype {
	case KeyTypeRSA:
		return SchemeRSAPSSSHA256, nil
	case KeyTypeEd25519:
		return SchemeEd25519, nil
	case KeyTypeECDSA:
		return SchemeECDSAP256, nil
	default:
		return "", fmt.Errorf("%w: unknown keytype %q", ErrFormat, keytype)
	}
}
