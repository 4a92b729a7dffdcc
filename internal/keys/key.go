package keys

import (
	"fmt"
)

// KeyValue holds the algorithm-specific encodings of a key's material.
// Public and Private are PEM text for RSA and ECDSA keys and hex-encoded
// raw bytes for Ed25519 keys. An empty Private means no private material
// is present, which is not an error by itself.
type KeyValue struct {
	Public  string `json:"public"`
	Private string `json:"private"`
}

// Key is the canonical key representation. KeyID is derived from the
// public material and metadata only; it is never user-supplied.
//
// Keys are immutable value objects: operations that change a field
// produce a new value.
type Key struct {
	KeyType KeyType  `json:"keytype"`
	Scheme  Scheme   `json:"scheme"`
	KeyID   string   `json:"keyid"`
	KeyVal  KeyValue `json:"keyval"`
}

// Metadata is the transport/storage form of a key. It carries the same
// fields as Key, with the keyid carried explicitly alongside; converting
// back to a Key re-derives the keyid rather than trusting the carried one.
type Metadata struct {
	KeyType KeyType  `json:"keytype"`
	Scheme  Scheme   `json:"scheme"`
	KeyID   string   `json:"keyid,omitempty"`
	KeyVal  KeyValue `json:"keyval"`
}

// FormatKeyvalToMetadata builds the metadata form from a keytype, scheme
// and key value. Public material is always required; private material is
// additionally required when includePrivate is true. When includePrivate
// is false the private field is stripped from the result.
func FormatKeyvalToMetadata(keytype KeyType, scheme Scheme, keyval KeyValue, includePrivate bool) (*Metadata, error) {
	if !keytype.IsValid() {
		return nil, fmt.Errorf("%w: unknown keytype %q", ErrFormat, keytype)
	}
	if !scheme.IsValid() {
		return nil, fmt.Errorf("%w: unknown scheme %q", ErrFormat, scheme)
	}
	if scheme.KeyType() != keytype {
		return nil, fmt.Errorf("%w: scheme %q is not valid for keytype %q", ErrUnsupportedAlgorithm, scheme, keytype)
	}
	if keyval.Public == "" {
		return nil, fmt.Errorf("%w: keyval has no public material", ErrFormat)
	}

	md := &Metadata{
		KeyType: keytype,
		Scheme:  scheme,
		KeyVal:  KeyValue{Public: keyval.Public},
	}
	if includePrivate {
		if keyval.Private == "" {
			return nil, fmt.Errorf("%w: keyval has no private material", ErrFormat)
		}
		md.KeyVal.Private = keyval.Private
	}
	return md, nil
}

// FormatMetadataToKey is the inverse of FormatKeyvalToMetadata: it builds
// a Key from its metadata form, deriving the keyid from the public
// material. The keytype is returned alongside for callers that dispatch
// on it.
func FormatMetadataToKey(md *Metadata) (*Key, KeyType, error) {
	if md == nil {
		return nil, "", fmt.Errorf("%w: metadata is nil", ErrFormat)
	}
	if !md.KeyType.IsValid() {
		return nil, "", fmt.Errorf("%w: unknown keytype %q", ErrFormat, md.KeyType)
	}
	if !md.Scheme.IsValid() {
		return nil, "", fmt.Errorf("%w: unknown scheme %q", ErrFormat, md.Scheme)
	}
	if md.KeyVal.Public == "" {
		return nil, "", fmt.Errorf("%w: metadata keyval has no public material", ErrFormat)
	}

	keyid, err := DeriveKeyID(md.KeyType, md.Scheme, md.KeyVal)
	if err != nil {
		return nil, "", err
	}

	key := &Key{
		KeyType: md.KeyType,
		Scheme:  md.Scheme,
		KeyID:   keyid,
		KeyVal:  md.KeyVal,
	}
	return key, md.KeyType, nil
}

// ToMetadata converts the key to its metadata form, carrying the keyid.
// Private material is included only when includePrivate is true.
func (k *Key) ToMetadata(includePrivate bool) (*Metadata, error) {
	md, err := FormatKeyvalToMetadata(k.KeyType, k.Scheme, k.KeyVal, includePrivate)
	if err != nil {
		return nil, err
	}
	md.KeyID = k.KeyID
	return md, nil
}

// Public returns a copy of the key with the private material removed.
func (k *Key) Public() *Key {
	pub := *k
	pub.KeyVal.Private = ""
	return &pub
}

// HasPrivate returns true if the key carries private material.
func (k *Key) HasPrivate() bool {
	return k.KeyVal.Private != ""
}

// newKey assembles a Key from its parts, deriving the keyid.
func newKey(keytype KeyType, scheme Scheme, keyval KeyValue) (*Key, error) {
	if err := ValidateScheme(keytype, scheme); err != nil {
		return nil, err
	}
	keyid, err := DeriveKeyID(keytype, scheme, keyval)
	if err != nil {
		return nil, err
	}
	return &Key{
		KeyType: keytype,
		Scheme:  scheme,
		KeyID:   keyid,
		KeyVal:  keyval,
	}, nil
}
