package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// DeriveKeyID computes the stable content-derived identifier for a key.
//
// The identifier is the SHA-256 of the canonical encoding of the
// public-only form: the private field is forced to the empty string
// before hashing, so the keyid depends only on the public material plus
// keytype/scheme. The same hash is used for every keytype.
func DeriveKeyID(keytype KeyType, scheme Scheme, keyval KeyValue) (string, error) {
	if !keytype.IsValid() {
		return "", fmt.Errorf("%w: unknown keytype %q", ErrFormat, keytype)
	}
	if !scheme.IsValid() {
		return "", fmt.Errorf("%w: unknown scheme %q", ErrFormat, scheme)
	}
	if keyval.Public == "" {
		return "", fmt.Errorf("%w: keyval has no public material", ErrFormat)
	}

	canonical, err := encodeCanonical(map[string]any{
		"keytype": string(keytype),
		"scheme":  string(scheme),
		"keyval": map[string]any{
			"public":  keyval.Public,
			"private": "",
		},
	})
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(digest[:]), nil
}

// encodeCanonical serializes a value into a deterministic, whitespace-free
// encoding: object keys are sorted lexicographically and strings escape
// only backslash and double quote. The output is byte-for-byte stable for
// a given input.
func encodeCanonical(v any) (string, error) {
	var b strings.Builder
	if err := writeCanonical(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeCanonical(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case int:
		fmt.Fprintf(b, "%d", val)
	case int64:
		fmt.Fprintf(b, "%d", val)
	case string:
		writeCanonicalString(b, val)
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeCanonical(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonicalString(b, k)
			b.WriteByte(':')
			if err := writeCanonical(b, val[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("%w: cannot canonicalize value of type %T", ErrFormat, v)
	}
	return nil
}

// writeCanonicalString writes a quoted string escaping only backslash and
// double quote; all other bytes, including newlines, are written literally
// so the encoding stays stable across JSON library versions.
func writeCanonicalString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '"' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
}
