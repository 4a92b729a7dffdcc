package keys

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateScheme_Known(t *testing.T) {
	cases := []struct {
		keytype KeyType
		scheme  Scheme
	}{
		{KeyTypeRSA, SchemeRSAPSSSHA256},
		{KeyTypeRSA, SchemeRSAPSSSHA512},
		{KeyTypeRSA, SchemeRSAPKCS1v15SHA256},
		{KeyTypeRSA, SchemeRSAPKCS1v15SHA512},
		{KeyTypeECDSA, SchemeECDSAP256},
		{KeyTypeECDSA, SchemeECDSAP384},
		{KeyTypeEd25519, SchemeEd25519},
	}
	for _, tc := range cases {
		if err := ValidateScheme(tc.keytype, tc.scheme); err != nil {
			t.Errorf("ValidateScheme(%s, %s): unexpected error: %v", tc.keytype, tc.scheme, err)
		}
	}
}

func TestValidateScheme_Mismatch(t *testing.T) {
	err := ValidateScheme(KeyTypeRSA, SchemeEd25519)
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("expected ErrUnsupportedAlgorithm, got %v", err)
	}

	err = ValidateScheme(KeyTypeEd25519, SchemeECDSAP256)
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestValidateScheme_Unknown(t *testing.T) {
	err := ValidateScheme(KeyTypeRSA, Scheme("rsassa-pss-sha1"))
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestDefaultScheme(t *testing.T) {
	cases := []struct {
		keytype KeyType
		want    Scheme
	}{
		{KeyTypeRSA, SchemeRSAPSSSHA256},
		{KeyTypeECDSA, SchemeECDSAP256},
		{KeyTypeEd25519, SchemeEd25519},
	}
	for _, tc := range cases {
		got, err := DefaultScheme(tc.keytype)
		if err != nil {
			t.Fatalf("DefaultScheme(%s): %v", tc.keytype, err)
		}
		if got != tc.want {
			t.Errorf("DefaultScheme(%s) = %s, want %s", tc.keytype, got, tc.want)
		}
	}
}

func TestGenerateEd25519Key(t *testing.T) {
	key, err := GenerateEd25519Key()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	if key.KeyType != KeyTypeEd25519 {
		t.Errorf("Expected keytype ed25519, got %s", key.KeyType)
	}
	if key.Scheme != SchemeEd25519 {
		t.Errorf("Expected scheme ed25519, got %s", key.Scheme)
	}
	if len(key.KeyVal.Public) != 64 {
		t.Errorf("Expected 64 hex chars of public key, got %d", len(key.KeyVal.Public))
	}
	if len(key.KeyVal.Private) != 64 {
		t.Errorf("Expected 64 hex chars of seed, got %d", len(key.KeyVal.Private))
	}
	if len(key.KeyID) != 64 {
		t.Errorf("Expected 64 hex chars of keyid, got %q", key.KeyID)
	}
}

func TestGenerateRSAKey_BitsTooSmall(t *testing.T) {
	_, err := GenerateRSAKey(1024)
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat for 1024-bit key, got %v", err)
	}
}

func TestGenerateECDSAKey_Schemes(t *testing.T) {
	for _, scheme := range []Scheme{SchemeECDSAP256, SchemeECDSAP384} {
		key, err := GenerateECDSAKeyWithScheme(scheme)
		if err != nil {
			t.Fatalf("Failed to generate %s key: %v", scheme, err)
		}
		if key.Scheme != scheme {
			t.Errorf("Expected scheme %s, got %s", scheme, key.Scheme)
		}
		if !strings.Contains(key.KeyVal.Public, "BEGIN PUBLIC KEY") {
			t.Error("Expected PEM public key")
		}
	}
}

func TestDeriveKeyID_Stable(t *testing.T) {
	keyval := KeyValue{Public: "abc123", Private: "def456"}

	id1, err := DeriveKeyID(KeyTypeEd25519, SchemeEd25519, keyval)
	if err != nil {
		t.Fatalf("DeriveKeyID: %v", err)
	}
	id2, err := DeriveKeyID(KeyTypeEd25519, SchemeEd25519, keyval)
	if err != nil {
		t.Fatalf("DeriveKeyID: %v", err)
	}
	if id1 != id2 {
		t.Errorf("keyid not stable: %s != %s", id1, id2)
	}
}

func TestDeriveKeyID_PrivateIndependent(t *testing.T) {
	// The keyid must depend only on the public material.
	withPriv := KeyValue{Public: "abc123", Private: "def456"}
	withoutPriv := KeyValue{Public: "abc123"}

	id1, err := DeriveKeyID(KeyTypeEd25519, SchemeEd25519, withPriv)
	if err != nil {
		t.Fatalf("DeriveKeyID: %v", err)
	}
	id2, err := DeriveKeyID(KeyTypeEd25519, SchemeEd25519, withoutPriv)
	if err != nil {
		t.Fatalf("DeriveKeyID: %v", err)
	}
	if id1 != id2 {
		t.Errorf("keyid depends on private material: %s != %s", id1, id2)
	}
}

func TestDeriveKeyID_SchemeSensitive(t *testing.T) {
	keyval := KeyValue{Public: "abc123"}

	id1, err := DeriveKeyID(KeyTypeECDSA, SchemeECDSAP256, keyval)
	if err != nil {
		t.Fatalf("DeriveKeyID: %v", err)
	}
	id2, err := DeriveKeyID(KeyTypeECDSA, SchemeECDSAP384, keyval)
	if err != nil {
		t.Fatalf("DeriveKeyID: %v", err)
	}
	if id1 == id2 {
		t.Error("keyid should change with the scheme")
	}
}

func TestFormatKeyvalToMetadata_StripsPrivate(t *testing.T) {
	keyval := KeyValue{Public: "abc123", Private: "def456"}

	md, err := FormatKeyvalToMetadata(KeyTypeEd25519, SchemeEd25519, keyval, false)
	if err != nil {
		t.Fatalf("FormatKeyvalToMetadata: %v", err)
	}
	if md.KeyVal.Private != "" {
		t.Error("private material should be stripped")
	}
	if md.KeyVal.Public != "abc123" {
		t.Errorf("public material changed: %q", md.KeyVal.Public)
	}
}

func TestFormatKeyvalToMetadata_MissingPrivate(t *testing.T) {
	keyval := KeyValue{Public: "abc123"}

	_, err := FormatKeyvalToMetadata(KeyTypeEd25519, SchemeEd25519, keyval, true)
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat when private is requested but absent, got %v", err)
	}
}

func TestFormatKeyvalToMetadata_MissingPublic(t *testing.T) {
	_, err := FormatKeyvalToMetadata(KeyTypeEd25519, SchemeEd25519, KeyValue{}, false)
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat when public is absent, got %v", err)
	}
}

func TestFormatMetadataToKey_RoundTrip(t *testing.T) {
	key, err := GenerateEd25519Key()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	md, err := key.ToMetadata(true)
	if err != nil {
		t.Fatalf("ToMetadata: %v", err)
	}
	restored, keytype, err := FormatMetadataToKey(md)
	if err != nil {
		t.Fatalf("FormatMetadataToKey: %v", err)
	}

	if keytype != KeyTypeEd25519 {
		t.Errorf("Expected keytype ed25519, got %s", keytype)
	}
	if restored.KeyID != key.KeyID {
		t.Errorf("keyid changed through round trip: %s != %s", restored.KeyID, key.KeyID)
	}
	if restored.KeyVal.Private != key.KeyVal.Private {
		t.Error("private material lost in round trip")
	}
}

func TestFormatMetadataToKey_RederivesKeyID(t *testing.T) {
	key, err := GenerateEd25519Key()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	md, err := key.ToMetadata(false)
	if err != nil {
		t.Fatalf("ToMetadata: %v", err)
	}
	md.KeyID = "bogus"

	restored, _, err := FormatMetadataToKey(md)
	if err != nil {
		t.Fatalf("FormatMetadataToKey: %v", err)
	}
	if restored.KeyID != key.KeyID {
		t.Errorf("keyid not re-derived: got %s, want %s", restored.KeyID, key.KeyID)
	}
}

func TestKey_Public(t *testing.T) {
	key, err := GenerateEd25519Key()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	pub := key.Public()
	if pub.HasPrivate() {
		t.Error("Public() should drop private material")
	}
	if pub.KeyID != key.KeyID {
		t.Errorf("keyid changed: %s != %s", pub.KeyID, key.KeyID)
	}
	if !key.HasPrivate() {
		t.Error("Public() should not mutate the original key")
	}
}

func TestEncodeCanonical(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  string
	}{
		{"sorted keys", map[string]any{"b": 1, "a": 2}, `{"a":2,"b":1}`},
		{"nested", map[string]any{"k": map[string]any{"z": "", "a": nil}}, `{"k":{"a":null,"z":""}}`},
		{"escaping", map[string]any{"s": `a"b\c`}, `{"s":"a\"b\\c"}`},
		{"bool and list", []any{true, false, "x"}, `[true,false,"x"]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := encodeCanonical(tc.input)
			if err != nil {
				t.Fatalf("encodeCanonical: %v", err)
			}
			if got != tc.want {
				t.Errorf("encodeCanonical = %s, want %s", got, tc.want)
			}
		})
	}
}
