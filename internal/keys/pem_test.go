package keys

import (
	"errors"
	"strings"
	"testing"
)

func TestIsPEMPublic(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	if !IsPEMPublic(key.KeyVal.Public) {
		t.Error("generated public PEM not recognized")
	}
	if !IsPEMPublic("\n  " + key.KeyVal.Public + "\n\n") {
		t.Error("whitespace should be tolerated")
	}
	if IsPEMPublic(key.KeyVal.Private) {
		t.Error("private PEM should not be recognized as public")
	}
	if IsPEMPublic("not pem at all") {
		t.Error("garbage should not be recognized as public")
	}
}

func TestIsPEMPrivate(t *testing.T) {
	ecKey, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	rsaKey, err := GenerateRSAKey(MinRSAKeyBits)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	ok, err := IsPEMPrivate(ecKey.KeyVal.Private, KeyTypeECDSA)
	if err != nil || !ok {
		t.Errorf("EC private PEM not recognized: ok=%v err=%v", ok, err)
	}
	ok, err = IsPEMPrivate(rsaKey.KeyVal.Private, KeyTypeRSA)
	if err != nil || !ok {
		t.Errorf("RSA private PEM not recognized: ok=%v err=%v", ok, err)
	}

	// Cross-family labels do not match.
	ok, err = IsPEMPrivate(rsaKey.KeyVal.Private, KeyTypeECDSA)
	if err != nil {
		t.Fatalf("IsPEMPrivate: %v", err)
	}
	if ok {
		t.Error("RSA private PEM should not match ECDSA")
	}

	// Only PEM-backed key types can be inspected.
	if _, err := IsPEMPrivate(rsaKey.KeyVal.Private, KeyTypeEd25519); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat for ed25519 inspection, got %v", err)
	}
}

func TestExtractPEM_Idempotent(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	once, err := ExtractPEM(key.KeyVal.Public, false)
	if err != nil {
		t.Fatalf("ExtractPEM: %v", err)
	}
	twice, err := ExtractPEM(once, false)
	if err != nil {
		t.Fatalf("ExtractPEM (second pass): %v", err)
	}
	if once != twice {
		t.Error("extraction is not idempotent")
	}
}

func TestExtractPEM_SurroundingText(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	wrapped := "some leading text\n" + key.KeyVal.Public + "\ntrailing text"
	got, err := ExtractPEM(wrapped, false)
	if err != nil {
		t.Fatalf("ExtractPEM: %v", err)
	}
	if got != key.KeyVal.Public {
		t.Errorf("extracted block differs from original")
	}
}

func TestExtractPEM_MissingMarkers(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	noHeader := strings.Replace(key.KeyVal.Public, "-----BEGIN PUBLIC KEY-----", "", 1)
	if _, err := ExtractPEM(noHeader, false); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat without header, got %v", err)
	}

	noFooter := strings.Replace(key.KeyVal.Public, "-----END PUBLIC KEY-----", "", 1)
	if _, err := ExtractPEM(noFooter, false); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat without footer, got %v", err)
	}

	if _, err := ExtractPEM("", false); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat for empty input, got %v", err)
	}
}

func TestImportRSAKeyFromPublicPEM(t *testing.T) {
	gen, err := GenerateRSAKey(MinRSAKeyBits)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	imported, err := ImportRSAKeyFromPublicPEM(gen.KeyVal.Public, "")
	if err != nil {
		t.Fatalf("ImportRSAKeyFromPublicPEM: %v", err)
	}
	if imported.Scheme != SchemeRSAPSSSHA256 {
		t.Errorf("Expected default scheme, got %s", imported.Scheme)
	}
	if imported.HasPrivate() {
		t.Error("public import should not carry private material")
	}
	if imported.KeyID != gen.KeyID {
		t.Errorf("keyid mismatch after import: %s != %s", imported.KeyID, gen.KeyID)
	}
}

func TestImportRSAKeyFromPublicPEM_WhitespaceTolerant(t *testing.T) {
	gen, err := GenerateRSAKey(MinRSAKeyBits)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	plain, err := ImportRSAKeyFromPublicPEM(gen.KeyVal.Public, "")
	if err != nil {
		t.Fatalf("ImportRSAKeyFromPublicPEM: %v", err)
	}
	padded, err := ImportRSAKeyFromPublicPEM("\n"+gen.KeyVal.Public+"\n\n", "")
	if err != nil {
		t.Fatalf("ImportRSAKeyFromPublicPEM (padded): %v", err)
	}
	if plain.KeyID != padded.KeyID {
		t.Error("trailing whitespace changed the keyid")
	}
}

func TestImportRSAKeyFromPrivatePEM(t *testing.T) {
	gen, err := GenerateRSAKey(MinRSAKeyBits)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	imported, err := ImportRSAKeyFromPrivatePEM(gen.KeyVal.Private, "", "")
	if err != nil {
		t.Fatalf("ImportRSAKeyFromPrivatePEM: %v", err)
	}
	if !imported.HasPrivate() {
		t.Error("private import lost private material")
	}
	if imported.KeyID != gen.KeyID {
		t.Errorf("keyid mismatch after import: %s != %s", imported.KeyID, gen.KeyID)
	}
}

func TestImportRSAKeyFromPrivatePEM_Encrypted(t *testing.T) {
	gen, err := GenerateRSAKey(MinRSAKeyBits)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	encrypted, err := CreateRSAEncryptedPEM(gen.KeyVal.Private, "letmein")
	if err != nil {
		t.Fatalf("CreateRSAEncryptedPEM: %v", err)
	}

	imported, err := ImportRSAKeyFromPrivatePEM(encrypted, "", "letmein")
	if err != nil {
		t.Fatalf("ImportRSAKeyFromPrivatePEM: %v", err)
	}
	if imported.KeyID != gen.KeyID {
		t.Errorf("keyid mismatch after encrypted import")
	}

	if _, err := ImportRSAKeyFromPrivatePEM(encrypted, "", "wrong"); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed for wrong password, got %v", err)
	}
	if _, err := ImportRSAKeyFromPrivatePEM(encrypted, "", ""); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed for missing password, got %v", err)
	}
}

func TestImportECDSAKeyFromPEM(t *testing.T) {
	gen, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	pub, err := ImportECDSAKeyFromPEM(gen.KeyVal.Public, "")
	if err != nil {
		t.Fatalf("ImportECDSAKeyFromPEM (public): %v", err)
	}
	if pub.HasPrivate() {
		t.Error("public import should not carry private material")
	}

	priv, err := ImportECDSAKeyFromPEM(gen.KeyVal.Private, "")
	if err != nil {
		t.Fatalf("ImportECDSAKeyFromPEM (private): %v", err)
	}
	if !priv.HasPrivate() {
		t.Error("private import lost private material")
	}
	if priv.KeyID != gen.KeyID {
		t.Errorf("keyid mismatch after import")
	}
}

func TestImportEd25519KeyFromHex(t *testing.T) {
	gen, err := GenerateEd25519Key()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	imported, err := ImportEd25519KeyFromHex(gen.KeyVal.Public, gen.KeyVal.Private)
	if err != nil {
		t.Fatalf("ImportEd25519KeyFromHex: %v", err)
	}
	if imported.KeyID != gen.KeyID {
		t.Errorf("keyid mismatch after import")
	}

	pubOnly, err := ImportEd25519KeyFromHex(gen.KeyVal.Public, "")
	if err != nil {
		t.Fatalf("ImportEd25519KeyFromHex (public only): %v", err)
	}
	if pubOnly.KeyID != gen.KeyID {
		t.Errorf("public-only keyid mismatch")
	}

	if _, err := ImportEd25519KeyFromHex("zz", ""); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat for bad hex, got %v", err)
	}
}
