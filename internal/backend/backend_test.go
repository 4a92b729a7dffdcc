package backend

import (
	"errors"
	"testing"

	"github.com/mreynaud/keymgr/internal/keys"
)

func TestNewRegistry_Defaults(t *testing.T) {
	reg := NewRegistry()

	for _, f := range Families() {
		if got := reg.Selected(f); got != BackendSoftware {
			t.Errorf("family %s: expected software default, got %s", f, got)
		}
	}
	if !reg.Available(BackendSoftware) {
		t.Error("software backend should be available")
	}
	if !reg.Available(BackendRef25519) {
		t.Error("ref25519 backend should be available")
	}
}

func TestRegistry_SelectUnavailable(t *testing.T) {
	reg := NewRegistry()
	reg.Select(FamilyRSA, "hsm")

	_, err := reg.Signer(FamilyRSA)
	if !errors.Is(err, keys.ErrUnsupportedLibrary) {
		t.Errorf("expected ErrUnsupportedLibrary, got %v", err)
	}

	// Other families still route to software.
	if _, err := reg.Signer(FamilyEd25519); err != nil {
		t.Errorf("unexpected error for untouched family: %v", err)
	}
}

func TestRegistry_MarkUnavailable(t *testing.T) {
	reg := NewRegistry()
	reg.SetAvailable(BackendSoftware, false)

	if _, err := reg.Signer(FamilyECDSA); !errors.Is(err, keys.ErrUnsupportedLibrary) {
		t.Errorf("expected ErrUnsupportedLibrary, got %v", err)
	}
	if _, err := reg.Cipher(); !errors.Is(err, keys.ErrUnsupportedLibrary) {
		t.Errorf("expected ErrUnsupportedLibrary for cipher, got %v", err)
	}
}

func TestFamilyForKeyType(t *testing.T) {
	cases := []struct {
		keytype keys.KeyType
		want    Family
	}{
		{keys.KeyTypeRSA, FamilyRSA},
		{keys.KeyTypeECDSA, FamilyECDSA},
		{keys.KeyTypeEd25519, FamilyEd25519},
	}
	for _, tc := range cases {
		got, err := FamilyForKeyType(tc.keytype)
		if err != nil {
			t.Fatalf("FamilyForKeyType(%s): %v", tc.keytype, err)
		}
		if got != tc.want {
			t.Errorf("FamilyForKeyType(%s) = %s, want %s", tc.keytype, got, tc.want)
		}
	}

	if _, err := FamilyForKeyType(keys.KeyType("dsa")); !errors.Is(err, keys.ErrFormat) {
		t.Errorf("expected ErrFormat for unknown keytype, got %v", err)
	}
}

func TestSoftwareSigner_AllSchemes(t *testing.T) {
	reg := NewRegistry()
	message := []byte("sign me")

	rsaKey, err := keys.GenerateRSAKey(keys.MinRSAKeyBits)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}

	cases := []struct {
		name string
		key  *keys.Key
	}{
		{"rsassa-pss-sha256", rsaKey},
		{"ecdsa-p256", mustECDSA(t, keys.SchemeECDSAP256)},
		{"ecdsa-p384", mustECDSA(t, keys.SchemeECDSAP384)},
		{"ed25519", mustEd25519(t)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			family, err := FamilyForKeyType(tc.key.KeyType)
			if err != nil {
				t.Fatalf("FamilyForKeyType: %v", err)
			}
			s, err := reg.Signer(family)
			if err != nil {
				t.Fatalf("Signer: %v", err)
			}

			sig, err := s.Sign(tc.key, message)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}

			ok, err := s.Verify(tc.key, sig, message)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if !ok {
				t.Error("signature did not verify")
			}

			ok, err = s.Verify(tc.key, sig, []byte("tampered"))
			if err != nil {
				t.Fatalf("Verify (tampered): %v", err)
			}
			if ok {
				t.Error("tampered data verified")
			}
		})
	}
}

func TestSoftwareSigner_RSASchemeVariants(t *testing.T) {
	reg := NewRegistry()
	s, err := reg.Signer(FamilyRSA)
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}

	for _, scheme := range []keys.Scheme{
		keys.SchemeRSAPSSSHA512,
		keys.SchemeRSAPKCS1v15SHA256,
		keys.SchemeRSAPKCS1v15SHA512,
	} {
		key, err := keys.GenerateRSAKeyWithScheme(keys.MinRSAKeyBits, scheme)
		if err != nil {
			t.Fatalf("Failed to generate %s key: %v", scheme, err)
		}

		sig, err := s.Sign(key, []byte("payload"))
		if err != nil {
			t.Fatalf("Sign (%s): %v", scheme, err)
		}
		ok, err := s.Verify(key, sig, []byte("payload"))
		if err != nil {
			t.Fatalf("Verify (%s): %v", scheme, err)
		}
		if !ok {
			t.Errorf("%s signature did not verify", scheme)
		}
	}
}

func TestRef25519_CrossBackend(t *testing.T) {
	// Signatures made by the software backend must verify on the
	// reference backend and vice versa.
	reg := NewRegistry()
	key := mustEd25519(t)
	message := []byte("interop")

	software, err := reg.Signer(FamilyEd25519)
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	ref, err := reg.ReferenceEd25519()
	if err != nil {
		t.Fatalf("ReferenceEd25519: %v", err)
	}

	fromSoftware, err := software.Sign(key, message)
	if err != nil {
		t.Fatalf("software Sign: %v", err)
	}
	fromRef, err := ref.Sign(key, message)
	if err != nil {
		t.Fatalf("ref Sign: %v", err)
	}

	if ok, err := ref.Verify(key, fromSoftware, message); err != nil || !ok {
		t.Errorf("ref backend rejected software signature: ok=%v err=%v", ok, err)
	}
	if ok, err := software.Verify(key, fromRef, message); err != nil || !ok {
		t.Errorf("software backend rejected ref signature: ok=%v err=%v", ok, err)
	}
}

func TestRef25519_RejectsOtherFamilies(t *testing.T) {
	reg := NewRegistry()
	ref, err := reg.ReferenceEd25519()
	if err != nil {
		t.Fatalf("ReferenceEd25519: %v", err)
	}

	ecKey := mustECDSA(t, keys.SchemeECDSAP256)
	if _, err := ref.Sign(ecKey, []byte("x")); !errors.Is(err, keys.ErrUnsupportedAlgorithm) {
		t.Errorf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestSoftwareCipher_RoundTrip(t *testing.T) {
	c := &softwareCipher{}

	sealed, err := c.Encrypt("hunter2", []byte("secret payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	plain, err := c.Decrypt("hunter2", sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(plain) != "secret payload" {
		t.Errorf("round trip changed payload: %q", plain)
	}
}

func TestSoftwareCipher_WrongPassphrase(t *testing.T) {
	c := &softwareCipher{}

	sealed, err := c.Encrypt("hunter2", []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := c.Decrypt("wrong", sealed); !errors.Is(err, keys.ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestSoftwareCipher_NotAContainer(t *testing.T) {
	c := &softwareCipher{}

	if _, err := c.Decrypt("pass", []byte("garbage")); !errors.Is(err, keys.ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := &Config{
		Backends:  map[string]string{"ed25519": BackendRef25519},
		Available: []string{BackendRef25519},
	}

	reg, err := NewRegistryFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewRegistryFromConfig: %v", err)
	}

	if got := reg.Selected(FamilyEd25519); got != BackendRef25519 {
		t.Errorf("ed25519 routing: got %s", got)
	}
	if reg.Available(BackendSoftware) {
		t.Error("software should be unavailable when not listed")
	}

	// Dispatch through the now-unavailable software backend fails.
	if _, err := reg.Signer(FamilyRSA); !errors.Is(err, keys.ErrUnsupportedLibrary) {
		t.Errorf("expected ErrUnsupportedLibrary, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	bad := &Config{Backends: map[string]string{"dsa": "software"}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown family")
	}

	good := &Config{Backends: map[string]string{"rsa": "software"}}
	if err := good.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func mustECDSA(t *testing.T, scheme keys.Scheme) *keys.Key {
	t.Helper()
	key, err := keys.GenerateECDSAKeyWithScheme(scheme)
	if err != nil {
		t.Fatalf("Failed to generate ECDSA key: %v", err)
	}
	return key
}

func mustEd25519(t *testing.T) *keys.Key {
	t.Helper()
	key, err := keys.GenerateEd25519Key()
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 key: %v", err)
	}
	return key
}
