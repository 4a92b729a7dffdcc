// Package cose wraps keys and backend dispatch in COSE Sign1 (RFC
// 9052) messages, so signatures can travel in a standard envelope that
// carries the algorithm and keyid alongside the payload.
package cose

import (
	"fmt"

	gocose "github.com/veraison/go-cose"

	"github.com/mreynaud/keymgr/internal/keys"
)

// COSE Algorithm IDs from the IANA COSE Algorithms Registry.
const (
	AlgES256 gocose.Algorithm = -7  // ECDSA w/ SHA-256
	AlgES384 gocose.Algorithm = -35 // ECDSA w/ SHA-384
	AlgES512 gocose.Algorithm = -36 // ECDSA w/ SHA-512
	AlgEdDSA gocose.Algorithm = -8  // EdDSA (Ed25519)
	AlgPS256 gocose.Algorithm = -37 // RSASSA-PSS w/ SHA-256
	AlgPS512 gocose.Algorithm = -39 // RSASSA-PSS w/ SHA-512
)

// AlgorithmForScheme maps a signing scheme to its COSE algorithm.
// PKCS#1 v1.5 schemes have no registered COSE algorithm and are
// rejected.
func AlgorithmForScheme(scheme keys.Scheme) (gocose.Algorithm, error) {
	switch scheme {
	case keys.SchemeECDSAP256:
		return AlgES256, nil
	case keys.SchemeECDSAP384:
		return AlgES384, nil
	case keys.SchemeEd25519:
		return AlgEdDSA, nil
	case keys.SchemeRSAPSSSHA256:
		return AlgPS256, nil
	case keys.SchemeRSAPSSSHA512:
		return AlgPS512, nil
	default:
		return 0, fmt.Errorf("%w: scheme %q has no COSE algorithm", keys.ErrUnsupportedAlgorithm, scheme)
	}
}

// AlgorithmName returns a human-readable name for a COSE algorithm.
func AlgorithmName(alg gocose.Algorithm) string {
	switch alg {
	case AlgES256:
		return "ES256"
	case AlgES384:
		return "ES384"
	case AlgES512:
		return "ES512"
	case AlgEdDSA:
		return "EdDSA"
	case AlgPS256:
		return "PS256"
	case AlgPS512:
		return "PS512"
	default:
		return fmt.Sprintf("Unknown(%d)", alg)
	}
}
