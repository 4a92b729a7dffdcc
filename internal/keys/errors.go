package keys

import "errors"

// Sentinel errors for key operations.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrFormat indicates structurally invalid input: a missing required
	// field, a malformed PEM, or an otherwise unparseable value.
	ErrFormat = errors.New("malformed input")

	// ErrUnsupportedAlgorithm indicates a keytype/scheme combination that
	// is not recognized, or a scheme from a different algorithm family.
	ErrUnsupportedAlgorithm = errors.New("unsupported keytype/scheme combination")

	// ErrUnsupportedLibrary indicates the configured backend is not in the
	// available set.
	ErrUnsupportedLibrary = errors.New("configured backend is not available")

	// ErrNoPrivateKey indicates signing was attempted with a key that
	// carries no private material. This is a precondition violation, not a
	// format error.
	ErrNoPrivateKey = errors.New("key has no private material")

	// ErrDecryptionFailed indicates a wrong passphrase or a corrupted
	// encrypted-key container.
	ErrDecryptionFailed = errors.New("decryption failed")
)
