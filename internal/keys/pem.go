package keys

import (
	"encoding/pem"
	"fmt"
	"strings"
)

// PEM block labels accepted by the inspector.
const (
	pemLabelPublic     = "PUBLIC KEY"
	pemLabelPrivate    = "PRIVATE KEY"
	pemLabelRSAPrivate = "RSA PRIVATE KEY"
	pemLabelECPrivate  = "EC PRIVATE KEY"
)

// privateLabels is ordered most-specific first so ExtractPEM picks the
// narrowest label whose header appears earliest.
var privateLabels = []string{pemLabelRSAPrivate, pemLabelECPrivate, pemLabelPrivate}

func pemHeader(label string) string { return "-----BEGIN " + label + "-----" }
func pemFooter(label string) string { return "-----END " + label + "-----" }

// IsPEMPublic returns true if data, after trimming surrounding whitespace,
// is a public-key PEM: it begins with the PUBLIC KEY header marker and
// ends with the matching footer.
func IsPEMPublic(data string) bool {
	trimmed := strings.TrimSpace(data)
	return strings.HasPrefix(trimmed, pemHeader(pemLabelPublic)) &&
		strings.HasSuffix(trimmed, pemFooter(pemLabelPublic))
}

// IsPEMPrivate returns true if data is a private-key PEM whose header
// marker matches the given keytype: RSA accepts the generic PRIVATE KEY
// and RSA PRIVATE KEY labels, ECDSA accepts EC PRIVATE KEY. Other
// keytypes have no PEM private encoding and are reported as ErrFormat.
func IsPEMPrivate(data string, keytype KeyType) (bool, error) {
	var labels []string
	switch keytype {
	case KeyTypeRSA:
		labels = []string{pemLabelRSAPrivate, pemLabelPrivate}
	case KeyTypeECDSA:
		labels = []string{pemLabelECPrivate}
	default:
		return false, fmt.Errorf("%w: unsupported keytype %q for PEM private check", ErrFormat, keytype)
	}

	trimmed := strings.TrimSpace(data)
	for _, label := range labels {
		if strings.HasPrefix(trimmed, pemHeader(label)) && strings.HasSuffix(trimmed, pemFooter(label)) {
			return true, nil
		}
	}
	return false, nil
}

// ExtractPEM locates the first complete BEGIN...END block of the required
// class inside arbitrary surrounding text and returns it with surrounding
// whitespace stripped. It fails with ErrFormat if the expected header or
// footer is absent, if they are mismatched or swapped, or if the region
// between them does not decode as a single well-formed PEM block.
//
// ExtractPEM is idempotent: applying it to its own output returns the
// same value.
func ExtractPEM(data string, privatePEM bool) (string, error) {
	labels := []string{pemLabelPublic}
	if privatePEM {
		labels = privateLabels
	}

	label, start := "", -1
	for _, l := range labels {
		if idx := strings.Index(data, pemHeader(l)); idx >= 0 && (start < 0 || idx < start) {
			label, start = l, idx
		}
	}
	if start < 0 {
		return "", fmt.Errorf("%w: required PEM header not found", ErrFormat)
	}

	footer := pemFooter(label)
	end := strings.Index(data[start:], footer)
	if end < 0 {
		return "", fmt.Errorf("%w: required PEM footer not found", ErrFormat)
	}
	extracted := strings.TrimSpace(data[start : start+end+len(footer)])

	// The region between the markers must resolve into exactly one block.
	block, rest := pem.Decode([]byte(extracted))
	if block == nil || len(strings.TrimSpace(string(rest))) != 0 {
		return "", fmt.Errorf("%w: text between PEM markers is not a well-formed block", ErrFormat)
	}

	return extracted, nil
}
