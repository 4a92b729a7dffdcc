package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mreynaud/keymgr/internal/audit"
	"github.com/mreynaud/keymgr/internal/backend"
	"github.com/mreynaud/keymgr/internal/cose"
	"github.com/mreynaud/keymgr/internal/keys"
	"github.com/mreynaud/keymgr/internal/signer"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a file",
	Long: `Sign a file with a private key.

The default output is a JSON signature object carrying the keyid and
the hex-encoded signature. With --cose the output is a COSE Sign1
message (RFC 9052) embedding the payload.

Examples:
  # Detached JSON signature
  keymgr sign --key signing.key --passphrase secret --in release.tar.gz --out release.sig

  # COSE Sign1 message
  keymgr sign --key signing.key --passphrase secret --in metadata.json --cose --out metadata.cose`,
	RunE: runSign,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a signature",
	Long: `Verify a signature against a public key.

For JSON signatures, --in names the signed file and --sig the
signature. For COSE Sign1 messages (--cose), --sig names the message
and the embedded payload is checked.

Examples:
  keymgr verify --key signing.key.pub --in release.tar.gz --sig release.sig
  keymgr verify --key signing.key.pub --cose --sig metadata.cose`,
	RunE: runVerify,
}

var (
	signKey        string
	signPassphrase string
	signInput      string
	signOutput     string
	signCOSE       bool

	verifyKey   string
	verifyInput string
	verifySig   string
	verifyCOSE  bool
)

func init() {
	flags := signCmd.Flags()
	flags.StringVarP(&signKey, "key", "k", "", "Private key file (required)")
	flags.StringVarP(&signPassphrase, "passphrase", "p", "", "Passphrase for encrypted key files")
	flags.StringVarP(&signInput, "in", "i", "", "File to sign (required)")
	flags.StringVarP(&signOutput, "out", "o", "", "Output file (required)")
	flags.BoolVar(&signCOSE, "cose", false, "Produce a COSE Sign1 message")
	_ = signCmd.MarkFlagRequired("key")
	_ = signCmd.MarkFlagRequired("in")
	_ = signCmd.MarkFlagRequired("out")

	flags = verifyCmd.Flags()
	flags.StringVarP(&verifyKey, "key", "k", "", "Public key file (required)")
	flags.StringVarP(&verifyInput, "in", "i", "", "Signed file (not used with --cose)")
	flags.StringVarP(&verifySig, "sig", "s", "", "Signature or COSE message file (required)")
	flags.BoolVar(&verifyCOSE, "cose", false, "Verify a COSE Sign1 message")
	_ = verifyCmd.MarkFlagRequired("key")
	_ = verifyCmd.MarkFlagRequired("sig")
}

func runSign(cmd *cobra.Command, args []string) error {
	key, err := loadAnyKey(signKey, signPassphrase)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(signInput)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	var out []byte
	if signCOSE {
		out, err = cose.Sign1(registry, key, data)
	} else {
		var sig *signer.Signature
		sig, err = signer.CreateSignature(registry, key, data)
		if err == nil {
			out, err = json.MarshalIndent(sig, "", "  ")
		}
	}
	if err != nil {
		_ = audit.LogDataSigned(key.KeyID, string(key.Scheme), registrySelectedFor(key), false)
		return err
	}

	if err := os.WriteFile(signOutput, out, 0o644); err != nil {
		return fmt.Errorf("failed to write signature: %w", err)
	}

	_ = audit.LogDataSigned(key.KeyID, string(key.Scheme), registrySelectedFor(key), true)

	fmt.Printf("Signature written to %s (keyid %s)\n", signOutput, key.KeyID)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	key, err := loadAnyKey(verifyKey, "")
	if err != nil {
		return err
	}

	sigData, err := os.ReadFile(verifySig)
	if err != nil {
		return fmt.Errorf("failed to read signature file: %w", err)
	}

	var ok bool
	if verifyCOSE {
		err = cose.VerifySign1(registry, key, sigData)
		ok = err == nil
		err = nil
	} else {
		if verifyInput == "" {
			return fmt.Errorf("--in is required without --cose")
		}
		data, rerr := os.ReadFile(verifyInput)
		if rerr != nil {
			return fmt.Errorf("failed to read signed file: %w", rerr)
		}
		var sig signer.Signature
		if jerr := json.Unmarshal(sigData, &sig); jerr != nil {
			return fmt.Errorf("signature file is not valid JSON: %w", jerr)
		}
		ok, err = signer.VerifySignature(registry, key, &sig, data)
	}
	if err != nil {
		return err
	}

	_ = audit.LogSigVerified(key.KeyID, string(key.Scheme), ok)

	if !ok {
		fmt.Println("Signature: INVALID")
		os.Exit(1)
	}
	fmt.Println("Signature: OK")
	return nil
}

// registrySelectedFor names the backend the key's family routes to,
// for audit context.
func registrySelectedFor(key *keys.Key) string {
	family, err := backend.FamilyForKeyType(key.KeyType)
	if err != nil {
		return ""
	}
	return registry.Selected(family)
}
