package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mreynaud/keymgr/internal/audit"
	"github.com/mreynaud/keymgr/internal/envelope"
	"github.com/mreynaud/keymgr/internal/keyfile"
	"github.com/mreynaud/keymgr/internal/keys"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Key management commands",
	Long:  `Commands for generating, inspecting and protecting signing keys.`,
}

var keyGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a signing keypair",
	Long: `Generate a new signing keypair.

The private key is written to --out and the public half next to it
with a .pub suffix. RSA keys are stored as PEM, optionally
passphrase-encrypted; ed25519 and ecdsa keys are stored as encrypted
containers and always require a passphrase.

Supported types:
  rsa       RSA (default 3072 bits, minimum 2048)
  ecdsa     ECDSA P-256 or P-384, chosen by --scheme
  ed25519   Ed25519 (default)

Examples:
  # Generate an Ed25519 keypair
  keymgr key gen --type ed25519 --out signing.key

  # Generate a 4096-bit RSA keypair with an encrypted private key
  keymgr key gen --type rsa --bits 4096 --passphrase secret --out rsa.key

  # Generate a P-384 ECDSA keypair
  keymgr key gen --type ecdsa --scheme ecdsa-sha2-nistp384 --out ec.key`,
	RunE: runKeyGen,
}

var keyInfoCmd = &cobra.Command{
	Use:   "info <keyfile>",
	Short: "Display information about a key file",
	Long: `Display the keytype, scheme and keyid of a key file.

Works on public key files (.pub), plain or encrypted RSA PEM files,
and encrypted key containers (the latter need --passphrase).

Examples:
  keymgr key info signing.key.pub
  keymgr key info signing.key --passphrase secret`,
	Args: cobra.ExactArgs(1),
	RunE: runKeyInfo,
}

var keyPubCmd = &cobra.Command{
	Use:   "pub",
	Short: "Extract the public key from a private key file",
	Long: `Extract the public half of a private key file.

The output carries no private material and can be shared freely.

Examples:
  keymgr key pub --key signing.key --passphrase secret --out signing.pub
  keymgr key pub --key rsa.key --out rsa.pub`,
	RunE: runKeyPub,
}

var keyEncryptCmd = &cobra.Command{
	Use:   "encrypt <keyfile>",
	Short: "Encrypt a plain RSA private key file",
	Long: `Re-encode a plain RSA private PEM file as a passphrase-encrypted one.

Examples:
  keymgr key encrypt rsa.key --new-passphrase secret --out rsa-enc.key`,
	Args: cobra.ExactArgs(1),
	RunE: runKeyEncrypt,
}

var keyDecryptCmd = &cobra.Command{
	Use:   "decrypt <keyfile>",
	Short: "Decrypt an encrypted key container",
	Long: `Decrypt an encrypted key container and print the key as JSON.

The output includes private material; redirect it carefully.

Examples:
  keymgr key decrypt signing.key --passphrase secret`,
	Args: cobra.ExactArgs(1),
	RunE: runKeyDecrypt,
}

var (
	keyGenType       string
	keyGenScheme     string
	keyGenBits       int
	keyGenOutput     string
	keyGenPassphrase string

	keyInfoPassphrase string

	keyPubKey        string
	keyPubOut        string
	keyPubPassphrase string

	keyEncryptOut     string
	keyEncryptNewPass string

	keyDecryptPassphrase string
)

func init() {
	keyCmd.AddCommand(keyGenCmd)
	keyCmd.AddCommand(keyInfoCmd)
	keyCmd.AddCommand(keyPubCmd)
	keyCmd.AddCommand(keyEncryptCmd)
	keyCmd.AddCommand(keyDecryptCmd)

	// gen flags
	flags := keyGenCmd.Flags()
	flags.StringVarP(&keyGenType, "type", "t", "ed25519", "Key type: rsa, ecdsa, ed25519")
	flags.StringVarP(&keyGenScheme, "scheme", "s", "", "Signing scheme (defaults per key type)")
	flags.IntVarP(&keyGenBits, "bits", "b", 0, "RSA key size in bits (default 3072)")
	flags.StringVarP(&keyGenOutput, "out", "o", "", "Output file for the private key (required)")
	flags.StringVarP(&keyGenPassphrase, "passphrase", "p", "", "Passphrase (prompted if needed and not given)")
	_ = keyGenCmd.MarkFlagRequired("out")

	// info flags
	keyInfoCmd.Flags().StringVarP(&keyInfoPassphrase, "passphrase", "p", "", "Passphrase for encrypted key files")

	// pub flags
	keyPubCmd.Flags().StringVarP(&keyPubKey, "key", "k", "", "Input private key file (required)")
	keyPubCmd.Flags().StringVarP(&keyPubOut, "out", "o", "", "Output public key file (required)")
	keyPubCmd.Flags().StringVar(&keyPubPassphrase, "passphrase", "", "Passphrase for encrypted key files")
	_ = keyPubCmd.MarkFlagRequired("key")
	_ = keyPubCmd.MarkFlagRequired("out")

	// encrypt flags
	keyEncryptCmd.Flags().StringVarP(&keyEncryptOut, "out", "o", "", "Output file (required)")
	keyEncryptCmd.Flags().StringVar(&keyEncryptNewPass, "new-passphrase", "", "Passphrase to encrypt with (prompted if not given)")
	_ = keyEncryptCmd.MarkFlagRequired("out")

	// decrypt flags
	keyDecryptCmd.Flags().StringVarP(&keyDecryptPassphrase, "passphrase", "p", "", "Passphrase (prompted if not given)")
}

func runKeyGen(cmd *cobra.Command, args []string) error {
	keytype := keys.KeyType(keyGenType)
	if !keytype.IsValid() {
		return fmt.Errorf("unknown key type: %s", keyGenType)
	}

	var key *keys.Key
	var err error

	switch keytype {
	case keys.KeyTypeRSA:
		key, err = keyfile.GenerateAndWriteRSAKeypair(keyGenOutput, keyGenBits, keyGenPassphrase)
	case keys.KeyTypeEd25519:
		pass, perr := requirePassphrase(keyGenPassphrase, true)
		if perr != nil {
			return perr
		}
		key, err = keyfile.GenerateAndWriteEd25519Keypair(registry, keyGenOutput, pass)
	case keys.KeyTypeECDSA:
		pass, perr := requirePassphrase(keyGenPassphrase, true)
		if perr != nil {
			return perr
		}
		key, err = keyfile.GenerateAndWriteECDSAKeypair(registry, keyGenOutput, keys.Scheme(keyGenScheme), pass)
	}
	if err != nil {
		_ = audit.LogKeyGenerated("", string(keytype), keyGenScheme, keyGenOutput, false)
		return err
	}

	_ = audit.LogKeyGenerated(key.KeyID, string(key.KeyType), string(key.Scheme), keyGenOutput, true)

	fmt.Printf("Generated %s key (%s)\n", key.KeyType, key.Scheme)
	fmt.Printf("  keyid:   %s\n", key.KeyID)
	fmt.Printf("  private: %s\n", keyGenOutput)
	fmt.Printf("  public:  %s%s\n", keyGenOutput, keyfile.PublicSuffix)
	return nil
}

func runKeyInfo(cmd *cobra.Command, args []string) error {
	key, err := loadAnyKey(args[0], keyInfoPassphrase)
	if err != nil {
		return err
	}

	fmt.Printf("Keytype:  %s\n", key.KeyType)
	fmt.Printf("Scheme:   %s (%s)\n", key.Scheme, key.Scheme.Description())
	fmt.Printf("Keyid:    %s\n", key.KeyID)
	if key.HasPrivate() {
		fmt.Println("Private:  present")
	} else {
		fmt.Println("Private:  absent")
	}
	return nil
}

func runKeyPub(cmd *cobra.Command, args []string) error {
	key, err := loadAnyKey(keyPubKey, keyPubPassphrase)
	if err != nil {
		return err
	}

	md, err := key.ToMetadata(false)
	if err != nil {
		return err
	}
	public, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(keyPubOut, public, 0o644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	fmt.Printf("Public key written to %s\n", keyPubOut)
	return nil
}

func runKeyEncrypt(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read key file: %w", err)
	}

	pass, err := requirePassphrase(keyEncryptNewPass, true)
	if err != nil {
		return err
	}

	encrypted, err := keys.CreateRSAEncryptedPEM(string(data), pass)
	if err != nil {
		return err
	}
	if err := os.WriteFile(keyEncryptOut, []byte(encrypted), 0o600); err != nil {
		return fmt.Errorf("failed to write encrypted key: %w", err)
	}

	_ = audit.Log(audit.NewEvent(audit.EventKeyEncrypted, audit.ResultSuccess).
		WithObject(audit.Object{Type: "key", Path: keyEncryptOut}))

	fmt.Printf("Encrypted key written to %s\n", keyEncryptOut)
	return nil
}

func runKeyDecrypt(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read key file: %w", err)
	}

	pass, err := requirePassphrase(keyDecryptPassphrase, false)
	if err != nil {
		return err
	}

	key, err := envelope.DecryptKey(registry, strings.TrimSpace(string(data)), pass)
	if err != nil {
		_ = audit.LogAuthFailed(args[0], err.Error())
		return err
	}

	_ = audit.Log(audit.NewEvent(audit.EventKeyDecrypted, audit.ResultSuccess).
		WithObject(audit.Object{Type: "key", KeyID: key.KeyID, Path: args[0]}))

	out, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// loadAnyKey loads a key file in any of the supported on-disk formats:
// public key metadata JSON, RSA PEM (plain or encrypted), or an
// encrypted key container.
func loadAnyKey(path, passphrase string) (*keys.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	text := strings.TrimSpace(string(data))

	if strings.HasPrefix(text, "{") {
		return keyfile.ImportPublicKeyFromFile(path)
	}
	if keys.IsPEMPublic(text) {
		return keys.ImportRSAKeyFromPublicPEM(text, "")
	}
	if ok, _ := keys.IsPEMPrivate(text, keys.KeyTypeRSA); ok {
		return keys.ImportRSAKeyFromPrivatePEM(text, "", passphrase)
	}

	pass, err := requirePassphrase(passphrase, false)
	if err != nil {
		return nil, err
	}
	key, err := envelope.DecryptKey(registry, text, pass)
	if err != nil {
		_ = audit.LogAuthFailed(path, err.Error())
		return nil, err
	}
	return key, nil
}

// requirePassphrase returns the flag value or prompts on the terminal.
// With confirm set, the passphrase is read twice and must match.
func requirePassphrase(flagValue string, confirm bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		second, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase: %w", err)
		}
		if string(first) != string(second) {
			return "", fmt.Errorf("passphrases do not match")
		}
	}
	return string(first), nil
}
