// Command keymgr is the CLI tool for managing signing keys.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mreynaud/keymgr/internal/audit"
	"github.com/mreynaud/keymgr/internal/backend"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	auditLogPath string
	backendsPath string

	// registry is the backend registry used by all commands, built in
	// PersistentPreRunE.
	registry *backend.Registry
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "keymgr",
	Short: "keymgr - a key management and signing toolkit",
	Long: `keymgr manages signing keys across interchangeable cryptographic
backends. Keys carry their type, signing scheme and a stable keyid
derived from the public material, so signatures can always be matched
back to the key that made them.

Supported keys and schemes:
  rsa      rsassa-pss-sha256 (default), rsassa-pss-sha512,
           rsa-pkcs1v15-sha256, rsa-pkcs1v15-sha512
  ecdsa    ecdsa-sha2-nistp256 (default), ecdsa-sha2-nistp384
  ed25519  ed25519

Examples:
  # Generate an Ed25519 keypair
  keymgr key gen --type ed25519 --out signing.key

  # Show key information
  keymgr key info signing.key.pub

  # Sign and verify a file
  keymgr sign --key signing.key --in release.tar.gz --out release.sig
  keymgr verify --key signing.key.pub --in release.tar.gz --sig release.sig`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Check for audit log path from environment if not set via flag
		if auditLogPath == "" {
			auditLogPath = os.Getenv("KEYMGR_AUDIT_LOG")
		}
		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
		}

		if backendsPath == "" {
			backendsPath = os.Getenv("KEYMGR_BACKENDS")
		}
		if backendsPath != "" {
			cfg, err := backend.LoadConfig(backendsPath)
			if err != nil {
				return err
			}
			reg, err := backend.NewRegistryFromConfig(cfg)
			if err != nil {
				return err
			}
			registry = reg
		} else {
			registry = backend.NewRegistry()
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set KEYMGR_AUDIT_LOG env var)")
	rootCmd.PersistentFlags().StringVar(&backendsPath, "backends", "",
		"Path to backend routing config (or set KEYMGR_BACKENDS env var)")

	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(backendsCmd)
	rootCmd.AddCommand(auditCmd)
}
