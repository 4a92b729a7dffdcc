package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mreynaud/keymgr/internal/backend"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Show backend routing",
	Long: `Show which backend each key family dispatches to and whether it
is available on this host.

Routing comes from the built-in defaults, overridden by the file given
with --backends (or the KEYMGR_BACKENDS env var). Example config:

  backends:
    ed25519: ref25519
  available:
    - software
    - ref25519

Examples:
  keymgr backends
  keymgr backends --backends ./backends.yaml`,
	RunE: runBackends,
}

func runBackends(cmd *cobra.Command, args []string) error {
	for _, f := range backend.Families() {
		name := registry.Selected(f)
		status := "available"
		if !registry.Available(name) {
			status = "UNAVAILABLE"
		}
		fmt.Printf("%-10s -> %-10s %s\n", f, name, status)
	}
	return nil
}
