// Package cli implements storefrontctl, the operator command line for the
// storefront: home page sections, cart deep links and offline reports.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "storefrontctl",
		Short: "Operator tools for the Awesome storefront",
		Long: `storefrontctl previews home page sections against a catalog, turns a saved
cart into an order deep link, and computes sales reports from exported orders.`,
		SilenceUsage: true,
	}
	root.AddCommand(newSectionsCmd(), newLinkCmd(), newReportCmd())
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
