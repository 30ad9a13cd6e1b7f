package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// tenantSuspendCmd represents the tenant suspend command
var tenantSuspendCmd = &cobra.Command{
	Use:   "suspend [slug]",
	Short: "Suspend a tenant",
	Long: `Suspend a tenant.

The tenant record and partition are retained, but the tenant is withdrawn
from request routing until reactivated.

Example:
  complyctl tenant suspend acme-corp`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runLifecycle(cmd.Context(), args[0], "suspend")
	},
}

// tenantCancelCmd represents the tenant cancel command
var tenantCancelCmd = &cobra.Command{
	Use:   "cancel [slug]",
	Short: "Cancel a tenant",
	Long: `Cancel a tenant.

The partition is retained for export and inspection, but the tenant is
permanently withdrawn from request routing.

Example:
  complyctl tenant cancel acme-corp`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runLifecycle(cmd.Context(), args[0], "cancel")
	},
}

func runLifecycle(ctx context.Context, slug, action string) {
	c, err := openCore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch action {
	case "suspend":
		err = c.provisioner.Suspend(ctx, slug, cliActor)
	case "cancel":
		err = c.provisioner.Cancel(ctx, slug, cliActor)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to %s tenant: %v\n", action, err)
		os.Exit(1)
	}

	fmt.Printf("Tenant '%s' %sed\n", slug, action)
}

func init() {
	tenantCmd.AddCommand(tenantSuspendCmd)
	tenantCmd.AddCommand(tenantCancelCmd)
}
