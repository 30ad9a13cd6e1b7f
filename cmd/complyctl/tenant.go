package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// cliActor tags audit events for lifecycle operations run from the CLI,
// which carries no user identity of its own.
const cliActor = "complyctl"

// tenantCmd represents the tenant command
var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
	Long:  `Manage tenant partitions and lifecycle.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'tenant' requires a subcommand (create, list, suspend, cancel)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(tenantCmd)
}
