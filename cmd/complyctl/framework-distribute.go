package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// frameworkDistributeCmd represents the framework distribute command
var frameworkDistributeCmd = &cobra.Command{
	Use:   "distribute [framework-template-id]",
	Short: "Distribute a framework template to a tenant",
	Long: `Distribute a framework template to a tenant.

This command copies the full framework tree from the template authority
into the tenant's partition and records the subscription. The copy is all
or nothing.

Example:
  complyctl framework distribute fw-iso27001 --tenant acme-corp
  complyctl framework distribute fw-soc2 --tenant acme-corp --level FULL`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		frameworkTemplateID := args[0]
		slug, _ := cmd.Flags().GetString("tenant")
		level, _ := cmd.Flags().GetString("level")

		if slug == "" {
			fmt.Fprintln(os.Stderr, "--tenant is required")
			os.Exit(1)
		}

		c, err := openCore()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		result, err := c.engine.Distribute(cmd.Context(), slug, frameworkTemplateID, level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to distribute framework: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Subscription: %s\n", result.SubscriptionID)
		fmt.Printf("Nodes created: %d\n", result.NodesCreated)
		fmt.Printf("Controls created: %d\n", result.ControlsCreated)
	},
}

func init() {
	frameworkCmd.AddCommand(frameworkDistributeCmd)
	frameworkDistributeCmd.Flags().StringP("tenant", "t", "", "Tenant slug to distribute to")
	frameworkDistributeCmd.Flags().StringP("level", "l", "VIEW_ONLY", "Customization level (VIEW_ONLY, CONTROL_LEVEL, FULL)")
}
