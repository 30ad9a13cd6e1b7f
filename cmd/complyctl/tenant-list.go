package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// tenantListCmd represents the tenant list command
var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	Long: `List all tenants with their provisioning and subscription status.

Example:
  complyctl tenant list`,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := openCore()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		records, err := c.store.ListTenants()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list tenants: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tPLAN\tPROVISIONING\tSUBSCRIPTION\tFRAMEWORKS\tCONTROLS")
		for _, record := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
				record.Slug, record.PlanCode,
				record.ProvisioningStatus, record.SubscriptionStatus,
				record.CurrentFrameworkCount, record.CurrentControlCount)
		}
		_ = w.Flush()
	},
}

func init() {
	tenantCmd.AddCommand(tenantListCmd)
}
