package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/complyhub/complyd/pkg/provision"
)

// tenantCreateCmd represents the tenant create command
var tenantCreateCmd = &cobra.Command{
	Use:   "create [slug]",
	Short: "Provision a new tenant",
	Long: `Provision a new tenant.

This command creates the tenant record, a dedicated schema with its own
login role, and the tenant table set. The COMPLYD_DATA_KEY must be
available in the environment since it's used to encrypt the partition
credential stored in the system partition.

Example:
  complyctl tenant create acme-corp --plan premium
  complyctl tenant create acme-corp --plan basic --company-name "Acme Corp"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		slug := args[0]
		plan, _ := cmd.Flags().GetString("plan")
		companyName, _ := cmd.Flags().GetString("company-name")
		companyEmail, _ := cmd.Flags().GetString("company-email")

		c, err := openCore()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		result, err := c.provisioner.Provision(cmd.Context(), provision.Params{
			Slug:         slug,
			CompanyName:  companyName,
			CompanyEmail: companyEmail,
			PlanCode:     plan,
			ActorID:      cliActor,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to provision tenant: %v\n", err)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Provisioned tenant '%s'\n", result.Slug)
		fmt.Printf("Schema: %s\n", result.SchemaName)
		fmt.Printf("Provisioning status: %s\n", result.ProvisioningStatus)
		fmt.Printf("Subscription status: %s\n", result.SubscriptionStatus)
		if result.TrialEndsAt != nil {
			fmt.Printf("Trial ends: %s\n", result.TrialEndsAt.Format("2006-01-02"))
		}
	},
}

func init() {
	tenantCmd.AddCommand(tenantCreateCmd)
	tenantCreateCmd.Flags().StringP("plan", "p", "starter", "Subscription plan code")
	tenantCreateCmd.Flags().String("company-name", "", "Company display name")
	tenantCreateCmd.Flags().String("company-email", "", "Company contact email")
}
