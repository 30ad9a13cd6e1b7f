package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "complyctl",
	Short: "Control the complyd compliance platform",
	Long: `complyctl runs and administers the complyd server: database
migrations, tenant provisioning and lifecycle, framework distribution,
role bundles, and the data encryption key.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
