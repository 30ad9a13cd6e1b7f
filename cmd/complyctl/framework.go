package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// frameworkCmd represents the framework command
var frameworkCmd = &cobra.Command{
	Use:   "framework",
	Short: "Manage framework distributions",
	Long:  `Manage framework template distributions to tenants.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'framework' requires a subcommand (distribute)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(frameworkCmd)
}
