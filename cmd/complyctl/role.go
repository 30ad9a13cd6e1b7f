package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/complyhub/complyd/pkg/authz"
	"github.com/complyhub/complyd/pkg/config"
)

// roleCmd represents the role command
var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage role bundles",
	Long:  `Manage role bundles.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'role' requires a subcommand (list)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

// roleListCmd represents the role list command
var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles and their capabilities",
	Long: `List the roles defined in the role bundle and the capabilities each
role grants.

Example:
  complyctl role list
  complyctl role list --roles-file ./roles.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("roles-file")
		if path == "" {
			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
				os.Exit(1)
			}
			path = cfg.RolesFile
		}

		bundle, err := authz.LoadBundle(path, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load role bundle: %v\n", err)
			os.Exit(1)
		}

		codes := bundle.RoleCodes()
		sort.Strings(codes)
		for _, code := range codes {
			set := bundle.Capabilities(code)
			capabilities := make([]string, 0, len(set))
			for capability := range set {
				capabilities = append(capabilities, capability)
			}
			sort.Strings(capabilities)
			fmt.Printf("%s: %s\n", code, strings.Join(capabilities, ", "))
		}
	},
}

func init() {
	rootCmd.AddCommand(roleCmd)
	roleCmd.AddCommand(roleListCmd)
	roleListCmd.Flags().String("roles-file", "", "Path to the role bundle (default: configured roles_file)")
}
