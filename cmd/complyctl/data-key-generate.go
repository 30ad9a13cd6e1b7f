package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/complyhub/complyd/pkg/secrets"
)

// dataKeyGenerateCmd represents the data-key > generate command
var dataKeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a data encryption key",
	Long: `
Generate a data encryption key

Use this command to generate a new Base64-encoded 256 bit data encryption key.
Once generated, this key should be placed into the environment of the complyd
server. It will be used to encrypt every tenant partition credential stored in
the system partition.

Example:

$ export COMPLYD_DATA_KEY="$(complyctl data-key generate)"
`,
	Run: func(cmd *cobra.Command, args []string) {
		key, err := secrets.GenerateDataKey()
		if err != nil {
			cmd.PrintErrln("Failed to generate data key:", err)
			return
		}
		fmt.Printf("%s", key)
	},
}

func init() {
	dataKeyCmd.AddCommand(dataKeyGenerateCmd)
}
