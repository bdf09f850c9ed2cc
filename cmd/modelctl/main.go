// Command modelctl inspects model artifacts and runs offline predictions
// without a server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "modelctl",
		Short:         "inspect classifier artifacts and run predictions locally",
		SilenceUsage:  true,
	}
	root.AddCommand(inspectCmd(), predictCmd(), runCmd(), versionCmd())
	return root
}
