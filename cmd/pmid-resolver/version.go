package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of pmid-resolver",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pmid-resolver %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
