package main

import (
	"github.com/spf13/cobra"
)

const envPrefix = "LOTTERY"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lotteryd",
		Short:         "Automated lottery round-settlement daemon",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().String("home", ".lottery", "app home directory (state under <home>/app, config at <home>/config.yaml)")

	rootCmd.AddCommand(
		newStartCmd(),
		newKeysCmd(),
		newTxCmd(),
		newAdminCmd(),
	)
	return rootCmd
}
