package cli

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/triadbank/ledger-core/cli/bank"
	"github.com/triadbank/ledger-core/cli/guardian"
)

func init() {
	RootCmd.AddCommand(guardian.StartGuardian)
	RootCmd.AddCommand(bank.Propose)
	RootCmd.AddCommand(bank.Vote)
	RootCmd.AddCommand(bank.Execute)
	RootCmd.AddCommand(bank.Status)
}

// RootCmd represents the root command of the consortium ledger CLI
var RootCmd = &cobra.Command{
	Use:   "ledger-core",
	Short: "CLI for running consortium guardian nodes and bank operations",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
	},
}

// Execute executes the root command
func Execute(appName, version string) {
	RootCmd.Short = appName
	RootCmd.Version = version

	if err := RootCmd.Execute(); err != nil {
		log.Fatal("failed to execute root command", err)
	}
}
