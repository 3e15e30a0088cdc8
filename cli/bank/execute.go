package bank

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/cli/flags"
)

func init() {
	flags.SetBankFlags(Execute)
	flags.ProposalIDFlag(Execute)
}

var Execute = &cobra.Command{
	Use:   "execute",
	Short: "Applies an approved proposal at every guardian",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, client, err := setup(cmd)
		if err != nil {
			return err
		}
		if err := flags.BindExecuteFlags(cmd); err != nil {
			return err
		}
		responses, err := client.Execute(cmd.Context(), flags.ProposalID)
		if err != nil {
			logger.Fatal("😥 failed to execute proposal", zap.Error(err))
		}
		for _, r := range responses {
			logger.Info("✅ proposal executed",
				zap.String("proposal_id", r.ProposalID),
				zap.String("operation", r.Operation),
				zap.String("target", r.Target),
				zap.String("status", r.Status))
		}
		return nil
	},
}
