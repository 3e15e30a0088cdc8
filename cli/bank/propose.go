package bank

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/cli/flags"
)

func init() {
	flags.SetBankFlags(Propose)
	flags.OperationFlag(Propose)
	flags.TargetFlag(Propose)
	flags.ReasonFlag(Propose)
}

var Propose = &cobra.Command{
	Use:   "propose",
	Short: "Files a freeze or unfreeze proposal with every guardian",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, client, err := setup(cmd)
		if err != nil {
			return err
		}
		if err := flags.BindProposalFlags(cmd); err != nil {
			return err
		}
		responses, err := client.Propose(cmd.Context(), flags.Operation, flags.Target, flags.Reason)
		if err != nil {
			logger.Fatal("😥 failed to file proposal", zap.Error(err))
		}
		for _, r := range responses {
			logger.Info("✅ proposal filed",
				zap.String("proposal_id", r.ProposalID),
				zap.String("status", r.Status))
		}
		return nil
	},
}
