package bank

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/cli/flags"
)

func init() {
	flags.SetBankFlags(Vote)
	flags.ProposalIDFlag(Vote)
	flags.ApproveFlag(Vote)
}

var Vote = &cobra.Command{
	Use:   "vote",
	Short: "Casts this bank's vote on a proposal at every guardian",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, client, err := setup(cmd)
		if err != nil {
			return err
		}
		if err := flags.BindVoteFlags(cmd); err != nil {
			return err
		}
		responses, err := client.Vote(cmd.Context(), flags.ProposalID, flags.Approve)
		if err != nil {
			logger.Fatal("😥 failed to cast vote", zap.Error(err))
		}
		for _, r := range responses {
			logger.Info("✅ vote recorded",
				zap.String("proposal_id", r.ProposalID),
				zap.String("status", r.Status),
				zap.Int("approvals", r.Approvals),
				zap.Int("rejections", r.Rejections))
		}
		return nil
	},
}
