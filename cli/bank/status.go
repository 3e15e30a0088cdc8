package bank

import (
	"fmt"
	"os"

	"github.com/aquasecurity/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/cli/flags"
)

func init() {
	flags.SetBankFlags(Status)
	flags.TargetFlag(Status)
}

var Status = &cobra.Command{
	Use:   "status",
	Short: "Shows guardian health and, when a target is given, its freeze state",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, client, err := setup(cmd)
		if err != nil {
			return err
		}
		pongs, err := client.HealthCheck(cmd.Context())
		if err != nil {
			logger.Fatal("😥 health check failed", zap.Error(err))
		}

		tbl := table.New(os.Stdout)
		tbl.SetHeaders("Guardian", "Version", "Audit Chain Head")
		for _, p := range pongs {
			tbl.AddRow(p.GuardianID, p.Version, p.ChainHead)
		}
		tbl.Render()

		if err := viper.BindPFlag("target", cmd.PersistentFlags().Lookup("target")); err != nil {
			return err
		}
		target := viper.GetString("target")
		if target == "" {
			return nil
		}
		queries, err := client.FreezeQuery(cmd.Context(), target)
		if err != nil {
			logger.Fatal("😥 freeze query failed", zap.Error(err))
		}
		frozen := table.New(os.Stdout)
		frozen.SetHeaders("Target", "Frozen")
		for _, q := range queries {
			frozen.AddRow(q.Target, fmt.Sprintf("%t", q.Frozen))
		}
		frozen.Render()
		return nil
	},
}
