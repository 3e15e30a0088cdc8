package guardian

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/cli/flags"
	cli_utils "github.com/triadbank/ledger-core/cli/utils"
	"github.com/triadbank/ledger-core/pkgs/guardian"
	"github.com/triadbank/ledger-core/pkgs/store"
	"github.com/triadbank/ledger-core/pkgs/utils"
)

func init() {
	flags.SetGuardianFlags(StartGuardian)
}

var StartGuardian = &cobra.Command{
	Use:   "start-guardian",
	Short: "Starts an instance of a consortium guardian node",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli_utils.SetViperConfig(cmd); err != nil {
			return err
		}
		if err := flags.BindGuardianFlags(cmd); err != nil {
			return err
		}
		logger, err := cli_utils.BuildLogger(flags.LogLevel, flags.LogFormat, flags.LogFilePath, cmd.Short)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			_ = logger.Sync()
		}()

		if err := cli_utils.CreateDirIfNotExist(flags.DBPath); err != nil {
			logger.Fatal("😥 failed to create database directory", zap.Error(err))
		}
		db, err := store.OpenBadger(flags.DBPath, logger)
		if err != nil {
			logger.Fatal("😥 failed to open event database", zap.Error(err))
		}
		defer db.Close()

		state, err := guardian.NewSwitch(guardian.SwitchOpts{
			Logger:     logger,
			GuardianID: flags.GuardianID,
			Version:    cmd.Root().Version,
			Store:      db,
			Clock:      utils.RealClock{},
			BankIDs:    flags.Banks,
			Threshold:  int(flags.Threshold),
		})
		if err != nil {
			logger.Fatal("😥 failed to initialize guardian state", zap.Error(err))
		}

		srv := guardian.New(state, logger)
		logger.Info("🚀 starting guardian node",
			zap.String("guardian", flags.GuardianID),
			zap.Uint64("port", flags.Port),
			zap.Strings("banks", flags.Banks),
			zap.Uint64("threshold", flags.Threshold))
		if err := srv.Start(uint16(flags.Port)); err != nil {
			logger.Fatal("😥 error running guardian server", zap.Error(err))
		}
		return nil
	},
}
