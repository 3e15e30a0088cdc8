// Package bank holds the commands a consortium bank operator runs against
// guardian nodes: filing proposals, voting, executing, and checking status.
package bank

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/cli/flags"
	cli_utils "github.com/triadbank/ledger-core/cli/utils"
	"github.com/triadbank/ledger-core/pkgs/consortium"
)

// setup binds the shared bank flags and builds the logger and client.
func setup(cmd *cobra.Command) (*zap.Logger, *consortium.Client, error) {
	if err := cli_utils.SetViperConfig(cmd); err != nil {
		return nil, nil, err
	}
	if err := flags.BindBankFlags(cmd); err != nil {
		return nil, nil, err
	}
	logger, err := cli_utils.BuildLogger(flags.LogLevel, flags.LogFormat, flags.LogFilePath, cmd.Short)
	if err != nil {
		return nil, nil, err
	}
	client, err := consortium.New(consortium.ClientOpts{
		Logger:    logger,
		BankID:    flags.BankID,
		Version:   cmd.Root().Version,
		Guardians: flags.Guardians,
	})
	if err != nil {
		return nil, nil, err
	}
	return logger, client, nil
}
