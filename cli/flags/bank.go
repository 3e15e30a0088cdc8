package flags

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/triadbank/ledger-core/pkgs/consortium"
)

// bank client flags
var (
	BankID     string
	Guardians  []consortium.Guardian
	Operation  string
	Target     string
	Reason     string
	ProposalID string
	Approve    bool
)

func SetBankFlags(cmd *cobra.Command) {
	SetBaseFlags(cmd)
	BankIDFlag(cmd)
	GuardiansFlag(cmd)
}

// BindBankFlags binds flags to yaml config parameters for the bank client
func BindBankFlags(cmd *cobra.Command) error {
	if err := BindBaseFlags(cmd); err != nil {
		return err
	}
	if err := viper.BindPFlag("bankID", cmd.PersistentFlags().Lookup("bankID")); err != nil {
		return err
	}
	if err := viper.BindPFlag("guardians", cmd.PersistentFlags().Lookup("guardians")); err != nil {
		return err
	}
	BankID = viper.GetString("bankID")
	if BankID == "" {
		return errors.New("😥 bankID is required")
	}
	raw := viper.GetStringSlice("guardians")
	if len(raw) == 0 {
		return errors.New("😥 at least one guardian endpoint is required")
	}
	Guardians = Guardians[:0]
	for _, entry := range raw {
		id, addr, found := strings.Cut(entry, "=")
		if !found || id == "" || addr == "" {
			return errors.Errorf("😥 malformed guardian endpoint %q, want id=http://host:port", entry)
		}
		Guardians = append(Guardians, consortium.Guardian{ID: id, Addr: strings.TrimSuffix(addr, "/")})
	}
	return nil
}

// BindProposalFlags binds the proposal parameters
func BindProposalFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlag("operation", cmd.PersistentFlags().Lookup("operation")); err != nil {
		return err
	}
	if err := viper.BindPFlag("target", cmd.PersistentFlags().Lookup("target")); err != nil {
		return err
	}
	if err := viper.BindPFlag("reason", cmd.PersistentFlags().Lookup("reason")); err != nil {
		return err
	}
	Operation = strings.ToUpper(viper.GetString("operation"))
	Target = viper.GetString("target")
	Reason = viper.GetString("reason")
	if Target == "" {
		return errors.New("😥 target is required")
	}
	return nil
}

// BindExecuteFlags binds the execute parameters
func BindExecuteFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlag("proposalID", cmd.PersistentFlags().Lookup("proposalID")); err != nil {
		return err
	}
	ProposalID = viper.GetString("proposalID")
	if ProposalID == "" {
		return errors.New("😥 proposalID is required")
	}
	return nil
}

// BindVoteFlags binds the vote parameters
func BindVoteFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlag("proposalID", cmd.PersistentFlags().Lookup("proposalID")); err != nil {
		return err
	}
	if err := viper.BindPFlag("approve", cmd.PersistentFlags().Lookup("approve")); err != nil {
		return err
	}
	ProposalID = viper.GetString("proposalID")
	Approve = viper.GetBool("approve")
	if ProposalID == "" {
		return errors.New("😥 proposalID is required")
	}
	return nil
}
