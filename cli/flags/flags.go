package flags

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Flag names.
const (
	configPath  = "configPath"
	logLevel    = "logLevel"
	logFormat   = "logFormat"
	logFilePath = "logFilePath"

	guardianID = "guardianID"
	port       = "port"
	dbPath     = "dbPath"
	banks      = "banks"
	threshold  = "threshold"

	bankID     = "bankID"
	guardians  = "guardians"
	operation  = "operation"
	target     = "target"
	reason     = "reason"
	proposalID = "proposalID"
	approve    = "approve"
)

// ConfigPathFlag config path flag to the command
func ConfigPathFlag(c *cobra.Command) {
	AddPersistentStringFlag(c, configPath, "", "Path to config file", false)
}

// LogLevelFlag logger's log level flag to the command
func LogLevelFlag(c *cobra.Command) {
	AddPersistentStringFlag(c, logLevel, "debug", "Defines logger's log level", false)
}

// LogFormatFlag logger's encoding flag to the command
func LogFormatFlag(c *cobra.Command) {
	AddPersistentStringFlag(c, logFormat, "json", "Defines logger's encoding, valid values are 'json' (default) and 'console'", false)
}

// LogFilePathFlag file path to write logs into
func LogFilePathFlag(c *cobra.Command) {
	AddPersistentStringFlag(c, logFilePath, "ledger.log", "Defines a file path to write logs into", false)
}

// GuardianIDFlag adds the guardian identifier flag to the command
func GuardianIDFlag(c *cobra.Command) {
	AddPersistentStringFlag(c, guardianID, "", "Unique guardian node identifier", false)
}

// PortFlag adds guardian listening port flag to the command
func PortFlag(c *cobra.Command) {
	AddPersistentIntFlag(c, port, 3030, "Guardian listening port", false)
}

// DBPathFlag adds the badger database directory flag to the command
func DBPathFlag(c *cobra.Command) {
	AddPersistentStringFlag(c, dbPath, "./db", "Path to the append-only event database", false)
}

// BanksFlag adds the consortium membership flag to the command
func BanksFlag(c *cobra.Command) {
	AddPersistentStringSliceFlag(c, banks, []string{}, "Consortium bank IDs", false)
}

// ThresholdFlag adds the approval quorum flag to the command
func ThresholdFlag(c *cobra.Command) {
	AddPersistentIntFlag(c, threshold, 3, "Approvals required for a proposal to pass", false)
}

// BankIDFlag adds the acting bank flag to the command
func BankIDFlag(c *cobra.Command) {
	AddPersistentStringFlag(c, bankID, "", "Bank ID the command acts for", false)
}

// GuardiansFlag adds the guardian endpoints flag to the command
func GuardiansFlag(c *cobra.Command) {
	AddPersistentStringSliceFlag(c, guardians, []string{}, "Guardian endpoints as id=http://host:port pairs", false)
}

// OperationFlag adds the proposal operation flag to the command
func OperationFlag(c *cobra.Command) {
	AddPersistentStringFlag(c, operation, "FREEZE", "Proposal operation: FREEZE or UNFREEZE", false)
}

// TargetFlag adds the proposal target flag to the command
func TargetFlag(c *cobra.Command) {
	AddPersistentStringFlag(c, target, "", "Account the proposal targets", false)
}

// ReasonFlag adds the proposal reason flag to the command
func ReasonFlag(c *cobra.Command) {
	AddPersistentStringFlag(c, reason, "", "Reason recorded with the proposal", false)
}

// ProposalIDFlag adds the proposal id flag to the command
func ProposalIDFlag(c *cobra.Command) {
	AddPersistentStringFlag(c, proposalID, "", "Proposal ID", false)
}

// ApproveFlag adds the vote direction flag to the command
func ApproveFlag(c *cobra.Command) {
	AddPersistentBoolFlag(c, approve, true, "Vote to approve (true) or reject (false)", false)
}

// AddPersistentStringFlag adds a string flag to the command
func AddPersistentStringFlag(c *cobra.Command, flag, value, description string, isRequired bool) {
	req := ""
	if isRequired {
		req = " (required)"
	}

	c.PersistentFlags().String(flag, value, fmt.Sprintf("%s%s", description, req))

	if isRequired {
		_ = c.MarkPersistentFlagRequired(flag)
	}
}

// AddPersistentIntFlag adds a int flag to the command
func AddPersistentIntFlag(c *cobra.Command, flag string, value uint64, description string, isRequired bool) {
	req := ""
	if isRequired {
		req = " (required)"
	}

	c.PersistentFlags().Uint64(flag, value, fmt.Sprintf("%s%s", description, req))

	if isRequired {
		_ = c.MarkPersistentFlagRequired(flag)
	}
}

// AddPersistentStringSliceFlag adds a string slice flag to the command
func AddPersistentStringSliceFlag(c *cobra.Command, flag string, value []string, description string, isRequired bool) {
	req := ""
	if isRequired {
		req = " (required)"
	}

	c.PersistentFlags().StringSlice(flag, value, fmt.Sprintf("%s%s", description, req))

	if isRequired {
		_ = c.MarkPersistentFlagRequired(flag)
	}
}

// AddPersistentBoolFlag adds a bool flag to the command
func AddPersistentBoolFlag(c *cobra.Command, flag string, value bool, description string, isRequired bool) {
	req := ""
	if isRequired {
		req = " (required)"
	}

	c.PersistentFlags().Bool(flag, value, fmt.Sprintf("%s%s", description, req))

	if isRequired {
		_ = c.MarkPersistentFlagRequired(flag)
	}
}
