package flags

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// guardian flags
var (
	GuardianID string
	Port       uint64
	DBPath     string
	Banks      []string
	Threshold  uint64
)

func SetGuardianFlags(cmd *cobra.Command) {
	SetBaseFlags(cmd)
	GuardianIDFlag(cmd)
	PortFlag(cmd)
	DBPathFlag(cmd)
	BanksFlag(cmd)
	ThresholdFlag(cmd)
}

// BindGuardianFlags binds flags to yaml config parameters for the guardian node
func BindGuardianFlags(cmd *cobra.Command) error {
	if err := BindBaseFlags(cmd); err != nil {
		return err
	}
	if err := viper.BindPFlag("guardianID", cmd.PersistentFlags().Lookup("guardianID")); err != nil {
		return err
	}
	if err := viper.BindPFlag("port", cmd.PersistentFlags().Lookup("port")); err != nil {
		return err
	}
	if err := viper.BindPFlag("dbPath", cmd.PersistentFlags().Lookup("dbPath")); err != nil {
		return err
	}
	if err := viper.BindPFlag("banks", cmd.PersistentFlags().Lookup("banks")); err != nil {
		return err
	}
	if err := viper.BindPFlag("threshold", cmd.PersistentFlags().Lookup("threshold")); err != nil {
		return err
	}
	GuardianID = viper.GetString("guardianID")
	if GuardianID == "" {
		return errors.New("😥 guardianID is required")
	}
	Port = viper.GetUint64("port")
	if Port == 0 {
		return errors.New("😥 wrong port provided")
	}
	DBPath = viper.GetString("dbPath")
	if strings.Contains(DBPath, "..") {
		return errors.New("😥 dbPath cant contain traversal")
	}
	Banks = viper.GetStringSlice("banks")
	if len(Banks) == 0 {
		return errors.New("😥 at least one consortium bank is required")
	}
	Threshold = viper.GetUint64("threshold")
	if Threshold < 1 || Threshold > uint64(len(Banks)) {
		return errors.New("😥 threshold must be between 1 and the number of banks")
	}
	return nil
}
