package flags

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// global base flags
var (
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	LogFilePath string
)

func SetBaseFlags(cmd *cobra.Command) {
	ConfigPathFlag(cmd)
	LogLevelFlag(cmd)
	LogFormatFlag(cmd)
	LogFilePathFlag(cmd)
}

// BindBaseFlags binds flags to yaml config parameters
func BindBaseFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlag("configPath", cmd.PersistentFlags().Lookup("configPath")); err != nil {
		return err
	}
	if err := viper.BindPFlag("logLevel", cmd.PersistentFlags().Lookup("logLevel")); err != nil {
		return err
	}
	if err := viper.BindPFlag("logFormat", cmd.PersistentFlags().Lookup("logFormat")); err != nil {
		return err
	}
	if err := viper.BindPFlag("logFilePath", cmd.PersistentFlags().Lookup("logFilePath")); err != nil {
		return err
	}
	ConfigPath = viper.GetString("configPath")
	LogLevel = viper.GetString("logLevel")
	LogFormat = viper.GetString("logFormat")
	LogFilePath = viper.GetString("logFilePath")
	if strings.Contains(LogFilePath, "..") {
		return errors.New("😥 logFilePath cant contain traversal")
	}
	return nil
}
