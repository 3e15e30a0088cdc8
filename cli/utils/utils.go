package utils

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SetViperConfig reads a yaml config file if provided
func SetViperConfig(cmd *cobra.Command) error {
	if err := viper.BindPFlag("configPath", cmd.PersistentFlags().Lookup("configPath")); err != nil {
		return err
	}
	configPath := viper.GetString("configPath")
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return err
		}
		viper.SetConfigType("yaml")
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return err
			}
		}
		fmt.Printf("🗄️ config yaml file found at %s, using it \n", configPath)
		return nil
	}
	fmt.Println("⚠️ config file was not provided, using flag parameters")
	return nil
}

// BuildLogger creates a named zap logger from the level/format/file
// parameters carried by the base flags.
func BuildLogger(level, format, filePath, name string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = format
	if format == "console" {
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	cfg.OutputPaths = []string{"stdout"}
	if filePath != "" {
		if _, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err != nil {
			return nil, err
		}
		cfg.OutputPaths = append(cfg.OutputPaths, filePath)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(name), nil
}

// CreateDirIfNotExist makes the directory along with any parents.
func CreateDirIfNotExist(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o700); err != nil {
			return fmt.Errorf("😥 can't create %s: %w", path, err)
		}
	}
	return nil
}
