package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/triad/internal/config"
	"github.com/zjrosen/triad/internal/log"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
	// cfgErr is set when an explicitly requested config file cannot be used.
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "triad",
	Short: "An ordered command scheduler for model, view and controller roles",
	Long: `triad dispatches commands and notifications between a model, a view and a
controller in a strict, reproducible order.

The bundled tally board exercises every scheduling mode; feed it a script with
'triad run'.`,
	Version:       version,
	SilenceUsage:  true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .triad/config.yaml, then ~/.config/triad/config.yaml)")
}

func initConfig() {
	cfgErr = nil
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .triad/config.yaml (current directory)
		// 2. ~/.config/triad/config.yaml (user config)
		if _, err := os.Stat(config.DefaultPath); err == nil {
			viper.SetConfigFile(config.DefaultPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "triad"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			cfgErr = fmt.Errorf("reading config %s: %w", cfgFile, err)
			return
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn(log.CatConfig, "Ignoring unreadable config", "error", err)
		}
		// Defaults only. `triad config init` writes a file to start from.
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		cfgErr = fmt.Errorf("decoding config: %w", err)
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
