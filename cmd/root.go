package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/config"
)

const defaultConfig = "config.yaml"

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "ecodrive",
	Short: "Driving-mode planner for hybrid trucks",
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfig, "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration file. A missing default file falls
// back to defaults and K_ environment overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgPath
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
