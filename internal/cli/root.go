package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"runnerrag/config"
	"runnerrag/internal/logging"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "runnerrag",
	Short: "Running-log knowledge base - index notes and retrieve them by meaning",
	Long: `runnerrag builds a vector index over the training notes in a knowledge
directory (.md, .txt and .docx files) and retrieves the passages most similar
to a question, ready to be placed in an LLM prompt.

Example usage:
  runnerrag init                          # Write default runnerrag.yaml
  runnerrag rebuild                       # Rebuild the knowledge base
  runnerrag retrieve -q "tempo run pace"  # Show the closest chunks
  runnerrag context -q "easy run HR"      # Print the knowledge block`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		if _, err := logging.Setup(level, cfg.Logging.Format, os.Stderr); err != nil {
			return err
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./runnerrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
