package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"runnerrag/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default runnerrag.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(GetRootDir(), "runnerrag.yaml")
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		kdir := GetConfig().KnowledgeDir(GetRootDir())
		if err := os.MkdirAll(kdir, 0755); err != nil {
			return fmt.Errorf("failed to create knowledge directory: %w", err)
		}

		fmt.Printf("Wrote %s\n", path)
		fmt.Printf("Put your notes in %s and run 'runnerrag rebuild'.\n", kdir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}
