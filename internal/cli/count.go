package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of chunks in the collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		// Counting needs no embedder, so open the index directly.
		index, err := openIndex(cfg, GetRootDir())
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		defer index.Close()

		n, err := index.Count()
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
