package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"runnerrag/internal/usecase"
)

var (
	contextQuery string
	contextTopK  int
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Print the retrieved knowledge block for a question",
	Long: `Print the top-k chunk texts separated by blank lines, the block that goes
under RETRIEVED KNOWLEDGE in a coaching prompt. An empty collection is built
first.

Examples:
  runnerrag context -q "why was my heart rate high on Tuesday"`,
	Args: cobra.NoArgs,
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().StringVarP(&contextQuery, "query", "q", "", "question (required)")
	contextCmd.Flags().IntVarP(&contextTopK, "top-k", "k", 0, "number of chunks (default from config)")
	contextCmd.MarkFlagRequired("query")
}

func runContext(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := newApp(cfg, GetRootDir(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	n, rebuilt, err := a.kb.EnsureBuilt(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to build knowledge base: %w", err)
	}
	if rebuilt {
		cmd.PrintErrf("Auto-built knowledge base with %d chunks.\n", n)
	}

	matches, err := a.kb.Retrieve(cmd.Context(), contextQuery, topK(contextTopK, cfg))
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	fmt.Println(usecase.FormatKnowledge(matches))
	return nil
}
