package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"runnerrag/internal/domain"
	"runnerrag/internal/usecase"
)

var (
	retrieveQuery string
	retrieveTopK  int
	retrieveJSON  bool
)

var (
	headerColor = color.New(color.FgCyan, color.Bold).SprintFunc()
	scoreColor  = color.New(color.FgGreen).SprintFunc()
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Show the chunks most similar to a query",
	Long: `Embed the query and print the k nearest chunks with their source file,
chunk number and cosine similarity.

Examples:
  runnerrag retrieve -q "how did the long run feel"
  runnerrag retrieve -q "shoe mileage" -k 5 --json`,
	Args: cobra.NoArgs,
	RunE: runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)
	retrieveCmd.Flags().StringVarP(&retrieveQuery, "query", "q", "", "search query (required)")
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "number of results (default from config)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output as JSON")
	retrieveCmd.MarkFlagRequired("query")
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := newApp(cfg, GetRootDir(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	matches, err := a.kb.Retrieve(cmd.Context(), retrieveQuery, topK(retrieveTopK, cfg))
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		output, err := json.MarshalIndent(usecase.Snippets(matches), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	printMatches(os.Stdout, retrieveQuery, matches)
	return nil
}

func printMatches(w io.Writer, query string, matches []domain.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "Found %d results for: %s\n\n", len(matches), query)
	for i, m := range matches {
		fmt.Fprintf(w, "%s %s\n",
			headerColor(fmt.Sprintf("--- [%d] %s#%d", i+1, m.Metadata.Source, m.Metadata.Chunk)),
			scoreColor(fmt.Sprintf("(score: %.3f)", m.Score)))
		text := []rune(m.Text)
		if len(text) > 500 {
			text = append(text[:500], []rune("...")...)
		}
		fmt.Fprintln(w, string(text))
		fmt.Fprintln(w)
	}
}
