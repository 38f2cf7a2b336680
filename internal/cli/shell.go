package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"runnerrag/internal/adapter/cache"
	"runnerrag/internal/domain"
	"runnerrag/internal/port"
)

var shellTopK int

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactively query the knowledge base",
	Long: `Read one question per line from stdin and print the closest chunks.
Type ':rebuild' to rebuild, ':count' for the collection size, ':quit' to exit.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().IntVarP(&shellTopK, "top-k", "k", 0, "number of results (default from config)")
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := newApp(cfg, GetRootDir(), func(e port.Embedder) (port.Embedder, error) {
		return cache.NewCachedEmbedder(e, cfg.Embedding.CacheSize)
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	k := topK(shellTopK, cfg)

	if n, rebuilt, err := a.kb.EnsureBuilt(ctx); err != nil {
		return fmt.Errorf("failed to build knowledge base: %w", err)
	} else if rebuilt {
		fmt.Printf("Auto-built knowledge base with %d chunks.\n", n)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case ":quit", ":q", ":exit":
			return nil
		case ":count":
			n, err := a.kb.CollectionCount()
			if err != nil {
				return err
			}
			fmt.Println(n)
			continue
		case ":rebuild":
			n, err := a.kb.RebuildKnowledgeBase(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
				continue
			}
			fmt.Printf("Rebuilt knowledge base: %d chunks\n", n)
			continue
		}

		matches, err := a.kb.Retrieve(ctx, line, k)
		if err != nil {
			if errors.Is(err, domain.ErrMissingCredential) {
				return err
			}
			fmt.Fprintf(os.Stderr, "retrieval failed: %v\n", err)
			continue
		}
		printMatches(os.Stdout, line, matches)
	}
}
