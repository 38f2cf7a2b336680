package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"runnerrag/internal/adapter/watch"
	"runnerrag/internal/usecase"
)

var (
	rebuildWatch      bool
	rebuildNoProgress bool
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the knowledge base from the knowledge directory",
	Long: `Collect every supported file in the knowledge directory, chunk it, embed
the chunks and replace the collection with the result.

Examples:
  runnerrag rebuild            # One full rebuild
  runnerrag rebuild --watch    # Rebuild again whenever a note changes`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
	rebuildCmd.Flags().BoolVarP(&rebuildWatch, "watch", "w", false, "keep running and rebuild on changes")
	rebuildCmd.Flags().BoolVar(&rebuildNoProgress, "no-progress", false, "disable progress bars")
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := newApp(cfg, GetRootDir(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Rebuilding from %s...\n", a.dir)
	if !rebuildNoProgress {
		a.rebuild.WithProgress(newStageProgress())
	}

	result, err := a.kb.RebuildDetailed(ctx)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	printRebuildResult(result)

	if !rebuildWatch {
		return nil
	}

	a.rebuild.WithProgress(func(string, int, int) {})
	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	w, err := watch.New(a.dir, debounce, a.collector.Supported, func(ctx context.Context) error {
		n, err := a.kb.RebuildKnowledgeBase(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Rebuilt knowledge base: %d chunks\n", n)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return fmt.Errorf("failed to watch %s: %w", a.dir, err)
	}
	defer w.Stop()

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", a.dir)
	<-ctx.Done()
	return nil
}

func printRebuildResult(r *usecase.RebuildResult) {
	fmt.Printf("\nRebuild complete:\n")
	fmt.Printf("  Documents found:   %d\n", r.Documents)
	fmt.Printf("  Documents indexed: %d\n", r.Indexed)
	fmt.Printf("  Documents skipped: %d (no text)\n", r.Skipped)
	fmt.Printf("  Chunks stored:     %d\n", r.Chunks)
	fmt.Printf("  Elapsed:           %s\n", formatDuration(r.Elapsed))
	if r.Chunks == 0 {
		fmt.Println("\nNo text found; the existing collection was left unchanged.")
	}
}

// newStageProgress renders one progress bar per rebuild stage.
func newStageProgress() usecase.ProgressFunc {
	var (
		bar     *progressbar.ProgressBar
		current string
	)
	return func(stage string, done, total int) {
		if stage == usecase.StageCollect {
			fmt.Printf("Found %d documents\n", total)
			return
		}
		if stage != current || bar == nil {
			if bar != nil {
				bar.Finish()
			}
			current = stage
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%-6s[reset]", stage)),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
