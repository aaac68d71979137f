package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tagsim/internal/platform/tui"
	"github.com/vovakirdan/tagsim/internal/storage"
)

var (
	flagHistoryLimit  int
	flagHistoryBrowse bool
	flagHistoryClear  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show stored runs",
	Long: `Display a summary of stored runs and the most recent ones, or the
per-player statistics of a single run.

Examples:
  tagsim history
  tagsim history --limit 25
  tagsim history 3f2a9c1e-...
  tagsim history --browse
  tagsim history --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Number of recent runs to list")
	historyCmd.Flags().BoolVar(&flagHistoryBrowse, "browse", false, "Browse runs in a full-screen view")
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Delete every stored run")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()

	switch {
	case flagHistoryClear:
		if err := store.ClearRuns(); err != nil {
			return err
		}
		fmt.Println("Run history cleared.")
		return nil
	case flagHistoryBrowse:
		width, height, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			width, height = 80, 24
		}
		return tui.Browse(store, width, height)
	case len(args) == 1:
		return printRun(store, args[0])
	}

	sum, err := store.Summary()
	if err != nil {
		return err
	}
	if sum.Runs == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'tagsim run -p 10 -x 20 -y 10' to play the first game.")
		return nil
	}

	fmt.Printf("Runs: %d  Turns: %d  Tags: %d  Avg players: %.1f  Last: %s\n",
		sum.Runs, sum.TotalTurns, sum.TotalTags, sum.AvgPlayers,
		sum.LastRun.Format("2006-01-02 15:04"))
	fmt.Println()

	runs, err := store.RecentRuns(flagHistoryLimit)
	if err != nil {
		return err
	}

	// Print header
	fmt.Printf("  %-8s  %-16s  %-7s  %-7s  %-6s  %-5s  %s\n",
		"Run", "Date", "Players", "Field", "Turns", "Tags", "Engine")
	fmt.Printf("  %-8s  %-16s  %-7s  %-7s  %-6s  %-5s  %s\n",
		"---", "----", "-------", "-----", "-----", "----", "------")

	for _, r := range runs {
		turns := fmt.Sprintf("%d", r.Turns)
		if r.Interrupted {
			turns += "*"
		}
		fmt.Printf("  %-8s  %-16s  %-7d  %-7s  %-6s  %-5d  %s\n",
			tui.ShortID(r.RunID), r.StartedAt.Format("2006-01-02 15:04"), r.Players,
			fmt.Sprintf("%dx%d", r.Width, r.Height), turns, r.Tags, r.Engine)
	}

	fmt.Println()
	fmt.Println("* interrupted. Run 'tagsim history <run-id>' for details.")
	return nil
}

func printRun(store *storage.Store, runID string) error {
	r, err := store.RunByID(runID)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("unknown run %q", runID)
	}

	fmt.Printf("Run %s\n", r.RunID)
	fmt.Printf("  Started:  %s (%s)\n", r.StartedAt.Format("2006-01-02 15:04:05"), r.Duration)
	fmt.Printf("  Field:    %dx%d, %d players, engine %s\n", r.Width, r.Height, r.Players, r.Engine)
	fmt.Printf("  Seed:     %d\n", r.Seed)
	fmt.Printf("  Wait:     %s\n", r.Wait)
	limit := "unbounded"
	if r.TurnLimit > 0 {
		limit = fmt.Sprintf("%d", r.TurnLimit)
	}
	fmt.Printf("  Turns:    %d of %s", r.Turns, limit)
	if r.Interrupted {
		fmt.Print(" (interrupted)")
	}
	fmt.Println()
	fmt.Printf("  Tags:     %d\n", r.Tags)
	fmt.Println()

	fmt.Printf("  %-6s  %-6s  %-6s  %-8s  %-7s  %-5s  %s\n",
		"Player", "Risk", "Turns", "Started", "Made it", "Tags", "Stuck")
	fmt.Printf("  %-6s  %-6s  %-6s  %-8s  %-7s  %-5s  %s\n",
		"------", "----", "-----", "-------", "-------", "----", "-----")
	for _, p := range r.Stats {
		fmt.Printf("  %-6s  %-6.1f  %-6d  %-8d  %-7d  %-5d  %d\n",
			p.Name, p.RiskTolerance, p.Turns, p.StartedAsIt, p.MadeIt, p.Tags, p.Stuck)
	}
	return nil
}
