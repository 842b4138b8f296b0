package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loicSchussler/PaperChat/internal/config"
	"github.com/loicSchussler/PaperChat/internal/usage"
)

var statsLocal bool

// statsCmd shows backend usage statistics
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage statistics",
	Long: `Shows the backend's aggregate usage numbers: indexed papers and chunks,
query counts, total cost and average response time.

With --local, shows the per-session statistics this client tracked
locally instead of asking the backend.`,
	RunE: showStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsLocal, "local", false, "Show locally tracked statistics")
}

func showStats(cmd *cobra.Command, args []string) error {
	if statsLocal {
		return showLocalStats()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	stats, err := newClient().GetStats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Papers indexed:     %d (%d chunks)\n", stats.TotalPapers, stats.TotalChunks)
	fmt.Printf("Questions answered: %d (%d today)\n", stats.TotalQueries, stats.QueriesToday)
	fmt.Printf("Total cost:         $%.4f\n", stats.TotalCostUSD)
	fmt.Printf("Avg response time:  %.0fms\n", stats.AvgResponseTimeMS)
	return nil
}

func showLocalStats() error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	tracker, err := usage.NewTracker(dir)
	if err != nil {
		return err
	}

	stats := tracker.Stats()
	fmt.Printf("Questions asked:   %d\n", stats.Total.Queries)
	fmt.Printf("Total cost:        $%.4f\n", stats.Total.CostUSD)
	fmt.Printf("Avg response time: %.0fms\n", stats.Total.AvgResponseTimeMS())

	if len(stats.BySession) > 0 {
		fmt.Println("\nBy session:")
		for id, counts := range stats.BySession {
			fmt.Printf("  %s: %d queries, $%.4f\n", id, counts.Queries, counts.CostUSD)
		}
	}
	return nil
}
