package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/dealbreaker/internal/leaderboard"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show recorded results",
}

func withLeaderboard(cmd *cobra.Command, fn func(ctx context.Context, board *leaderboard.Recorder) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()
	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, leaderboard.New(s.LeaderboardRepo(), s.PlayerRepo(), s.EventRepo()))
}

func printEntries(entries []leaderboard.Entry) {
	if len(entries) == 0 {
		fmt.Println("No games recorded yet.")
		return
	}
	fmt.Printf("%-4s  %-24s  %6s  %6s  %7s  %s\n", "#", "Player", "Score", "Beaten", "Wallet", "Date")
	fmt.Println(strings.Repeat("─", 72))
	for i, e := range entries {
		fmt.Printf("%-4d  %-24s  %6d  %6d  %7s  %s\n",
			i+1,
			truncate(e.DisplayName, 24),
			e.Score,
			e.DefeatedCount,
			fmt.Sprintf("$%d", e.FinalBalance),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
}

var leaderboardTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Best scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withLeaderboard(cmd, func(ctx context.Context, board *leaderboard.Recorder) error {
			entries, err := board.Top(ctx, limit)
			if err != nil {
				return err
			}
			printEntries(entries)
			return nil
		})
	},
}

var leaderboardRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Newest results",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withLeaderboard(cmd, func(ctx context.Context, board *leaderboard.Recorder) error {
			entries, err := board.Recent(ctx, limit)
			if err != nil {
				return err
			}
			printEntries(entries)
			return nil
		})
	},
}

var leaderboardStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Game count, average score and model spend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLeaderboard(cmd, func(ctx context.Context, board *leaderboard.Recorder) error {
			st, err := board.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Games:          %d\n", st.Games)
			fmt.Printf("Average score:  %.1f\n", st.AverageScore)
			fmt.Printf("LLM calls:      %d\n", st.LLMCalls)
			fmt.Printf("Estimated cost: %s\n", formatCost(st.EstimatedCostUSD))
			return nil
		})
	},
}

func init() {
	leaderboardTopCmd.Flags().IntP("limit", "n", 10, "Number of entries to show")
	leaderboardRecentCmd.Flags().IntP("limit", "n", 10, "Number of entries to show")

	leaderboardCmd.AddCommand(leaderboardTopCmd)
	leaderboardCmd.AddCommand(leaderboardRecentCmd)
	leaderboardCmd.AddCommand(leaderboardStatsCmd)
}
