package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dealbreaker",
	Short: "Talk your way out of the mall with your wallet intact",
	Long: `Dealbreaker is a timed conversational game. Pushy salespeople take turns
trying to part you with your money; every one that gives up counts toward
your score.

Run "dealbreaker serve" for the HTTP API or "dealbreaker play" for the
terminal client. An LLM API key is read from DEALBREAKER_ANTHROPIC_API_KEY,
DEALBREAKER_OPENAI_API_KEY, DEALBREAKER_GEMINI_API_KEY or
DEALBREAKER_OPENROUTER_API_KEY, or from the unprefixed variables.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database file (SQLite) or URL (Postgres); overrides DEALBREAKER_DB")
	rootCmd.PersistentFlags().String("driver", "", "Database driver: sqlite or postgres; overrides DEALBREAKER_DB_DRIVER")
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional dotenv file to load before reading the environment")

	addPlayFlags(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(talkCmd)
	rootCmd.AddCommand(charactersCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
