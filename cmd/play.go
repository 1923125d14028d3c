package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/dealbreaker/internal/app"
	"github.com/abhisek/dealbreaker/internal/config"
	"github.com/abhisek/dealbreaker/internal/screens/play"
	"github.com/abhisek/dealbreaker/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func addPlayFlags(c *cobra.Command) {
	c.Flags().String("owner", "", "Owner id for sessions and leaderboard entries (default: local user name)")
	c.Flags().String("name", "", "Display name for the leaderboard")
}

func init() {
	addPlayFlags(playCmd)
}

// runPlay opens the store, builds dependencies, and launches the TUI.
func runPlay(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The terminal belongs to the TUI; logs go next to the database.
	logger, closeLog := tuiLogger(cfg)
	defer closeLog()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	if b.oracleErr != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", b.oracleErr)
	}

	owner, _ := cmd.Flags().GetString("owner")
	if owner == "" {
		owner = localOwner()
	}
	name, _ := cmd.Flags().GetString("name")

	return app.Run(ctx, app.Options{
		Play: play.Deps{
			Game:        b.game,
			Leaderboard: b.leaderboard,
			OwnerID:     owner,
			DisplayName: name,
		},
		CanPlay: b.oracleErr == nil,
	})
}

func localOwner() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return "local:" + u.Username
	}
	return "local"
}

func tuiLogger(cfg *config.Config) (*slog.Logger, func()) {
	dir := os.TempDir()
	if sc, err := cfg.Store(); err == nil && sc.Driver == store.DriverSQLite {
		dir = filepath.Dir(sc.DSN)
	}
	f, err := os.OpenFile(filepath.Join(dir, "dealbreaker.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return slog.New(slog.DiscardHandler), func() {}
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { f.Close() }
}
