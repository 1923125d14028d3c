package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/dealbreaker/internal/characters"
	"github.com/abhisek/dealbreaker/internal/config"
	"github.com/abhisek/dealbreaker/internal/game"
	"github.com/abhisek/dealbreaker/internal/leaderboard"
	"github.com/abhisek/dealbreaker/internal/ledger"
	"github.com/abhisek/dealbreaker/internal/llm"
	"github.com/abhisek/dealbreaker/internal/oracle"
	"github.com/abhisek/dealbreaker/internal/store"
)

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DSN = v
	}
	if v, _ := cmd.Flags().GetString("driver"); v != "" {
		cfg.DBDriver = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens and migrates the configured database.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	sc, err := cfg.Store()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func loadCharacters(cfg *config.Config) (*characters.Catalog, error) {
	if cfg.CharactersFile != "" {
		return characters.Load(cfg.CharactersFile)
	}
	return characters.Default()
}

// backend is everything a game front end needs.
type backend struct {
	store       *store.Store
	game        *game.Service
	characters  *characters.Catalog
	leaderboard *leaderboard.Recorder

	// oracleErr explains why no oracle is configured.
	oracleErr error
}

// openBackend wires the store, the oracle and the game service. A missing
// LLM configuration is not an error: the game then reports the oracle as
// unavailable.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	chars, err := loadCharacters(cfg)
	if err != nil {
		return nil, fmt.Errorf("load characters: %w", err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	b := &backend{
		store:       st,
		characters:  chars,
		leaderboard: leaderboard.New(st.LeaderboardRepo(), st.PlayerRepo(), st.EventRepo()),
	}

	var orc oracle.Oracle
	llmCfg, err := llm.Resolve()
	if err == nil {
		var provider llm.Provider
		provider, err = llm.NewProvider(ctx, llmCfg, st.EventRepo(), logger)
		if err == nil {
			ocfg := oracle.DefaultConfig()
			ocfg.Timeout = llmCfg.Timeout
			orc = oracle.New(provider, ocfg, logger)
			logger.Info("oracle ready", "provider", llmCfg.Provider, "model", provider.ModelID())
		}
	}
	if err != nil {
		b.oracleErr = err
		logger.Warn("oracle unavailable", "error", err)
	}

	b.game = game.NewService(game.Deps{
		Sessions:    st.SessionRepo(),
		Ledger:      ledger.New(st.InteractionRepo(), cfg.StartingBalance),
		Characters:  chars,
		Oracle:      orc,
		Leaderboard: b.leaderboard,
		Logger:      logger,
	}, cfg.Game())

	return b, nil
}

func (b *backend) Close() error {
	return b.store.Close()
}
