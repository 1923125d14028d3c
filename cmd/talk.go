package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/dealbreaker/internal/llm"
	"github.com/abhisek/dealbreaker/internal/oracle"
)

var talkCmd = &cobra.Command{
	Use:   "talk <character-id>",
	Short: "Chat with one character on stdin (no database, no timer)",
	Long: `Talk to a single character directly through the oracle.

This is a stateless developer tool: nothing is stored and the clock does not
run. Useful for tuning character instructions and comparing models.`,
	Args: cobra.ExactArgs(1),
	RunE: runTalk,
}

func init() {
	talkCmd.Flags().Int("balance", 100, "Starting wallet")
}

func runTalk(cmd *cobra.Command, args []string) error {
	balance, _ := cmd.Flags().GetInt("balance")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	chars, err := loadCharacters(cfg)
	if err != nil {
		return fmt.Errorf("load characters: %w", err)
	}
	ch, err := chars.GetByID(args[0])
	if err != nil {
		return err
	}

	llmCfg, err := llm.Resolve()
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// No EventRepo: logging skipped.
	provider, err := llm.NewProvider(ctx, llmCfg, nil, logger)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	ocfg := oracle.DefaultConfig()
	ocfg.Timeout = llmCfg.Timeout
	orc := oracle.New(provider, ocfg, logger)

	fmt.Printf("%s (%s) via %s. Empty line to quit.\n\n", ch.Name, ch.ID, provider.ModelID())

	scanner := bufio.NewScanner(os.Stdin)
	var history []oracle.Turn
	var message *string
	threat := 0

	for {
		reply := orc.Converse(ctx, oracle.Input{
			Character:     ch,
			Balance:       balance,
			History:       history,
			PlayerMessage: message,
			ThreatLevel:   threat,
		})
		history = append(history, oracle.Turn{PlayerMessage: message, Reply: reply.Message, BalanceAfter: reply.NewBalance})

		tag := ""
		if reply.Fallback {
			tag = " \033[33m(fallback)\033[0m"
		}
		fmt.Printf("\033[36m%s\033[0m [%s]%s: %s\n", ch.Name, reply.Expression, tag, reply.Message)
		if reply.NewBalance != balance {
			fmt.Printf("\033[31m  wallet $%d → $%d\033[0m\n", balance, reply.NewBalance)
			balance = reply.NewBalance
		}
		if reply.EscalateThreat {
			threat++
			fmt.Printf("\033[33m  threat level %d\033[0m\n", threat)
		}
		if reply.EncounterResolved {
			fmt.Printf("\033[32m── %s gives up. You keep $%d ──\033[0m\n", ch.Name, balance)
			return nil
		}
		if balance <= 0 {
			fmt.Println("\033[31m── Bankrupt ──\033[0m")
			return nil
		}
		for i, qa := range reply.QuickActions {
			fmt.Printf("  %d) %s\n", i+1, qa)
		}

		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			return nil
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			return nil
		}
		if len(text) == 1 && text[0] >= '1' && int(text[0]-'1') < len(reply.QuickActions) {
			text = reply.QuickActions[text[0]-'1']
		}
		message = &text
		fmt.Println()
	}
}
