package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/dealbreaker/internal/llm"
	"github.com/abhisek/dealbreaker/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect logged LLM requests",
}

func withEvents(cmd *cobra.Command, fn func(ctx context.Context, events store.EventRepo) error) error {
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
	return fn(ctx, s.EventRepo())
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		return withEvents(cmd, func(ctx context.Context, repo store.EventRepo) error {
			events, err := repo.QueryLLMRequests(ctx, store.QueryOpts{Limit: limit, Purpose: purpose})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			if len(events) == 0 {
				fmt.Println("No LLM requests found.")
				return nil
			}

			fmt.Printf("%-5s  %-19s  %-10s  %-28s  %-6s  %-6s  %-7s  %s\n",
				"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
			fmt.Println(strings.Repeat("─", 100))

			for _, e := range events {
				ok := "✓"
				if !e.Success {
					ok = "✗"
				}
				fmt.Printf("%-5d  %-19s  %-10s  %-28s  %-6d  %-6d  %-7d  %s\n",
					e.ID,
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.Purpose,
					truncate(e.Model, 28),
					e.InputTokens,
					e.OutputTokens,
					e.LatencyMs,
					ok,
				)
			}
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View the full request and response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		return withEvents(cmd, func(ctx context.Context, repo store.EventRepo) error {
			e, err := repo.GetLLMRequest(ctx, id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}

			sep := strings.Repeat("─", 60)
			fmt.Printf("ID:        %d\n", e.ID)
			fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("Provider:  %s\n", e.Provider)
			fmt.Printf("Model:     %s\n", e.Model)
			fmt.Printf("Purpose:   %s\n", e.Purpose)
			fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
			fmt.Printf("Latency:   %dms\n", e.LatencyMs)
			fmt.Printf("Success:   %v\n", e.Success)
			if e.ErrorMessage != "" {
				fmt.Printf("Error:     %s\n", e.ErrorMessage)
			}

			for _, part := range []struct{ title, body string }{
				{"REQUEST", e.RequestBody},
				{"RESPONSE", e.ResponseBody},
			} {
				fmt.Println(sep)
				fmt.Println(part.title)
				fmt.Println(sep)
				if part.body == "" {
					fmt.Println("(not captured)")
				} else {
					fmt.Println(part.body)
				}
			}
			return nil
		})
	},
}

type usageRow struct {
	key      string
	calls    int
	failures int
	in, out  int64
	latency  int64
}

// groupUsage folds usage rows by key, keeping first-seen order.
func groupUsage(usage []store.LLMUsage, key func(store.LLMUsage) string) []*usageRow {
	var rows []*usageRow
	idx := map[string]*usageRow{}
	for _, u := range usage {
		k := key(u)
		r, ok := idx[k]
		if !ok {
			r = &usageRow{key: k}
			idx[k] = r
			rows = append(rows, r)
		}
		r.calls += u.Calls
		r.failures += u.Failures
		r.in += u.InputTokens
		r.out += u.OutputTokens
		r.latency += u.LatencyMs
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].calls > rows[j].calls })
	return rows
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEvents(cmd, func(ctx context.Context, repo store.EventRepo) error {
			usage, err := repo.LLMUsage(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			if len(usage) == 0 {
				fmt.Println("No LLM usage recorded yet.")
				return nil
			}

			line := strings.Repeat("─", 80)
			fmt.Println("Usage by Purpose")
			fmt.Println(line)
			fmt.Printf("%-16s  %6s  %6s  %10s  %10s  %10s  %8s\n",
				"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms")
			fmt.Println(line)

			var total usageRow
			for _, r := range groupUsage(usage, func(u store.LLMUsage) string { return u.Purpose }) {
				avg := int64(0)
				if r.calls > 0 {
					avg = r.latency / int64(r.calls)
				}
				fmt.Printf("%-16s  %6d  %6d  %10d  %10d  %10d  %8d\n",
					r.key, r.calls, r.failures, r.in, r.out, r.in+r.out, avg)
				total.calls += r.calls
				total.failures += r.failures
				total.in += r.in
				total.out += r.out
			}
			fmt.Println(line)
			fmt.Printf("%-16s  %6d  %6d  %10d  %10d  %10d\n",
				"TOTAL", total.calls, total.failures, total.in, total.out, total.in+total.out)

			fmt.Println()
			fmt.Println("Estimated Cost (USD)")
			fmt.Println(line)
			fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
			fmt.Println(line)

			var totalCost float64
			var unknown []string
			for _, r := range groupUsage(usage, func(u store.LLMUsage) string { return u.Model }) {
				cost := llm.LookupCost(r.key)
				if cost == nil {
					unknown = append(unknown, r.key)
					fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n", truncate(r.key, 32), r.calls, r.in, r.out, "?")
					continue
				}
				c := cost.Cost(int(r.in), int(r.out))
				totalCost += c
				fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n", truncate(r.key, 32), r.calls, r.in, r.out, formatCost(c))
			}

			fmt.Println(line)
			label := "TOTAL"
			if len(unknown) > 0 {
				label = "TOTAL (partial)"
			}
			fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(totalCost))
			if len(unknown) > 0 {
				fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
			}
			return nil
		})
	},
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. converse)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
