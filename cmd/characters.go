package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var charactersCmd = &cobra.Command{
	Use:   "characters",
	Short: "Browse the character catalog",
}

var charactersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List characters in encounter order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		chars, err := loadCharacters(cfg)
		if err != nil {
			return fmt.Errorf("load characters: %w", err)
		}

		fmt.Printf("%-16s  %-24s  %s\n", "ID", "Name", "Expressions")
		fmt.Println(strings.Repeat("─", 80))

		all := chars.ListAll()
		for _, c := range all {
			ids := make([]string, 0, len(c.Expressions))
			for _, e := range c.Expressions {
				ids = append(ids, e.ID)
			}
			fmt.Printf("%-16s  %-24s  %s\n", c.ID, truncate(c.Name, 24), strings.Join(ids, ", "))
		}

		fmt.Printf("\n%d characters\n", len(all))
		return nil
	},
}

var charactersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a character's instructions and expressions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		chars, err := loadCharacters(cfg)
		if err != nil {
			return fmt.Errorf("load characters: %w", err)
		}
		c, err := chars.GetByID(args[0])
		if err != nil {
			return err
		}
		next, err := chars.Successor(c.ID)
		if err != nil {
			return err
		}

		sep := strings.Repeat("─", 60)
		fmt.Printf("ID:    %s\n", c.ID)
		fmt.Printf("Name:  %s\n", c.Name)
		fmt.Printf("Next:  %s\n", next.ID)
		fmt.Println(sep)
		fmt.Println(strings.TrimSpace(c.Instructions))
		fmt.Println(sep)
		for _, e := range c.Expressions {
			fmt.Printf("%-12s %s\n", e.ID, e.Usage)
			for _, a := range e.Assets {
				fmt.Printf("             %s\n", a)
			}
		}
		return nil
	},
}

func init() {
	charactersCmd.AddCommand(charactersListCmd)
	charactersCmd.AddCommand(charactersShowCmd)
}
