package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gshashi/mailpilot/internal/models"
)

var (
	historyOwner string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [conversation-id]",
	Short: "List past conversations or show one conversation's turns",
	Long: `Without arguments, list recent conversations for the owner. With a
conversation id, print that conversation's turns oldest first.

Examples:
  mailpilot history
  mailpilot history 9f2c1a...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyOwner, "owner", "local", "conversation owner")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 1 {
		turns, err := dbClient.RecentTurns(ctx, args[0], historyOwner, historyLimit)
		if err != nil {
			return fmt.Errorf("load turns: %w", err)
		}
		if len(turns) == 0 {
			fmt.Println("No turns found.")
			return nil
		}
		for _, t := range turns {
			fmt.Printf("[%s] %s\n", t.Role, t.Content)
		}
		return nil
	}

	conversations, err := dbClient.History(ctx, historyOwner, historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(conversations) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}
	for _, conv := range conversations {
		id, err := models.RecordIDString(conv.ID)
		if err != nil {
			return fmt.Errorf("read conversation id: %w", err)
		}
		fmt.Printf("%s  updated %s\n", id, conv.UpdatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}
