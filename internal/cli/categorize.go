package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gshashi/mailpilot/internal/models"
)

var categorizeCount int

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Sort recent emails into category buckets",
	Long: `Fetch your most recent inbox messages and sort them into buckets:
urgent, work, personal, promotions, and other.

Examples:
  mailpilot categorize
  mailpilot categorize -n 50`,
	Args: cobra.NoArgs,
	RunE: runCategorize,
}

func init() {
	categorizeCmd.Flags().IntVarP(&categorizeCount, "count", "n", 20, "number of recent emails to categorize")
}

func runCategorize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := getAssistant()
	if err != nil {
		return err
	}

	buckets, err := a.Categorize(ctx, mailboxToken, categorizeCount)
	if err != nil {
		return fmt.Errorf("categorize: %w", err)
	}

	for _, category := range models.Categories {
		emails := buckets[category]
		fmt.Printf("%s (%d)\n", category, len(emails))
		for _, e := range emails {
			fmt.Printf("  - %s - %s\n", e.SenderName, e.Subject)
		}
	}

	return nil
}
