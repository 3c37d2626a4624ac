package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var digestCount int

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Summarize your recent inbox",
	Long: `Compose a short digest of your most recent inbox messages: an overview,
the messages worth attention, and any suggested actions.

Examples:
  mailpilot digest
  mailpilot digest -n 20`,
	Args: cobra.NoArgs,
	RunE: runDigest,
}

func init() {
	digestCmd.Flags().IntVarP(&digestCount, "count", "n", 10, "number of recent emails to cover")
}

func runDigest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := getAssistant()
	if err != nil {
		return err
	}

	digest, err := a.Digest(ctx, mailboxToken, digestCount)
	if err != nil {
		return fmt.Errorf("compose digest: %w", err)
	}

	fmt.Println(digest)
	return nil
}
