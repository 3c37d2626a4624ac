package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gshashi/mailpilot/internal/assistant"
)

var (
	chatConversation string
	chatOwner        string
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a message to the mailbox assistant",
	Long: `Send a natural-language message to the mailbox assistant and print the
response. Pass --conversation to continue an earlier conversation so
follow-ups like "delete the second one" resolve correctly.

Examples:
  mailpilot chat "show me my last 5 emails"
  mailpilot chat "any emails about the quarterly report?"
  mailpilot chat "delete the first one" --conversation <id>`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatConversation, "conversation", "c", "", "conversation id to continue")
	chatCmd.Flags().StringVar(&chatOwner, "owner", "local", "conversation owner")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := getAssistant()
	if err != nil {
		return err
	}

	result, err := a.HandleMessage(ctx, assistant.Request{
		Utterance:      args[0],
		ConversationID: chatConversation,
		Owner:          chatOwner,
		Credential:     mailboxToken,
	})
	if err != nil {
		return fmt.Errorf("handle message: %w", err)
	}

	fmt.Println(result.ResponseText)

	if result.Data != nil && len(result.Data.Emails) > 0 {
		fmt.Println()
		for i, e := range result.Data.Emails {
			fmt.Printf("%d. %s - %s\n", i+1, e.SenderName, e.Subject)
			if verbose && e.Snippet != "" {
				fmt.Printf("   %s\n", e.Snippet)
			}
		}
	}

	if chatConversation == "" {
		fmt.Printf("\nConversation: %s\n", result.ConversationID)
	}

	return nil
}
