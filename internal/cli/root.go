// Package cli provides the command-line interface for mailpilot.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/gshashi/mailpilot/internal/assistant"
	"github.com/gshashi/mailpilot/internal/config"
	"github.com/gshashi/mailpilot/internal/contextcache"
	"github.com/gshashi/mailpilot/internal/llm"
	"github.com/gshashi/mailpilot/internal/mailbox"
	"github.com/gshashi/mailpilot/internal/metrics"
	"github.com/gshashi/mailpilot/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose      bool
	mailboxToken string

	// Global config and store client
	cfg      config.Config
	dbClient *store.Client

	// Lazy-initialized oracle
	model *llm.Model
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mailpilot",
	Short: "Natural-language mailbox assistant",
	Long: `Mailpilot turns plain-English requests into mailbox actions: read,
search, delete, send, and summarize email through a conversational
interface backed by an LLM.

Conversations are persisted so follow-ups like "delete the first one"
resolve against what was shown before.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		ctx := context.Background()
		storeCfg := store.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = store.NewClient(ctx, storeCfg, nil)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	},
}

// getAssistant wires the assistant with lazy oracle initialization.
func getAssistant() (*assistant.Assistant, error) {
	if model == nil {
		var err error
		model, err = llm.NewModel(cfg)
		if err != nil {
			return nil, fmt.Errorf("init model: %w", err)
		}
	}

	var cache *contextcache.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = contextcache.New(rdb, nil)
	}

	dialer := mailbox.NewGmailClient(cfg.GmailBaseURL, nil)

	return assistant.New(model, dialer, dbClient, cache, metrics.NewCollector(), nil, assistant.Options{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		HistoryWindow:       cfg.HistoryWindow,
	}), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&mailboxToken, "token", os.Getenv("MAILPILOT_MAILBOX_TOKEN"), "mailbox OAuth token")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(categorizeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
