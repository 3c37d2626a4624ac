// Package contextcache keeps a short-lived Redis snapshot of the messages
// most recently shown in each conversation, so follow-up utterances like
// "delete the first one" can be grounded server-side.
package contextcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gshashi/mailpilot/internal/models"
	"github.com/redis/go-redis/v9"
)

// snapshotTTL bounds how long a listing stays referenceable. Stale ordinals
// are worse than no ordinals.
const snapshotTTL = 30 * time.Minute

// Cache stores per-conversation message snapshots. A nil *Cache is valid and
// behaves as an always-empty cache, so callers never branch on Redis being
// configured.
type Cache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// New creates a snapshot cache over an existing Redis client.
func New(rdb *redis.Client, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{rdb: rdb, logger: logger}
}

func key(conversationID string) string {
	return fmt.Sprintf("ctx:%s", conversationID)
}

// Put replaces the snapshot for a conversation. Cache failures are logged
// and swallowed: losing referential grounding must never fail a dispatch.
func (c *Cache) Put(ctx context.Context, conversationID string, emails []models.Email) {
	if c == nil || c.rdb == nil || conversationID == "" || len(emails) == 0 {
		return
	}

	data, err := json.Marshal(emails)
	if err != nil {
		c.logger.Warn("failed to marshal context snapshot", "error", err)
		return
	}

	if err := c.rdb.Set(ctx, key(conversationID), data, snapshotTTL).Err(); err != nil {
		c.logger.Warn("failed to store context snapshot", "conversation", conversationID, "error", err)
	}
}

// Get returns the cached snapshot for a conversation, or nil when absent or
// when Redis is unavailable.
func (c *Cache) Get(ctx context.Context, conversationID string) []models.Email {
	if c == nil || c.rdb == nil || conversationID == "" {
		return nil
	}

	data, err := c.rdb.Get(ctx, key(conversationID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("failed to read context snapshot", "conversation", conversationID, "error", err)
		}
		return nil
	}

	var emails []models.Email
	if err := json.Unmarshal(data, &emails); err != nil {
		c.logger.Warn("corrupt context snapshot, dropping", "conversation", conversationID, "error", err)
		return nil
	}
	return emails
}
