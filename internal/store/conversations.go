package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gshashi/mailpilot/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// seqCount is the shape returned by the max-seq query.
type seqCount struct {
	Max int `json:"max"`
}

// appendAttempts bounds how often a single statement is retried on a
// transaction conflict before the append fails.
const appendAttempts = 3

// retryConflict runs fn, retrying only on ErrTransactionConflict. Any other
// error, and success, return immediately.
func retryConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < appendAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrTransactionConflict) {
			return err
		}
	}
	return err
}

// Get retrieves a conversation and its ordered turns. Ownership is part of
// the lookup: a conversation belonging to another user is ErrNotFound, never
// a permission error, so ids cannot be probed.
func (c *Client) Get(ctx context.Context, id, owner string) (*models.ConversationWithTurns, error) {
	conv, err := c.getConversation(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	turns, err := c.turns(ctx, id, 0)
	if err != nil {
		return nil, err
	}

	return &models.ConversationWithTurns{Conversation: *conv, Turns: turns}, nil
}

// RecentTurns returns the last limit turns of a conversation, oldest first.
// A limit of 0 returns all turns. Returns ErrNotFound for unknown or
// foreign conversations.
func (c *Client) RecentTurns(ctx context.Context, id, owner string, limit int) ([]models.Turn, error) {
	if _, err := c.getConversation(ctx, id, owner); err != nil {
		return nil, err
	}
	return c.turns(ctx, id, limit)
}

// History lists a user's conversations, most recently updated first.
func (c *Client) History(ctx context.Context, owner string, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}

	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, `
		SELECT * FROM conversation WHERE owner = $owner
		ORDER BY updated_at DESC LIMIT $limit
	`, map[string]any{"owner": owner, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.Conversation{}, nil
	}
	return (*results)[0].Result, nil
}

// Append adds turns to a conversation and bumps its updated_at. When id is
// empty a new conversation is created for owner. Returns the conversation id.
//
// Turns are written in argument order with increasing seq values; they are
// never updated afterwards. Two concurrent appends may interleave their seq
// ranges, which only affects ordering, not loss.
func (c *Client) Append(ctx context.Context, id, owner string, turns ...models.Turn) (string, error) {
	if len(turns) == 0 {
		return id, fmt.Errorf("append: no turns given")
	}

	if id == "" {
		id = uuid.NewString()
		if err := c.createConversation(ctx, id, owner); err != nil {
			return "", err
		}
	} else if _, err := c.getConversation(ctx, id, owner); err != nil {
		return "", err
	}

	next, err := c.nextSeq(ctx, id)
	if err != nil {
		return "", err
	}

	for i, t := range turns {
		vars := map[string]any{
			"conv":    id,
			"role":    t.Role,
			"content": t.Content,
			"seq":     next + i,
		}
		sql := `
			CREATE turn SET
				conversation = type::record("conversation", $conv),
				role = $role,
				content = $content,
				seq = $seq`
		if t.Action != "" {
			sql += `, action = $action`
			vars["action"] = t.Action
		}
		if len(t.Metadata) > 0 {
			sql += `, metadata = $metadata`
			vars["metadata"] = t.Metadata
		}

		err := retryConflict(func() error {
			_, qerr := surrealdb.Query[any](ctx, c.db, sql, vars)
			return wrapQueryError(qerr)
		})
		if err != nil {
			return "", fmt.Errorf("append turn: %w", err)
		}
	}

	err = retryConflict(func() error {
		_, qerr := surrealdb.Query[any](ctx, c.db, `
			UPDATE type::record("conversation", $conv) SET updated_at = time::now()
		`, map[string]any{"conv": id})
		return wrapQueryError(qerr)
	})
	if err != nil {
		return "", fmt.Errorf("touch conversation: %w", err)
	}

	return id, nil
}

func (c *Client) createConversation(ctx context.Context, id, owner string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("conversation", $id) SET owner = $owner
	`, map[string]any{"id": id, "owner": owner})
	if err != nil {
		return fmt.Errorf("create conversation: %w", wrapQueryError(err))
	}
	return nil
}

func (c *Client) getConversation(ctx context.Context, id, owner string) (*models.Conversation, error) {
	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, `
		SELECT * FROM type::record("conversation", $id) WHERE owner = $owner
	`, map[string]any{"id": id, "owner": owner})
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// turns fetches a conversation's turns ordered by seq. When limit > 0, only
// the last limit turns are returned, still oldest first.
func (c *Client) turns(ctx context.Context, id string, limit int) ([]models.Turn, error) {
	sql := `
		SELECT * FROM turn
		WHERE conversation = type::record("conversation", $conv)
		ORDER BY seq ASC`
	results, err := surrealdb.Query[[]models.Turn](ctx, c.db, sql, map[string]any{"conv": id})
	if err != nil {
		return nil, fmt.Errorf("get turns: %w", wrapQueryError(err))
	}

	var all []models.Turn
	if results != nil && len(*results) > 0 {
		all = (*results)[0].Result
	}
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (c *Client) nextSeq(ctx context.Context, id string) (int, error) {
	results, err := surrealdb.Query[[]seqCount](ctx, c.db, `
		SELECT math::max(seq) AS max FROM turn
		WHERE conversation = type::record("conversation", $conv)
		GROUP ALL
	`, map[string]any{"conv": id})
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Max + 1, nil
}
