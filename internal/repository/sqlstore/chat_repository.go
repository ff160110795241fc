package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/vytor/templemind/internal/db"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/repository"
)

type chatRepository struct {
	db *db.DB
}

// NewChatRepository creates a new ChatRepository implementation
func NewChatRepository(d *db.DB) repository.ChatRepository {
	return &chatRepository{db: d}
}

func (r *chatRepository) Append(ctx context.Context, msgs ...models.ChatMessage) error {
	log := logger.FromContext(ctx).WithPrefix("chat_repo")

	now := time.Now().UTC()
	query := r.db.Rebind(`
INSERT INTO chat_messages (profile_id, role, content, created_at)
VALUES (?, ?, ?, ?)
`)
	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		for _, msg := range msgs {
			if msg.CreatedAt.IsZero() {
				msg.CreatedAt = now
			}
			if _, err := tx.ExecContext(ctx, query, msg.ProfileID, msg.Role, msg.Content, msg.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to append chat messages: %v", err)
		return err
	}
	return nil
}

func (r *chatRepository) Recent(ctx context.Context, profileID int64, limit int) ([]models.ChatMessage, error) {
	log := logger.FromContext(ctx).WithPrefix("chat_repo")
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
SELECT id, profile_id, role, content, created_at
FROM chat_messages
WHERE profile_id = ?
ORDER BY id DESC
LIMIT ?
`), profileID, limit)
	if err != nil {
		log.Error("failed to load chat history: %v", err)
		return nil, err
	}
	defer rows.Close()

	msgs := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ProfileID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *chatRepository) Clear(ctx context.Context, profileID int64) error {
	log := logger.FromContext(ctx).WithPrefix("chat_repo")
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM chat_messages WHERE profile_id = ?`), profileID); err != nil {
		log.Error("failed to clear chat history: %v", err)
		return err
	}
	return nil
}
