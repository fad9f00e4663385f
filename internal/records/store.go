package records

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casebridge/intake-platform/internal/intake"
)

// ConversationStore persists intake conversations and their messages to
// PostgreSQL for operator review. All methods are nil-safe so the dialogue
// path keeps working when no database is configured.
type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	if db == nil {
		return nil
	}
	return &ConversationStore{db: db}
}

// ConversationRecord represents a conversation in the database.
type ConversationRecord struct {
	ID             uuid.UUID
	ConversationID string
	SenderID       string
	Channel        string
	Status         string
	MessageCount   int
	UserMessages   int
	BotMessages    int
	StartedAt      time.Time
	LastMessageAt  *time.Time
}

// MessageRecord represents a stored message.
type MessageRecord struct {
	ID                uuid.UUID
	ConversationID    string
	Role              string
	Content           string
	ProviderMessageID string
	CreatedAt         time.Time
}

// conversationKey builds the stable "whatsapp:{sender}" conversation id.
func conversationKey(senderID string) string {
	return "whatsapp:" + senderID
}

// EnsureConversation creates or touches a conversation record and returns
// its UUID.
func (s *ConversationStore) EnsureConversation(ctx context.Context, senderID string) (uuid.UUID, error) {
	if s == nil || s.db == nil {
		return uuid.Nil, nil
	}
	if strings.TrimSpace(senderID) == "" {
		return uuid.Nil, fmt.Errorf("records: sender id required")
	}

	conversationID := conversationKey(senderID)

	var existingID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE conversation_id = $1`,
		conversationID,
	).Scan(&existingID)

	if err == nil {
		s.db.ExecContext(ctx,
			`UPDATE conversations SET updated_at = $1 WHERE id = $2`,
			time.Now(), existingID,
		)
		return existingID, nil
	}

	if err != sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("records: failed to check existing: %w", err)
	}

	newID := uuid.New()
	now := time.Now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (
			id, conversation_id, sender_id, channel, status,
			message_count, user_message_count, bot_message_count,
			started_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, newID, conversationID, senderID, "whatsapp", "active",
		0, 0, 0, now, now, now,
	)

	if err != nil {
		// Another process may have won the insert race.
		if strings.Contains(err.Error(), "duplicate key") {
			return s.EnsureConversation(ctx, senderID)
		}
		return uuid.Nil, fmt.Errorf("records: failed to create: %w", err)
	}

	return newID, nil
}

// RecordInbound stores a user message. When the message carries a media
// reference instead of text, the reference is stored as the content.
func (s *ConversationStore) RecordInbound(ctx context.Context, msg intake.InboundMessage) error {
	if s == nil || s.db == nil {
		return nil
	}
	content := msg.Text
	if content == "" && msg.MediaRef != "" {
		content = msg.MediaRef
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return s.appendMessage(ctx, msg.SenderID, "user", content, msg.MessageID, ts)
}

// RecordOutbound stores a reply sent back to the user.
func (s *ConversationStore) RecordOutbound(ctx context.Context, senderID, body string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.appendMessage(ctx, senderID, "assistant", body, "", time.Now())
}

func (s *ConversationStore) appendMessage(ctx context.Context, senderID, role, content, providerMessageID string, ts time.Time) error {
	if _, err := s.EnsureConversation(ctx, senderID); err != nil {
		return err
	}

	conversationID := conversationKey(senderID)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (
			id, conversation_id, role, content, provider_message_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, uuid.New(), conversationID, role, content, providerMessageID, ts)

	if err != nil {
		return fmt.Errorf("records: failed to insert message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("records: failed to read insert result: %w", err)
	}
	if rowsAffected == 0 {
		return nil
	}

	counterColumn := "user_message_count"
	if role == "assistant" {
		counterColumn = "bot_message_count"
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE conversations SET
			message_count = message_count + 1,
			%s = %s + 1,
			last_message_at = $1,
			updated_at = $1
		WHERE conversation_id = $2
	`, counterColumn, counterColumn), ts, conversationID)

	if err != nil {
		return fmt.Errorf("records: failed to update counters: %w", err)
	}

	return nil
}

// MarkSubmitted flags a conversation as handed off to the case backend.
func (s *ConversationStore) MarkSubmitted(ctx context.Context, senderID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET status = 'submitted', updated_at = $1
		WHERE conversation_id = $2
	`, time.Now(), conversationKey(senderID))
	return err
}

// GetConversation retrieves a conversation for a sender, or nil when absent.
func (s *ConversationStore) GetConversation(ctx context.Context, senderID string) (*ConversationRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	var conv ConversationRecord
	var lastMessageAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, sender_id, channel, status,
			   message_count, user_message_count, bot_message_count,
			   started_at, last_message_at
		FROM conversations
		WHERE conversation_id = $1
	`, conversationKey(senderID)).Scan(
		&conv.ID, &conv.ConversationID, &conv.SenderID, &conv.Channel,
		&conv.Status, &conv.MessageCount, &conv.UserMessages, &conv.BotMessages,
		&conv.StartedAt, &lastMessageAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("records: failed to get: %w", err)
	}

	if lastMessageAt.Valid {
		conv.LastMessageAt = &lastMessageAt.Time
	}

	return &conv, nil
}

// GetMessages retrieves messages for a sender in chronological order.
func (s *ConversationStore) GetMessages(ctx context.Context, senderID string, limit int) ([]MessageRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	query := `
		SELECT id, conversation_id, role, content,
			   COALESCE(provider_message_id, ''), created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	args := []any{conversationKey(senderID)}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("records: failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []MessageRecord
	for rows.Next() {
		var msg MessageRecord
		err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content,
			&msg.ProviderMessageID, &msg.CreatedAt,
		)
		if err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}
