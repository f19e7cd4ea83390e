package repositories

import (
	"context"
	"time"

	"roboclub/clubhouse/internal/db"
	models "roboclub/clubhouse/internal/models/gorm"

	"gorm.io/gorm"
)

// ChatRepository stores chat messages. Rows are never edited except for
// the read flag.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(gdb *gorm.DB) *ChatRepository {
	return &ChatRepository{db: gdb}
}

func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	err := db.Conn(ctx, r.db).Create(msg).Error
	return storeErr("ChatRepository.Create", "failed to store message", err)
}

// Conversation returns messages exchanged between a and b, oldest first.
// A non-zero since only returns messages created after it.
func (r *ChatRepository) Conversation(ctx context.Context, a, b string, since time.Time, limit int) ([]models.ChatMessage, error) {
	return r.conversation(ctx, "ChatRepository.Conversation", a, b, "created_at > ?", since, limit)
}

// ConversationFrom is Conversation including messages created exactly at
// from. Pollers de-duplicate on id.
func (r *ChatRepository) ConversationFrom(ctx context.Context, a, b string, from time.Time) ([]models.ChatMessage, error) {
	return r.conversation(ctx, "ChatRepository.ConversationFrom", a, b, "created_at >= ?", from, 0)
}

func (r *ChatRepository) conversation(ctx context.Context, op, a, b, cond string, t time.Time, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage

	q := db.Conn(ctx, r.db).
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a)
	if !t.IsZero() {
		q = q.Where(cond, t)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Order("created_at ASC").Order("id ASC").Find(&msgs).Error
	if err != nil {
		return nil, storeErr(op, "failed to load conversation", err)
	}
	return msgs, nil
}

// MarkRead flags every message from sender to recipient as read.
func (r *ChatRepository) MarkRead(ctx context.Context, recipient, sender string) (int64, error) {
	res := db.Conn(ctx, r.db).Model(&models.ChatMessage{}).
		Where("to_id = ? AND from_id = ?", recipient, sender).
		Where(map[string]interface{}{"read": false}).
		Update("read", true)
	if res.Error != nil {
		return 0, storeErr("ChatRepository.MarkRead", "failed to mark messages read", res.Error)
	}
	return res.RowsAffected, nil
}

// ForChannel returns every message sent to or from channel, newest first.
func (r *ChatRepository) ForChannel(ctx context.Context, channel string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := db.Conn(ctx, r.db).
		Where("to_id = ? OR from_id = ?", channel, channel).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, storeErr("ChatRepository.ForChannel", "failed to load channel messages", err)
	}
	return msgs, nil
}
