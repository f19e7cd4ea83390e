package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/chat"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db/repositories"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/metrics"
	models "roboclub/clubhouse/internal/models/gorm"
)

// InboxEntry is one member thread in the admin inbox.
type InboxEntry struct {
	MemberID string             `json:"member_id"`
	Last     models.ChatMessage `json:"last"`
	Unread   int                `json:"unread"`
}

// ChatService stores member to admin messages and publishes each one on
// the broker. Members talk to the shared admin channel; admins reply as
// that channel.
type ChatService struct {
	repo         *repositories.ChatRepository
	broker       chat.Broker
	metrics      *metrics.MetricsRegistry
	pollInterval time.Duration
}

func NewChatService(repo *repositories.ChatRepository, broker chat.Broker, m *metrics.MetricsRegistry, pollInterval time.Duration) *ChatService {
	return &ChatService{repo: repo, broker: broker, metrics: m, pollInterval: pollInterval}
}

// Send stores a message. A member always writes to the admin channel; an
// admin writes to the member named by to.
func (s *ChatService) Send(ctx context.Context, senderID string, senderIsAdmin bool, to, content string) (*models.ChatMessage, error) {
	const op = "ChatService.Send"

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.New(apperr.KindValidation, op, "message content is required")
	}

	msg := &models.ChatMessage{From: senderID, To: constants.AdminChannel, Content: content}
	memberID := senderID
	if senderIsAdmin {
		if to == "" || to == constants.AdminChannel {
			return nil, apperr.New(apperr.KindValidation, op, "recipient is required")
		}
		msg.From = constants.AdminChannel
		msg.To = to
		memberID = to
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ChatMessagesTotal.Inc()
	}

	s.publish(ctx, msg, chat.UserChannel(constants.AdminChannel), chat.UserChannel(memberID))
	return msg, nil
}

// Conversation returns the thread between memberID and the admins, oldest
// first. A non-zero since only returns newer messages.
func (s *ChatService) Conversation(ctx context.Context, memberID string, since time.Time, limit int) ([]models.ChatMessage, error) {
	return s.repo.Conversation(ctx, memberID, constants.AdminChannel, since, limit)
}

// ConversationFrom is Conversation including messages created exactly at
// from.
func (s *ChatService) ConversationFrom(ctx context.Context, memberID string, from time.Time) ([]models.ChatMessage, error) {
	return s.repo.ConversationFrom(ctx, memberID, constants.AdminChannel, from)
}

// MarkRead flags the messages addressed to the viewer in memberID's
// thread as read.
func (s *ChatService) MarkRead(ctx context.Context, memberID string, viewerIsAdmin bool) (int64, error) {
	if viewerIsAdmin {
		return s.repo.MarkRead(ctx, constants.AdminChannel, memberID)
	}
	return s.repo.MarkRead(ctx, memberID, constants.AdminChannel)
}

// AdminInbox lists member threads, latest activity first, with the count
// of messages the admins have not read.
func (s *ChatService) AdminInbox(ctx context.Context) ([]InboxEntry, error) {
	msgs, err := s.repo.ForChannel(ctx, constants.AdminChannel)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	var out []InboxEntry
	for _, m := range msgs {
		member := m.From
		if member == constants.AdminChannel {
			member = m.To
		}
		i, ok := index[member]
		if !ok {
			i = len(out)
			index[member] = i
			out = append(out, InboxEntry{MemberID: member, Last: m})
		}
		if m.To == constants.AdminChannel && !m.Read {
			out[i].Unread++
		}
	}
	return out, nil
}

// Subscribe opens a live feed for a member thread, or for every thread
// when admin is true.
func (s *ChatService) Subscribe(ctx context.Context, memberID string, admin bool) (chat.Subscription, error) {
	channel := chat.UserChannel(memberID)
	if admin {
		channel = chat.UserChannel(constants.AdminChannel)
	}
	sub, err := s.broker.Subscribe(ctx, channel)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "ChatService.Subscribe", err)
	}
	return sub, nil
}

// Poller returns a poller over memberID's thread.
func (s *ChatService) Poller(memberID string) *chat.Poller {
	return chat.NewPoller(s.pollInterval, func(ctx context.Context, from time.Time) ([]models.ChatMessage, error) {
		return s.ConversationFrom(ctx, memberID, from)
	})
}

// publish is best effort: the message is already stored and pollers will
// pick it up.
func (s *ChatService) publish(ctx context.Context, msg *models.ChatMessage, channels ...string) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logging.Warn("Failed to encode chat message", "id", msg.ID, "error", err)
		return
	}
	for _, c := range channels {
		if err := s.broker.Publish(ctx, c, payload); err != nil {
			logging.Warn("Failed to publish chat message", "channel", c, "error", err)
		}
	}
}
