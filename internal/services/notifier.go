package services

import (
	"context"
	"fmt"

	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/logging"
	models "roboclub/clubhouse/internal/models/gorm"

	"github.com/bwmarrin/discordgo"
)

// Notifier tells admins about workflow events.
type Notifier interface {
	ApplicationSubmitted(ctx context.Context, profile *models.Profile) error
}

// NoopNotifier is used when no webhook is configured.
type NoopNotifier struct{}

func (NoopNotifier) ApplicationSubmitted(ctx context.Context, profile *models.Profile) error {
	return nil
}

// DiscordNotifier posts to a Discord webhook.
type DiscordNotifier struct {
	session      *discordgo.Session
	webhookID    string
	webhookToken string
}

// NewNotifier returns a DiscordNotifier when both webhook values are set
// and a NoopNotifier otherwise.
func NewNotifier(webhookID, webhookToken string) Notifier {
	if webhookID == "" || webhookToken == "" {
		return NoopNotifier{}
	}

	// Webhook execution needs no bot token
	s, err := discordgo.New("")
	if err != nil {
		logging.Warn("Discord session init failed, notifications disabled", "error", err)
		return NoopNotifier{}
	}

	return &DiscordNotifier{session: s, webhookID: webhookID, webhookToken: webhookToken}
}

func (n *DiscordNotifier) ApplicationSubmitted(ctx context.Context, profile *models.Profile) error {
	content := fmt.Sprintf("New membership application from **%s** (%s)", profile.Name, profile.Email)
	if profile.Major != nil && *profile.Major != "" {
		content += fmt.Sprintf(", major: %s", *profile.Major)
	}

	_, err := n.session.WebhookExecute(n.webhookID, n.webhookToken, false, &discordgo.WebhookParams{
		Content: content,
	})
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

// ApplicationEnqueuer is the producing side of the notification queue.
type ApplicationEnqueuer interface {
	Enqueue(ctx context.Context, stream string, item *common.QueueItem) error
}

// QueuedNotifier hands notifications to the background worker so a slow
// webhook never holds up the request that triggered it.
type QueuedNotifier struct {
	queue ApplicationEnqueuer
}

func NewQueuedNotifier(queue ApplicationEnqueuer) *QueuedNotifier {
	return &QueuedNotifier{queue: queue}
}

func (n *QueuedNotifier) ApplicationSubmitted(ctx context.Context, profile *models.Profile) error {
	item, err := common.NewQueueItem(constants.JobApplicationSubmitted, profile)
	if err != nil {
		return err
	}
	return n.queue.Enqueue(ctx, constants.NotificationStream, item)
}
