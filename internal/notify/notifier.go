// Package notify delivers user notifications: a persisted inbox row plus a
// best-effort fan-out on a Redis pub/sub channel for live listeners.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/edunova/platform/internal/domain"
	"github.com/edunova/platform/internal/metrics"
)

// Notifier implements domain.Notifier. Every delivery path is fire-and-forget:
// failures are logged and counted, never returned.
type Notifier struct {
	notifications domain.NotificationRepository
	publisher     *redis.Client
	channel       string
	clock         clockwork.Clock
}

// New creates a notifier. A nil publisher disables the pub/sub fan-out but
// keeps the persisted inbox.
func New(notifications domain.NotificationRepository, publisher *redis.Client, channel string, clock clockwork.Clock) *Notifier {
	return &Notifier{
		notifications: notifications,
		publisher:     publisher,
		channel:       channel,
		clock:         clock,
	}
}

type wireNotification struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	URL         string `json:"url"`
	CreatedAt   string `json:"created_at"`
}

func (n *Notifier) Notify(ctx context.Context, recipientID uuid.UUID, title, message, url string) {
	notification := &domain.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		URL:         url,
		CreatedAt:   n.clock.Now(),
	}

	if err := n.notifications.Create(ctx, notification); err != nil {
		slog.Error("Failed to persist notification", "recipient_id", recipientID, "error", err)
		metrics.NotificationsSent.WithLabelValues("error").Inc()
		return
	}

	n.publish(ctx, notification)
	metrics.NotificationsSent.WithLabelValues("ok").Inc()
}

func (n *Notifier) publish(ctx context.Context, notification *domain.Notification) {
	if n.publisher == nil {
		return
	}

	body, err := json.Marshal(wireNotification{
		ID:          notification.ID.String(),
		RecipientID: notification.RecipientID.String(),
		Title:       notification.Title,
		Message:     notification.Message,
		URL:         notification.URL,
		CreatedAt:   notification.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		slog.Error("Failed to encode notification", "error", err)
		return
	}

	if err := n.publisher.Publish(ctx, n.channel, body).Err(); err != nil {
		slog.Warn("Failed to publish notification", "channel", n.channel, "error", err)
	}
}
