package oracleworker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// readyChannelPrefix namespaces per-user notification channels.
const readyChannelPrefix = "oracle:ready:"

// readyPayload is the pub/sub hint telling clients to re-fetch. It is
// never the source of truth; the store is.
type readyPayload struct {
	ID          string `json:"id"`
	MessageType string `json:"messageType"`
	Timestamp   int64  `json:"timestamp"`
	NotifiedAt  string `json:"notifiedAt"`
}

// RedisReadyNotifier publishes "content ready" hints on a per-user
// channel. Strictly fire-and-forget: publish failures are logged and
// swallowed, a notification must never fail a generation.
type RedisReadyNotifier struct {
	client *redis.Client
	log    *logrus.Entry
}

// NewRedisReadyNotifier wraps a Redis client as a notifier.
func NewRedisReadyNotifier(client *redis.Client) *RedisReadyNotifier {
	return &RedisReadyNotifier{
		client: client,
		log:    logrus.WithField("component", "notifier"),
	}
}

// NotifyReady publishes the ready hint for one stored message.
func (n *RedisReadyNotifier) NotifyReady(ctx context.Context, userIDHash, messageType string) {
	now := time.Now()
	payload, err := json.Marshal(readyPayload{
		ID:          uuid.NewString(),
		MessageType: messageType,
		Timestamp:   now.UnixMilli(),
		NotifiedAt:  now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := n.client.Publish(ctx, readyChannelPrefix+userIDHash, payload).Err(); err != nil {
		n.log.WithError(err).WithField("type", messageType).
			Warn("ready notification failed")
	}
}

// NopNotifier discards notifications. Used where no pub/sub endpoint is
// configured and in tests.
type NopNotifier struct{}

func (NopNotifier) NotifyReady(context.Context, string, string) {}
