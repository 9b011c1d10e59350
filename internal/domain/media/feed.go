package media

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ChangesChannel is the Redis channel that announces collection changes
const ChangesChannel = "media:changed"

type changeMessage struct {
	SenderInstanceID string `json:"sender_instance_id"`
	At               int64  `json:"at"`
}

// Feed announces collection changes to the other API instances. With a nil
// Redis client it is process-local and does nothing.
type Feed struct {
	redis      *redis.Client
	instanceID string
}

// NewFeed creates a change feed
func NewFeed(redisClient *redis.Client) *Feed {
	return &Feed{redis: redisClient, instanceID: uuid.NewString()}
}

// Enabled reports whether changes cross process boundaries
func (f *Feed) Enabled() bool { return f != nil && f.redis != nil }

// Publish announces that this instance changed the collection
func (f *Feed) Publish(ctx context.Context) error {
	if !f.Enabled() {
		return nil
	}
	payload, err := json.Marshal(changeMessage{SenderInstanceID: f.instanceID, At: time.Now().UnixMilli()})
	if err != nil {
		return err
	}
	return f.redis.Publish(ctx, ChangesChannel, payload).Err()
}

// Listen calls onRemote for every change announced by another instance until ctx
// is cancelled.
func (f *Feed) Listen(ctx context.Context, onRemote func()) {
	if !f.Enabled() {
		return
	}

	pubsub := f.redis.Subscribe(ctx, ChangesChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if f.isOwn(msg.Payload) {
				continue
			}
			onRemote()
		}
	}
}

func (f *Feed) isOwn(payload string) bool {
	var m changeMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		log.Debug().Err(err).Msg("Ignoring malformed media change message")
		return true
	}
	return m.SenderInstanceID == f.instanceID
}
