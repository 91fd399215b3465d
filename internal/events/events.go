// Package events fans status changes out to realtime subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the pub/sub channel every event is published on.
const Channel = "meshit:events"

// Event types.
const (
	TypeApplicationStatus = "application.status"
	TypePostingStatus     = "posting.status"
	TypeMatchStatus       = "match.status"
	TypeMeetingStatus     = "meeting.status"
)

// Event is a single status change visible to realtime clients.
type Event struct {
	Type          string    `json:"type"`
	PostingID     string    `json:"postingId,omitempty"`
	ApplicationID string    `json:"applicationId,omitempty"`
	MatchID       string    `json:"matchId,omitempty"`
	MeetingID     string    `json:"meetingId,omitempty"`
	ProfileID     string    `json:"profileId,omitempty"`
	Status        string    `json:"status"`
	At            time.Time `json:"at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// RedisPublisher publishes JSON-encoded events on Channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher on the default channel.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: Channel}
}

// Publish sends e to subscribers.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := Encode(e)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Encode renders the wire form of an event. A zero At is stamped with the
// current time.
func Encode(e Event) ([]byte, error) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return payload, nil
}
