package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list used when NOTIFY_REDIS_KEY is unset.
const DefaultRedisKey = "leadgen:notifications"

// RedisQueue implements Queue on a Redis list. Messages are removed on
// receive, so Delete is a no-op and delivery is at most once.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if client == nil {
		panic("notify: redis client cannot be nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Send(ctx context.Context, body string) error {
	if err := q.client.LPush(ctx, q.key, body).Err(); err != nil {
		return fmt.Errorf("notify: redis lpush: %w", err)
	}
	return nil
}

func (q *RedisQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error) {
	if maxMessages <= 0 {
		maxMessages = 1
	}
	if waitSeconds <= 0 {
		waitSeconds = 1
	}

	res, err := q.client.BRPop(ctx, time.Duration(waitSeconds)*time.Second, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("notify: redis brpop: %w", err)
	}
	// BRPOP replies with [key, value].
	messages := []Message{newRedisMessage(res[1])}

	for len(messages) < maxMessages {
		// The first message is already popped; a failed top-up ends the batch
		// and leaves the rest for the next poll.
		body, err := q.client.RPop(ctx, q.key).Result()
		if err != nil {
			break
		}
		messages = append(messages, newRedisMessage(body))
	}
	return messages, nil
}

func (q *RedisQueue) Delete(context.Context, string) error {
	return nil
}

func newRedisMessage(body string) Message {
	return Message{ID: uuid.NewString(), Body: body}
}
