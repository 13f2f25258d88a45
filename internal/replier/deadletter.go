package replier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"crossposter/internal/domain"
)

// DeadLetter is a reply job that exhausted its retries.
type DeadLetter struct {
	Job      domain.ReplyJob `json:"job"`
	Error    string          `json:"error"`
	FailedAt time.Time       `json:"failed_at"`
}

// RedisDeadLetters keeps dead letters in a Redis list, newest first.
type RedisDeadLetters struct {
	client *redis.Client
	key    string
}

func NewRedisDeadLetters(client *redis.Client, key string) *RedisDeadLetters {
	return &RedisDeadLetters{client: client, key: key}
}

func (d *RedisDeadLetters) Push(ctx context.Context, letter DeadLetter) error {
	data, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	if err := d.client.LPush(ctx, d.key, data).Err(); err != nil {
		return fmt.Errorf("push dead letter %s: %w", letter.Job.ID, err)
	}
	return nil
}

// List returns up to limit dead letters, newest first.
func (d *RedisDeadLetters) List(ctx context.Context, limit int64) ([]DeadLetter, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := d.client.LRange(ctx, d.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}

	letters := make([]DeadLetter, 0, len(raw))
	for _, item := range raw {
		var letter DeadLetter
		if err := json.Unmarshal([]byte(item), &letter); err != nil {
			return nil, fmt.Errorf("decode dead letter: %w", err)
		}
		letters = append(letters, letter)
	}
	return letters, nil
}
