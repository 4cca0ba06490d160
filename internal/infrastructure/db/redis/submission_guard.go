package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionGuard implements ports.SubmissionGuard with SET NX keys that expire
// on their own if Release is never called.
type SubmissionGuard struct {
	client *redis.Client
}

// NewSubmissionGuard creates a SubmissionGuard wrapping the given Redis client.
func NewSubmissionGuard(client *redis.Client) *SubmissionGuard {
	return &SubmissionGuard{client: client}
}

func (g *SubmissionGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("submission guard acquire: %w", err)
	}
	return ok, nil
}

func (g *SubmissionGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("submission guard release: %w", err)
	}
	return nil
}
