// Package scheduler provides the asynq-backed task queue used for delayed
// board resynchronizations.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"pipeline_board_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient creates a task queue client. The same Redis instance backs the
// queue and the undo store.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleBoardResync enqueues a resync of the organization's board after
// the given delay. Used by the engine as a follow-up check after rollbacks.
func (c *Client) ScheduleBoardResync(ctx context.Context, orgID uuid.UUID, delay time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewBoardResyncTask(BoardResyncPayload{OrganizationID: orgID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessIn(delay), asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
