package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"propertyops_backend/internal/config"
)

const queueName = "automation"

type Client struct {
	client *asynq.Client
}

func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address not configured")
	}

	return &Client{
		client: asynq.NewClient(redisClientOpt(cfg)),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueRun queues an immediate automation run in the given mode.
func (c *Client) EnqueueRun(ctx context.Context, mode string) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewAutomationRunTask(AutomationRunPayload{Mode: mode})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(queueName))
	return err
}

func redisClientOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr}
}
