package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// Trigger enqueues the named task for the day of now. A task already queued
// for that day is reported as asynq.ErrTaskIDConflict.
func (c *Client) Trigger(ctx context.Context, taskType string, now time.Time) (*asynq.TaskInfo, error) {
	task, err := NewTask(taskType, now)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
