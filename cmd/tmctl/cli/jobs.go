package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/tracemoney/tracemoney/jobs"
)

// JobsQueue is what the jobs commands need from the queue.
type JobsQueue interface {
	Trigger(ctx context.Context, taskType string, now time.Time) (*asynq.TaskInfo, error)
	InspectQueue(ctx context.Context) (QueueStats, error)
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &JobsCLI{client: client, inspector: asynq.NewInspector(opts)}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by name for the day of now.
func (c *JobsCLI) Trigger(ctx context.Context, taskType string, now time.Time) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	return c.client.Trigger(ctx, taskType, now)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

func newJobsCommand(rt Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect background jobs",
	}
	open := func(ctx context.Context) (JobsQueue, error) {
		if rt.Jobs == nil {
			return nil, errors.New("jobs: queue not configured")
		}
		return rt.Jobs(ctx)
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "trigger <task>",
		Short:     "Enqueue a job for today",
		Long:      fmt.Sprintf("Enqueue %s or %s. A task already queued for the same day is not enqueued again.", jobs.TaskTickersRefresh, jobs.TaskFinancialsWarmup),
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{jobs.TaskTickersRefresh, jobs.TaskFinancialsWarmup},
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = queue.Close() }()

			info, err := queue.Trigger(cmd.Context(), args[0], rt.now())
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s already queued for today\n", args[0])
				return err
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Show queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			queue, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = queue.Close() }()

			stats, err := queue.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
			return err
		},
	})
	return cmd
}
