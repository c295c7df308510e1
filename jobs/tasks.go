package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTickersRefresh reloads the SEC ticker directory.
	TaskTickersRefresh = "tickers:refresh"
	// TaskFinancialsWarmup preloads company reports into the cache.
	TaskFinancialsWarmup = "financials:warmup"

	dayLayout = "2006-01-02"
)

// ErrUnknownTask is returned when a task name has no constructor.
var ErrUnknownTask = errors.New("jobs: unknown task")

// taskNamespace scopes the deterministic task IDs.
var taskNamespace = uuid.MustParse("5b0f3a1e-6f0c-4c44-9d0e-7d1b1b8e2f10")

// TickersRefreshPayload is the body of a TaskTickersRefresh task.
type TickersRefreshPayload struct {
	Day string `json:"day,omitempty"`
}

// FinancialsWarmupPayload is the body of a TaskFinancialsWarmup task. An empty
// ticker list warms the configured peer universe.
type FinancialsWarmupPayload struct {
	Day     string   `json:"day,omitempty"`
	Tickers []string `json:"tickers,omitempty"`
}

// TaskID derives the stable ID of a task for a given UTC day.
func TaskID(taskType string, day time.Time) string {
	return uuid.NewSHA1(taskNamespace, []byte(taskType+"|"+day.UTC().Format(dayLayout))).String()
}

// NewTickersRefreshTask builds a refresh task. A non-zero day pins the task ID
// so a second trigger on the same day is rejected by the queue.
func NewTickersRefreshTask(day time.Time) (*asynq.Task, error) {
	payload := TickersRefreshPayload{}
	if !day.IsZero() {
		payload.Day = day.UTC().Format(dayLayout)
	}
	return newTask(TaskTickersRefresh, payload, day)
}

// NewFinancialsWarmupTask builds a warmup task for tickers, or for the peer
// universe when tickers is empty.
func NewFinancialsWarmupTask(day time.Time, tickers []string) (*asynq.Task, error) {
	payload := FinancialsWarmupPayload{Tickers: tickers}
	if !day.IsZero() {
		payload.Day = day.UTC().Format(dayLayout)
	}
	return newTask(TaskFinancialsWarmup, payload, day)
}

// NewTask builds a task by type name, as used by the CLI trigger.
func NewTask(taskType string, day time.Time) (*asynq.Task, error) {
	switch taskType {
	case TaskTickersRefresh:
		return NewTickersRefreshTask(day)
	case TaskFinancialsWarmup:
		return NewFinancialsWarmupTask(day, nil)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, taskType)
	}
}

func newTask(taskType string, payload any, day time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(3), asynq.Timeout(10 * time.Minute)}
	if !day.IsZero() {
		opts = append(opts, asynq.TaskID(TaskID(taskType, day)))
	}
	return asynq.NewTask(taskType, data, opts...), nil
}
