package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracemoney/tracemoney/internal/financials"
	"github.com/tracemoney/tracemoney/internal/flowgraph"
	jobmetrics "github.com/tracemoney/tracemoney/internal/jobs"
	"github.com/tracemoney/tracemoney/jobs"
)

type stubReports struct {
	asked []string
}

func (s *stubReports) Report(_ context.Context, ticker string) (financials.Report, error) {
	s.asked = append(s.asked, ticker)
	if ticker != "ACME" {
		return financials.Report{}, financials.ErrTickerNotFound
	}
	return financials.Report{Ticker: "ACME", Revenue: 100, NetIncome: 20, OperatingCashFlow: 30, InvestingCashFlow: -10, FinancingCashFlow: 5}, nil
}

type stubQueue struct {
	triggered []string
	day       time.Time
	err       error
	closed    bool
}

func (s *stubQueue) Trigger(_ context.Context, taskType string, now time.Time) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.triggered = append(s.triggered, taskType)
	s.day = now
	return &asynq.TaskInfo{ID: jobs.TaskID(taskType, now), Queue: jobs.QueueDefault, Type: taskType}, nil
}

func (s *stubQueue) InspectQueue(context.Context) (QueueStats, error) {
	return QueueStats{Queue: jobs.QueueDefault, Pending: 2, Retry: 1}, nil
}

func (s *stubQueue) Close() error {
	s.closed = true
	return nil
}

func execute(t *testing.T, rt Runtime, args ...string) (string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	rt.Stdout = stdout
	rt.Stderr = io.Discard
	root := NewRootCommand(rt)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestGraphJSONFromFigures(t *testing.T) {
	out, err := execute(t, Runtime{}, "graph", "--revenue", "100", "--net-income", "20",
		"--operating-cash-flow", "30", "--investing-cash-flow", "-10", "--financing-cash-flow", "5")
	require.NoError(t, err)

	var doc GraphOutput
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, flowgraph.TemplateFull, doc.Template)
	assert.Len(t, doc.Graph.Nodes, 12)
	assert.Len(t, doc.Graph.Edges, 11)
	assert.Len(t, doc.Scene.Links, 11)
	assert.Equal(t, 960.0, doc.Scene.Viewport.Width)
}

func TestGraphCSVReplaysToggles(t *testing.T) {
	out, err := execute(t, Runtime{}, "graph", "--revenue", "100", "--net-income", "20", "--format", "csv", "--toggle", "6")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Source", "Target", "Value"}, records[0])
	assert.Len(t, records, 11, "header plus ten edges once net income is collapsed")
}

func TestGraphSVGForTicker(t *testing.T) {
	reports := &stubReports{}
	rt := Runtime{Reports: func(context.Context) (ReportSource, error) { return reports, nil }}

	out, err := execute(t, rt, "graph", "--ticker", "acme", "--template", "simplified", "--format", "svg")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME"}, reports.asked)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, "ACME financial flow")
	assert.Equal(t, 9, strings.Count(out, `class="tm-link"`))
}

func TestGraphRejectsBadInput(t *testing.T) {
	_, err := execute(t, Runtime{}, "graph", "--format", "png")
	assert.ErrorContains(t, err, "unknown format")

	_, err = execute(t, Runtime{}, "graph", "--template", "radial")
	assert.Error(t, err)

	_, err = execute(t, Runtime{}, "graph", "--toggle", "99")
	assert.Error(t, err)

	_, err = execute(t, Runtime{}, "graph", "--ticker", "ACME", "--revenue", "5")
	assert.ErrorContains(t, err, "cannot be combined")

	rt := Runtime{Reports: func(context.Context) (ReportSource, error) { return &stubReports{}, nil }}
	_, err = execute(t, rt, "graph", "--ticker", "NOPE")
	assert.ErrorIs(t, err, financials.ErrTickerNotFound)
}

type stubRefresher struct{ calls int }

func (s *stubRefresher) Refresh(context.Context) (int, error) {
	s.calls++
	return 3, nil
}

type stubBumper struct{ calls int }

func (s *stubBumper) Bump(context.Context) (int64, error) {
	s.calls++
	return 2, nil
}

func TestTickersRefreshRunsJob(t *testing.T) {
	refresher, bumper := &stubRefresher{}, &stubBumper{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := Runtime{Refresher: func(context.Context) (*jobs.TickersRefreshJob, error) {
		return jobs.NewTickersRefreshJob(refresher, bumper, logger, jobmetrics.NewMetrics(prometheus.NewRegistry())), nil
	}}

	out, err := execute(t, rt, "tickers", "refresh")
	require.NoError(t, err)
	assert.Equal(t, "ticker directory refreshed\n", out)
	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, 1, bumper.calls)
}

func TestJobsTrigger(t *testing.T) {
	queue := &stubQueue{}
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	rt := Runtime{
		Jobs: func(context.Context) (JobsQueue, error) { return queue, nil },
		Now:  func() time.Time { return now },
	}

	out, err := execute(t, rt, "jobs", "trigger", jobs.TaskFinancialsWarmup)
	require.NoError(t, err)
	assert.Equal(t, []string{jobs.TaskFinancialsWarmup}, queue.triggered)
	assert.Equal(t, now, queue.day)
	assert.True(t, queue.closed)
	assert.Contains(t, out, "enqueued financials:warmup id="+jobs.TaskID(jobs.TaskFinancialsWarmup, now))
}

func TestJobsTriggerDuplicateAndMissingArg(t *testing.T) {
	queue := &stubQueue{err: asynq.ErrTaskIDConflict}
	rt := Runtime{Jobs: func(context.Context) (JobsQueue, error) { return queue, nil }}

	out, err := execute(t, rt, "jobs", "trigger", jobs.TaskTickersRefresh)
	require.NoError(t, err)
	assert.Equal(t, "tickers:refresh already queued for today\n", out)

	_, err = execute(t, rt, "jobs", "trigger")
	assert.Error(t, err)

	queue.err = errors.New("redis down")
	_, err = execute(t, rt, "jobs", "trigger", jobs.TaskTickersRefresh)
	assert.ErrorContains(t, err, "redis down")
}

func TestJobsInspect(t *testing.T) {
	rt := Runtime{Jobs: func(context.Context) (JobsQueue, error) { return &stubQueue{}, nil }}
	out, err := execute(t, rt, "jobs", "inspect")
	require.NoError(t, err)
	assert.Equal(t, "queue=default pending=2 active=0 scheduled=0 retry=1\n", out)
}
