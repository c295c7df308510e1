// Package cli implements the tmctl operator commands.
package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracemoney/tracemoney/internal/financials"
	"github.com/tracemoney/tracemoney/jobs"
)

// ReportSource loads company reports.
type ReportSource interface {
	Report(ctx context.Context, ticker string) (financials.Report, error)
}

// Runtime supplies command dependencies. Factories run only inside the
// commands that need them, so graph with explicit figures works offline.
type Runtime struct {
	Stdout io.Writer
	Stderr io.Writer

	Reports   func(ctx context.Context) (ReportSource, error)
	Refresher func(ctx context.Context) (*jobs.TickersRefreshJob, error)
	Jobs      func(ctx context.Context) (JobsQueue, error)
	Now       func() time.Time
}

func (rt Runtime) stdout() io.Writer {
	if rt.Stdout != nil {
		return rt.Stdout
	}
	return os.Stdout
}

func (rt Runtime) stderr() io.Writer {
	if rt.Stderr != nil {
		return rt.Stderr
	}
	return os.Stderr
}

func (rt Runtime) now() time.Time {
	if rt.Now != nil {
		return rt.Now()
	}
	return time.Now().UTC()
}

// NewRootCommand assembles the tmctl command tree.
func NewRootCommand(rt Runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "tmctl",
		Short:         "TraceMoney operator tools",
		Long:          "tmctl builds flow graphs from the command line and manages the ticker directory and background jobs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(rt.stdout())
	root.SetErr(rt.stderr())
	root.AddCommand(
		newGraphCommand(rt),
		newTickersCommand(rt),
		newJobsCommand(rt),
	)
	return root
}
