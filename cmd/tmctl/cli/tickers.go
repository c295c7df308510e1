package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracemoney/tracemoney/jobs"
)

func newTickersCommand(rt Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickers",
		Short: "Manage the SEC ticker directory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Reload the directory from SEC EDGAR and invalidate cached reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.Refresher == nil {
				return errors.New("tickers refresh: not configured")
			}
			job, err := rt.Refresher(cmd.Context())
			if err != nil {
				return err
			}
			task, err := jobs.NewTickersRefreshTask(time.Time{})
			if err != nil {
				return err
			}
			if err := job.Handle(cmd.Context(), task); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ticker directory refreshed")
			return err
		},
	})
	return cmd
}
