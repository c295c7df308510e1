package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tracemoney/tracemoney/internal/flowgraph"
	"github.com/tracemoney/tracemoney/internal/flowgraph/layout"
	"github.com/tracemoney/tracemoney/internal/flowgraph/svg"
	"github.com/tracemoney/tracemoney/internal/tickers"
)

// Output formats of the graph command.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatSVG  = "svg"
)

// GraphOptions defines available flags for the graph command.
type GraphOptions struct {
	Template string
	Format   string
	Toggles  []int
	Ticker   string
	Snapshot flowgraph.Snapshot
	Width    float64
	Height   float64
}

// GraphOutput is the JSON document printed by graph --format json.
type GraphOutput struct {
	Ticker   string             `json:"ticker,omitempty"`
	Template flowgraph.Template `json:"template"`
	Graph    flowgraph.Graph    `json:"graph"`
	Scene    layout.Scene       `json:"scene"`
}

func newGraphCommand(rt Runtime) *cobra.Command {
	var opts GraphOptions
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build a flow graph and print it as JSON, CSV or SVG",
		Example: `  tmctl graph --revenue 383285 --net-income 96995 --operating-cash-flow 110543 \
    --investing-cash-flow -7077 --financing-cash-flow -108488 --format svg
  tmctl graph --ticker AAPL --template simplified --toggle 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			figures := []string{"revenue", "net-income", "operating-cash-flow", "investing-cash-flow", "financing-cash-flow"}
			if opts.Ticker != "" {
				for _, name := range figures {
					if cmd.Flags().Changed(name) {
						return fmt.Errorf("graph: --%s cannot be combined with --ticker", name)
					}
				}
			}
			var reports ReportSource
			if opts.Ticker != "" {
				if rt.Reports == nil {
					return errors.New("graph: report source not configured")
				}
				var err error
				if reports, err = rt.Reports(cmd.Context()); err != nil {
					return err
				}
			}
			return RunGraph(cmd.Context(), cmd.OutOrStdout(), opts, reports)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.Template, "template", string(flowgraph.TemplateFull), "graph template: full or simplified")
	flags.StringVar(&opts.Format, "format", FormatJSON, "output format: json, csv or svg")
	flags.IntSliceVar(&opts.Toggles, "toggle", nil, "node ID to collapse or expand, applied in order; repeatable")
	flags.StringVar(&opts.Ticker, "ticker", "", "load the latest figures of this ticker from SEC EDGAR")
	flags.Float64Var(&opts.Snapshot.Revenue, "revenue", 0, "total revenue")
	flags.Float64Var(&opts.Snapshot.NetIncome, "net-income", 0, "net income")
	flags.Float64Var(&opts.Snapshot.OperatingCashFlow, "operating-cash-flow", 0, "operating cash flow")
	flags.Float64Var(&opts.Snapshot.InvestingCashFlow, "investing-cash-flow", 0, "investing cash flow, usually negative")
	flags.Float64Var(&opts.Snapshot.FinancingCashFlow, "financing-cash-flow", 0, "financing cash flow")
	flags.Float64Var(&opts.Width, "width", layout.DefaultViewport.Width, "viewport width in pixels")
	flags.Float64Var(&opts.Height, "height", layout.DefaultViewport.Height, "viewport height in pixels")
	return cmd
}

// RunGraph builds the graph described by opts, replays the toggles and
// writes the result to out. reports is only used when opts.Ticker is set.
func RunGraph(ctx context.Context, out io.Writer, opts GraphOptions, reports ReportSource) error {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatCSV, FormatSVG:
	default:
		return fmt.Errorf("graph: unknown format %q (expected json, csv or svg)", opts.Format)
	}
	tpl, err := flowgraph.ParseTemplate(opts.Template)
	if err != nil {
		return err
	}

	snapshot := opts.Snapshot
	ticker := tickers.NormalizeTicker(opts.Ticker)
	if ticker != "" {
		if reports == nil {
			return errors.New("graph: report source not configured")
		}
		report, err := reports.Report(ctx, ticker)
		if err != nil {
			return fmt.Errorf("graph: load %s: %w", ticker, err)
		}
		snapshot = report.Snapshot()
	}

	g := flowgraph.NewBuilder().BuildTemplate(snapshot, tpl)
	scene, renderer, err := layout.Replay(&g, layout.Viewport{Width: opts.Width, Height: opts.Height}, opts.Toggles, layout.Options{})
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}

	switch format {
	case FormatCSV:
		return flowgraph.WriteCSV(out, g, renderer.ActiveEdges())
	case FormatSVG:
		title := "Financial flow"
		if ticker != "" {
			title = ticker + " financial flow"
		}
		html, err := svg.Sankey(scene, svg.SankeyOpts{Title: title})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, html)
		return err
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(GraphOutput{Ticker: ticker, Template: tpl, Graph: g, Scene: scene})
	}
}
