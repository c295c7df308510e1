package dashboardhttp

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"github.com/tracemoney/tracemoney/internal/financials"
	"github.com/tracemoney/tracemoney/internal/flowgraph"
	"github.com/tracemoney/tracemoney/internal/flowgraph/layout"
	"github.com/tracemoney/tracemoney/internal/flowgraph/svg"
	"github.com/tracemoney/tracemoney/internal/insights"
	"github.com/tracemoney/tracemoney/internal/tickers"
	"github.com/tracemoney/tracemoney/internal/view"
)

var (
	companyViewport = layout.Viewport{Width: 960, Height: 540}
	compareViewport = layout.Viewport{Width: 640, Height: 420}
)

type diagram struct {
	Sankey    template.HTML
	Collapsed []string
	ResetHref string
}

type edgeRow struct {
	Source string
	Target string
	Value  float64
}

type trendChart struct {
	Title string
	SVG   template.HTML
}

type companyPage struct {
	Ticker   string
	Query    string
	Results  []tickers.Company
	Error    string
	Report   *financials.Report
	Diagram  diagram
	Edges    []edgeRow
	Insights insights.ViewModel
	Trends   []trendChart
	Peers    []string
	CSVHref  string
	PDFHref  string
}

type compareSide struct {
	Ticker      string
	Name        string
	HealthScore int
	Diagram     diagram
}

type comparePage struct {
	Left  compareSide
	Right compareSide
	Sides []compareSide
	Bars  template.HTML
	Error string
}

func (h *Handler) fillCompanyPage(page *companyPage, report financials.Report, state layout.State) error {
	page.Report = &report
	page.Ticker = report.Ticker

	base := url.Values{"ticker": {report.Ticker}}
	reset := ""
	if !state.Empty() {
		reset = link("/", base)
	}
	graph := h.builder.Build(report.Snapshot())
	d, renderer, err := buildDiagram(graph, companyViewport, state, report.Ticker+" money flow", func(next layout.State) string {
		return link("/", withState(base, keyCollapsed, keyHidden, next))
	}, reset)
	if err != nil {
		return err
	}
	page.Diagram = d
	for _, e := range renderer.ActiveEdges() {
		page.Edges = append(page.Edges, edgeRow{Source: graph.Label(e.Source), Target: graph.Label(e.Target), Value: e.Value})
	}

	page.Insights, err = insights.Build(report)
	if err != nil {
		return fmt.Errorf("build insights: %w", err)
	}
	charts := []struct {
		title string
		trend []financials.TrendPoint
	}{
		{"Revenue", report.Trends.Revenue},
		{"Net income", report.Trends.NetIncome},
		{"Operating cash flow", report.Trends.OperatingCashFlow},
		{"Free cash flow", report.Trends.FreeCashFlow},
	}
	for _, c := range charts {
		html, ok, err := renderLine(c.trend, c.title)
		if err != nil {
			return fmt.Errorf("render %s trend: %w", c.title, err)
		}
		if ok {
			page.Trends = append(page.Trends, trendChart{Title: c.title, SVG: html})
		}
	}

	if h.peers != nil {
		page.Peers = h.peers.Peers(report.Ticker)
	}
	exportQuery := withState(url.Values{}, keyCollapsed, keyHidden, renderer.State())
	escaped := url.PathEscape(report.Ticker)
	page.CSVHref = link("/company/"+escaped+"/export.csv", exportQuery)
	page.PDFHref = link("/company/"+escaped+"/pdf", exportQuery)
	return nil
}

func (h *Handler) fillComparePage(page *comparePage, a, b financials.Report, stateA, stateB layout.State) error {
	base := url.Values{"a": {a.Ticker}, "b": {b.Ticker}}

	// each side links with its own next state and the other side's current one
	side := func(report financials.Report, state layout.State, others url.Values, collapsedKey, hiddenKey string) (compareSide, error) {
		resetHref := ""
		if !state.Empty() {
			resetHref = link("/compare", others)
		}
		// one renderer per diagram
		d, _, err := buildDiagram(h.builder.BuildSimplified(report.Snapshot()), compareViewport, state, report.Ticker+" money flow", func(next layout.State) string {
			return link("/compare", withState(others, collapsedKey, hiddenKey, next))
		}, resetHref)
		if err != nil {
			return compareSide{}, err
		}
		return compareSide{Ticker: report.Ticker, Name: report.Name, HealthScore: report.HealthScore, Diagram: d}, nil
	}

	var err error
	if page.Left, err = side(a, stateA, withState(base, keyCollapsedB, keyHiddenB, stateB), keyCollapsedA, keyHiddenA); err != nil {
		return err
	}
	if page.Right, err = side(b, stateB, withState(base, keyCollapsedA, keyHiddenA, stateA), keyCollapsedB, keyHiddenB); err != nil {
		return err
	}
	page.Sides = []compareSide{page.Left, page.Right}

	breakdownA := h.builder.Breakdown(a.Snapshot())
	breakdownB := h.builder.Breakdown(b.Snapshot())
	page.Bars, err = svg.Bars(svg.DefaultWidth, 280,
		[]float64{breakdownA.Revenue, breakdownA.NetIncome, breakdownA.OperatingCashFlow, breakdownA.FreeCashFlow},
		[]float64{breakdownB.Revenue, breakdownB.NetIncome, breakdownB.OperatingCashFlow, breakdownB.FreeCashFlow},
		[]string{"Revenue", "Net Income", "Operating CF", "Free CF"},
		svg.BarOpts{
			Title:        a.Ticker + " vs " + b.Ticker,
			Description:  "Latest reported figures side by side",
			SeriesALabel: a.Ticker,
			SeriesBLabel: b.Ticker,
		})
	return err
}

// buildDiagram restores the renderer to state and draws it. Each node links
// to the state a click on it produces.
func buildDiagram(g flowgraph.Graph, vp layout.Viewport, state layout.State, title string, href func(layout.State) string, reset string) (diagram, *layout.Renderer, error) {
	renderer := layout.NewRenderer(layout.DefaultOptions())
	scene, err := renderer.Restore(&g, vp, state)
	if err != nil {
		return diagram{}, nil, err
	}
	current := renderer.State()
	sankey, err := svg.Sankey(scene, svg.SankeyOpts{
		Title:       title,
		NodeHref:    func(id int) string { return href(current.Toggle(id)) },
		FormatValue: view.Compact,
	})
	if err != nil {
		return diagram{}, nil, err
	}
	d := diagram{Sankey: sankey, ResetHref: reset}
	for _, n := range g.Nodes {
		if renderer.Collapsed(n.ID) {
			d.Collapsed = append(d.Collapsed, n.Label)
		}
	}
	return d, renderer, nil
}

// withState copies base and adds the state lists under the given keys. Empty
// lists are left out.
func withState(base url.Values, collapsedKey, hiddenKey string, s layout.State) url.Values {
	q := make(url.Values, len(base)+2)
	for k, vs := range base {
		q[k] = append([]string(nil), vs...)
	}
	if len(s.Collapsed) > 0 {
		q.Set(collapsedKey, joinIDs(s.Collapsed))
	}
	if len(s.Hidden) > 0 {
		q.Set(hiddenKey, joinIDs(s.Hidden))
	}
	return q
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func link(path string, q url.Values) string {
	if encoded := q.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}
