package flowgraph

import (
	"fmt"
	"strings"
)

// Template selects which node/edge layout the builder emits.
type Template string

const (
	// TemplateFull is the 12 node breakdown ending in Net Cash Flow.
	TemplateFull Template = "full"
	// TemplateSimplified is the 10 node breakdown used for side by side
	// comparisons.
	TemplateSimplified Template = "simplified"
)

// ParseTemplate resolves a template name; the empty string means full.
func ParseTemplate(name string) (Template, error) {
	switch Template(strings.ToLower(strings.TrimSpace(name))) {
	case "", TemplateFull:
		return TemplateFull, nil
	case TemplateSimplified:
		return TemplateSimplified, nil
	default:
		return "", fmt.Errorf("flowgraph: unknown template %q", name)
	}
}

// Node indices of the full template.
const (
	NodeRevenue = iota
	NodeCOGS
	NodeGrossProfit
	NodeOperatingExpenses
	NodeOperatingIncome
	NodeTaxes
	NodeNetIncome
	NodeOperatingCashFlow
	NodeCapEx
	NodeFreeCashFlow
	NodeFinancingCashFlow
	NodeNetCashFlow
)

var fullNodes = []Node{
	{ID: NodeRevenue, Label: "Revenue", Color: "#4ade80"},
	{ID: NodeCOGS, Label: "COGS", Color: "#22c55e"},
	{ID: NodeGrossProfit, Label: "Gross Profit", Color: "#16a34a"},
	{ID: NodeOperatingExpenses, Label: "Operating Expenses", Color: "#15803d"},
	{ID: NodeOperatingIncome, Label: "Operating Income", Color: "#0f766e"},
	{ID: NodeTaxes, Label: "Taxes", Color: "#e11d48"},
	{ID: NodeNetIncome, Label: "Net Income", Color: "#2563eb"},
	{ID: NodeOperatingCashFlow, Label: "Operating Cash Flow", Color: "#06b6d4"},
	{ID: NodeCapEx, Label: "CapEx", Color: "#dc2626"},
	{ID: NodeFreeCashFlow, Label: "Free Cash Flow", Color: "#9333ea"},
	{ID: NodeFinancingCashFlow, Label: "Financing Cash Flow", Color: "#3b82f6"},
	{ID: NodeNetCashFlow, Label: "Net Cash Flow", Color: "#c084fc"},
}

type edgeSpec struct {
	source, target int
	value          func(Breakdown) float64
}

var fullEdges = []edgeSpec{
	{NodeRevenue, NodeCOGS, func(b Breakdown) float64 { return b.COGS }},
	{NodeRevenue, NodeGrossProfit, func(b Breakdown) float64 { return b.GrossProfit }},
	{NodeGrossProfit, NodeOperatingExpenses, func(b Breakdown) float64 { return b.OperatingExpenses }},
	{NodeGrossProfit, NodeOperatingIncome, func(b Breakdown) float64 { return b.OperatingIncome }},
	{NodeOperatingIncome, NodeTaxes, func(b Breakdown) float64 { return b.Taxes }},
	{NodeOperatingIncome, NodeNetIncome, func(b Breakdown) float64 { return b.NetIncome }},
	{NodeNetIncome, NodeOperatingCashFlow, func(b Breakdown) float64 { return b.OperatingCashFlow }},
	{NodeOperatingCashFlow, NodeCapEx, func(b Breakdown) float64 { return b.CapEx }},
	{NodeOperatingCashFlow, NodeFreeCashFlow, func(b Breakdown) float64 { return b.FreeCashFlow }},
	{NodeFinancingCashFlow, NodeNetCashFlow, func(b Breakdown) float64 { return b.NetCashFlowIn }},
	{NodeFreeCashFlow, NodeNetCashFlow, func(b Breakdown) float64 { return b.NetCashFlowFromFCF }},
}

const (
	simplifiedNodeCount = 10
	simplifiedEdgeCount = 9
)

// Builder turns snapshots into flow graphs using a derivation strategy.
type Builder struct {
	derive DeriveFunc
}

// Option customises a Builder.
type Option func(*Builder)

// WithDerive replaces the placeholder derivation strategy.
func WithDerive(fn DeriveFunc) Option {
	return func(b *Builder) {
		if fn != nil {
			b.derive = fn
		}
	}
}

// NewBuilder constructs a Builder; without options it uses PlaceholderRatios.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{derive: PlaceholderRatios}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Breakdown exposes the derived amounts for a snapshot.
func (b *Builder) Breakdown(s Snapshot) Breakdown {
	return b.strategy()(s.Sanitized())
}

// Build returns the full 12 node graph.
func (b *Builder) Build(s Snapshot) Graph {
	return b.BuildTemplate(s, TemplateFull)
}

// BuildSimplified returns the 10 node graph used in comparisons.
func (b *Builder) BuildSimplified(s Snapshot) Graph {
	return b.BuildTemplate(s, TemplateSimplified)
}

// BuildTemplate returns the graph for the requested template. Unknown
// templates fall back to the full breakdown.
func (b *Builder) BuildTemplate(s Snapshot, tpl Template) Graph {
	nodes, edges := fullNodes, fullEdges
	if tpl == TemplateSimplified {
		nodes, edges = fullNodes[:simplifiedNodeCount], fullEdges[:simplifiedEdgeCount]
	}
	breakdown := b.Breakdown(s)

	g := Graph{
		Nodes: make([]Node, len(nodes)),
		Edges: make([]Edge, 0, len(edges)),
	}
	copy(g.Nodes, nodes)
	for _, spec := range edges {
		g.Edges = append(g.Edges, Edge{
			Source: spec.source,
			Target: spec.target,
			Value:  spec.value(breakdown),
		})
	}
	return g
}

func (b *Builder) strategy() DeriveFunc {
	if b == nil || b.derive == nil {
		return PlaceholderRatios
	}
	return b.derive
}

var defaultBuilder = NewBuilder()

// Build derives the full graph with the placeholder ratios.
func Build(s Snapshot) Graph {
	return defaultBuilder.Build(s)
}

// BuildSimplified derives the simplified graph with the placeholder ratios.
func BuildSimplified(s Snapshot) Graph {
	return defaultBuilder.BuildSimplified(s)
}
