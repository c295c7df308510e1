// Package layout assigns Sankey geometry to a flow graph and keeps the
// per-diagram collapse state.
package layout

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tracemoney/tracemoney/internal/flowgraph"
)

// TransitionDuration is how long a relayout animates on the rendering surface.
const TransitionDuration = 600 * time.Millisecond

const (
	// NegativeColor is applied to links carrying a negative value.
	NegativeColor = "rgba(255,0,0,0.4)"
	// PositiveColor is applied to every other link.
	PositiveColor = "rgba(0,255,135,0.4)"
)

// Viewport is the drawing area in pixels.
type Viewport struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// DefaultViewport is used when a caller passes a non-positive size.
var DefaultViewport = Viewport{Width: 960, Height: 540}

func (v Viewport) normalized() Viewport {
	if v.Width <= 0 || math.IsNaN(v.Width) || math.IsInf(v.Width, 0) {
		v.Width = DefaultViewport.Width
	}
	if v.Height <= 0 || math.IsNaN(v.Height) || math.IsInf(v.Height, 0) {
		v.Height = DefaultViewport.Height
	}
	return v
}

// Options tune the node geometry.
type Options struct {
	NodeWidth   float64
	NodePadding float64
	Margin      float64
}

// DefaultOptions mirrors the dashboard diagram: 20px nodes, 30px padding and
// a 25px margin on every side.
func DefaultOptions() Options {
	return Options{NodeWidth: 20, NodePadding: 30, Margin: 25}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o == (Options{}) {
		return d
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodePadding < 0 {
		o.NodePadding = d.NodePadding
	}
	if o.Margin < 0 {
		o.Margin = d.Margin
	}
	return o
}

// Node is a laid out graph node. Boxes are in viewport pixels.
type Node struct {
	ID        int     `json:"id"`
	Label     string  `json:"label"`
	Color     string  `json:"color"`
	Column    int     `json:"column"`
	Value     float64 `json:"value"`
	X0        float64 `json:"x0"`
	X1        float64 `json:"x1"`
	Y0        float64 `json:"y0"`
	Y1        float64 `json:"y1"`
	Collapsed bool    `json:"collapsed"`
}

// Height returns the vertical extent of the node box.
func (n Node) Height() float64 { return n.Y1 - n.Y0 }

// Link is a drawn edge between two laid out nodes.
type Link struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
	Width  float64 `json:"width"`
	X0     float64 `json:"x0"`
	Y0     float64 `json:"y0"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	Path   string  `json:"path"`
	Color  string  `json:"color"`
}

// Scene is everything a rendering surface needs to draw one diagram.
type Scene struct {
	Viewport     Viewport `json:"viewport"`
	Nodes        []Node   `json:"nodes"`
	Links        []Link   `json:"links"`
	TransitionMS int64    `json:"transition_ms"`
}

// Empty reports whether there is nothing to draw.
func (s Scene) Empty() bool {
	return len(s.Nodes) == 0 && len(s.Links) == 0
}

// Node returns the laid out node with the given ID.
func (s Scene) Node(id int) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// EdgeColor picks the link colour from the sign of its value.
func EdgeColor(value float64) string {
	if value < 0 {
		return NegativeColor
	}
	return PositiveColor
}

// Compute lays out the graph nodes over the active edge set. It is
// deterministic: the same inputs always produce the same scene.
func Compute(g flowgraph.Graph, active []flowgraph.Edge, vp Viewport, collapsed map[int]bool, opts Options) (Scene, error) {
	if err := (flowgraph.Graph{Nodes: g.Nodes, Edges: active}).Validate(); err != nil {
		return Scene{}, fmt.Errorf("layout: %w", err)
	}
	vp = vp.normalized()
	opts = opts.withDefaults()

	scene := Scene{
		Viewport:     vp,
		Nodes:        make([]Node, len(g.Nodes)),
		Links:        make([]Link, 0, len(active)),
		TransitionMS: TransitionDuration.Milliseconds(),
	}
	if len(g.Nodes) == 0 {
		return scene, nil
	}

	columns := assignColumns(len(g.Nodes), active)
	values := nodeValues(len(g.Nodes), active)

	extentW := vp.Width - 2*opts.Margin
	extentH := vp.Height - 2*opts.Margin
	if extentW < opts.NodeWidth {
		extentW = opts.NodeWidth
	}
	if extentH < 0 {
		extentH = 0
	}

	maxColumn := 0
	for _, c := range columns {
		if c > maxColumn {
			maxColumn = c
		}
	}
	byColumn := make([][]int, maxColumn+1)
	for id, c := range columns {
		byColumn[c] = append(byColumn[c], id)
	}

	padding := columnPadding(byColumn, extentH, opts.NodePadding)
	ky := valueScale(byColumn, values, extentH, padding)

	for id, n := range g.Nodes {
		x0 := opts.Margin
		if maxColumn > 0 {
			x0 += float64(columns[id]) * (extentW - opts.NodeWidth) / float64(maxColumn)
		}
		scene.Nodes[id] = Node{
			ID:        n.ID,
			Label:     n.Label,
			Color:     n.Color,
			Column:    columns[id],
			Value:     values[id],
			X0:        x0,
			X1:        x0 + opts.NodeWidth,
			Collapsed: collapsed[n.ID],
		}
	}

	for _, ids := range byColumn {
		stack(scene.Nodes, ids, values, ky, padding, extentH, opts.Margin)
	}

	for _, e := range active {
		src, dst := scene.Nodes[e.Source], scene.Nodes[e.Target]
		link := Link{
			Source: e.Source,
			Target: e.Target,
			Value:  e.Value,
			Width:  math.Max(1, math.Abs(e.Value)*ky),
			X0:     src.X1,
			Y0:     (src.Y0 + src.Y1) / 2,
			X1:     dst.X0,
			Y1:     (dst.Y0 + dst.Y1) / 2,
			Color:  EdgeColor(e.Value),
		}
		link.Path = linkPath(link)
		scene.Links = append(scene.Links, link)
	}
	return scene, nil
}

// assignColumns places every node at the length of the longest path reaching
// it from a root. The edge set must be acyclic.
func assignColumns(n int, edges []flowgraph.Edge) []int {
	indegree := make([]int, n)
	adj := make([][]int, n)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
		indegree[e.Target]++
	}
	columns := make([]int, n)
	queue := make([]int, 0, n)
	for id := 0; id < n; id++ {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if columns[u]+1 > columns[v] {
				columns[v] = columns[u] + 1
			}
			indegree[v]--
			if indegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	return columns
}

func nodeValues(n int, edges []flowgraph.Edge) []float64 {
	in := make([]float64, n)
	out := make([]float64, n)
	for _, e := range edges {
		v := math.Abs(e.Value)
		out[e.Source] += v
		in[e.Target] += v
	}
	values := make([]float64, n)
	for id := range values {
		values[id] = math.Max(in[id], out[id])
	}
	return values
}

// columnPadding shrinks the gap so the busiest column keeps at least half of
// the height for its nodes.
func columnPadding(byColumn [][]int, extentH, padding float64) float64 {
	busiest := 0
	for _, ids := range byColumn {
		if len(ids) > busiest {
			busiest = len(ids)
		}
	}
	if busiest < 2 {
		return padding
	}
	limit := extentH / 2 / float64(busiest-1)
	if padding > limit {
		return limit
	}
	return padding
}

func valueScale(byColumn [][]int, values []float64, extentH, padding float64) float64 {
	ky := math.Inf(1)
	for _, ids := range byColumn {
		total := 0.0
		for _, id := range ids {
			total += values[id]
		}
		if total <= 0 {
			continue
		}
		available := extentH - float64(len(ids)-1)*padding
		if k := available / total; k < ky {
			ky = k
		}
	}
	if math.IsInf(ky, 1) || ky < 0 {
		return 0
	}
	return ky
}

// stack positions one column top to bottom in ID order, spreading leftover
// height evenly between and around the nodes.
func stack(nodes []Node, ids []int, values []float64, ky, padding, extentH, margin float64) {
	sort.Ints(ids)
	used := float64(len(ids)-1) * padding
	for _, id := range ids {
		used += values[id] * ky
	}
	gap := math.Max(0, extentH-used) / float64(len(ids)+1)
	y := margin + gap
	for _, id := range ids {
		nodes[id].Y0 = y
		nodes[id].Y1 = y + values[id]*ky
		y = nodes[id].Y1 + padding + gap
	}
}

func linkPath(l Link) string {
	mid := (l.X0 + l.X1) / 2
	return fmt.Sprintf("M%.2f,%.2fC%.2f,%.2f %.2f,%.2f %.2f,%.2f", l.X0, l.Y0, mid, l.Y0, mid, l.Y1, l.X1, l.Y1)
}
