package layout

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tracemoney/tracemoney/internal/flowgraph"
)

var (
	// ErrUnknownNode is returned when toggling a node the graph does not have.
	ErrUnknownNode = errors.New("layout: unknown node")
	// ErrInvalidState is returned by Restore when a hidden source is not
	// collapsed.
	ErrInvalidState = errors.New("layout: hidden node not collapsed")
)

// State is the interactive state of a Renderer. Hidden lists the nodes whose
// outgoing edges are currently left out; it is always a subset of Collapsed.
// Both are sorted and bounded by the node count.
type State struct {
	Collapsed []int `json:"collapsed"`
	Hidden    []int `json:"hidden"`
}

// Toggle returns the state a Renderer in s reaches by toggling nodeID.
func (s State) Toggle(nodeID int) State {
	if slices.Contains(s.Collapsed, nodeID) {
		collapsed := slices.DeleteFunc(slices.Clone(s.Collapsed), func(id int) bool { return id == nodeID })
		return State{Collapsed: collapsed, Hidden: []int{}}
	}
	collapsed := append(slices.Clone(s.Collapsed), nodeID)
	hidden := append(slices.Clone(s.Hidden), nodeID)
	slices.Sort(collapsed)
	slices.Sort(hidden)
	return State{Collapsed: collapsed, Hidden: hidden}
}

// Empty reports whether no node is collapsed.
func (s State) Empty() bool {
	return len(s.Collapsed) == 0
}

// Renderer owns the interactive state of a single diagram. It is not safe
// for concurrent use; each displayed diagram gets its own Renderer.
type Renderer struct {
	opts      Options
	graph     *flowgraph.Graph
	viewport  Viewport
	active    []flowgraph.Edge
	collapsed map[int]bool
	hidden    map[int]bool
}

// NewRenderer constructs a Renderer. Zero options select DefaultOptions.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{
		opts:      opts.withDefaults(),
		collapsed: make(map[int]bool),
		hidden:    make(map[int]bool),
	}
}

// Render lays out g in the viewport. Nodes collapsed by earlier toggles keep
// their outgoing edges hidden. A nil graph clears the diagram and yields an
// empty scene.
func (r *Renderer) Render(g *flowgraph.Graph, vp Viewport) (Scene, error) {
	r.viewport = vp
	if g == nil {
		r.graph = nil
		r.active = nil
		return emptyScene(vp), nil
	}
	clone := g.Clone()
	r.graph = &clone
	r.hidden = make(map[int]bool, len(r.collapsed))
	for id := range r.collapsed {
		r.hidden[id] = true
	}
	r.filterActive()
	return r.layout()
}

// Restore renders g in the state s, as if the toggles that produced s had
// been replayed.
func (r *Renderer) Restore(g *flowgraph.Graph, vp Viewport, s State) (Scene, error) {
	r.viewport = vp
	if g == nil {
		r.graph = nil
		r.active = nil
		return emptyScene(vp), nil
	}
	collapsed := make(map[int]bool, len(s.Collapsed))
	for _, id := range s.Collapsed {
		if id < 0 || id >= len(g.Nodes) {
			return Scene{}, fmt.Errorf("%w: %d", ErrUnknownNode, id)
		}
		collapsed[id] = true
	}
	hidden := make(map[int]bool, len(s.Hidden))
	for _, id := range s.Hidden {
		if id < 0 || id >= len(g.Nodes) {
			return Scene{}, fmt.Errorf("%w: %d", ErrUnknownNode, id)
		}
		if !collapsed[id] {
			return Scene{}, fmt.Errorf("%w: %d", ErrInvalidState, id)
		}
		hidden[id] = true
	}
	clone := g.Clone()
	r.graph = &clone
	r.collapsed = collapsed
	r.hidden = hidden
	r.filterActive()
	return r.layout()
}

// State reports the collapsed and hidden nodes.
func (r *Renderer) State() State {
	s := State{Collapsed: make([]int, 0, len(r.collapsed)), Hidden: make([]int, 0, len(r.hidden))}
	for id := range r.collapsed {
		s.Collapsed = append(s.Collapsed, id)
	}
	for id := range r.hidden {
		s.Hidden = append(s.Hidden, id)
	}
	slices.Sort(s.Collapsed)
	slices.Sort(s.Hidden)
	return s
}

func (r *Renderer) filterActive() {
	r.active = make([]flowgraph.Edge, 0, len(r.graph.Edges))
	for _, e := range r.graph.Edges {
		if r.hidden[e.Source] {
			continue
		}
		r.active = append(r.active, e)
	}
}

// Toggle flips the node between expanded and collapsed and relays out the
// diagram. Collapsing hides the node's outgoing edges. Expanding restores
// the full edge set of the graph; other nodes keep their collapsed flag.
func (r *Renderer) Toggle(nodeID int) (Scene, error) {
	if r.graph == nil {
		return emptyScene(r.viewport), nil
	}
	if nodeID < 0 || nodeID >= len(r.graph.Nodes) {
		return Scene{}, fmt.Errorf("%w: %d", ErrUnknownNode, nodeID)
	}
	if r.collapsed[nodeID] {
		delete(r.collapsed, nodeID)
		clear(r.hidden)
		r.active = append(r.active[:0:0], r.graph.Edges...)
		return r.layout()
	}
	r.collapsed[nodeID] = true
	r.hidden[nodeID] = true
	kept := make([]flowgraph.Edge, 0, len(r.active))
	for _, e := range r.active {
		if e.Source != nodeID {
			kept = append(kept, e)
		}
	}
	r.active = kept
	return r.layout()
}

// Relayout recomputes the scene for the current active edges.
func (r *Renderer) Relayout() (Scene, error) {
	if r.graph == nil {
		return emptyScene(r.viewport), nil
	}
	return r.layout()
}

// Collapsed reports whether the node is currently flagged as collapsed.
func (r *Renderer) Collapsed(nodeID int) bool {
	return r.collapsed[nodeID]
}

// ActiveEdges returns a copy of the edges currently drawn.
func (r *Renderer) ActiveEdges() []flowgraph.Edge {
	out := make([]flowgraph.Edge, len(r.active))
	copy(out, r.active)
	return out
}

// Reset forgets every collapsed flag.
func (r *Renderer) Reset() {
	r.collapsed = make(map[int]bool)
	r.hidden = make(map[int]bool)
	if r.graph != nil {
		r.active = append(r.active[:0:0], r.graph.Edges...)
	}
}

func emptyScene(vp Viewport) Scene {
	return Scene{Viewport: vp, Nodes: []Node{}, Links: []Link{}}
}

func (r *Renderer) layout() (Scene, error) {
	return Compute(*r.graph, r.active, r.viewport, r.collapsed, r.opts)
}

// Replay renders g and applies the toggles in order, as a browser session
// clicking the same nodes would. Unknown node IDs abort the replay.
func Replay(g *flowgraph.Graph, vp Viewport, toggles []int, opts Options) (Scene, *Renderer, error) {
	r := NewRenderer(opts)
	scene, err := r.Render(g, vp)
	if err != nil {
		return Scene{}, nil, err
	}
	for _, id := range toggles {
		scene, err = r.Toggle(id)
		if err != nil {
			return Scene{}, nil, err
		}
	}
	return scene, r, nil
}
