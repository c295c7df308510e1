package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/tracemoney/tracemoney/internal/flowgraph/layout"
)

// Sankey draws a laid out scene. An empty scene draws nothing and is not an
// error.
func Sankey(scene layout.Scene, opts SankeyOpts) (template.HTML, error) {
	if scene.Empty() {
		return "", nil
	}
	width := int(math.Round(scene.Viewport.Width))
	height := int(math.Round(scene.Viewport.Height))
	if width <= 0 || height <= 0 {
		return "", errViewportTooSmall
	}
	format := opts.FormatValue
	if format == nil {
		format = formatTick
	}
	labelColor := fallback(opts.LabelColor, "#0f172a")
	labels := make(map[int]string, len(scene.Nodes))
	for _, n := range scene.Nodes {
		labels[n.ID] = n.Label
	}

	var b strings.Builder
	writeHeader(&b, width, height, opts.Title, opts.Description, "sankey", "Financial flow", "Money flowing from revenue to cash")
	fmt.Fprintf(&b, `<style>.tm-link,.tm-node{transition:all %dms ease-in-out}.tm-link:hover{stroke-opacity:.8}.tm-node.collapsed{stroke-dasharray:3,2}</style>`, scene.TransitionMS)

	b.WriteString(`<g class="tm-links" fill="none">`)
	for _, l := range scene.Links {
		fmt.Fprintf(&b, `<path class="tm-link" d="%s" stroke="%s" stroke-width="%.2f"><title>%s → %s: %s</title></path>`,
			l.Path, l.Color, l.Width,
			template.HTMLEscapeString(labels[l.Source]), template.HTMLEscapeString(labels[l.Target]),
			template.HTMLEscapeString(format(l.Value)))
	}
	b.WriteString("</g>")

	b.WriteString(`<g class="tm-nodes">`)
	for _, n := range scene.Nodes {
		class := "tm-node"
		if n.Collapsed {
			class += " collapsed"
		}
		label := template.HTMLEscapeString(n.Label)
		href := ""
		if opts.NodeHref != nil {
			href = opts.NodeHref(n.ID)
		}
		if href != "" {
			fmt.Fprintf(&b, `<a href="%s" aria-label="Toggle %s">`, template.HTMLEscapeString(href), label)
		}
		fmt.Fprintf(&b, `<rect class="%s" data-node="%d" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="#000"><title>%s</title></rect>`,
			class, n.ID, n.X0, n.Y0, n.X1-n.X0, math.Max(n.Height(), 1), n.Color, label)
		if href != "" {
			b.WriteString("</a>")
		}

		x, anchor := n.X1+6, "start"
		if n.X0 >= float64(width)/2 {
			x, anchor = n.X0-6, "end"
		}
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" dy="0.35em" fill="%s" font-size="12" text-anchor="%s">%s</text>`,
			x, (n.Y0+n.Y1)/2, labelColor, anchor, label)
	}
	b.WriteString("</g>")

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
