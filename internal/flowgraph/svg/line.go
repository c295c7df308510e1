package svg

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// Line renders a yearly trend as a line chart. Labels run along the x axis
// in the order given.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", errors.New("svg: series required")
	}
	if len(series) != len(labels) {
		return "", errors.New("svg: labels length must match series")
	}
	minVal, maxVal := bounds(series)
	f, err := newFrame(width, height, opts.Padding, minVal, maxVal)
	if err != nil {
		return "", err
	}
	strokeColor := fallback(opts.StrokeColor, "#2563eb")
	fillColor := fallback(opts.FillColor, "rgba(37,99,235,0.12)")
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")

	xAt := func(i int) float64 {
		if len(series) == 1 {
			return f.padding + f.chartWidth/2
		}
		return f.padding + float64(i)*f.chartWidth/float64(len(series)-1)
	}

	var path strings.Builder
	for i, value := range series {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		} else {
			path.WriteByte(' ')
		}
		fmt.Fprintf(&path, "%s%.2f %.2f", cmd, xAt(i), f.y(value))
	}

	var b strings.Builder
	writeHeader(&b, f.width, f.height, opts.Title, opts.Description, "line", "Trend", "Yearly values")
	writeGrid(&b, f, opts.TickCount, gridColor, axisColor)
	writeAxes(&b, f, f.y(0), axisColor)

	area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path.String(), xAt(len(series)-1), f.y(0), xAt(0), f.y(0))
	fmt.Fprintf(&b, `<path d="%s" fill="%s" stroke="none" aria-hidden="true"></path>`, area, fillColor)
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round" stroke-linecap="round"></path>`, path.String(), strokeColor)

	if opts.ShowDots {
		for i, value := range series {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"><title>%s: %s</title></circle>`, xAt(i), f.y(value), strokeColor, template.HTMLEscapeString(labels[i]), formatTick(value))
		}
	}
	for i, label := range labels {
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, xAt(i), f.bottom()+14, axisColor, template.HTMLEscapeString(label))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
