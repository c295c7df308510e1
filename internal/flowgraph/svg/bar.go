package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders a grouped bar chart comparing two companies metric by metric.
func Bars(width, height int, seriesA, seriesB []float64, labels []string, opts BarOpts) (template.HTML, error) {
	switch {
	case len(seriesA) == 0 && len(seriesB) == 0:
		return "", errors.New("svg: at least one series required")
	case len(labels) == 0:
		return "", errors.New("svg: labels required")
	case len(seriesA) > 0 && len(seriesA) != len(labels):
		return "", errors.New("svg: seriesA length must match labels")
	case len(seriesB) > 0 && len(seriesB) != len(labels):
		return "", errors.New("svg: seriesB length must match labels")
	}
	minVal, maxVal := bounds(seriesA, seriesB)
	f, err := newFrame(width, height, opts.Padding, minVal, maxVal)
	if err != nil {
		return "", err
	}

	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")
	colorA := fallback(opts.ColorA, "#0ea5e9")
	colorB := fallback(opts.ColorB, "#f97316")
	labelA := fallback(opts.SeriesALabel, "Company A")
	labelB := fallback(opts.SeriesBLabel, "Company B")

	zeroY := f.y(0)
	groupWidth := f.chartWidth / float64(len(labels))
	barWidth := groupWidth / 3

	var b strings.Builder
	writeHeader(&b, f.width, f.height, opts.Title, opts.Description, "bar", "Comparison", "Side by side figures")
	writeGrid(&b, f, opts.TickCount, gridColor, axisColor)
	writeAxes(&b, f, zeroY, axisColor)

	bar := func(value, x float64, color, series, label string) {
		y, h := barPosition(value, zeroY, f)
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" aria-label="%s %s"><title>%s</title></rect>`,
			x, y, barWidth, h, color, template.HTMLEscapeString(series), template.HTMLEscapeString(label), formatTick(value))
	}
	for i, label := range labels {
		baseX := f.padding + float64(i)*groupWidth
		if len(seriesA) > 0 {
			bar(seriesA[i], baseX+barWidth*0.3, colorA, labelA, label)
		}
		if len(seriesB) > 0 {
			bar(seriesB[i], baseX+barWidth*1.4, colorB, labelB, label)
		}
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, baseX+groupWidth/2, f.bottom()+14, axisColor, template.HTMLEscapeString(label))
	}

	legendY := math.Max(f.padding-12, 12)
	legendX := f.padding
	legend := func(color, label string) {
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, legendX, legendY-8, color)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="start">%s</text>`, legendX+14, legendY, axisColor, template.HTMLEscapeString(label))
		legendX += 90
	}
	if len(seriesA) > 0 {
		legend(colorA, labelA)
	}
	if len(seriesB) > 0 {
		legend(colorB, labelB)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// barPosition clips a bar to the plotting area and returns its top and height.
func barPosition(value, zeroY float64, f frame) (float64, float64) {
	top, bottom := zeroY, zeroY
	if value >= 0 {
		top = math.Max(f.y(value), f.padding)
	} else {
		bottom = math.Min(f.y(value), f.bottom())
	}
	return top, math.Max(bottom-top, 0)
}
