package svg

// LineOpts customises the trend line renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the two company comparison bars.
type BarOpts struct {
	Title        string
	Description  string
	SeriesALabel string
	SeriesBLabel string
	ColorA       string
	ColorB       string
	AxisColor    string
	GridColor    string
	Padding      float64
	TickCount    int
}

// SankeyOpts customises the flow diagram.
type SankeyOpts struct {
	Title       string
	Description string
	LabelColor  string
	// NodeHref returns the link a node click follows. Nodes are not
	// clickable when it is nil or returns an empty string.
	NodeHref func(id int) string
	// FormatValue renders link amounts in tooltips; formatTick is used when nil.
	FormatValue func(float64) string
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 6
)
