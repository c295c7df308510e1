package flowgraph

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV writes one row per edge: source label, target label and the signed
// value with two decimals.
func WriteCSV(w io.Writer, g Graph, edges []Edge) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Source", "Target", "Value"}); err != nil {
		return err
	}
	for _, e := range edges {
		if err := writer.Write([]string{
			g.Label(e.Source),
			g.Label(e.Target),
			strconv.FormatFloat(e.Value, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
