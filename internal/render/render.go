// Package render prints query results and annotates remote query errors.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
)

// NullText is how a NULL cell is shown in tables and vertical records.
// CSV output leaves NULL fields empty.
const NullText = "NULL"

// ResultSet is the result of one statement: column names and rows of
// cells in column order. Renderers only read it.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Renderer prints result sets. The zero value prints CSV as FormatCSV;
// use NewRenderer for the default format.
type Renderer struct {
	Format OutputFormat
}

// NewRenderer returns a Renderer printing CSV in DefaultOutputFormat.
func NewRenderer() *Renderer {
	return &Renderer{Format: DefaultOutputFormat}
}

// Render writes rs to w in the given mode. DisplayAuto prints horizontally.
func (r *Renderer) Render(w io.Writer, rs *ResultSet, mode DisplayMode) error {
	if rs == nil {
		rs = &ResultSet{}
	}
	switch mode {
	case DisplayAuto, DisplayHorizontal:
		return renderHorizontal(w, rs)
	case DisplayVertical:
		return renderVertical(w, rs)
	case DisplayCSV:
		return renderCSV(w, rs, r.Format)
	default:
		return fmt.Errorf("cannot render in display mode %s", mode)
	}
}

func renderHorizontal(w io.Writer, rs *ResultSet) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(rs.Columns)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range rs.Rows {
		table.Append(rowText(row, len(rs.Columns), NullText))
	}
	table.Render()
	return nil
}

func renderVertical(w io.Writer, rs *ResultSet) error {
	width := 0
	for _, name := range rs.Columns {
		width = max(width, runewidth.StringWidth(name))
	}
	for i, row := range rs.Rows {
		if _, err := fmt.Fprintf(w, "-[ RECORD %d ]\n", i+1); err != nil {
			return err
		}
		cells := rowText(row, len(rs.Columns), NullText)
		for j, name := range rs.Columns {
			if _, err := fmt.Fprintf(w, "%s | %s\n", runewidth.FillRight(name, width), cells[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// rowText formats the first n cells of row, padding short rows with null.
func rowText(row []any, n int, null string) []string {
	out := make([]string, n)
	for i := range out {
		if i < len(row) {
			out[i] = FormatCell(row[i], null)
		} else {
			out[i] = null
		}
	}
	return out
}

// FormatCell returns the display text of a cell. Numbers keep their JSON
// text form; arrays and maps print as compact JSON.
func FormatCell(v any, null string) string {
	switch c := v.(type) {
	case nil:
		return null
	case string:
		return c
	case json.Number:
		return c.String()
	case bool:
		return strconv.FormatBool(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(c), 'f', -1, 32)
	case []any, map[string]any:
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Sprint(c)
		}
		return string(b)
	case fmt.Stringer:
		return c.String()
	default:
		return fmt.Sprint(c)
	}
}

// RowCountFooter returns the row count line printed after a result.
func RowCountFooter(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%d rows)", n)
}
