package render

import (
	"bufio"
	"io"
	"strings"
)

const csvLineEnd = "\r\n"

// renderCSV writes rs as CSV. Quoted formats wrap every field in double
// quotes and double embedded quotes; unquoted formats write fields as is.
func renderCSV(w io.Writer, rs *ResultSet, format OutputFormat) error {
	bw := bufio.NewWriter(w)
	if format.Header() {
		writeCSVRecord(bw, rs.Columns, format.Quoted())
	}
	for _, row := range rs.Rows {
		writeCSVRecord(bw, rowText(row, len(rs.Columns), ""), format.Quoted())
	}
	return bw.Flush()
}

func writeCSVRecord(w *bufio.Writer, fields []string, quoted bool) {
	for i, field := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		if !quoted {
			w.WriteString(field)
			continue
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(field, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteString(csvLineEnd)
}
