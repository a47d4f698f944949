package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *ResultSet {
	return &ResultSet{
		Columns: []string{"id", "name"},
		Rows: [][]any{
			{json.Number("1"), "alice"},
			{json.Number("2"), nil},
		},
	}
}

func TestRender_Horizontal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().Render(&buf, sampleResult(), DisplayHorizontal))

	out := buf.String()
	assert.Contains(t, out, "| id | name  |")
	assert.Contains(t, out, "| 1  | alice |")
	assert.Contains(t, out, "| 2  | NULL  |")
	assert.True(t, strings.HasPrefix(out, "+----+-------+"))

	// Auto falls back to horizontal.
	var auto bytes.Buffer
	require.NoError(t, NewRenderer().Render(&auto, sampleResult(), DisplayAuto))
	assert.Equal(t, out, auto.String())
}

func TestRender_HorizontalKeepsHeaderCase(t *testing.T) {
	var buf bytes.Buffer
	rs := &ResultSet{Columns: []string{"user_id"}, Rows: [][]any{{"x"}}}
	require.NoError(t, NewRenderer().Render(&buf, rs, DisplayHorizontal))
	assert.Contains(t, buf.String(), "user_id")
	assert.NotContains(t, buf.String(), "USER ID")
}

func TestRender_Vertical(t *testing.T) {
	var buf bytes.Buffer
	rs := &ResultSet{
		Columns: []string{"id", "name"},
		Rows:    [][]any{{json.Number("7"), "bob"}},
	}
	require.NoError(t, NewRenderer().Render(&buf, rs, DisplayVertical))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "-[ RECORD 1 ]", lines[0])
	assert.Equal(t, "id   | 7", lines[1])
	assert.Equal(t, "name | bob", lines[2])
}

func TestRender_VerticalNumbering(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().Render(&buf, sampleResult(), DisplayVertical))
	assert.Equal(t,
		"-[ RECORD 1 ]\nid   | 1\nname | alice\n-[ RECORD 2 ]\nid   | 2\nname | NULL\n",
		buf.String())
}

func TestRender_CSV(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"id", "note"},
		Rows: [][]any{
			{json.Number("1"), `say "hi", bye`},
			{json.Number("2"), nil},
		},
	}

	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatCSV, "\"1\",\"say \"\"hi\"\", bye\"\r\n\"2\",\"\"\r\n"},
		{FormatCSVHeader, "\"id\",\"note\"\r\n\"1\",\"say \"\"hi\"\", bye\"\r\n\"2\",\"\"\r\n"},
		{FormatCSVUnquoted, "1,say \"hi\", bye\r\n2,\r\n"},
		{FormatCSVHeaderUnquoted, "id,note\r\n1,say \"hi\", bye\r\n2,\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			r := &Renderer{Format: tt.format}
			require.NoError(t, r.Render(&buf, rs, DisplayCSV))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRender_CSVUnquotedNeverAddsQuotes(t *testing.T) {
	rs := &ResultSet{Columns: []string{"a,b"}, Rows: [][]any{{"x\ny"}, {"plain"}}}
	var buf bytes.Buffer
	r := &Renderer{Format: FormatCSVHeaderUnquoted}
	require.NoError(t, r.Render(&buf, rs, DisplayCSV))
	assert.NotContains(t, buf.String(), `"`)
	assert.True(t, strings.HasPrefix(buf.String(), "a,b\r\n"))
}

func TestRender_DoesNotMutate(t *testing.T) {
	rs := sampleResult()
	before := sampleResult()
	for _, mode := range []DisplayMode{DisplayHorizontal, DisplayVertical, DisplayCSV} {
		require.NoError(t, NewRenderer().Render(&bytes.Buffer{}, rs, mode))
	}
	assert.Equal(t, before, rs)
}

func TestRender_ShortRowsArePadded(t *testing.T) {
	var buf bytes.Buffer
	rs := &ResultSet{Columns: []string{"a", "b"}, Rows: [][]any{{"only"}}}
	require.NoError(t, NewRenderer().Render(&buf, rs, DisplayVertical))
	assert.Contains(t, buf.String(), "b | NULL")
}

func TestRender_UnknownMode(t *testing.T) {
	err := NewRenderer().Render(&bytes.Buffer{}, sampleResult(), DisplayMode(42))
	assert.Error(t, err)
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{"text", "text"},
		{json.Number("12.50"), "12.50"},
		{true, "true"},
		{float64(3), "3"},
		{1.5e20, "150000000000000000000"},
		{[]any{json.Number("1"), "a"}, `[1,"a"]`},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
		{42, "42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCell(tt.in, NullText), "FormatCell(%#v)", tt.in)
	}
}

func TestResolveMode(t *testing.T) {
	assert.Equal(t, DisplayVertical, ResolveMode(DisplayAuto, true))
	assert.Equal(t, DisplayHorizontal, ResolveMode(DisplayAuto, false))
	assert.Equal(t, DisplayCSV, ResolveMode(DisplayCSV, true))
	assert.Equal(t, DisplayHorizontal, ResolveMode(DisplayHorizontal, true))
}

func TestRowCountFooter(t *testing.T) {
	assert.Equal(t, "(0 rows)", RowCountFooter(0))
	assert.Equal(t, "(1 row)", RowCountFooter(1))
	assert.Equal(t, "(12 rows)", RowCountFooter(12))
}

func TestParseDisplayMode(t *testing.T) {
	m, err := ParseDisplayMode("Vertical")
	require.NoError(t, err)
	assert.Equal(t, DisplayVertical, m)

	_, err = ParseDisplayMode("sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto, csv, horizontal, vertical")
}

func TestOutputFormat(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		f, err := ParseOutputFormat("csv_header_unquoted")
		require.NoError(t, err)
		assert.Equal(t, FormatCSVHeaderUnquoted, f)
		assert.True(t, f.Header())
		assert.False(t, f.Quoted())

		f, err = ParseOutputFormat("TSV")
		assert.Error(t, err)
		assert.Equal(t, DefaultOutputFormat, f)
	})

	t.Run("Flag value", func(t *testing.T) {
		f := DefaultOutputFormat
		require.NoError(t, f.Set("CSV"))
		assert.Equal(t, FormatCSV, f)
		assert.Equal(t, "CSV", f.String())
		assert.Error(t, f.Set("bogus"))
		assert.Equal(t, FormatCSV, f, "a failed Set keeps the old value")
	})

	t.Run("JSON", func(t *testing.T) {
		type wrapper struct {
			Format OutputFormat `json:"format"`
		}
		data, err := json.Marshal(wrapper{Format: FormatCSVUnquoted})
		require.NoError(t, err)
		assert.JSONEq(t, `{"format":"CSV_UNQUOTED"}`, string(data))

		var w wrapper
		require.NoError(t, json.Unmarshal(data, &w))
		assert.Equal(t, FormatCSVUnquoted, w.Format)
	})
}
