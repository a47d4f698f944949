package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	red   = "\x1b[91m"
	reset = "\x1b[0m"
)

func TestAnnotateError(t *testing.T) {
	query := "select 1\nfrom tbl\nwhere x"

	t.Run("Marks the failing column", func(t *testing.T) {
		got, err := AnnotateError(query, "Query select 1 failed: line 2:5: syntax error", true)
		require.NoError(t, err)
		assert.Equal(t, "select 1\nfrom"+red+" tbl"+reset+"\nwhere x", got)
	})

	t.Run("Column past the end of the line", func(t *testing.T) {
		got, err := AnnotateError(query, "Query q failed: line 3:20: mismatched input '<EOF>'", true)
		require.NoError(t, err)
		assert.Equal(t, "select 1\nfrom tbl\nwhere x"+red+" <EOF>"+reset, got)
	})

	t.Run("First column", func(t *testing.T) {
		got, err := AnnotateError(query, "Query q failed: line 1:1: oops", true)
		require.NoError(t, err)
		assert.Equal(t, red+"select 1"+reset+"\nfrom tbl\nwhere x", got)
	})

	t.Run("Without color", func(t *testing.T) {
		got, err := AnnotateError(query, "Query q failed: line 2:5: syntax error", false)
		require.NoError(t, err)
		assert.Equal(t, "select 1\nfrom tbl\n    ^\nwhere x", got)

		got, err = AnnotateError(query, "Query q failed: line 3:1: syntax error", false)
		require.NoError(t, err)
		assert.Equal(t, "select 1\nfrom tbl\nwhere x\n^", got)

		got, err = AnnotateError(query, "Query q failed: line 1:99: syntax error", false)
		require.NoError(t, err)
		assert.Equal(t, "select 1 <EOF>\nfrom tbl\nwhere x", got)
	})

	t.Run("Caret follows tabs and wide characters", func(t *testing.T) {
		got, err := AnnotateError("\tselect '表' x", "Query q failed: line 1:13: bad", false)
		require.NoError(t, err)
		assert.Equal(t, "\tselect '表' x\n\t"+strings.Repeat(" ", 12)+"^", got)
	})

	t.Run("Multi-byte text is cut by character", func(t *testing.T) {
		got, err := AnnotateError("select 'ä' x", "Query q failed: line 1:12: bad", true)
		require.NoError(t, err)
		assert.Equal(t, "select 'ä' "+red+"x"+reset, got)
	})
}

func TestAnnotateError_Unannotatable(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"no location", "FAILED: SemanticException [Error 10001]: Table not found"},
		{"line past the query", "Query q failed: line 9:1: boom"},
		{"line zero", "Query q failed: line 0:1: boom"},
		{"column zero", "Query q failed: line 1:0: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AnnotateError("select 1", tt.message, true)
			assert.ErrorIs(t, err, ErrUnannotatable)
			assert.Empty(t, got)
		})
	}
}
