package tdclient

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrNoErrorLocation is returned by ParseErrorLocation when the message
// does not carry a position.
var ErrNoErrorLocation = errors.New("error message carries no line:column location")

// ErrorLocation represents the position in a query where an error occurred.
// This is typically used for syntax errors.
type ErrorLocation struct {
	// LineNumber is the 1-based line number in the query
	LineNumber int `json:"lineNumber"`

	// ColumnNumber is the 1-based column number in the query
	ColumnNumber int `json:"columnNumber"`
}

// String returns a formatted string representation of the ErrorLocation.
// The format is "line LineNumber:ColumnNumber".
func (e *ErrorLocation) String() string {
	return fmt.Sprintf("line %d:%d", e.LineNumber, e.ColumnNumber)
}

// Presto failures in a job's stderr look like
// "Query 20240101_000000_00001_abcde failed: line 2:5: mismatched input ..."
var failedQueryPattern = regexp.MustCompile(`(?m)^Query .* failed: line (\d+):(\d+): `)

// ParseErrorLocation extracts the location of a Presto query failure from
// a job's stderr.
func ParseErrorLocation(message string) (*ErrorLocation, error) {
	m := failedQueryPattern.FindStringSubmatch(message)
	if m == nil {
		return nil, ErrNoErrorLocation
	}
	line, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("bad line number %q: %w", m[1], err)
	}
	col, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("bad column number %q: %w", m[2], err)
	}
	return &ErrorLocation{LineNumber: line, ColumnNumber: col}, nil
}
