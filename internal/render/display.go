package render

import (
	"fmt"
	"strings"

	"github.com/ethanyzhang/tdq/utils"
)

// DisplayMode selects how a result set is printed.
type DisplayMode int8

const (
	// DisplayAuto picks vertical for statements ended by \G, horizontal otherwise
	DisplayAuto DisplayMode = iota
	// DisplayHorizontal prints a boxed table
	DisplayHorizontal
	// DisplayVertical prints one field per line
	DisplayVertical
	// DisplayCSV prints CSV in the configured OutputFormat
	DisplayCSV
)

var displayModeMap = utils.NewBiMap(map[DisplayMode]string{
	DisplayAuto:       "auto",
	DisplayHorizontal: "horizontal",
	DisplayVertical:   "vertical",
	DisplayCSV:        "csv",
})

func (m DisplayMode) String() string {
	if value, ok := displayModeMap.Lookup(m); ok {
		return value
	}
	return fmt.Sprintf("display(%d)", int(m))
}

// ParseDisplayMode parses a display mode name, case-insensitively.
func ParseDisplayMode(str string) (DisplayMode, error) {
	if key, ok := displayModeMap.RLookup(strings.ToLower(strings.TrimSpace(str))); ok {
		return key, nil
	}
	return DisplayAuto, fmt.Errorf("unknown display mode %q, should be one of %s",
		str, strings.Join(DisplayModeNames(), ", "))
}

// DisplayModeNames lists the valid display mode names.
func DisplayModeNames() []string {
	return displayModeMap.Values()
}

// ResolveMode returns the mode a statement's result is printed in. A
// session override other than DisplayAuto wins; otherwise a \G
// terminator selects vertical display, and horizontal is the default.
func ResolveMode(override DisplayMode, verticalHint bool) DisplayMode {
	switch {
	case override != DisplayAuto:
		return override
	case verticalHint:
		return DisplayVertical
	default:
		return DisplayHorizontal
	}
}

// OutputFormat is the CSV variant used by DisplayCSV.
type OutputFormat int8

const (
	// FormatCSV quotes every field and prints no header
	FormatCSV OutputFormat = iota
	// FormatCSVHeader quotes every field and prints a header row
	FormatCSVHeader
	// FormatCSVUnquoted never quotes and prints no header
	FormatCSVUnquoted
	// FormatCSVHeaderUnquoted never quotes and prints a header row
	FormatCSVHeaderUnquoted
)

// DefaultOutputFormat is used when no --output-format is given.
const DefaultOutputFormat = FormatCSVHeader

var outputFormatMap = utils.NewBiMap(map[OutputFormat]string{
	FormatCSV:               "CSV",
	FormatCSVHeader:         "CSV_HEADER",
	FormatCSVUnquoted:       "CSV_UNQUOTED",
	FormatCSVHeaderUnquoted: "CSV_HEADER_UNQUOTED",
})

func (f OutputFormat) String() string {
	if value, ok := outputFormatMap.Lookup(f); ok {
		return value
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Header reports whether the format starts with a header row.
func (f OutputFormat) Header() bool {
	return f == FormatCSVHeader || f == FormatCSVHeaderUnquoted
}

// Quoted reports whether the format quotes every field.
func (f OutputFormat) Quoted() bool {
	return f == FormatCSV || f == FormatCSVHeader
}

// ParseOutputFormat parses an output format name, case-insensitively.
func ParseOutputFormat(str string) (OutputFormat, error) {
	if key, ok := outputFormatMap.RLookup(strings.ToUpper(strings.TrimSpace(str))); ok {
		return key, nil
	}
	return DefaultOutputFormat, fmt.Errorf("unknown output format %q, should be one of %s",
		str, strings.Join(OutputFormatNames(), ", "))
}

// OutputFormatNames lists the valid output format names.
func OutputFormatNames() []string {
	return outputFormatMap.Values()
}

// Set implements pflag.Value.
func (f *OutputFormat) Set(str string) error {
	parsed, err := ParseOutputFormat(str)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value.
func (f *OutputFormat) Type() string {
	return "format"
}

// MarshalText implements the encoding.TextMarshaler interface.
func (f OutputFormat) MarshalText() ([]byte, error) {
	if value, ok := outputFormatMap.Lookup(f); ok {
		return []byte(value), nil
	}
	return nil, fmt.Errorf("unknown OutputFormat %d", int(f))
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (f *OutputFormat) UnmarshalText(text []byte) error {
	return f.Set(string(text))
}
