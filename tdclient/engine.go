package tdclient

import (
	"fmt"
	"strings"

	"github.com/ethanyzhang/tdq/utils"
)

// Engine selects the execution backend of a job. It is the job type in the
// issue URL.
type Engine int8

const (
	// EnginePresto runs the query on Presto
	EnginePresto Engine = iota
	// EngineHive runs the query on Hive
	EngineHive
)

var engineMap = utils.NewBiMap(map[Engine]string{
	EnginePresto: "presto",
	EngineHive:   "hive",
})

// String returns the job type name of the engine.
func (e Engine) String() string {
	if value, ok := engineMap.Lookup(e); ok {
		return value
	}
	return fmt.Sprintf("engine(%d)", int(e))
}

// ParseEngine parses an engine name, case-insensitively.
// If the name is unknown, it returns EnginePresto and an error.
func ParseEngine(str string) (Engine, error) {
	if key, ok := engineMap.RLookup(strings.ToLower(strings.TrimSpace(str))); ok {
		return key, nil
	}
	return EnginePresto, fmt.Errorf("unknown engine %q, should be one of %s",
		str, strings.Join(EngineNames(), ", "))
}

// EngineNames lists the valid engine names.
func EngineNames() []string {
	return engineMap.Values()
}

// MarshalText implements the encoding.TextMarshaler interface.
func (e Engine) MarshalText() ([]byte, error) {
	if value, ok := engineMap.Lookup(e); ok {
		return []byte(value), nil
	}
	return nil, fmt.Errorf("unknown Engine %d", int(e))
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (e *Engine) UnmarshalText(text []byte) error {
	var err error
	*e, err = ParseEngine(string(text))
	return err
}
