package shell

import (
	"fmt"
	"strings"

	"github.com/ethanyzhang/tdq/internal/splitter"
)

// InputState is the state of the input buffer after a line was added.
type InputState int8

const (
	// AwaitingInput means the buffer is blank and is discarded.
	AwaitingInput InputState = iota
	// Continuation means the statement is unfinished; keep reading.
	Continuation
	// CommandReady means the buffer is an internal command.
	CommandReady
	// QueryReady means the buffer holds statements to submit.
	QueryReady
)

func (s InputState) String() string {
	switch s {
	case AwaitingInput:
		return "AwaitingInput"
	case Continuation:
		return "Continuation"
	case CommandReady:
		return "CommandReady"
	case QueryReady:
		return "QueryReady"
	}
	return fmt.Sprintf("InputState(%d)", int(s))
}

// Classify decides what to do with the accumulated input buffer.
func Classify(buffer string, commands CommandTable) InputState {
	if strings.TrimSpace(buffer) == "" {
		return AwaitingInput
	}
	if _, _, ok := commands.Lookup(buffer); ok {
		return CommandReady
	}
	stmts := splitter.Scan(buffer)
	if len(stmts) > 1 || stmts[0].Complete() {
		return QueryReady
	}
	return Continuation
}
