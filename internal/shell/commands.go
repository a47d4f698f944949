package shell

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/ethanyzhang/tdq/internal/render"
	"github.com/ethanyzhang/tdq/tdclient"
)

// CommandFunc runs an internal command. args is the rest of the line with
// any trailing ";" or "\G" removed.
type CommandFunc func(st *State, w io.Writer, args string)

// Command is an internal shell command.
type Command struct {
	Name string
	Help string
	Run  CommandFunc
}

// CommandTable maps command names to commands.
type CommandTable map[string]*Command

const (
	msgInvalidOption  = "Invalid option"
	msgUnknownCommand = "Unknown command"

	helpColumns     = 10
	helpColumnWidth = 10
)

var commandLine = regexp.MustCompile(`^(\w+)\s*(.*)$`)

// databaseName is a single word; quoting and statement text are rejected.
var databaseName = regexp.MustCompile(`^[\w.-]+$`)

// NewCommandTable returns the internal commands: use, display, engine,
// help, quit and exit.
func NewCommandTable() CommandTable {
	table := CommandTable{}
	table.Add(&Command{
		Name: "use",
		Help: "Change the current database. Usage: use <database>",
		Run:  runUse,
	})
	table.Add(&Command{
		Name: "display",
		Help: "Change the output mode. Usage: display <mode>\n" +
			"Valid modes are horizontal, vertical, csv, or auto (default)",
		Run: runDisplay,
	})
	table.Add(&Command{
		Name: "engine",
		Help: "Set the current SQL engine. Usage: engine <engine>\n" +
			"Valid engines are presto (default) or hive",
		Run: runEngine,
	})
	table.Add(&Command{
		Name: "help",
		Help: "Print all available commands, or the help of one. Usage: help [command]",
		Run: func(st *State, w io.Writer, args string) {
			table.runHelp(w, args)
		},
	})
	table.Add(&Command{Name: "quit", Help: "Quit the shell", Run: runQuit})
	table.Add(&Command{Name: "exit", Help: "Quit the shell", Run: runQuit})
	return table
}

// Add registers cmd, replacing any command of the same name.
func (t CommandTable) Add(cmd *Command) {
	t[cmd.Name] = cmd
}

// Names returns the command names in order.
func (t CommandTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup parses a single input line. It returns the command named by the
// first word of the line and the remaining arguments.
func (t CommandTable) Lookup(line string) (*Command, string, bool) {
	line = strings.TrimSpace(line)
	if strings.Contains(line, "\n") {
		return nil, "", false
	}
	m := commandLine.FindStringSubmatch(line)
	if m == nil {
		return nil, "", false
	}
	cmd, ok := t[m[1]]
	if !ok {
		return nil, "", false
	}
	return cmd, trimTerminators(m[2]), true
}

// Dispatch runs the command on line. It reports false when line is not a
// command.
func (t CommandTable) Dispatch(st *State, w io.Writer, line string) bool {
	cmd, args, ok := t.Lookup(line)
	if !ok {
		return false
	}
	cmd.Run(st, w, args)
	return true
}

func trimTerminators(args string) string {
	for {
		trimmed := strings.TrimSpace(args)
		trimmed = strings.TrimSuffix(trimmed, ";")
		trimmed = strings.TrimSuffix(trimmed, `\G`)
		if trimmed == args {
			return trimmed
		}
		args = trimmed
	}
}

func runUse(st *State, w io.Writer, args string) {
	if args != "" {
		if !databaseName.MatchString(args) {
			fmt.Fprintln(w, msgInvalidOption)
			return
		}
		st.Database = args
	}
	fmt.Fprintf(w, "current database is %s\n", st.Database)
}

func runDisplay(st *State, w io.Writer, args string) {
	if args != "" {
		mode, err := render.ParseDisplayMode(args)
		if err != nil {
			fmt.Fprintln(w, msgInvalidOption)
			return
		}
		st.Display = mode
	}
	fmt.Fprintf(w, "current display mode is %s\n", st.Display)
}

func runEngine(st *State, w io.Writer, args string) {
	if args != "" {
		engine, err := tdclient.ParseEngine(args)
		if err != nil {
			fmt.Fprintln(w, msgInvalidOption)
			return
		}
		st.Engine = engine
	}
	fmt.Fprintf(w, "current engine is %s\n", st.Engine)
}

func runQuit(st *State, w io.Writer, _ string) {
	st.Exit = true
	fmt.Fprintln(w, "Bye.")
}

func (t CommandTable) runHelp(w io.Writer, topic string) {
	if topic != "" {
		cmd, ok := t[topic]
		if !ok {
			fmt.Fprintln(w, msgUnknownCommand)
			return
		}
		fmt.Fprintln(w, cmd.Help)
		return
	}

	fmt.Fprintln(w, "Internal commands (type help <topic>):")
	fmt.Fprintln(w, "======================================")
	fmt.Fprintln(w)
	names := t.Names()
	for i := 0; i < len(names); i += helpColumns {
		row := names[i:min(i+helpColumns, len(names))]
		cells := make([]string, len(row))
		for j, name := range row {
			cells[j] = fmt.Sprintf("%-*s", helpColumnWidth, name)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " "))
	}
	fmt.Fprintln(w)
}
