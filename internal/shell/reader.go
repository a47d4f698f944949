package shell

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

// HistoryFileName is the line-edit history file in the home directory.
const HistoryFileName = ".tdqhistory"

// LineReader is the source of input lines. Readline returns io.EOF at the
// end of input and readline.ErrInterrupt when the user pressed Ctrl-C.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	SaveHistory(line string) error
	Close() error
}

// HistoryPath returns ~/.tdqhistory, or "" when there is no home directory.
func HistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, HistoryFileName)
}

// NewInteractiveReader returns a line editor on the terminal with history
// kept in historyFile and completion of the command names. Lines are added
// to the history by the shell once a whole statement was read, so a
// multi-line statement is recalled as one line.
func NewInteractiveReader(historyFile string, commands CommandTable) (*readline.Instance, error) {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, name := range commands.Names() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewEx(&readline.Config{
		HistoryFile:            historyFile,
		DisableAutoSaveHistory: true,
		AutoComplete:           readline.NewPrefixCompleter(items...),
		InterruptPrompt:        "^C",
		EOFPrompt:              "",
		FuncFilterInputRune:    filterInput,
	})
}

func filterInput(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		return r, false
	}
	return r, true
}

// BatchReader reads lines from a file or pipe. It never reports
// interrupts and keeps no history.
type BatchReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

// NewBatchReader reads lines from r. If r is an io.Closer, Close closes it.
func NewBatchReader(r io.Reader) *BatchReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	br := &BatchReader{scanner: scanner}
	if c, ok := r.(io.Closer); ok {
		br.closer = c
	}
	return br
}

func (b *BatchReader) Readline() (string, error) {
	if !b.scanner.Scan() {
		if err := b.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(b.scanner.Text(), "\r"), nil
}

func (b *BatchReader) SetPrompt(string) {}

func (b *BatchReader) SaveHistory(string) error { return nil }

func (b *BatchReader) Close() error {
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}
