// Package splitter cuts a text buffer into SQL statements.
//
// A statement ends with ";" or with the vertical display marker "\G".
// Terminators inside quoted text ('...', "...", `...`) or comments
// (-- to end of line, /* ... */) are ignored. A doubled quote character
// inside quoted text is an escaped quote and does not close it.
package splitter

import (
	"fmt"
	"strings"

	"github.com/ethanyzhang/tdq/utils"
)

// Terminator is the marker that ended a statement.
type Terminator int8

const (
	// TerminatorNone marks an unfinished statement
	TerminatorNone Terminator = iota
	// TerminatorSemicolon marks a statement ended by ";"
	TerminatorSemicolon
	// TerminatorVertical marks a statement ended by "\G", which asks for
	// vertical display of its result
	TerminatorVertical
)

var terminatorMap = utils.NewBiMap(map[Terminator]string{
	TerminatorNone:      "",
	TerminatorSemicolon: ";",
	TerminatorVertical:  `\G`,
})

func (t Terminator) String() string {
	if value, ok := terminatorMap.Lookup(t); ok {
		return value
	}
	return fmt.Sprintf("terminator(%d)", int(t))
}

// Statement is one chunk of the input buffer.
type Statement struct {
	// Text is the chunk as typed: the statement, its terminator, and the
	// whitespace that followed the terminator.
	Text string

	// Terminator is the marker that ended the chunk.
	Terminator Terminator
}

// Complete reports whether the statement was terminated.
func (s Statement) Complete() bool {
	return s.Terminator != TerminatorNone
}

// Vertical reports whether the statement asked for vertical display.
func (s Statement) Vertical() bool {
	return s.Terminator == TerminatorVertical
}

// Body returns the statement text without its terminator and surrounding
// whitespace. It is the query to send to the service.
func (s Statement) Body() string {
	sc := scanner{text: s.Text}
	if _, term := sc.next(); term != TerminatorNone {
		return strings.TrimSpace(s.Text[:sc.termStart])
	}
	return strings.TrimSpace(s.Text)
}

// Split returns the chunks of text. Every terminated statement keeps its
// terminator and trailing whitespace; an unterminated remainder is
// returned unchanged as the last element. Split("") returns [""].
func Split(text string) []string {
	stmts := Scan(text)
	out := make([]string, len(stmts))
	for i, stmt := range stmts {
		out[i] = stmt.Text
	}
	return out
}

// Scan is Split with the terminator of each chunk. It always returns at
// least one element.
func Scan(text string) []Statement {
	var stmts []Statement
	start := 0
	s := scanner{text: text}
	for {
		end, term := s.next()
		if term == TerminatorNone {
			break
		}
		stmts = append(stmts, Statement{Text: text[start:end], Terminator: term})
		start = end
	}

	rest := text[start:]
	switch {
	case len(stmts) == 0:
		stmts = append(stmts, Statement{Text: rest})
	case rest == "":
	case onlyComments(rest):
		// A comment after the last terminator belongs to that statement.
		stmts[len(stmts)-1].Text += rest
	default:
		stmts = append(stmts, Statement{Text: rest})
	}
	return stmts
}

type scanner struct {
	text      string
	pos       int
	termStart int // offset of the last terminator found
}

// next advances past the next top-level terminator and the whitespace
// after it. It returns the end offset of the chunk and the terminator
// found, or TerminatorNone at the end of the text.
func (s *scanner) next() (int, Terminator) {
	text := s.text
	for s.pos < len(text) {
		c := text[s.pos]
		switch {
		case c == '\'' || c == '"' || c == '`':
			s.skipQuoted(c)
		case c == '-' && strings.HasPrefix(text[s.pos:], "--"):
			s.skipLineComment()
		case c == '/' && strings.HasPrefix(text[s.pos:], "/*"):
			s.skipBlockComment()
		case c == ';':
			s.termStart = s.pos
			s.pos++
			s.skipSpace()
			return s.pos, TerminatorSemicolon
		case c == '\\' && strings.HasPrefix(text[s.pos:], `\G`):
			s.termStart = s.pos
			s.pos += 2
			s.skipSpace()
			return s.pos, TerminatorVertical
		default:
			s.pos++
		}
	}
	return s.pos, TerminatorNone
}

// skipQuoted moves past a quoted literal starting at pos. Quotes are
// escaped by doubling them or, in string literals, with a backslash. An
// unclosed literal runs to the end of the text.
func (s *scanner) skipQuoted(quote byte) {
	s.pos++
	for s.pos < len(s.text) {
		c := s.text[s.pos]
		if c == '\\' && quote != '`' && s.pos+1 < len(s.text) {
			s.pos += 2
			continue
		}
		if c != quote {
			s.pos++
			continue
		}
		if s.pos+1 < len(s.text) && s.text[s.pos+1] == quote {
			s.pos += 2
			continue
		}
		s.pos++
		return
	}
}

func (s *scanner) skipLineComment() {
	if i := strings.IndexByte(s.text[s.pos:], '\n'); i >= 0 {
		s.pos += i + 1
		return
	}
	s.pos = len(s.text)
}

func (s *scanner) skipBlockComment() {
	if i := strings.Index(s.text[s.pos+2:], "*/"); i >= 0 {
		s.pos += i + 4
		return
	}
	s.pos = len(s.text)
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.text) && isSpace(s.text[s.pos]) {
		s.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// onlyComments reports whether text holds nothing but whitespace and
// complete or unclosed comments.
func onlyComments(text string) bool {
	s := scanner{text: text}
	for {
		s.skipSpace()
		rest := text[s.pos:]
		switch {
		case rest == "":
			return true
		case strings.HasPrefix(rest, "--"):
			s.skipLineComment()
		case strings.HasPrefix(rest, "/*"):
			s.skipBlockComment()
		default:
			return false
		}
	}
}
