package shell

import (
	"fmt"
	"strings"

	"github.com/ethanyzhang/tdq/internal/render"
	"github.com/ethanyzhang/tdq/tdclient"
	"github.com/mattn/go-runewidth"
)

// State is the session configuration. Only commands change it, and only
// between statements.
type State struct {
	Database string
	Engine   tdclient.Engine

	// Display overrides the per-statement display mode unless it is
	// render.DisplayAuto.
	Display render.DisplayMode

	// Exit ends the read loop after the current input.
	Exit bool
}

// Prompt returns the main prompt, which names the current database.
func (s *State) Prompt() string {
	return fmt.Sprintf("TdQuery(%s) > ", s.Database)
}

// ContinuationPrompt returns the prompt of the second and later lines of
// a statement: dots one column narrower than prompt, then a space.
func ContinuationPrompt(prompt string) string {
	width := runewidth.StringWidth(prompt)
	if width < 1 {
		return " "
	}
	return strings.Repeat(".", width-1) + " "
}
