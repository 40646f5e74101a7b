// Package editor defines the collaborators the extraction engine talks to:
// where the selected literal comes from, how the user is asked things, how
// the source file is rewritten and how the post-extraction command runs.
//
// The engine only sees the interfaces. The adapters in this package work
// on plain files and a terminal so arbkit can run outside an IDE.
package editor

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrCancelled is returned by prompts when the user backs out.
	ErrCancelled = errors.New("cancelled")
	// ErrNoSelection means there is no string literal to extract.
	ErrNoSelection = errors.New("no selection")
)

// Selection is a string literal picked in a source file.
type Selection struct {
	// Path of the source file.
	Path string
	// Start and End are byte offsets of the literal, quotes included.
	Start, End int
	// Raw is the literal as written, quotes included.
	Raw string
	// Text is Raw with one layer of quoting removed and escapes decoded.
	Text string
	// RawString is set for r'...' literals, whose Text is taken as written.
	RawString bool
}

// SelectionProvider returns the current selection or ErrNoSelection.
type SelectionProvider interface {
	Selection(ctx context.Context) (Selection, error)
}

// Validator rejects an input value with a message for the user.
type Validator func(value string) error

// Inputter asks for a single line of text. An empty answer yields def.
type Inputter interface {
	Input(ctx context.Context, prompt, def string, validate Validator) (string, error)
}

// Chooser asks the user to pick one of options and returns its index.
type Chooser interface {
	Choose(ctx context.Context, prompt string, options []string) (int, error)
}

// Prompter combines both prompt kinds.
type Prompter interface {
	Inputter
	Chooser
}

// Replacer rewrites the selected range with text.
type Replacer interface {
	Replace(ctx context.Context, sel Selection, text string) error
}

// ImportInserter adds stmt to the file at path unless an equivalent import
// is already there. It reports whether the file changed.
type ImportInserter interface {
	EnsureImport(ctx context.Context, path, stmt string) (bool, error)
}

// CommandRunner runs a shell command in dir and returns its combined
// output.
type CommandRunner interface {
	Run(ctx context.Context, dir, command string) (string, error)
}

// NotEmpty is a Validator that refuses blank input.
func NotEmpty(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("value must not be empty")
	}
	return nil
}

