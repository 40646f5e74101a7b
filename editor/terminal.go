package editor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// TerminalPrompter asks questions on a line-oriented terminal.
// End of input, or "q" at a choice, cancels.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewTerminalPrompter returns a prompter bound to stdin and stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	hintColor   = color.New(color.Faint)
	errColor    = color.New(color.FgRed)
)

func (p *TerminalPrompter) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", ErrCancelled
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Input implements Inputter. Invalid answers are reported and asked again.
func (p *TerminalPrompter) Input(ctx context.Context, prompt, def string, validate Validator) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		promptColor.Fprint(p.Out, prompt)
		if def != "" {
			hintColor.Fprintf(p.Out, " [%s]", def)
		}
		fmt.Fprint(p.Out, ": ")

		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			answer = def
		}
		if validate != nil {
			if verr := validate(answer); verr != nil {
				errColor.Fprintf(p.Out, "  %v\n", verr)
				continue
			}
		}
		return answer, nil
	}
}

// Choose implements Chooser.
func (p *TerminalPrompter) Choose(ctx context.Context, prompt string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, ErrCancelled
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		promptColor.Fprintln(p.Out, prompt)
		for i, opt := range options {
			fmt.Fprintf(p.Out, "  %d) %s\n", i+1, opt)
		}
		hintColor.Fprintf(p.Out, "Choose 1-%d (q to cancel): ", len(options))

		line, err := p.readLine()
		if err != nil {
			return 0, err
		}
		answer := strings.TrimSpace(line)
		if answer == "" || strings.EqualFold(answer, "q") {
			return 0, ErrCancelled
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(options) {
			errColor.Fprintf(p.Out, "  invalid choice %q\n", answer)
			continue
		}
		return n - 1, nil
	}
}

// Scripted answers prompts from fixed lists, for non-interactive runs and
// tests. Once Inputs is exhausted every question gets its default; once
// Choices is exhausted every choice is cancelled.
type Scripted struct {
	Inputs  []string
	Choices []int

	// Asked records every prompt in order.
	Asked []string
}

// Input implements Inputter.
func (s *Scripted) Input(ctx context.Context, prompt, def string, validate Validator) (string, error) {
	s.Asked = append(s.Asked, prompt)
	answer := def
	if len(s.Inputs) > 0 {
		answer, s.Inputs = s.Inputs[0], s.Inputs[1:]
		if strings.TrimSpace(answer) == "" {
			answer = def
		}
	}
	if validate != nil {
		if err := validate(answer); err != nil {
			return "", fmt.Errorf("%s: %w", prompt, err)
		}
	}
	return answer, nil
}

// Choose implements Chooser.
func (s *Scripted) Choose(ctx context.Context, prompt string, options []string) (int, error) {
	s.Asked = append(s.Asked, prompt)
	if len(s.Choices) == 0 {
		return 0, ErrCancelled
	}
	var choice int
	choice, s.Choices = s.Choices[0], s.Choices[1:]
	if choice < 0 || choice >= len(options) {
		return 0, ErrCancelled
	}
	return choice, nil
}
