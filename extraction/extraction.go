// Package extraction runs the extract-a-string operation end to end: read
// the selected literal, put it into the source ARB file under a key the
// user confirms, point the selection at the generated accessor and copy a
// translation into every target language.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/config"
	"github.com/minios-linux/arbkit/conflict"
	"github.com/minios-linux/arbkit/discover"
	"github.com/minios-linux/arbkit/editor"
	"github.com/minios-linux/arbkit/extract"
	"github.com/minios-linux/arbkit/i18n"
	"github.com/minios-linux/arbkit/lockfile"
	"github.com/minios-linux/arbkit/translate"
)

// ErrEmptyKey is returned when the confirmed key is blank.
var ErrEmptyKey = errors.New("empty key")

var keyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateKey accepts keys usable as generated accessor names.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf(i18n.T("%q is not a valid key: use letters, digits and _"), key)
	}
	return nil
}

// Extractor wires the collaborators of one extraction.
type Extractor struct {
	Selection editor.SelectionProvider
	Prompter  editor.Prompter
	Replacer  editor.Replacer
	Importer  editor.ImportInserter
	Runner    editor.CommandRunner

	// Decider settles key and value collisions. Nil asks through Prompter.
	Decider conflict.Decider
	// Provider translates the new entry. Nil skips translation.
	Provider translate.Provider
	// Lock, when set, records the translated checksums and is saved after
	// the translation phase.
	Lock *lockfile.LockFile

	// Key, when non-empty, is used instead of asking for one.
	Key string

	OnParseError arbfile.ParseErrorFunc
	OnProgress   func(lang string, done, total int)
	Logger       zerolog.Logger
}

// Result describes what an extraction did.
type Result struct {
	Key string
	// Replacement is the text that replaced the selection.
	Replacement  string
	Placeholders []string
	Reused       bool
	Cancelled    bool
	ImportAdded  bool
	Targets      []string
	Translation  translate.Report

	CommandOutput string
	// CommandErr is the post-command failure. The extraction itself
	// succeeded when it is set.
	CommandErr error
}

// Run performs the extraction described by cfg. Input errors and a failed
// source write return an error before anything is changed in the code.
func (e *Extractor) Run(ctx context.Context, cfg config.Config) (Result, error) {
	var res Result
	log := e.Logger

	sel, err := e.Selection.Selection(ctx)
	if err != nil {
		return res, err
	}
	if strings.TrimSpace(sel.Text) == "" {
		return res, fmt.Errorf("%s: %w", sel.Path, editor.ErrNoSelection)
	}

	conv := extract.Convert(sel.Text)
	if sel.RawString {
		conv = extract.ConvertRaw(sel.Text)
	}
	value := conv.Value()
	res.Placeholders = conv.Names

	key, err := e.confirmKey(ctx, conv.Text)
	if errors.Is(err, editor.ErrCancelled) {
		res.Cancelled = true
		return res, nil
	}
	if err != nil {
		return res, err
	}

	sourcePath := cfg.SourcePath()
	doc, err := arbfile.ReadOrCreate(sourcePath, e.OnParseError)
	if err != nil {
		return res, err
	}
	if doc.Len() == 0 {
		doc.SetLocale(cfg.SourceLang)
	}

	decider := e.Decider
	if decider == nil {
		decider = conflict.PromptDecider{Chooser: e.Prompter}
	}
	outcome, err := conflict.Resolve(ctx, doc, conflict.Candidate{
		Key:    key,
		Value:  value,
		Args:   conv.Originals,
		Prefix: cfg.Prefix,
	}, decider)
	if err != nil {
		return res, err
	}

	switch outcome.Kind {
	case conflict.Cancelled:
		log.Info().Str("key", key).Msg("extraction cancelled")
		res.Cancelled = true
		return res, nil

	case conflict.Reuse:
		res.Key, res.Replacement, res.Reused = outcome.Key, outcome.Replacement, true
		log.Info().Str("key", res.Key).Msg("reusing existing key")
		return res, e.rewrite(ctx, cfg, sel, &res)
	}

	res.Key = outcome.Key
	doc.Set(res.Key, value)
	if conv.HasPlaceholders() {
		doc.SetPlaceholders(res.Key, conv.Names)
	}
	if err := arbfile.Write(sourcePath, doc); err != nil {
		return res, err
	}
	log.Info().Str("key", res.Key).Str("file", sourcePath).Msg("source entry written")

	res.Replacement = extract.Replacement(cfg.Prefix, res.Key, conv.Originals)
	if err := e.rewrite(ctx, cfg, sel, &res); err != nil {
		return res, err
	}

	if cfg.AutoTranslate && e.Provider != nil {
		e.translate(ctx, translate.Job{
			Key:          res.Key,
			Text:         value,
			Placeholders: conv.Names,
			SourceLang:   cfg.SourceLang,
			Dir:          cfg.Dir(),
			Pattern:      cfg.Pattern(),
		}, &res)
	}

	if cfg.PostCommand != "" && e.Runner != nil {
		res.CommandOutput, res.CommandErr = e.Runner.Run(ctx, cfg.Root, cfg.PostCommand)
		if res.CommandErr != nil {
			log.Warn().Err(res.CommandErr).Str("command", cfg.PostCommand).Msg("post-extraction command failed")
		}
	}
	return res, nil
}

func (e *Extractor) confirmKey(ctx context.Context, text string) (string, error) {
	key := e.Key
	if key == "" {
		var err error
		key, err = e.Prompter.Input(ctx, i18n.T("Key for this string"), extract.SuggestKey(text), ValidateKey)
		if err != nil {
			return "", err
		}
	}
	key = strings.TrimSpace(key)
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// rewrite replaces the selection and ensures the configured import.
func (e *Extractor) rewrite(ctx context.Context, cfg config.Config, sel editor.Selection, res *Result) error {
	if err := e.Replacer.Replace(ctx, sel, res.Replacement); err != nil {
		return fmt.Errorf("replacing selection in %s: %w", sel.Path, err)
	}
	if cfg.Import == "" || e.Importer == nil {
		return nil
	}
	added, err := e.Importer.EnsureImport(ctx, sel.Path, cfg.Import)
	if err != nil {
		return fmt.Errorf("adding import to %s: %w", sel.Path, err)
	}
	res.ImportAdded = added
	return nil
}

// translate runs the translation phase. Its failures never undo the
// extraction; they are reported in res.Translation.
func (e *Extractor) translate(ctx context.Context, job translate.Job, res *Result) {
	log := e.Logger
	var in editor.Inputter
	if e.Prompter != nil {
		in = e.Prompter
	}
	targets, err := discover.Targets(ctx, job.Dir, job.Pattern, job.SourceLang, in, log)
	if err != nil {
		if errors.Is(err, editor.ErrCancelled) {
			log.Info().Msg("no target language added, translation skipped")
		} else {
			log.Warn().Err(err).Msg("adding a target language failed, translation skipped")
		}
		return
	}
	res.Targets = targets
	if len(targets) == 0 {
		return
	}

	orch := &translate.Orchestrator{
		Provider:     e.Provider,
		Logger:       log,
		OnProgress:   e.OnProgress,
		OnParseError: e.OnParseError,
		Lock:         e.Lock,
	}
	res.Translation = orch.Run(ctx, job, targets)

	if e.Lock != nil && e.Lock.Path() != "" {
		if err := e.Lock.Save(); err != nil {
			log.Warn().Err(err).Str("file", e.Lock.Path()).Msg("saving lock file failed")
		}
	}
}
