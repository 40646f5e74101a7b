package translate

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/discover"
	"github.com/minios-linux/arbkit/lockfile"
)

// Job is one source entry to propagate to the target languages.
type Job struct {
	Key string
	// Text is the placeholder-normalised source value.
	Text string
	// Placeholders are recorded as metadata in every target when non-empty.
	Placeholders []string
	SourceLang   string
	Dir          string
	Pattern      discover.Pattern
}

// ErrSourceTarget is the Failure error for a target equal to the source
// language.
var ErrSourceTarget = errors.New("target is the source language")

// Failure is a target that could not be updated.
type Failure struct {
	Lang string
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Lang, f.Path, f.Err)
}

// Report summarises a Run.
type Report struct {
	Succeeded []string
	Skipped   []string
	Failed    []Failure
	// Err is set when the run stopped early because ctx was done.
	Err error
}

// OK reports whether every target was handled.
func (r Report) OK() bool { return len(r.Failed) == 0 && r.Err == nil }

// Orchestrator writes translations of a Job into each target file, one
// target at a time. A failing target never stops the others.
type Orchestrator struct {
	Provider Provider
	Logger   zerolog.Logger

	// OnProgress is called after every target, whether it succeeded or not.
	OnProgress func(lang string, done, total int)
	// OnParseError decides what to do with an unparsable target file.
	// Nil aborts that target.
	OnParseError arbfile.ParseErrorFunc

	// Lock, when set, records the source checksum of every target written.
	Lock *lockfile.LockFile
	// SkipUnchanged skips targets that already hold a translation of the
	// same source text according to Lock.
	SkipUnchanged bool
}

// Run translates job into every language in targets.
func (o *Orchestrator) Run(ctx context.Context, job Job, targets []string) Report {
	var report Report
	content := lockfile.EntryContent(job.Key, job.Text)

	for i, lang := range targets {
		if err := ctx.Err(); err != nil {
			report.Err = err
			break
		}
		path := job.Pattern.Path(job.Dir, lang)
		log := o.Logger.With().Str("lang", lang).Str("key", job.Key).Str("file", path).Logger()

		if lang == job.SourceLang {
			log.Error().Msg("refusing to overwrite the source file")
			report.Failed = append(report.Failed, Failure{Lang: lang, Path: path, Err: ErrSourceTarget})
		} else if o.unchanged(lang, job.Key, content, path) {
			log.Debug().Msg("up to date, skipped")
			report.Skipped = append(report.Skipped, lang)
		} else if err := o.translateOne(ctx, job, lang, path, log); err != nil {
			log.Error().Err(err).Msg("translation failed")
			report.Failed = append(report.Failed, Failure{Lang: lang, Path: path, Err: err})
		} else {
			log.Info().Msg("translated")
			report.Succeeded = append(report.Succeeded, lang)
			if o.Lock != nil {
				o.Lock.Update(lang, job.Key, content)
			}
		}

		if o.OnProgress != nil {
			o.OnProgress(lang, i+1, len(targets))
		}
	}
	return report
}

// unchanged reports whether the target already holds a translation of the
// current source text.
func (o *Orchestrator) unchanged(lang, key, content, path string) bool {
	if !o.SkipUnchanged || o.Lock == nil || o.Lock.IsChanged(lang, key, content) {
		return false
	}
	f, err := arbfile.ParseFile(path)
	if err != nil {
		return false
	}
	v, ok := f.Get(key)
	return ok && v != ""
}

func (o *Orchestrator) translateOne(ctx context.Context, job Job, lang, path string, log zerolog.Logger) error {
	f, err := arbfile.ReadOrCreate(path, o.OnParseError)
	if err != nil {
		return err
	}
	if f.Len() == 0 {
		f.SetLocale(lang)
	}

	sentinel, hadSentinel := f.DetachSentinel()

	out, err := o.Provider.Translate(ctx, Request{
		Text:       job.Text,
		SourceLang: job.SourceLang,
		TargetLang: lang,
	})
	if err != nil {
		return err
	}
	out = CleanResponse(out, job.Text)
	if out == "" {
		return &Error{Kind: KindNoCandidate, Lang: lang, Message: "empty text after cleanup"}
	}

	for _, name := range job.Placeholders {
		if !containsPlaceholder(out, name) {
			log.Warn().Str("placeholder", name).Msg("translation dropped a placeholder")
		}
	}

	if !f.Set(job.Key, out) {
		return fmt.Errorf("key %q is not a translatable entry in %s", job.Key, path)
	}
	if len(job.Placeholders) > 0 {
		f.SetPlaceholders(job.Key, job.Placeholders)
	}
	if hadSentinel {
		f.AttachSentinel(sentinel)
	}
	return arbfile.Write(path, f)
}

func containsPlaceholder(text, name string) bool {
	for _, m := range placeholderPattern.FindAllString(text, -1) {
		if m == "{"+name+"}" {
			return true
		}
	}
	return false
}
