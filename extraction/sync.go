package extraction

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/config"
	"github.com/minios-linux/arbkit/discover"
	"github.com/minios-linux/arbkit/extract"
	"github.com/minios-linux/arbkit/lockfile"
	"github.com/minios-linux/arbkit/translate"
)

// Syncer propagates entries that already exist in the source ARB file.
type Syncer struct {
	Provider translate.Provider
	// Lock tracks what each target was translated from. Sync uses an
	// in-memory lock when it is nil.
	Lock *lockfile.LockFile

	OnParseError arbfile.ParseErrorFunc
	// OnProgress is called after every (key, target) pair.
	OnProgress func(key, lang string, done, total int)
	Logger     zerolog.Logger
}

// KeyFailure is a failed (key, target) pair.
type KeyFailure struct {
	Key string
	translate.Failure
}

func (f KeyFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Key, f.Failure.Error())
}

// SyncReport summarises a Sync or Key run.
type SyncReport struct {
	Targets []string
	// Keys is the number of source keys that needed work.
	Keys       int
	Translated int
	// Skipped counts targets Key left alone because the lock shows they
	// already hold a translation of the current text.
	Skipped int
	// Adopted counts existing translations recorded in the lock without
	// calling the provider.
	Adopted int
	Failed  []KeyFailure
	Err     error
}

// OK reports whether every pair was handled.
func (r SyncReport) OK() bool { return len(r.Failed) == 0 && r.Err == nil }

type pending struct {
	key   string
	langs []string
}

// Key translates one existing source key into langs, or into every
// discovered target when langs is empty. Unless force is set, targets the
// lock records as translated from the current text are skipped. The
// source language is never a valid target.
func (s *Syncer) Key(ctx context.Context, cfg config.Config, key string, langs []string, force bool) (SyncReport, error) {
	src, err := arbfile.ParseFile(cfg.SourcePath())
	if err != nil {
		return SyncReport{}, err
	}
	if _, ok := src.Get(key); !ok {
		return SyncReport{}, fmt.Errorf("key %q not found in %s", key, cfg.SourcePath())
	}
	for _, lang := range langs {
		if lang == cfg.SourceLang {
			return SyncReport{}, fmt.Errorf("%s is the source language (%s), not a translation target", lang, cfg.SourcePath())
		}
	}
	if len(langs) == 0 {
		if langs, err = discover.Discover(cfg.Dir(), cfg.Pattern(), cfg.SourceLang); err != nil {
			return SyncReport{}, err
		}
	}
	report := s.run(ctx, cfg, src, []pending{{key: key, langs: langs}}, !force)
	report.Targets = langs
	return report, s.saveLock()
}

// Sync translates every source key that is missing or empty in a target,
// or whose source text changed since that target was last translated.
// With force every key is translated again. Targets that already hold a
// translation the lock does not know about are adopted as they are.
func (s *Syncer) Sync(ctx context.Context, cfg config.Config, force bool) (SyncReport, error) {
	src, err := arbfile.ParseFile(cfg.SourcePath())
	if err != nil {
		return SyncReport{}, err
	}
	targets, err := discover.Discover(cfg.Dir(), cfg.Pattern(), cfg.SourceLang)
	if err != nil {
		return SyncReport{}, err
	}

	if s.Lock == nil {
		s.Lock = lockfile.New()
	}
	var report SyncReport
	keys := src.Keys()
	work := make(map[string][]string)

	for _, lang := range targets {
		path := cfg.Pattern().Path(cfg.Dir(), lang)
		target, err := arbfile.ParseFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			target = arbfile.New()
		} else if err != nil {
			s.Logger.Warn().Err(err).Str("lang", lang).Str("file", path).Msg("target unreadable, translating all keys")
			target = arbfile.New()
		}
		for _, key := range keys {
			value, _ := src.Get(key)
			content := lockfile.EntryContent(key, value)
			existing, _ := target.Get(key)
			switch {
			case value == "":
			case force, existing == "":
				work[key] = append(work[key], lang)
			case !s.Lock.Has(lang, key):
				s.Lock.Update(lang, key, content)
				report.Adopted++
			case s.Lock.IsChanged(lang, key, content):
				work[key] = append(work[key], lang)
			}
		}
		s.Lock.Clean(lang, keys)
	}
	s.dropVanished(targets)

	var queue []pending
	for _, key := range keys {
		if langs := work[key]; len(langs) > 0 {
			queue = append(queue, pending{key: key, langs: langs})
		}
	}
	run := s.run(ctx, cfg, src, queue, false)
	run.Targets, run.Adopted = targets, report.Adopted
	return run, s.saveLock()
}

func (s *Syncer) run(ctx context.Context, cfg config.Config, src *arbfile.File, queue []pending, skipUnchanged bool) SyncReport {
	var report SyncReport
	total := 0
	for _, p := range queue {
		total += len(p.langs)
	}

	done := 0
	for _, p := range queue {
		if err := ctx.Err(); err != nil {
			report.Err = err
			break
		}
		value, _ := src.Get(p.key)
		names := src.Placeholders(p.key)
		if len(names) == 0 {
			names = extract.NamedPlaceholders(value)
		}

		orch := &translate.Orchestrator{
			Provider:      s.Provider,
			Logger:        s.Logger,
			OnParseError:  s.OnParseError,
			Lock:          s.Lock,
			SkipUnchanged: skipUnchanged,
			OnProgress: func(lang string, _, _ int) {
				done++
				if s.OnProgress != nil {
					s.OnProgress(p.key, lang, done, total)
				}
			},
		}
		r := orch.Run(ctx, translate.Job{
			Key:          p.key,
			Text:         value,
			Placeholders: names,
			SourceLang:   cfg.SourceLang,
			Dir:          cfg.Dir(),
			Pattern:      cfg.Pattern(),
		}, p.langs)

		report.Keys++
		report.Translated += len(r.Succeeded)
		report.Skipped += len(r.Skipped)
		for _, f := range r.Failed {
			report.Failed = append(report.Failed, KeyFailure{Key: p.key, Failure: f})
		}
		if r.Err != nil {
			report.Err = r.Err
			break
		}
	}
	return report
}

// dropVanished forgets lock entries of targets whose file is gone.
func (s *Syncer) dropVanished(targets []string) {
	current := make(map[string]bool, len(targets))
	for _, lang := range targets {
		current[lang] = true
	}
	for _, lang := range s.Lock.Targets() {
		if !current[lang] {
			s.Logger.Debug().Str("lang", lang).Msg("target removed, dropping its lock entries")
			s.Lock.RemoveTarget(lang)
		}
	}
}

func (s *Syncer) saveLock() error {
	if s.Lock == nil || s.Lock.Path() == "" {
		return nil
	}
	return s.Lock.Save()
}
