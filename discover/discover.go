// Package discover finds the target-language ARB files that sit next to
// the source file and offers to create one when there are none.
package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/editor"
	"github.com/minios-linux/arbkit/i18n"
	"github.com/minios-linux/arbkit/langmeta"
)

// Token is the language placeholder in a filename pattern.
const Token = "{lang}"

const (
	langCapture = `([A-Za-z]{2,3}(?:[-_][A-Za-z0-9]{2,8})?)`
	extension   = ".arb"
)

// fallbackPattern recognises a language-like suffix before the extension.
var fallbackPattern = regexp.MustCompile(`[_-]([a-z]{2,3}(?:[-_][A-Za-z0-9]{2,8})?)\.arb$`)

// Pattern maps language codes to ARB filenames and back.
type Pattern struct {
	raw      string
	specific *regexp.Regexp
}

// NewPattern validates a filename pattern such as "app_{lang}.arb".
func NewPattern(s string) (Pattern, error) {
	if n := strings.Count(s, Token); n != 1 {
		return Pattern{}, fmt.Errorf("file pattern %q must contain %s exactly once", s, Token)
	}
	if !strings.HasSuffix(s, extension) {
		return Pattern{}, fmt.Errorf("file pattern %q must end in %s", s, extension)
	}
	if strings.ContainsAny(s, `/\`) {
		return Pattern{}, fmt.Errorf("file pattern %q must be a file name, not a path", s)
	}
	before, after, _ := strings.Cut(s, Token)
	re := regexp.MustCompile("^" + regexp.QuoteMeta(before) + langCapture + regexp.QuoteMeta(after) + "$")
	return Pattern{raw: s, specific: re}, nil
}

// MustPattern is NewPattern that panics on error.
func MustPattern(s string) Pattern {
	p, err := NewPattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string { return p.raw }

// FileName substitutes lang into the pattern.
func (p Pattern) FileName(lang string) string {
	return strings.Replace(p.raw, Token, lang, 1)
}

// Path joins dir with the filename for lang.
func (p Pattern) Path(dir, lang string) string {
	return filepath.Join(dir, p.FileName(lang))
}

// Match extracts the language code from a filename. The configured
// pattern always takes precedence; the generic suffix rule is consulted
// only when it does not match.
func (p Pattern) Match(name string) (string, bool) {
	if p.specific != nil {
		if m := p.specific.FindStringSubmatch(name); m != nil {
			return m[1], true
		}
	}
	if m := fallbackPattern.FindStringSubmatch(name); m != nil {
		return m[1], true
	}
	return "", false
}

// Discover lists the target languages with an ARB file in dir, in
// directory order, without duplicates. The source language's file is
// skipped. A missing directory yields no targets and no error.
func Discover(dir string, p Pattern, sourceLang string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	sourceName := p.FileName(sourceLang)
	seen := make(map[string]bool)
	var langs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, extension) || name == sourceName {
			continue
		}
		lang, ok := p.Match(name)
		if !ok || lang == sourceLang || seen[lang] {
			continue
		}
		seen[lang] = true
		langs = append(langs, lang)
	}
	return langs, nil
}

// AddTarget asks for one new target language, creates an empty ARB file
// for it when none exists and returns the code. It returns
// editor.ErrCancelled when the user backs out.
func AddTarget(ctx context.Context, dir string, p Pattern, sourceLang string, in editor.Inputter) (string, error) {
	validate := func(v string) error {
		v = strings.TrimSpace(v)
		if v == "" {
			return errors.New(i18n.T("language code must not be empty"))
		}
		if v == sourceLang {
			return fmt.Errorf(i18n.T("%s is the source language"), v)
		}
		return langmeta.Validate(v)
	}

	prompt := i18n.T("No target languages found. Add a language code (e.g. es, fr-CA)")
	lang, err := in.Input(ctx, prompt, "", validate)
	if err != nil {
		return "", err
	}
	lang = strings.TrimSpace(lang)

	path := p.Path(dir, lang)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := arbfile.Write(path, arbfile.New()); err != nil {
			return "", fmt.Errorf("creating %s: %w", path, err)
		}
	} else if err != nil {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}
	return lang, nil
}

// Targets returns the discovered target languages, falling back to
// AddTarget when there are none. A directory that cannot be read is
// logged and treated as empty. A nil in skips the prompt.
func Targets(ctx context.Context, dir string, p Pattern, sourceLang string, in editor.Inputter, log zerolog.Logger) ([]string, error) {
	langs, err := Discover(dir, p, sourceLang)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("target discovery failed")
		langs = nil
	}
	if len(langs) > 0 || in == nil {
		return langs, nil
	}

	lang, err := AddTarget(ctx, dir, p, sourceLang, in)
	if err != nil {
		return nil, err
	}
	log.Info().Str("lang", lang).Str("file", p.Path(dir, lang)).Msg("added target language")
	return []string{lang}, nil
}
