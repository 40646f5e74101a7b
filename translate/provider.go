// Package translate sends extracted strings to a machine translation
// provider and writes the results into every target-language ARB file.
package translate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/minios-linux/arbkit/langmeta"
)

// Request is one string to translate.
type Request struct {
	// Text is the placeholder-normalised source value.
	Text       string
	SourceLang string
	TargetLang string
}

// Provider translates a single string.
type Provider interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (string, error)

// Translate implements Provider.
func (f ProviderFunc) Translate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrorKind classifies provider failures.
type ErrorKind int

const (
	// KindTransport covers network failures and timeouts.
	KindTransport ErrorKind = iota
	// KindStatus is a non-success HTTP status.
	KindStatus
	// KindNoCandidate is a successful call without usable text.
	KindNoCandidate
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport failure"
	case KindStatus:
		return "non-success status"
	case KindNoCandidate:
		return "no candidate"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a provider failure for one target language.
type Error struct {
	Kind ErrorKind
	Lang string
	// Status is the HTTP status for KindStatus.
	Status int
	// Message is the provider's explanation, if any.
	Message string
	Err     error
}

func (e *Error) Error() string {
	var detail string
	switch e.Kind {
	case KindStatus:
		detail = fmt.Sprintf("status %d: %s", e.Status, e.Message)
	case KindTransport:
		detail = e.Kind.String()
		if e.Err != nil {
			detail += ": " + e.Err.Error()
		}
	default:
		detail = e.Kind.String()
		if e.Message != "" {
			detail += ": " + e.Message
		}
	}
	return fmt.Sprintf("translating to %s: %s", e.Lang, detail)
}

func (e *Error) Unwrap() error { return e.Err }

// SystemPrompt is sent as the system instruction. {{sourceLang}} and
// {{targetLang}} are replaced with display names.
const SystemPrompt = `You are a professional translator specializing in mobile and web app localization. You are translating a single UI string of a Flutter application from {{sourceLang}} to {{targetLang}}.

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for NATURALNESS and FLUENCY in {{targetLang}}, not word-for-word
- Keep the tone of the original: short, clear UI text
- Use software terminology that is standard in {{targetLang}}
- Keep brand names and proper nouns unchanged

TECHNICAL REQUIREMENTS:
- Every placeholder in curly braces, such as {name} or {count}, MUST appear in the translation exactly as written. Never translate, rename, or remove a placeholder.
- Preserve newlines and punctuation patterns.
- Return ONLY the translated text. No quotation marks around it, no explanations, no markdown.`

// BuildPrompt returns the system instruction and the user prompt for req.
func BuildPrompt(req Request) (system, user string) {
	source := langmeta.Resolve(req.SourceLang).Label()
	target := langmeta.Resolve(req.TargetLang).Label()

	system = strings.NewReplacer("{{sourceLang}}", source, "{{targetLang}}", target).Replace(SystemPrompt)

	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following text from %s to %s.\n", source, target)
	if names := placeholderPattern.FindAllString(req.Text, -1); len(names) > 0 {
		fmt.Fprintf(&b, "Keep these placeholders verbatim: %s\n", strings.Join(unique(names), ", "))
	}
	b.WriteString("\n")
	b.WriteString(req.Text)
	return system, b.String()
}

var placeholderPattern = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*\}`)

func unique(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

// quotePairs are the opening/closing marks StripQuotes removes.
var quotePairs = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"“", "”"},
	{"«", "»"},
	{"`", "`"},
}

var codeFence = regexp.MustCompile("(?s)^```[A-Za-z]*\\s*\\n(.*?)\\n?```$")

// StripQuotes removes one layer of surrounding quotes from s.
func StripQuotes(s string) string {
	for _, q := range quotePairs {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			return s[len(q[0]) : len(s)-len(q[1])]
		}
	}
	return s
}

// CleanResponse turns raw model output into the translation: surrounding
// whitespace and a markdown code fence are dropped, and one layer of
// quotes is stripped unless the source itself is quoted.
func CleanResponse(out, source string) string {
	out = strings.TrimSpace(out)
	if m := codeFence.FindStringSubmatch(out); m != nil {
		out = strings.TrimSpace(m[1])
	}
	if StripQuotes(strings.TrimSpace(source)) != strings.TrimSpace(source) {
		return out
	}
	return StripQuotes(out)
}
