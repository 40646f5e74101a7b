// Package langmeta resolves language codes to display names used in
// translation prompts and CLI output.
package langmeta

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the canonical BCP-47 form of the code, e.g. "pt-BR".
	Code string
	// English is the name in English, e.g. "Brazilian Portuguese".
	English string
	// Native is the name in the language itself, e.g. "português".
	Native string
}

// Label is "English (Native)", or just English when both are the same.
func (m Meta) Label() string {
	if m.Native == "" || strings.EqualFold(m.Native, m.English) {
		return m.English
	}
	return fmt.Sprintf("%s (%s)", m.English, m.Native)
}

// Canonicalize normalises separators and case: "pt_br" becomes "pt-BR".
func Canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		switch len(parts[i]) {
		case 2:
			parts[i] = strings.ToUpper(parts[i])
		case 4:
			parts[i] = strings.ToUpper(parts[i][:1]) + strings.ToLower(parts[i][1:])
		}
	}
	return strings.Join(parts, "-")
}

// Validate reports whether lang is a well-formed, known BCP-47 tag.
// Underscores are accepted as separators.
func Validate(lang string) error {
	code := Canonicalize(lang)
	if code == "" {
		return fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return fmt.Errorf("invalid language code %q: %w", lang, err)
	}
	if tag == language.Und {
		return fmt.Errorf("invalid language code %q", lang)
	}
	return nil
}

// Resolve returns display metadata for lang. Unknown codes resolve to a
// Meta whose names are the code itself.
func Resolve(lang string) Meta {
	code := Canonicalize(lang)
	m := Meta{Code: code, English: lang, Native: ""}

	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return m
	}
	if name := display.English.Tags().Name(tag); name != "" {
		m.English = name
	}
	m.Native = display.Self.Name(tag)
	return m
}
