// Package i18n translates arbkit's own prompts and messages.
//
// Catalogues are gettext .po files embedded from locales/ and selected
// from the environment by Init:
//
//	i18n.Init("")  // LANGUAGE, LC_ALL, LC_MESSAGES, LANG
//	fmt.Println(i18n.T("Create a new key"))
//	fmt.Println(i18n.N("%d target updated", "%d targets updated", n))
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales/{lang}/LC_MESSAGES/arbkit.po
//
//go:embed all:locales
var locales embed.FS

const domain = "arbkit"

// po is the gotext locale object used for translations.
var po *gotext.Locale

// Init selects the catalogue for lang, or for the environment when lang
// is empty. Unknown languages pass messages through unchanged.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T returns the translation of msgid, or msgid itself.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N picks the plural form of a message for n using the catalogue's
// Plural-Forms rule. Without a catalogue, singular is used for n == 1.
func N(singular, plural string, n int) string {
	if po != nil {
		return po.GetN(singular, plural, n)
	}
	if n == 1 {
		return singular
	}
	return plural
}

// localeVars are consulted in gettext order.
var localeVars = []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"}

// detectLanguage returns the first usable locale from the environment,
// without its encoding ("ru_RU.UTF-8" is "ru_RU"). C and POSIX are
// skipped; the default is "en".
func detectLanguage() string {
	for _, name := range localeVars {
		val := os.Getenv(name)
		if name == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		val, _, _ = strings.Cut(val, ".")
		switch val {
		case "", "C", "POSIX":
			continue
		}
		return val
	}
	return "en"
}
