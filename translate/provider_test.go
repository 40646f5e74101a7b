package translate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripQuotes(t *testing.T) {
	cases := map[string]string{
		`"Hola"`:       "Hola",
		`'Hola'`:       "Hola",
		"“Hola”":       "Hola",
		"«Bonjour»":    "Bonjour",
		"`Hallo`":      "Hallo",
		`""Hola""`:     `"Hola"`,
		`Hola`:         "Hola",
		`"`:            `"`,
		`"unbalanced'`: `"unbalanced'`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripQuotes(in), "StripQuotes(%q)", in)
	}
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, "Hola {name}", CleanResponse("  \"Hola {name}\"\n", "Hello {name}"))
	assert.Equal(t, "Hola", CleanResponse("```\nHola\n```", "Hello"))
	assert.Equal(t, "Hola", CleanResponse("```text\n'Hola'\n```", "Hello"))
	// A quoted source keeps the quotes of its translation.
	assert.Equal(t, `"Hola"`, CleanResponse(`"Hola"`, `"Hello"`))
}

func TestBuildPrompt(t *testing.T) {
	system, user := BuildPrompt(Request{
		Text:       "Order {code} for {name}, {code}",
		SourceLang: "en",
		TargetLang: "de",
	})

	assert.Contains(t, system, "from English to German (Deutsch)")
	assert.Contains(t, system, "MUST appear in the translation exactly as written")
	assert.Contains(t, system, "Return ONLY the translated text")
	assert.NotContains(t, system, "{{")

	assert.Contains(t, user, "Keep these placeholders verbatim: {code}, {name}\n")
	assert.Contains(t, user, "\n\nOrder {code} for {name}, {code}")
}

func TestBuildPrompt_NoPlaceholders(t *testing.T) {
	_, user := BuildPrompt(Request{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	assert.NotContains(t, user, "placeholders")
}

func TestErrorMessages(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := &Error{Kind: KindTransport, Lang: "es", Err: cause}
	assert.Equal(t, "translating to es: transport failure: dial tcp: timeout", err.Error())
	assert.ErrorIs(t, err, cause)

	err = &Error{Kind: KindStatus, Lang: "fr-CA", Status: 403, Message: "API key not valid"}
	assert.Equal(t, "translating to fr-CA: status 403: API key not valid", err.Error())

	err = &Error{Kind: KindNoCandidate, Lang: "de", Message: "empty text, finishReason SAFETY"}
	assert.Equal(t, "translating to de: no candidate: empty text, finishReason SAFETY", err.Error())
}
