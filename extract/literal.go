package extract

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// quoteDelimiters is ordered so that triple quotes are tried first.
var quoteDelimiters = []string{`'''`, `"""`, `'`, `"`}

// Unquote strips one layer of Dart string quoting, including the raw
// string prefix: 'a', "a", '''a''', """a""" and r'a' all yield a.
// It reports false for ok when literal is not a quoted string.
//
// The body of a raw literal is returned as written. Otherwise escape
// sequences are decoded, except \\ and \$, which are left for Convert.
func Unquote(literal string) (text string, raw, ok bool) {
	s := strings.TrimSpace(literal)
	if strings.HasPrefix(s, "r'") || strings.HasPrefix(s, `r"`) {
		s, raw = s[1:], true
	}
	for _, q := range quoteDelimiters {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			body := s[len(q) : len(s)-len(q)]
			if raw {
				return body, true, true
			}
			return unescape(body), false, true
		}
	}
	return "", false, false
}

var simpleEscapes = map[byte]string{
	'n': "\n", 'r': "\r", 't': "\t", 'b': "\b", 'f': "\f", 'v': "\v",
}

// unescape decodes the escape sequences of a non-raw Dart string body.
func unescape(body string) string {
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		next := body[i]
		switch {
		case next == '\\' || next == '$':
			b.WriteByte('\\')
			b.WriteByte(next)
		case simpleEscapes[next] != "":
			b.WriteString(simpleEscapes[next])
		case next == 'x' || next == 'u':
			r, n := codePoint(body[i+1:], next)
			if n == 0 {
				b.WriteByte(next)
				continue
			}
			if r == '\\' || r == '$' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
			i += n
		default:
			// Any other escaped character stands for itself.
			r, size := utf8.DecodeRuneInString(body[i:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	return b.String()
}

// codePoint parses the digits after \x (two hex digits) or \u (four hex
// digits or {1-6 hex digits}) and reports how many bytes it consumed.
func codePoint(s string, kind byte) (rune, int) {
	var (
		digits string
		n      int
	)
	switch {
	case kind == 'x' && len(s) >= 2:
		digits, n = s[:2], 2
	case kind == 'u' && strings.HasPrefix(s, "{"):
		end := strings.IndexByte(s, '}')
		if end < 2 || end > 7 {
			return 0, 0
		}
		digits, n = s[1:end], end+1
	case kind == 'u' && len(s) >= 4:
		digits, n = s[:4], 4
	default:
		return 0, 0
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil || v > utf8.MaxRune {
		return 0, 0
	}
	return rune(v), n
}

// Replacement returns the source expression that references key:
// prefix.key, or prefix.key(a, b) when the value has placeholders.
func Replacement(prefix, key string, args []string) string {
	expr := key
	if prefix = strings.TrimSuffix(prefix, "."); prefix != "" {
		expr = prefix + "." + key
	}
	if len(args) > 0 {
		expr += "(" + strings.Join(args, ", ") + ")"
	}
	return expr
}
