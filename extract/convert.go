// Package extract turns a selected Dart string literal into an ARB value.
//
// It converts string interpolations (${expr} and $ident) into ARB named
// placeholders ({name}), suggests a camelCase resource key for the text,
// strips one layer of Dart quoting from a selection and builds the
// expression that replaces the selection in source code.
//
// Everything here is pure: no I/O, no errors.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// fallbackName is used when an expression yields no usable identifier.
const fallbackName = "variable"

// tokenPattern matches, in one left-to-right pass, an escaped backslash or
// dollar (\\ or \$), a braced interpolation (${expr}), a bare interpolation
// ($ident) or an existing ARB placeholder ({ident}).
var tokenPattern = regexp.MustCompile(`\\[\\$]|\$\{([^{}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)|\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// escapes undoes the two escapes Convert keeps in its text; rawEscapes
// adds them.
var (
	escapes    = strings.NewReplacer(`\\`, `\`, `\$`, `$`)
	rawEscapes = strings.NewReplacer(`\`, `\\`, `$`, `\$`)
)

// namedPattern matches ARB named placeholders only.
var namedPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Result is the outcome of a placeholder conversion.
//
// Originals and Names have the same length; Names[i] is the placeholder
// that stands for Originals[i] in Text. Both are ordered by first
// appearance in Text and contain no duplicates.
type Result struct {
	Originals []string
	Names     []string
	Text      string
}

// HasPlaceholders reports whether the converted text has any placeholder.
func (r Result) HasPlaceholders() bool { return len(r.Names) > 0 }

// Value is Text with its \\ and \$ escapes resolved: the string stored in
// the ARB file.
func (r Result) Value() string { return escapes.Replace(r.Text) }

// Convert replaces every interpolation in text with a named placeholder.
//
// Existing {name} placeholders are kept and recorded as their own
// originals. Escaped \\ and \$ are copied as they are, and a literal $
// written right before a placeholder becomes \$. Together this makes
// Convert idempotent: converting the returned Text again yields the same
// Text and the same names.
func Convert(text string) Result {
	var (
		res    Result
		byExpr = make(map[string]string) // original expression -> name
		used   = make(map[string]bool)   // names handed out so far
		out    strings.Builder
		last   int
	)

	record := func(expr, name string) {
		byExpr[expr] = name
		used[name] = true
		res.Originals = append(res.Originals, expr)
		res.Names = append(res.Names, name)
	}

	for _, m := range tokenPattern.FindAllStringSubmatchIndex(text, -1) {
		gap := text[last:m[0]]
		last = m[1]

		if m[2] < 0 && m[4] < 0 && m[6] < 0 {
			// Escape sequence.
			out.WriteString(gap)
			out.WriteString(text[m[0]:m[1]])
			continue
		}

		// A bare $ followed by {name} would read back as ${name}.
		if strings.HasSuffix(gap, "$") {
			gap = gap[:len(gap)-1] + `\$`
		}
		out.WriteString(gap)

		if m[6] >= 0 {
			// Already an ARB placeholder: keep it verbatim.
			name := text[m[6]:m[7]]
			if _, seen := byExpr[name]; !seen && !used[name] {
				record(name, name)
			}
			out.WriteString(text[m[0]:m[1]])
			continue
		}

		var expr string
		if m[2] >= 0 {
			expr = strings.TrimSpace(text[m[2]:m[3]])
		} else {
			expr = text[m[4]:m[5]]
		}

		name, seen := byExpr[expr]
		if !seen {
			name = uniqueName(PlaceholderName(expr), used)
			record(expr, name)
		}
		out.WriteString("{" + name + "}")
	}
	out.WriteString(text[last:])

	res.Text = out.String()
	return res
}

// ConvertRaw converts the body of a raw string literal, in which $ and \
// are plain characters. Only existing {name} placeholders are recorded.
func ConvertRaw(text string) Result { return Convert(rawEscapes.Replace(text)) }

// uniqueName returns name, or name suffixed with 2, 3, ... when it has
// already been handed out to a different expression.
func uniqueName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if !used[candidate] {
			return candidate
		}
	}
}

// PlaceholderName derives a placeholder identifier from an interpolated
// expression: "data.order.code" -> "code", "count + 1" -> "count",
// "user!.name!" -> "name".
func PlaceholderName(expr string) string {
	expr = strings.TrimSpace(expr)
	if i := strings.IndexAny(expr, "+-*/%"); i >= 0 {
		expr = strings.TrimSpace(expr[:i])
	}
	expr = strings.TrimSuffix(expr, "!")

	segments := strings.Split(expr, ".")
	last := segments[len(segments)-1]

	var b strings.Builder
	for _, r := range last {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		return fallbackName
	}
	return name
}

// NamedPlaceholders returns the distinct {name} placeholders in text in
// order of first appearance.
func NamedPlaceholders(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range namedPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
