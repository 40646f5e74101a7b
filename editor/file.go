package editor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/minios-linux/arbkit/extract"
)

// FileSelection selects a string literal in a source file, either by byte
// range or by a 1-based line and column that falls inside the literal.
type FileSelection struct {
	Path string

	// Start and End select the literal by byte offsets, quotes included.
	Start, End int

	// Line and Col are used when End is zero.
	Line, Col int
}

// Selection implements SelectionProvider.
func (s FileSelection) Selection(ctx context.Context) (Selection, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Selection{}, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	content := string(data)

	start, end := s.Start, s.End
	if end == 0 {
		offset, err := lineColOffset(content, s.Line, s.Col)
		if err != nil {
			return Selection{}, fmt.Errorf("%s: %w", s.Path, err)
		}
		var ok bool
		start, end, ok = literalAt(content, offset)
		if !ok {
			return Selection{}, fmt.Errorf("%s:%d:%d: %w", s.Path, s.Line, s.Col, ErrNoSelection)
		}
	}
	if start < 0 || end > len(content) || start >= end {
		return Selection{}, fmt.Errorf("%s: range %d:%d out of bounds: %w", s.Path, start, end, ErrNoSelection)
	}

	raw := content[start:end]
	text, rawString, ok := extract.Unquote(raw)
	if !ok {
		return Selection{}, fmt.Errorf("%s: %q is not a string literal: %w", s.Path, raw, ErrNoSelection)
	}
	if strings.TrimSpace(text) == "" {
		return Selection{}, fmt.Errorf("%s: empty string literal: %w", s.Path, ErrNoSelection)
	}
	return Selection{Path: s.Path, Start: start, End: end, Raw: raw, Text: text, RawString: rawString}, nil
}

// lineColOffset converts a 1-based line and column to a byte offset.
func lineColOffset(content string, line, col int) (int, error) {
	if line < 1 || col < 1 {
		return 0, fmt.Errorf("invalid position %d:%d", line, col)
	}
	offset := 0
	for l := 1; l < line; l++ {
		nl := strings.IndexByte(content[offset:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("line %d beyond end of file", line)
		}
		offset += nl + 1
	}
	lineEnd := strings.IndexByte(content[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(content) - offset
	}
	if col-1 > lineEnd {
		return 0, fmt.Errorf("column %d beyond end of line %d", col, line)
	}
	return offset + col - 1, nil
}

// literalAt scans content for Dart string literals and returns the span of
// the one containing offset. Line comments are skipped so apostrophes in
// them do not open a literal.
func literalAt(content string, offset int) (int, int, bool) {
	i := 0
	for i < len(content) {
		switch {
		case strings.HasPrefix(content[i:], "//"):
			nl := strings.IndexByte(content[i:], '\n')
			if nl < 0 {
				return 0, 0, false
			}
			i += nl + 1
			continue
		case content[i] == '\'' || content[i] == '"':
		default:
			i++
			continue
		}

		start := i
		raw := start > 0 && content[start-1] == 'r' && (start < 2 || !isIdentByte(content[start-2]))
		if raw {
			start--
		}
		end := literalEnd(content, i, raw)
		if end < 0 {
			return 0, 0, false
		}
		if offset >= start && offset < end {
			return start, end, true
		}
		i = end
	}
	return 0, 0, false
}

// literalEnd returns the offset just past the literal whose opening quote is
// at i, or -1 when it is not closed.
func literalEnd(content string, i int, raw bool) int {
	quote := content[i : i+1]
	if strings.HasPrefix(content[i:], strings.Repeat(quote, 3)) {
		quote = strings.Repeat(quote, 3)
	}
	j := i + len(quote)
	for j < len(content) {
		if !raw && content[j] == '\\' {
			j += 2
			continue
		}
		if len(quote) == 1 && content[j] == '\n' {
			return -1
		}
		if strings.HasPrefix(content[j:], quote) {
			return j + len(quote)
		}
		j++
	}
	return -1
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// FileReplacer splices replacement text into the selected file.
type FileReplacer struct{}

// Replace implements Replacer. It refuses to write when the selected range
// no longer holds the literal that was selected.
func (FileReplacer) Replace(ctx context.Context, sel Selection, text string) error {
	info, err := os.Stat(sel.Path)
	if err != nil {
		return fmt.Errorf("replacing in %s: %w", sel.Path, err)
	}
	data, err := os.ReadFile(sel.Path)
	if err != nil {
		return fmt.Errorf("replacing in %s: %w", sel.Path, err)
	}
	content := string(data)
	if sel.End > len(content) || content[sel.Start:sel.End] != sel.Raw {
		return fmt.Errorf("replacing in %s: selection changed on disk", sel.Path)
	}

	out := content[:sel.Start] + text + content[sel.End:]
	if err := os.WriteFile(sel.Path, []byte(out), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", sel.Path, err)
	}
	return nil
}

// FileImporter inserts import statements into Dart source files.
type FileImporter struct{}

// EnsureImport implements ImportInserter. The statement goes after the last
// existing import, or after the library directive and leading comments
// when the file has no imports.
func (FileImporter) EnsureImport(ctx context.Context, path, stmt string) (bool, error) {
	stmt = normalizeImport(stmt)
	if stmt == "" {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("adding import to %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("adding import to %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	insertAt := 0
	lastImport := -1
	header := true
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if importKey(trimmed) == importKey(stmt) {
			return false, nil
		}
		switch {
		case strings.HasPrefix(trimmed, "import "):
			lastImport = i
		case !header || trimmed == "":
		case strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "library "):
			insertAt = i + 1
		default:
			header = false
		}
	}
	if lastImport >= 0 {
		insertAt = lastImport + 1
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, stmt)
	out = append(out, lines[insertAt:]...)
	if err := os.WriteFile(path, []byte(strings.Join(out, "\n")), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// normalizeImport accepts either a full statement or a bare URI.
func normalizeImport(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return ""
	}
	if !strings.HasPrefix(stmt, "import ") {
		stmt = "import '" + strings.Trim(stmt, `'"`) + "'"
	}
	if !strings.HasSuffix(stmt, ";") {
		stmt += ";"
	}
	return stmt
}

// importKey makes quote style and spacing irrelevant when comparing imports.
func importKey(line string) string {
	if !strings.HasPrefix(line, "import ") {
		return ""
	}
	line = strings.ReplaceAll(line, `"`, "'")
	return strings.Join(strings.Fields(line), " ")
}
