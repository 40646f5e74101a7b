package arbfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleARB = `{
  "@@locale": "en",
  "greeting": "Hello, {name}!",
  "@greeting": {
    "description": "A greeting message",
    "placeholders": {
      "name": {
        "type": "String"
      }
    }
  },
  "farewell": "Goodbye!",
  "@_END_OF_FILE": "marker"
}
`

func keysOf(f *File) []string {
	var keys []string
	for _, e := range f.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestParse_Basic(t *testing.T) {
	f, err := Parse([]byte(sampleARB))
	require.NoError(t, err)

	assert.Equal(t, "en", f.Locale())
	v, ok := f.Get("greeting")
	assert.True(t, ok)
	assert.Equal(t, "Hello, {name}!", v)
	assert.Equal(t, []string{"greeting", "farewell"}, f.Keys())
	assert.Equal(t, []string{"name"}, f.Placeholders("greeting"))
}

func TestParse_Kinds(t *testing.T) {
	f, err := Parse([]byte(sampleARB))
	require.NoError(t, err)

	kinds := map[string]string{}
	for _, e := range f.Entries() {
		switch e.Value.(type) {
		case Text:
			kinds[e.Key] = "text"
		case Metadata:
			kinds[e.Key] = "meta"
		case Attribute:
			kinds[e.Key] = "attr"
		case Sentinel:
			kinds[e.Key] = "sentinel"
		}
	}
	assert.Equal(t, map[string]string{
		"@@locale":      "attr",
		"greeting":      "text",
		"@greeting":     "meta",
		"farewell":      "text",
		"@_END_OF_FILE": "sentinel",
	}, kinds)
}

func TestParse_NonStringValueIsPreserved(t *testing.T) {
	f, err := Parse([]byte(`{"count": 3, "a": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, f.Keys())

	out, err := f.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"count": 3`)
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{`[]`, `{"a": }`, `{"a": "b"`, `{"a": "b"} {}`} {
		_, err := Parse([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestParse_EmptyContent(t *testing.T) {
	f, err := Parse([]byte("  \n"))
	require.NoError(t, err)
	assert.Zero(t, f.Len())
}

func TestStats(t *testing.T) {
	f, err := Parse([]byte(`{"@@locale":"en","a":"hello","b":"","c":"world"}`))
	require.NoError(t, err)
	total, translated, _ := f.Stats()
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, translated)
	assert.Equal(t, []string{"b"}, f.UntranslatedKeys())
}

func TestSet_InsertsBeforeSentinel(t *testing.T) {
	f, err := Parse([]byte(`{"a": "Hi", "@_END_OF_FILE": "marker"}`))
	require.NoError(t, err)

	require.True(t, f.Set("b", "Bye"))
	assert.Equal(t, []string{"a", "b", SentinelKey}, keysOf(f))

	require.True(t, f.Set("a", "Hello"))
	v, _ := f.Get("a")
	assert.Equal(t, "Hello", v)
	assert.Equal(t, []string{"a", "b", SentinelKey}, keysOf(f))
}

func TestSet_RefusesReservedKeys(t *testing.T) {
	f, err := Parse([]byte(sampleARB))
	require.NoError(t, err)
	assert.False(t, f.Set("@greeting", "x"))
	assert.False(t, f.Set(SentinelKey, "x"))
	assert.False(t, f.Set("@new", "x"))
}

func TestSetPlaceholders(t *testing.T) {
	f, err := Parse([]byte(`{"a": "Hi", "b": "Bye {who}", "@_END_OF_FILE": "marker"}`))
	require.NoError(t, err)

	assert.False(t, f.SetPlaceholders("missing", []string{"x"}))
	require.True(t, f.SetPlaceholders("b", []string{"who", "when"}))
	assert.Equal(t, []string{"a", "b", "@b", SentinelKey}, keysOf(f))
	assert.Equal(t, []string{"who", "when"}, f.Placeholders("b"))

	// Overwritten in place.
	require.True(t, f.SetPlaceholders("b", []string{"who"}))
	assert.Equal(t, []string{"a", "b", "@b", SentinelKey}, keysOf(f))
	assert.Equal(t, []string{"who"}, f.Placeholders("b"))
}

func TestSetPlaceholders_MovesOrphanedMetadata(t *testing.T) {
	f, err := Parse([]byte(`{"@b": {"description": "stale"}, "a": "Hi", "@_END_OF_FILE": "marker"}`))
	require.NoError(t, err)

	require.True(t, f.Set("b", "Bye {who}"))
	require.True(t, f.SetPlaceholders("b", []string{"who"}))
	assert.Equal(t, []string{"a", "b", "@b", SentinelKey}, keysOf(f))
	assert.Equal(t, []string{"who"}, f.Placeholders("b"))
}

func TestFindValue(t *testing.T) {
	f, err := Parse([]byte(`{"a": "Hi", "@a": {"description": "Hi"}, "b": "Hi"}`))
	require.NoError(t, err)

	key, ok := f.FindValue("Hi", "")
	assert.True(t, ok)
	assert.Equal(t, "a", key)

	key, ok = f.FindValue("Hi", "a")
	assert.True(t, ok)
	assert.Equal(t, "b", key)

	_, ok = f.FindValue("Nope", "")
	assert.False(t, ok)
}

func TestDetachAttachSentinel(t *testing.T) {
	f, err := Parse([]byte(sampleARB))
	require.NoError(t, err)

	s, ok := f.DetachSentinel()
	require.True(t, ok)
	assert.False(t, f.Has(SentinelKey))

	f.Set("late", "Added")
	f.AttachSentinel(s)
	keys := keysOf(f)
	assert.Equal(t, SentinelKey, keys[len(keys)-1])

	_, ok = New().DetachSentinel()
	assert.False(t, ok)
}

func TestMarshal_LocaleFirstSentinelLast(t *testing.T) {
	f, err := Parse([]byte(`{"@_END_OF_FILE": "m", "a": "A", "@@locale": "en"}`))
	require.NoError(t, err)

	out, err := f.Marshal()
	require.NoError(t, err)
	s := string(out)
	assert.Less(t, strings.Index(s, `"@@locale"`), strings.Index(s, `"a"`))
	assert.Less(t, strings.Index(s, `"a"`), strings.Index(s, `"@_END_OF_FILE"`))
}

func TestMarshal_RoundTrip(t *testing.T) {
	f, err := Parse([]byte(sampleARB))
	require.NoError(t, err)
	out, err := f.Marshal()
	require.NoError(t, err)
	assert.Equal(t, sampleARB, string(out))
}

func TestMarshal_DoesNotEscapeHTML(t *testing.T) {
	f := New()
	f.Set("tag", "<b>bold</b> & more")
	out, err := f.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"<b>bold</b> & more"`)
}

func TestMarshal_Empty(t *testing.T) {
	out, err := New().Marshal()
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(out))
}

// Scenario: {"a": "Hi", "@_END_OF_FILE": "marker"} plus b -> "Bye".
func TestWrite_SentinelStaysLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_en.arb")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": "Hi", "@_END_OF_FILE": "marker"}`), 0644))

	f, err := ReadOrCreate(path, nil)
	require.NoError(t, err)
	f.Set("b", "Bye {x}")
	f.SetPlaceholders("b", []string{"x"})
	require.NoError(t, Write(path, f))

	again, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "@b", SentinelKey}, keysOf(again))
}

func TestSentinelPreservedAcrossMutations(t *testing.T) {
	docs := []string{
		`{"@_END_OF_FILE": "m"}`,
		`{"@_END_OF_FILE": "m", "a": "x"}`,
		`{"a": "x", "@_END_OF_FILE": "m", "@a": {}, "b": "y"}`,
	}
	for _, doc := range docs {
		f, err := Parse([]byte(doc))
		require.NoError(t, err)
		f.Set("new", "value {p}")
		f.SetPlaceholders("new", []string{"p"})

		out, err := f.Marshal()
		require.NoError(t, err)
		reparsed, err := Parse(out)
		require.NoError(t, err)
		keys := keysOf(reparsed)
		assert.Equal(t, SentinelKey, keys[len(keys)-1], "doc %s", doc)
	}
}

func TestReadOrCreate_MissingFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib", "l10n", "app_en.arb")

	f, err := ReadOrCreate(path, nil)
	require.NoError(t, err)
	assert.Zero(t, f.Len())

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file should not be written by ReadOrCreate")
}

func TestReadOrCreate_ParseFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_en.arb")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0644))

	var gotPath string
	_, err := ReadOrCreate(path, func(p string, err error) Recovery {
		gotPath = p
		return RecoveryAbort
	})
	assert.True(t, errors.Is(err, ErrAborted))
	assert.Equal(t, path, gotPath)

	f, err := ReadOrCreate(path, func(string, error) Recovery { return RecoveryReset })
	require.NoError(t, err)
	assert.Zero(t, f.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{broken`, string(data), "reset must not touch the file before a write")
}

func TestWrite_FailureLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app_en.arb")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": "old"}`), 0644))

	// A directory in place of the file makes the final rename fail.
	blocked := filepath.Join(dir, "blocked.arb")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "child"), 0755))

	f := New()
	f.Set("a", "new")
	err := Write(blocked, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), blocked)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a": "old"}`, string(data))

	matches, _ := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	assert.Empty(t, matches, "temporary files must be cleaned up")
}
