// Package arbfile implements reading and writing of Flutter ARB (Application
// Resource Bundle) files.
//
// ARB files are JSON objects with a specific structure:
//
//   - "@@locale" and other "@@" keys are global attributes.
//   - "@key" entries are metadata for the translatable entry "key"
//     (e.g. its placeholders) and are never translated.
//   - "@_END_OF_FILE" is a reserved sentinel that always stays last.
//   - All other string values are translatable.
//
// Round-trip fidelity: key order from the source file is preserved,
// metadata keys immediately follow their corresponding translatable key and
// raw JSON of metadata and attributes is kept verbatim.
package arbfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SentinelKey is the reserved end-of-file entry.
const SentinelKey = "@_END_OF_FILE"

// LocaleKey is the global attribute holding the file's language code.
const LocaleKey = "@@locale"

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// Value is the value of an ARB entry. It is one of Text, Metadata,
// Attribute or Sentinel.
type Value interface {
	arbValue()
}

// Text is a translatable string.
type Text string

// Metadata is the raw JSON object stored under "@key".
type Metadata json.RawMessage

// Attribute is a value that is neither translatable nor key metadata:
// "@@" globals and plain keys holding non-string JSON.
type Attribute json.RawMessage

// Sentinel is the raw JSON value of the "@_END_OF_FILE" entry.
type Sentinel json.RawMessage

func (Text) arbValue()      {}
func (Metadata) arbValue()  {}
func (Attribute) arbValue() {}
func (Sentinel) arbValue()  {}

// Entry is a single key in the ARB file.
type Entry struct {
	Key   string
	Value Value
}

// File represents a parsed ARB file.
type File struct {
	// entries stores all keys in document order.
	entries []Entry
	// index maps key → index in entries.
	index map[string]int
}

// New returns an empty ARB file.
func New() *File {
	return &File{index: make(map[string]int)}
}

// MetadataKey returns the metadata key for a translatable key.
func MetadataKey(key string) string { return "@" + key }

// classify picks the Value kind for a decoded key/raw value pair.
func classify(key string, raw json.RawMessage) Value {
	switch {
	case key == SentinelKey:
		return Sentinel(raw)
	case strings.HasPrefix(key, "@@"):
		return Attribute(raw)
	case strings.HasPrefix(key, "@"):
		return Metadata(raw)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return Attribute(raw)
	}
	return Text(s)
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses an ARB file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses ARB content from a byte slice. Empty or whitespace-only
// content is an empty file.
func Parse(data []byte) (*File, error) {
	f := New()
	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}

	// Token streaming keeps the key order that a map would lose.
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing ARB: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing ARB: expected '{', got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing ARB key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing ARB: expected string key, got %T", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing ARB value for %q: %w", key, err)
		}
		f.put(key, classify(key, raw))
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing ARB: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parsing ARB: trailing data after object")
	}
	return f, nil
}

// put stores a value, replacing an existing entry in place or appending.
func (f *File) put(key string, v Value) {
	if idx, ok := f.index[key]; ok {
		f.entries[idx].Value = v
		return
	}
	f.index[key] = len(f.entries)
	f.entries = append(f.entries, Entry{Key: key, Value: v})
}

// insertAt inserts a new entry at position pos.
func (f *File) insertAt(pos int, key string, v Value) {
	f.entries = append(f.entries, Entry{})
	copy(f.entries[pos+1:], f.entries[pos:])
	f.entries[pos] = Entry{Key: key, Value: v}
	f.reindex()
}

func (f *File) reindex() {
	f.index = make(map[string]int, len(f.entries))
	for i, e := range f.entries {
		f.index[e.Key] = i
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Locale returns the @@locale value.
func (f *File) Locale() string {
	idx, ok := f.index[LocaleKey]
	if !ok {
		return ""
	}
	var s string
	if a, ok := f.entries[idx].Value.(Attribute); ok {
		_ = json.Unmarshal(a, &s)
	}
	return s
}

// SetLocale sets the @@locale attribute.
func (f *File) SetLocale(lang string) {
	raw, _ := json.Marshal(lang)
	if _, ok := f.index[LocaleKey]; ok {
		f.put(LocaleKey, Attribute(raw))
		return
	}
	f.insertAt(0, LocaleKey, Attribute(raw))
}

// Entries returns a copy of all entries in document order.
func (f *File) Entries() []Entry {
	return append([]Entry(nil), f.entries...)
}

// Len returns the number of entries, including metadata and sentinel.
func (f *File) Len() int { return len(f.entries) }

// Has reports whether any entry, of any kind, is stored under key.
func (f *File) Has(key string) bool {
	_, ok := f.index[key]
	return ok
}

// Keys returns all translatable keys in document order.
func (f *File) Keys() []string {
	var keys []string
	for _, e := range f.entries {
		if _, ok := e.Value.(Text); ok {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// UntranslatedKeys returns translatable keys whose value is empty.
func (f *File) UntranslatedKeys() []string {
	var keys []string
	for _, e := range f.entries {
		if t, ok := e.Value.(Text); ok && t == "" {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Get returns the string value for a translatable key.
func (f *File) Get(key string) (string, bool) {
	idx, ok := f.index[key]
	if !ok {
		return "", false
	}
	t, ok := f.entries[idx].Value.(Text)
	return string(t), ok
}

// Set stores a translatable value. An existing translatable entry is
// updated in place; a new key is added before the sentinel. Set refuses
// (returns false) to overwrite metadata, attributes or the sentinel.
func (f *File) Set(key, value string) bool {
	if idx, ok := f.index[key]; ok {
		if _, isText := f.entries[idx].Value.(Text); !isText {
			return false
		}
		f.entries[idx].Value = Text(value)
		return true
	}
	if strings.HasPrefix(key, "@") {
		return false
	}
	if idx, ok := f.index[SentinelKey]; ok {
		f.insertAt(idx, key, Text(value))
		return true
	}
	f.put(key, Text(value))
	return true
}

// FindValue returns the first translatable key, other than excludeKey,
// whose value equals value.
func (f *File) FindValue(value, excludeKey string) (string, bool) {
	for _, e := range f.entries {
		if t, ok := e.Value.(Text); ok && e.Key != excludeKey && string(t) == value {
			return e.Key, true
		}
	}
	return "", false
}

// Stats returns (total, translated, percentTranslated).
func (f *File) Stats() (int, int, float64) {
	total, translated := 0, 0
	for _, e := range f.entries {
		if t, ok := e.Value.(Text); ok {
			total++
			if t != "" {
				translated++
			}
		}
	}
	pct := 0.0
	if total > 0 {
		pct = float64(translated) / float64(total) * 100
	}
	return total, translated, pct
}

// ---------------------------------------------------------------------------
// Metadata
// ---------------------------------------------------------------------------

type placeholderMeta struct {
	Type string `json:"type"`
}

// SetPlaceholders writes "@key" recording every name as a String
// placeholder. An existing "@key" that follows key is overwritten in
// place; otherwise the metadata goes right after key. It returns false
// when key is not a translatable entry, so metadata never exists without
// its base key.
func (f *File) SetPlaceholders(key string, names []string) bool {
	idx, ok := f.index[key]
	if !ok {
		return false
	}
	if _, isText := f.entries[idx].Value.(Text); !isText {
		return false
	}

	meta := marshalPlaceholders(names)
	metaKey := MetadataKey(key)
	if metaIdx, exists := f.index[metaKey]; exists {
		if metaIdx > idx {
			f.put(metaKey, meta)
			return true
		}
		// Orphaned "@key" left before key.
		f.entries = append(f.entries[:metaIdx], f.entries[metaIdx+1:]...)
		idx--
	}
	f.insertAt(idx+1, metaKey, meta)
	return true
}

// marshalPlaceholders builds {"placeholders": {...}} keeping name order,
// which encoding/json would sort for a map.
func marshalPlaceholders(names []string) Metadata {
	var buf bytes.Buffer
	buf.WriteString(`{"placeholders":{`)
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(name)
		v, _ := json.Marshal(placeholderMeta{Type: "String"})
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString(`}}`)
	return Metadata(buf.Bytes())
}

// Placeholders returns the placeholder names recorded in "@key", in file
// order.
func (f *File) Placeholders(key string) []string {
	idx, ok := f.index[MetadataKey(key)]
	if !ok {
		return nil
	}
	meta, ok := f.entries[idx].Value.(Metadata)
	if !ok {
		return nil
	}

	var outer struct {
		Placeholders json.RawMessage `json:"placeholders"`
	}
	if err := json.Unmarshal(meta, &outer); err != nil || len(outer.Placeholders) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(outer.Placeholders))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var names []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return names
		}
		name, _ := tok.(string)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return names
		}
		names = append(names, name)
	}
	return names
}

// ---------------------------------------------------------------------------
// Sentinel
// ---------------------------------------------------------------------------

// DetachSentinel removes the sentinel entry and returns it. ok is false
// when the file has none.
func (f *File) DetachSentinel() (s Sentinel, ok bool) {
	idx, found := f.index[SentinelKey]
	if !found {
		return nil, false
	}
	s, _ = f.entries[idx].Value.(Sentinel)
	f.entries = append(f.entries[:idx], f.entries[idx+1:]...)
	f.reindex()
	return s, true
}

// AttachSentinel appends s as the last entry, replacing any sentinel
// already present.
func (f *File) AttachSentinel(s Sentinel) {
	f.DetachSentinel()
	f.put(SentinelKey, s)
}

// moveSentinelLast re-appends the sentinel, if any, as the last entry.
func (f *File) moveSentinelLast() {
	if s, ok := f.DetachSentinel(); ok {
		f.put(SentinelKey, s)
	}
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serialises the ARB file to JSON with 2-space indentation.
// The @@locale key is always written first and the sentinel, if present,
// last.
func (f *File) Marshal() ([]byte, error) {
	f.moveSentinelLast()

	ordered := make([]Entry, 0, len(f.entries))
	if idx, ok := f.index[LocaleKey]; ok {
		ordered = append(ordered, f.entries[idx])
	}
	for _, e := range f.entries {
		if e.Key != LocaleKey {
			ordered = append(ordered, e)
		}
	}

	var buf bytes.Buffer
	if len(ordered) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("{\n")
	for i, e := range ordered {
		if i > 0 {
			buf.WriteString(",\n")
		}
		keyBytes, err := json.Marshal(e.Key)
		if err != nil {
			return nil, fmt.Errorf("encoding key %q: %w", e.Key, err)
		}
		buf.WriteString("  ")
		buf.Write(keyBytes)
		buf.WriteString(": ")

		raw, err := rawValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding value for %q: %w", e.Key, err)
		}
		// Pretty-print nested objects at the entry's depth.
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "  ", "  "); err != nil {
			return nil, fmt.Errorf("encoding value for %q: %w", e.Key, err)
		}
		buf.Write(pretty.Bytes())
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

// rawValue returns the JSON encoding of v.
func rawValue(v Value) ([]byte, error) {
	switch v := v.(type) {
	case Text:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		// Keep <, > and & readable in resource files.
		enc.SetEscapeHTML(false)
		if err := enc.Encode(string(v)); err != nil {
			return nil, err
		}
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	case Metadata:
		return nonEmpty(v), nil
	case Attribute:
		return nonEmpty(v), nil
	case Sentinel:
		return nonEmpty(v), nil
	default:
		return nil, fmt.Errorf("unknown value type %T", v)
	}
}

func nonEmpty(raw []byte) []byte {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []byte(`""`)
	}
	return raw
}
