// Package lockfile implements .arbkit.lock, which tracks MD5 checksums of
// source strings per target language. It lets "arbkit sync" send only
// new or changed strings to the translation provider.
//
// The lock file is stored in the project root next to .arbkit.yaml.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = ".arbkit.lock"

// Version is the lock file format version.
const Version = 1

// LockFile maps target language -> ARB key -> checksum of the source
// entry the translation was made from.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"`

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// New returns an empty lock that is not backed by a file.
func New() *LockFile {
	return &LockFile{Version: Version, Checksums: make(map[string]map[string]string)}
}

// Load reads the lock file from dir. A missing file yields an empty lock.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported version %d", path, lf.Version)
	}
	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// EntryContent is the hashed content of an ARB entry. The key is part of
// it so a renamed key is translated again.
func EntryContent(key, value string) string {
	return key + "\x00" + value
}

// IsChanged reports whether the source content of key is new or differs
// from what lang was last translated from.
func (lf *LockFile) IsChanged(lang, key, sourceContent string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	oldHash, ok := lf.Checksums[lang][key]
	return !ok || oldHash != Hash(sourceContent)
}

// Has reports whether a checksum is recorded for key in lang.
func (lf *LockFile) Has(lang, key string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	_, ok := lf.Checksums[lang][key]
	return ok
}

// Update records the checksum of a source entry after a successful
// translation into lang.
func (lf *LockFile) Update(lang, key, sourceContent string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[lang] == nil {
		lf.Checksums[lang] = make(map[string]string)
	}
	lf.Checksums[lang][key] = Hash(sourceContent)
}

// Clean drops checksums for keys that no longer exist in the source.
func (lf *LockFile) Clean(lang string, currentKeys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[lang]
	if existing == nil {
		return
	}
	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}
	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
	if len(existing) == 0 {
		delete(lf.Checksums, lang)
	}
}

// RemoveTarget removes all checksums for lang.
func (lf *LockFile) RemoveTarget(lang string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, lang)
}

// Stats returns the number of languages and total keys in the lock file.
func (lf *LockFile) Stats() (langs, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	langs = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Targets returns the sorted list of languages in the lock file.
func (lf *LockFile) Targets() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets := make([]string, 0, len(lf.Checksums))
	for t := range lf.Checksums {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	langs, keys := lf.Stats()
	if langs == 0 {
		return "empty"
	}

	var parts []string
	for _, t := range lf.Targets() {
		lf.mu.Lock()
		n := len(lf.Checksums[t])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d keys", t, n))
	}
	return fmt.Sprintf("%d languages, %d keys (%s)", langs, keys, strings.Join(parts, ", "))
}
