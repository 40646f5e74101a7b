package arbfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrAborted is returned by ReadOrCreate when the caller chose not to
// recover from an unparsable file.
var ErrAborted = errors.New("aborted")

// Recovery is the caller's answer to an unparsable resource file.
type Recovery int

const (
	// RecoveryAbort leaves the file alone and stops the operation.
	RecoveryAbort Recovery = iota
	// RecoveryReset continues with an empty document; the broken file is
	// replaced on the next write.
	RecoveryReset
)

// ParseErrorFunc decides how to continue after path failed to parse.
type ParseErrorFunc func(path string, err error) Recovery

// AbortOnParseError is a ParseErrorFunc that never resets a file.
func AbortOnParseError(string, error) Recovery { return RecoveryAbort }

// ReadOrCreate loads the ARB file at path.
//
// A missing file is not an error: its directory is created and an empty
// document is returned (nothing is written yet). When the file exists but
// does not parse, onParseError decides between an empty document and
// ErrAborted; a nil onParseError aborts.
func ReadOrCreate(path string, onParseError ParseErrorFunc) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
		}
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f, perr := Parse(data)
	if perr == nil {
		return f, nil
	}
	if onParseError == nil {
		onParseError = AbortOnParseError
	}
	if onParseError(path, perr) == RecoveryReset {
		return New(), nil
	}
	return nil, fmt.Errorf("%s: %w: %v", path, ErrAborted, perr)
}

// Write serialises f and replaces the file at path.
//
// The sentinel, if present, is moved to the end first. The new content goes
// to a temporary file in the same directory which is then renamed over
// path, so a failed write leaves the previous file untouched.
func Write(path string, f *File) error {
	data, err := f.Marshal()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("writing %s: %w", path, err)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
