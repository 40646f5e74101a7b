package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file.
const FileName = ".arbkit.yaml"

// loadFile overlays .arbkit.yaml from root onto cfg. A missing file is not
// an error; keys absent from the file keep their current value.
func loadFile(root string, cfg *Config) error {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Exists reports whether root has a .arbkit.yaml.
func Exists(root string) bool {
	_, err := os.Stat(filepath.Join(root, FileName))
	return err == nil
}

// Save writes cfg to root/.arbkit.yaml. The API key is never saved.
func Save(root string, cfg Config) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding %s: %w", FileName, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding %s: %w", FileName, err)
	}

	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
