package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FlutterL10n holds the gen-l10n settings arbkit understands from
// l10n.yaml.
type FlutterL10n struct {
	ArbDir          string `yaml:"arb-dir"`
	TemplateArbFile string `yaml:"template-arb-file"`
}

// Pubspec is the part of pubspec.yaml shown by "arbkit status".
type Pubspec struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// LoadFlutterL10n reads l10n.yaml from root. Returns nil if it does not
// exist.
func LoadFlutterL10n(root string) (*FlutterL10n, error) {
	path := filepath.Join(root, "l10n.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var fl FlutterL10n
	if err := yaml.Unmarshal(data, &fl); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &fl, nil
}

// apply copies arb-dir and the pattern derived from template-arb-file into
// cfg. A template such as "intl_en_US.arb" gives source language "en_US"
// and pattern "intl_{lang}.arb".
func (fl *FlutterL10n) apply(cfg *Config) {
	if fl.ArbDir != "" {
		cfg.ArbDir = fl.ArbDir
	}
	if pattern, lang, ok := splitTemplate(fl.TemplateArbFile); ok {
		cfg.FilePattern = pattern
		cfg.SourceLang = lang
	}
}

func splitTemplate(name string) (pattern, lang string, ok bool) {
	base, found := strings.CutSuffix(filepath.Base(name), ".arb")
	if !found || base == "" {
		return "", "", false
	}
	// The language is the shortest separator-led suffix that reads as a
	// locale, so "my_app_en" is "en" and "intl_en_US" is "en_US".
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] != '_' && base[i] != '-' {
			continue
		}
		if candidate := base[i+1:]; isLangSuffix(candidate) {
			return base[:i+1] + "{lang}.arb", candidate, true
		}
	}
	return "", "", false
}

func isLangSuffix(s string) bool {
	primary, region, _ := strings.Cut(strings.ReplaceAll(s, "-", "_"), "_")
	if len(primary) < 2 || len(primary) > 3 {
		return false
	}
	for _, r := range primary {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	if region == "" {
		return !strings.ContainsAny(s, "_-")
	}
	if len(region) < 2 || len(region) > 8 || strings.ContainsAny(region, "_-") {
		return false
	}
	for _, r := range region {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// LoadPubspec reads name and version from root/pubspec.yaml. Missing
// fields fall back to the directory name and "0.0.0".
func LoadPubspec(root string) Pubspec {
	ps := Pubspec{}
	if data, err := os.ReadFile(filepath.Join(root, "pubspec.yaml")); err == nil {
		_ = yaml.Unmarshal(data, &ps)
	}
	if ps.Name == "" {
		if abs, err := filepath.Abs(root); err == nil {
			ps.Name = filepath.Base(abs)
		}
	}
	if ps.Version == "" {
		ps.Version = "0.0.0"
	}
	return ps
}
